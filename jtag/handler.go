// This file is part of qemu-sub001.
//
// qemu-sub001 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// qemu-sub001 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with qemu-sub001.  If not, see <https://www.gnu.org/licenses/>.

package jtag

// Handler is a single data-register scan handler, selected by the IR
// value currently latched into ir_hold. The Capture and Update hooks are
// invoked in the Capture-DR and Update-DR states respectively: Capture
// should refresh Value with whatever the handler wants shifted out next;
// Update is called once the debugger has shifted a new Value in.
//
// UserData is an untyped slot for a handler's own state, so this package
// knows nothing about DMI or DM registers. The DTM's handlers leave it
// unused: their hooks are method values bound to the DTM itself.
type Handler struct {
	Name     string
	Length   int
	Value    uint64
	UserData any

	Capture func(h *Handler)
	Update  func(h *Handler)
}

// idcodeInstDefault is used for the built-in IDCODE instruction unless the
// TAP is configured otherwise.
const idcodeInstDefault = 1

// bypassHandler and idcodeHandler are installed by NewTAP and never
// removed; every TAP has at least these two data registers.
func newBypassHandler() *Handler {
	h := &Handler{Name: "BYPASS", Length: 1}
	h.Capture = func(h *Handler) {
		h.Value = 0
	}
	return h
}

func newIDCodeHandler(idcode uint32) *Handler {
	h := &Handler{Name: "IDCODE", Length: 32}
	h.Capture = func(h *Handler) {
		h.Value = uint64(idcode)
	}
	return h
}
