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

package dbgerrors

// message heads, grouped by the component that raises them.
const (
	// realize-time configuration errors. fatal: the process should abort
	// rather than start serving a misconfigured debug module.
	BadIRLength       = "bad IR length (%d)"
	BadIDCode         = "bad IDCODE (must be non-zero)"
	OverlappingDMRange = "overlapping DM address range (base %#x)"
	BadDataCount      = "data_count out of range (%d)"
	BadProgbufCount   = "progbuf_count out of range (%d)"
	HartCountMismatch = "hart count does not match CPU enumeration (%d != %d)"
	BadAbits          = "abits out of range (%d)"

	// TAP / transport errors, non-fatal
	UnknownIR          = "unknown IR code (%#x)"
	UnknownBitbangByte = "unknown remote bitbang byte (%q)"
	TAPNotEnabled      = "write received before TAP was enabled"

	// DTM / DMI errors, non-fatal (flow through dmistat instead)
	DMIUnroutedAddress = "no DM registered for DMI address %#x"
	DMIReserved        = "reserved DMI op"

	// DM register errors
	UnhandledRegister = "no handler for DM register %#x"

	// abstract-command errors
	CommandBusy        = "abstract command already in flight"
	NoHartSelected     = "no hart selected"
	HartNotHalted      = "selected hart is not halted"
	NoDataArea         = "data_phyaddr not configured"
	UnsupportedCommand = "unsupported abstract command (%v)"

	// system bus access errors
	SBABusy      = "system bus access already busy"
	SBABadAlign  = "misaligned system bus access (addr %#x, size %d)"
	SBABadSize   = "unsupported system bus access size (%d)"
	SBABadAddr   = "system bus access to unmapped address (%#x)"
)
