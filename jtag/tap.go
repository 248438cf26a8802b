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

// Package jtag implements the IEEE 1149.1 TAP finite state machine and its
// instruction/data scan paths. It knows nothing about DMI or the Debug
// Module; the DTM registers its dtmcs/dmi scan registers as ordinary
// Handlers at realize time (see package dtm), which is how the cyclic DM/DTM/TAP
// relationship from the design notes is broken without back-pointers.
package jtag

import (
	"fmt"

	"github.com/luismarques/qemu-sub001/dbgerrors"
	"github.com/luismarques/qemu-sub001/logger"
)

// TAP drives the sixteen-state scan engine described in §3/§4.1 of the
// design. All state is private; external code interacts with it only
// through Step, Clock, Reset, TDO, State and RegisterHandler.
type TAP struct {
	state State

	irLength   int
	idcodeInst uint64
	idcode     uint32

	ir     uint64
	irHold uint64

	dr    uint64
	drLen int

	handlers map[uint64]*Handler
	current  *Handler // handler selected by the most recent successful capture

	tdo bool

	prevTCK bool
	trst    bool

	// OnSystemReset is invoked when SRST is asserted. It stands in for
	// "request a whole-system reset", an action outside the TAP's own
	// remit.
	OnSystemReset func()
}

// Config holds the construction-time parameters for a TAP: IR width, the
// IDCODE constant and which IR value selects IDCODE (conventionally 1).
type Config struct {
	IRLength   int
	IDCode     uint32
	IDCodeInst uint64
}

// NewTAP creates a TAP with the built-in BYPASS (IR=0, IR=all-ones) and
// IDCODE handlers installed. Configuration errors (bad IR length, a
// zero IDCODE) are fatal at realize time, per §7.
func NewTAP(cfg Config) (*TAP, error) {
	if cfg.IRLength < 1 || cfg.IRLength > 8 {
		return nil, dbgerrors.Errorf(dbgerrors.BadIRLength, cfg.IRLength)
	}
	if cfg.IDCode == 0 {
		return nil, dbgerrors.Errorf(dbgerrors.BadIDCode)
	}
	if cfg.IDCodeInst == 0 {
		return nil, dbgerrors.Errorf(dbgerrors.BadIDCode)
	}

	allOnes := (uint64(1) << cfg.IRLength) - 1

	t := &TAP{
		irLength:   cfg.IRLength,
		idcodeInst: cfg.IDCodeInst,
		idcode:     cfg.IDCode,
		handlers:   make(map[uint64]*Handler),
	}

	bypass := newBypassHandler()
	t.handlers[0] = bypass
	t.handlers[allOnes] = bypass
	t.handlers[cfg.IDCodeInst] = newIDCodeHandler(cfg.IDCode)

	// A freshly-constructed TAP behaves as though TRST had just been
	// pulsed: sitting in Test-Logic-Reset with IDCODE selected, per §3.
	t.resetToTestLogicReset()

	return t, nil
}

// RegisterHandler installs a data-register scan handler at the given IR
// code. Called by the DTM during realize to install dtmcs/dmi; the TAP
// places no further restriction on who may register beyond rejecting a
// collision with an already-registered code.
func (t *TAP) RegisterHandler(ircode uint64, h *Handler) error {
	if _, exists := t.handlers[ircode]; exists {
		return fmt.Errorf("jtag: IR code %#x already has a registered handler", ircode)
	}
	t.handlers[ircode] = h
	return nil
}

// Reset drives the TAP back to Test-Logic-Reset. trst is the asynchronous
// test reset pin; srst is the separate system reset pin, which does not
// affect TAP state but fires OnSystemReset.
func (t *TAP) Reset(trst, srst bool) {
	t.trst = trst
	if trst {
		t.resetToTestLogicReset()
	}
	if srst && t.OnSystemReset != nil {
		t.OnSystemReset()
	}
}

func (t *TAP) resetToTestLogicReset() {
	t.state = TestLogicReset
	t.ir = t.idcodeInst
	t.irHold = t.idcodeInst
	t.dr = 0
	t.current = t.handlers[t.idcodeInst]
}

// Step advances the TAP by one host-side call, which may or may not
// correspond to a TCK transition. TRST asserted inhibits all clocking.
func (t *TAP) Step(tck, tms, tdi bool) {
	if t.trst {
		return
	}

	rising := !t.prevTCK && tck
	falling := t.prevTCK && !tck
	t.prevTCK = tck

	if rising {
		switch t.state {
		case ShiftIR:
			t.ir = (t.ir >> 1) | (b2u64(tdi) << (t.irLength - 1))
		case ShiftDR:
			if t.drLen > 0 {
				t.dr = (t.dr >> 1) | (b2u64(tdi) << (t.drLen - 1))
			}
		}
		t.state = next(t.state, tms)
	}

	if falling {
		t.fallingEdgeAction()
	}
}

func (t *TAP) fallingEdgeAction() {
	switch t.state {
	case TestLogicReset:
		t.resetToTestLogicReset()

	case CaptureDR:
		h, ok := t.handlers[t.irHold]
		if !ok {
			logger.Logf("jtag", dbgerrors.Errorf(dbgerrors.UnknownIR, t.irHold).Error())
			t.dr = 0
			t.drLen = 1
			// An unknown IR behaves like BYPASS: the scan goes through
			// the BYPASS register, so no other handler's Update fires.
			t.current = t.handlers[0]
			return
		}
		t.current = h
		t.drLen = h.Length
		if h.Capture != nil {
			h.Capture(h)
		}
		t.dr = h.Value

	case ShiftDR:
		t.tdo = t.dr&1 != 0

	case UpdateDR:
		if t.current != nil {
			t.current.Value = t.dr
			if t.current.Update != nil {
				t.current.Update(t.current)
			}
		}

	case CaptureIR:
		t.ir = t.idcodeInst

	case ShiftIR:
		t.tdo = t.ir&1 != 0

	case UpdateIR:
		t.irHold = t.ir
	}
}

func b2u64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Clock drives one complete TCK pulse (a rising edge followed by a
// falling edge) with TMS and TDI held constant throughout, and returns
// the TDO value sampled after the falling edge. This is the unit most
// callers outside the bit-bang wire protocol actually want to drive the
// TAP with.
func (t *TAP) Clock(tms, tdi bool) bool {
	t.Step(true, tms, tdi)
	t.Step(false, tms, tdi)
	return t.tdo
}

// TDO returns the single bit currently presented on the TAP's output.
func (t *TAP) TDO() bool {
	return t.tdo
}

// State returns the TAP's current FSM state, mostly useful for tests and
// diagnostics.
func (t *TAP) State() State {
	return t.state
}
