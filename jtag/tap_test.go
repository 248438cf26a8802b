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

package jtag_test

import (
	"testing"

	"github.com/luismarques/qemu-sub001/internal/test"
	"github.com/luismarques/qemu-sub001/jtag"
)

func newTestTAP(t *testing.T) *jtag.TAP {
	t.Helper()
	tap, err := jtag.NewTAP(jtag.Config{IRLength: 4, IDCode: 0xdeadbeef, IDCodeInst: 1})
	test.ExpectSuccess(t, err)
	return tap
}

// goToShiftDR walks the TAP from Test-Logic-Reset up to Capture-DR,
// assuming ir_hold already selects the desired handler. The Capture-DR ->
// Shift-DR transition is left to the caller, since that clock is where the
// captured register's bit 0 is first presented on TDO (no shift happens on
// that edge: the TAP is still in Capture-DR when the rising edge is
// evaluated).
func goToShiftDR(tap *jtag.TAP) {
	tap.Clock(false, false) // -> Run-Test/Idle
	tap.Clock(true, false)  // -> Select-DR-Scan
	tap.Clock(false, false) // -> Capture-DR
}

// shiftBits clocks the Capture-DR -> Shift-DR transition, then shifts bits
// TDI values (LSB first) into the selected register and returns the bits
// shifted out. The transition clock presents bit 0 without shifting; each
// later clock shifts one TDI bit in and presents the next captured bit.
func shiftBits(tap *jtag.TAP, value uint64, bits int) uint64 {
	var out uint64
	tdo := tap.Clock(false, false) // Capture-DR -> Shift-DR: presents bit 0
	for i := 0; i < bits; i++ {
		if tdo {
			out |= 1 << i
		}
		tdi := value&1 != 0
		value >>= 1
		last := i == bits-1
		tdo = tap.Clock(last, tdi)
	}
	return out
}

func TestFiveOnesReachesTestLogicReset(t *testing.T) {
	for start := 0; start < 16; start++ {
		tap := newTestTAP(t)
		// walk to an arbitrary state first
		for i := 0; i < start; i++ {
			tap.Clock(i%2 == 0, false)
		}
		for i := 0; i < 5; i++ {
			tap.Clock(true, false)
		}
		test.ExpectEquality(t, tap.State(), jtag.TestLogicReset)
	}
}

func TestIDCodeScan(t *testing.T) {
	tap := newTestTAP(t)
	// ir_hold already selects IDCODE out of reset
	goToShiftDR(tap)
	got := shiftBits(tap, 0, 32)
	test.ExpectEquality(t, got, uint64(0xdeadbeef))
}

func TestBypassScanPassesTDIWithOneClockDelay(t *testing.T) {
	tap := newTestTAP(t)

	// select BYPASS (IR=0) first
	tap.Clock(false, false) // Run-Test/Idle
	tap.Clock(true, false)  // Select-DR-Scan
	tap.Clock(true, false)  // Select-IR-Scan
	tap.Clock(false, false) // Capture-IR
	tap.Clock(false, false) // -> Shift-IR (transition clock, no shift yet)
	// shift 0000 into IR to select BYPASS
	for i := 0; i < 3; i++ {
		tap.Clock(false, false)
	}
	tap.Clock(true, false)  // last IR bit, -> Exit1-IR
	tap.Clock(true, false)  // -> Update-IR (ir_hold = 0)
	tap.Clock(false, false) // -> Run-Test/Idle

	goToShiftDR(tap)

	// The Capture-DR -> Shift-DR transition clock presents the
	// just-captured BYPASS value (always 0) without shifting anything in.
	tap.Clock(false, false)

	// Each bit is then driven the way a Remote BitBang host drives it:
	// lower TCK and sample TDO, then raise TCK to shift TDI in. A bit
	// shifted in on one rising edge is presented on the next falling edge,
	// so every sample shows the previous bit's TDI, demonstrating the
	// one-clock delay through the single-bit register.
	in := []bool{true, false, true, true}
	prev := false
	for i, tdi := range in {
		tms := i == len(in)-1
		tap.Step(false, tms, tdi)
		test.ExpectEquality(t, tap.TDO(), prev)
		tap.Step(true, tms, tdi)
		prev = tdi
	}
}

func TestUnknownIRLogsAndZeroesDR(t *testing.T) {
	tap := newTestTAP(t)

	// select an IR code with no registered handler (0b1010, not 0/1/0xf)
	tap.Clock(false, false) // Run-Test/Idle
	tap.Clock(true, false)  // Select-DR-Scan
	tap.Clock(true, false)  // Select-IR-Scan
	tap.Clock(false, false) // Capture-IR
	tap.Clock(false, false) // Shift-IR
	shiftIR := []bool{false, true, false, true}
	for i, tdi := range shiftIR {
		tap.Clock(i == len(shiftIR)-1, tdi)
	}
	tap.Clock(true, false)  // Exit1-IR -> Update-IR
	tap.Clock(false, false) // -> Run-Test/Idle

	goToShiftDR(tap)
	// The capture-to-shift transition clock presents the captured value
	// directly, before anything has been shifted in: an unknown IR must
	// capture zero regardless of what was last left in some other
	// handler's register.
	tdo := tap.Clock(false, true)
	test.ExpectEquality(t, tdo, false)
}

func TestRegisterHandlerRejectsCollision(t *testing.T) {
	tap := newTestTAP(t)
	err := tap.RegisterHandler(1, &jtag.Handler{Name: "dup", Length: 1})
	test.ExpectFailure(t, err)
}

func TestBadIRLengthRejected(t *testing.T) {
	_, err := jtag.NewTAP(jtag.Config{IRLength: 0, IDCode: 1, IDCodeInst: 1})
	test.ExpectFailure(t, err)

	_, err = jtag.NewTAP(jtag.Config{IRLength: 9, IDCode: 1, IDCodeInst: 1})
	test.ExpectFailure(t, err)
}

func TestZeroIDCodeRejected(t *testing.T) {
	_, err := jtag.NewTAP(jtag.Config{IRLength: 4, IDCode: 0, IDCodeInst: 1})
	test.ExpectFailure(t, err)
}
