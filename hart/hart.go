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

// Package hart models the per-hart state the Debug Module needs: halted/
// running/reset flags and the DCSR fields the DM maintains on the hart's
// behalf (§3 "Hart state", §4.8).
//
// It deliberately does not model hart execution. The CPU interpreter
// collaborator described in §6 (and stood in for, in this module, by
// package rv32) is injected as the Interpreter field so that the DM can
// drive it (exit translation block, raise a debug interrupt) without this
// package knowing how instructions are executed.
package hart

// DCSR.cause values, mirroring riscv.DcsrCause*.
const (
	CauseNone         = 0
	CauseEbreak       = 1
	CauseTrigger      = 2
	CauseHaltreq      = 3
	CauseStep         = 4
	CauseResethaltreq = 5
)

// Interpreter is the subset of "the emulated CPU" a Hart needs to drive
// halt/resume/reset and single-step, per §4.8. A real emulator's vCPU
// worker implements this; package rv32 provides a minimal stand-in
// sufficient to run the park loop and abstract-command snippets in tests.
type Interpreter interface {
	// ExitTranslationBlock asks the hart to stop executing its current
	// block as soon as possible, step 1 of "Halting a hart".
	ExitTranslationBlock()
	// RaiseDebugInterrupt and LowerDebugInterrupt control the CPU-local
	// DEBUG interrupt line (§4.8 steps 3 and "Resuming a hart" step 3).
	RaiseDebugInterrupt()
	LowerDebugInterrupt()
	// NextIsEbreak reports whether the instruction about to execute is
	// ebreak/c.ebreak, needed to implement "it is illegal to single-step
	// an ebreak" (§4.8, "Resuming a hart" step 2).
	NextIsEbreak() bool
	// ArmSingleStep tells the interpreter whether to re-raise its own
	// debug interrupt after the next instruction retires outside debug
	// mode, implementing dcsr.step (§4.8, scenario "Resume and
	// single-step").
	ArmSingleStep(bool)
}

// Hart is one hart's debug-visible state.
type Hart struct {
	ID uint32

	Interp Interpreter

	halted      bool
	resumed     bool
	haveReset   bool
	unlockReset bool // false: born in reset, released only by the power manager

	dcsrCause uint8
	dcsrStep  bool
	debugMode bool
}

// New creates a Hart, born in reset (unlockReset=false) until released by
// the power manager, per §4.8's reset flow.
func New(id uint32, interp Interpreter) *Hart {
	return &Hart{ID: id, Interp: interp, haveReset: true}
}

// Halted reports whether the hart is currently halted.
func (h *Hart) Halted() bool { return h.halted }

// Release marks the hart as released from reset by the power manager,
// allowing the DM to subsequently assert/de-assert hartreset on it.
func (h *Hart) Release() { h.unlockReset = true }

// Unlocked reports whether the power manager has released this hart.
func (h *Hart) Unlocked() bool { return h.unlockReset }

// HaveReset reports the sticky "has this hart been reset since the last
// ackhavereset" flag read by dmstatus.
func (h *Hart) HaveReset() bool { return h.haveReset }

// ClearHaveReset implements dmcontrol.ackhavereset for this hart (§9: must
// apply per-hart, not just the first).
func (h *Hart) ClearHaveReset() { h.haveReset = false }

// MarkReset sets the sticky have-reset flag. Package dm does not call it;
// a new Hart already starts with the flag set.
func (h *Hart) MarkReset() { h.haveReset = true }

// RequestHalt implements "Halting a hart" (§4.8 steps 1-4): it arms the
// DCSR cause and raises the debug interrupt so the hart enters the park
// loop; it does not block waiting for the HALTED acknowledgement.
func (h *Hart) RequestHalt(cause uint8) {
	if h.Interp != nil {
		h.Interp.ExitTranslationBlock()
	}
	h.dcsrCause = cause
	h.debugMode = true
	if h.Interp != nil {
		h.Interp.RaiseDebugInterrupt()
	}
}

// AckHalted is called when the park loop ROM reports HALTED. A hart that
// re-enters with dcsr.step still set got there via its own single-step
// trap rather than a fresh haltreq, so the cause is corrected to STEP.
func (h *Hart) AckHalted() {
	if h.dcsrStep {
		h.dcsrCause = CauseStep
	}
	h.halted = true
	h.resumed = false
}

// RequestResume implements "Resuming a hart" (§4.8): it does not itself
// write the whereto cell (the DM does that, since it owns program
// memory); it only clears an illegal single-step, arms the interpreter's
// own single-step retrap, and lowers the debug interrupt, arming the hart
// to act on FLAG.RESUME once set.
func (h *Hart) RequestResume() bool {
	if !h.halted {
		return false
	}
	if h.dcsrStep && h.Interp != nil && h.Interp.NextIsEbreak() {
		h.dcsrStep = false
	}
	if h.Interp != nil {
		h.Interp.ArmSingleStep(h.dcsrStep)
		h.Interp.LowerDebugInterrupt()
	}
	return true
}

// AckResuming is called when the park loop ROM reports RESUMING.
func (h *Hart) AckResuming() {
	h.halted = false
	h.resumed = true
	h.debugMode = false
}

// SetStep sets DCSR.step, as written by an ACCESS_REGISTER to CSRDcsr.
func (h *Hart) SetStep(v bool) { h.dcsrStep = v }

// Step reports DCSR.step.
func (h *Hart) Step() bool { return h.dcsrStep }

// DCSR packs the fields the DM maintains, per §4.8: XDEBUGVER=4,
// STOPTIME=0, STOPCOUNT=0, MPRVEN=0, CAUSE as last set.
func (h *Hart) DCSR() uint32 {
	const xdebugver4 = 4
	v := uint32(xdebugver4) << 28
	v |= uint32(h.dcsrCause) << 6
	if h.dcsrStep {
		v |= 1 << 2
	}
	if h.debugMode {
		v |= 1 << 30 // bit 30 lies inside XDEBUGVER, already set by xdebugver=4: no visible change
	}
	return v
}

// SetDCSR unpacks a value written by an ACCESS_REGISTER write to CSRDcsr,
// honouring only the fields this implementation actually maintains.
func (h *Hart) SetDCSR(v uint32) {
	h.dcsrCause = uint8((v >> 6) & 0x7)
	h.dcsrStep = v&(1<<2) != 0
}

// Resumed reports whether the hart has resumed at least once since the
// last time it was halted, for dmstatus.allresumeack/anyresumeack.
func (h *Hart) Resumed() bool { return h.resumed }

// ClearResumeAck clears the resume-acknowledged flag, called when the DM
// issues a new haltreq so a stale resumeack doesn't leak forward.
func (h *Hart) ClearResumeAck() { h.resumed = false }
