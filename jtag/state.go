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

// State is one of the sixteen states of the IEEE 1149.1 TAP finite state
// machine.
type State int

// List of valid State values.
const (
	TestLogicReset State = iota
	RunTestIdle
	SelectDRScan
	CaptureDR
	ShiftDR
	Exit1DR
	PauseDR
	Exit2DR
	UpdateDR
	SelectIRScan
	CaptureIR
	ShiftIR
	Exit1IR
	PauseIR
	Exit2IR
	UpdateIR
)

func (s State) String() string {
	switch s {
	case TestLogicReset:
		return "Test-Logic-Reset"
	case RunTestIdle:
		return "Run-Test/Idle"
	case SelectDRScan:
		return "Select-DR-Scan"
	case CaptureDR:
		return "Capture-DR"
	case ShiftDR:
		return "Shift-DR"
	case Exit1DR:
		return "Exit1-DR"
	case PauseDR:
		return "Pause-DR"
	case Exit2DR:
		return "Exit2-DR"
	case UpdateDR:
		return "Update-DR"
	case SelectIRScan:
		return "Select-IR-Scan"
	case CaptureIR:
		return "Capture-IR"
	case ShiftIR:
		return "Shift-IR"
	case Exit1IR:
		return "Exit1-IR"
	case PauseIR:
		return "Pause-IR"
	case Exit2IR:
		return "Exit2-IR"
	case UpdateIR:
		return "Update-IR"
	}
	panic("jtag: unknown state")
}

// next returns the state reached from s when TMS is driven to the given
// value on a rising TCK edge.
func next(s State, tms bool) State {
	switch s {
	case TestLogicReset:
		if tms {
			return TestLogicReset
		}
		return RunTestIdle
	case RunTestIdle:
		if tms {
			return SelectDRScan
		}
		return RunTestIdle
	case SelectDRScan:
		if tms {
			return SelectIRScan
		}
		return CaptureDR
	case CaptureDR:
		if tms {
			return Exit1DR
		}
		return ShiftDR
	case ShiftDR:
		if tms {
			return Exit1DR
		}
		return ShiftDR
	case Exit1DR:
		if tms {
			return UpdateDR
		}
		return PauseDR
	case PauseDR:
		if tms {
			return Exit2DR
		}
		return PauseDR
	case Exit2DR:
		if tms {
			return UpdateDR
		}
		return ShiftDR
	case UpdateDR:
		if tms {
			return SelectDRScan
		}
		return RunTestIdle
	case SelectIRScan:
		if tms {
			return TestLogicReset
		}
		return CaptureIR
	case CaptureIR:
		if tms {
			return Exit1IR
		}
		return ShiftIR
	case ShiftIR:
		if tms {
			return Exit1IR
		}
		return ShiftIR
	case Exit1IR:
		if tms {
			return UpdateIR
		}
		return PauseIR
	case PauseIR:
		if tms {
			return Exit2IR
		}
		return PauseIR
	case Exit2IR:
		if tms {
			return UpdateIR
		}
		return ShiftIR
	case UpdateIR:
		if tms {
			return SelectDRScan
		}
		return RunTestIdle
	}
	panic("jtag: unknown state")
}
