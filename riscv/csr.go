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

package riscv

// CSR numbers referenced directly by the debug subsystem.
const (
	CSRDcsr      = 0x7b0
	CSRDpc       = 0x7b1
	CSRDscratch0 = 0x7b2
	CSRDscratch1 = 0x7b3
	CSRMisa      = 0x301
	CSRMstatus   = 0x300
	CSRMepc      = 0x341
	CSRMcause    = 0x342
	CSRMhartid   = 0xf14
)

// DCSR.cause encoding (field [8:6]).
const (
	DcsrCauseNone         = 0
	DcsrCauseEbreak       = 1
	DcsrCauseTrigger      = 2
	DcsrCauseHaltreq      = 3
	DcsrCauseStep         = 4
	DcsrCauseResethaltreq = 5
)

// DCSR field layout.
const (
	DcsrXdebugverShift = 28
	DcsrEbreakmShift   = 15
	DcsrStepieShift    = 11
	DcsrStopcountShift = 10
	DcsrStoptimeShift  = 9
	DcsrCauseShift     = 6
	DcsrStepShift      = 2
	DcsrDebugmShift    = 0 // prv[1:0] occupies bits 0-1; debug-mode tracked out of band

	DcsrXdebugver4 = 4
)

// GPR name helper, x0..x31.
func GPR(n uint32) uint32 {
	if n > 31 {
		panic("riscv: gpr number out of range")
	}
	return n
}

// Common GPR numbers used when synthesizing abstract-command snippets.
const (
	X0 = 0
	S0 = 8
	A0 = 10
	A1 = 11
	T0 = 5
	T1 = 6
)
