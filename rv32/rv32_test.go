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

package rv32_test

import (
	"testing"

	"github.com/luismarques/qemu-sub001/addrspace"
	"github.com/luismarques/qemu-sub001/internal/test"
	"github.com/luismarques/qemu-sub001/riscv"
	"github.com/luismarques/qemu-sub001/rv32"
)

func writeWords(mem *addrspace.Flat, origin uint32, words []uint32) {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		buf[i*4+0] = byte(w)
		buf[i*4+1] = byte(w >> 8)
		buf[i*4+2] = byte(w >> 16)
		buf[i*4+3] = byte(w >> 24)
	}
	mem.AddRegion(&addrspace.Region{Name: "prog", Origin: origin, Mem: buf})
}

func TestAddiAndEbreak(t *testing.T) {
	mem := addrspace.NewFlat()
	writeWords(mem, 0x1000, []uint32{
		riscv.Addi(riscv.A0, riscv.X0, 41),
		riscv.Addi(riscv.A0, riscv.A0, 1),
		riscv.Ebreak(),
	})

	core := rv32.New(0, mem)
	core.SetPC(0x1000)
	stop := core.Run(100)

	test.ExpectEquality(t, stop, rv32.StopEbreak)
	test.ExpectEquality(t, core.X[riscv.A0], uint32(42))
}

func TestLoadImmediateRoundTrip(t *testing.T) {
	mem := addrspace.NewFlat()
	insns := riscv.LoadImmediate(riscv.A0, 0xdeadb000)
	insns = append(insns, riscv.Ebreak())
	writeWords(mem, 0x2000, insns)

	core := rv32.New(0, mem)
	core.SetPC(0x2000)
	stop := core.Run(100)

	test.ExpectEquality(t, stop, rv32.StopEbreak)
	test.ExpectEquality(t, core.X[riscv.A0], uint32(0xdeadb000))
}

func TestStoreThenLoad(t *testing.T) {
	mem := addrspace.NewFlat()
	mem.AddRegion(&addrspace.Region{Name: "ram", Origin: 0x4000, Mem: make([]byte, 0x100)})

	insns := append(riscv.LoadImmediate(riscv.A0, 0x4000),
		riscv.Addi(riscv.T0, riscv.X0, 0x55))
	insns = append(insns,
		riscv.Store(riscv.Width32, riscv.T0, riscv.A0, 0x10),
		riscv.Load(riscv.Width32, riscv.T1, riscv.A0, 0x10),
		riscv.Ebreak(),
	)
	writeWords(mem, 0x3000, insns)

	core := rv32.New(0, mem)
	core.SetPC(0x3000)
	stop := core.Run(100)

	test.ExpectEquality(t, stop, rv32.StopEbreak)
	test.ExpectEquality(t, core.X[riscv.T1], uint32(0x55))
}

func TestBackwardBranchLoop(t *testing.T) {
	mem := addrspace.NewFlat()
	// t0 counts down from 3 to 0, looping via bnez.
	insns := []uint32{
		riscv.Addi(riscv.T0, riscv.X0, 3),      // 0x5000: t0 = 3
		riscv.Addi(riscv.T0, riscv.T0, -1),     // 0x5004: loop: t0--
		riscv.Bnez(riscv.T0, -4),               // 0x5008: if t0 != 0 goto loop
		riscv.Ebreak(),                         // 0x500c
	}
	writeWords(mem, 0x5000, insns)

	core := rv32.New(0, mem)
	core.SetPC(0x5000)
	stop := core.Run(100)

	test.ExpectEquality(t, stop, rv32.StopEbreak)
	test.ExpectEquality(t, core.X[riscv.T0], uint32(0))
}

func TestDebugInterruptEntersAtHaltVec(t *testing.T) {
	mem := addrspace.NewFlat()
	writeWords(mem, 0x6000, []uint32{riscv.Nop(), riscv.Nop(), riscv.Nop()})
	writeWords(mem, 0x9000, []uint32{riscv.Dret()})

	core := rv32.New(0, mem)
	core.SetPC(0x6000)
	core.DMHaltVec = 0x9000
	core.RaiseDebugInterrupt()

	stop := core.Run(100)
	test.ExpectEquality(t, stop, rv32.StopDebugEntry)
	test.ExpectEquality(t, core.PC, uint32(0x9000))

	stop = core.Run(100)
	test.ExpectEquality(t, stop, rv32.StopDret)
}

func TestCsrrwRoundTrip(t *testing.T) {
	mem := addrspace.NewFlat()
	writeWords(mem, 0x7000, []uint32{
		riscv.Addi(riscv.S0, riscv.X0, 7),
		riscv.Csrrw(riscv.X0, riscv.CSRDscratch0, riscv.S0),
		riscv.Csrr(riscv.A0, riscv.CSRDscratch0),
		riscv.Ebreak(),
	})

	core := rv32.New(0, mem)
	core.SetPC(0x7000)
	stop := core.Run(100)

	test.ExpectEquality(t, stop, rv32.StopEbreak)
	test.ExpectEquality(t, core.X[riscv.A0], uint32(7))
}

func TestEbreakInDebugModeRetrapsToHaltVec(t *testing.T) {
	mem := addrspace.NewFlat()
	writeWords(mem, 0x9000, []uint32{riscv.Nop()})
	writeWords(mem, 0xa000, []uint32{riscv.Ebreak()})

	core := rv32.New(0, mem)
	core.SetPC(0x9000)
	core.DMHaltVec = 0x9000
	core.RaiseDebugInterrupt()

	stop := core.Run(100) // enter debug mode
	test.ExpectEquality(t, stop, rv32.StopDebugEntry)

	core.SetPC(0xa000)
	stop = core.Run(100)
	test.ExpectEquality(t, stop, rv32.StopEbreak)
	test.ExpectEquality(t, core.PC, uint32(0x9000))
}

func TestMhartidCSR(t *testing.T) {
	mem := addrspace.NewFlat()
	writeWords(mem, 0x8000, []uint32{
		riscv.Csrr(riscv.A0, riscv.CSRMhartid),
		riscv.Ebreak(),
	})

	core := rv32.New(3, mem)
	core.SetPC(0x8000)
	stop := core.Run(100)

	test.ExpectEquality(t, stop, rv32.StopEbreak)
	test.ExpectEquality(t, core.X[riscv.A0], uint32(3))
}
