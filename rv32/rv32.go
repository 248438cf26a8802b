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

// Package rv32 is a minimal RV32I interpreter, standing in for "the
// emulated CPU" collaborator described in §6: just enough fetch/decode/
// execute to run the park-loop ROM and the abstract-command engine's
// synthesized snippets end to end in tests, and to implement
// hart.Interpreter.
//
// It is not a general-purpose emulator core: no traps beyond the ones the
// debug subsystem itself cares about (ebreak, illegal instruction),
// no privilege levels, no MMU, no RV32M/F extensions.
package rv32

import (
	"github.com/luismarques/qemu-sub001/addrspace"
	"github.com/luismarques/qemu-sub001/logger"
	"github.com/luismarques/qemu-sub001/riscv"
)

// Stop reasons returned by Run, mirroring the handful of events the park
// loop and abstract-command snippets actually produce.
type Stop int

const (
	// stopNone is what exec reports for an instruction that retires
	// without stopping Run; Run never returns it.
	stopNone Stop = iota
	// StopEbreak means the core hit an ebreak instruction. Outside debug
	// mode PC moves past it; in debug mode the core re-traps to
	// DMHaltVec. For abstract-command snippets (which run in debug mode)
	// this is the expected, successful termination condition.
	StopEbreak
	// StopDret means the core executed dret, leaving debug mode.
	StopDret
	// StopIllegal means the core decoded an instruction it doesn't
	// implement.
	StopIllegal
	// StopBudget means Run's instruction budget was exhausted without
	// reaching ebreak/dret: used to catch runaway snippets in tests
	// rather than spinning forever.
	StopBudget
	// StopDebugEntry means a debug interrupt was pending and taken:
	// control transferred to dmhaltvec.
	StopDebugEntry
)

// Core is one hart's RV32I execution state.
type Core struct {
	HartID uint32
	Mem    addrspace.AddressSpace

	X  [32]uint32
	PC uint32

	csrs map[uint32]uint32

	debugMode    bool
	debugPending bool
	singleStep   bool

	// DMHaltVec is the address the core jumps to when a pending debug
	// interrupt is taken (the park loop's halt entry, per §4.8 step 4).
	DMHaltVec uint32
}

// New creates a Core with PC at reset and X0 wired to read as zero.
func New(hartID uint32, mem addrspace.AddressSpace) *Core {
	return &Core{
		HartID: hartID,
		Mem:    mem,
		csrs:   make(map[uint32]uint32),
	}
}

// ExitTranslationBlock implements hart.Interpreter. This interpreter has
// no translation blocks to exit from; Run already checks debugPending
// before every instruction, so the request is satisfied immediately.
func (c *Core) ExitTranslationBlock() {}

// RaiseDebugInterrupt implements hart.Interpreter.
func (c *Core) RaiseDebugInterrupt() { c.debugPending = true }

// LowerDebugInterrupt implements hart.Interpreter.
func (c *Core) LowerDebugInterrupt() { c.debugPending = false }

// ArmSingleStep implements hart.Interpreter: when v is true, Run raises its
// own debug interrupt after retiring exactly one more instruction outside
// debug mode, standing in for real hardware's dcsr.step trap.
func (c *Core) ArmSingleStep(v bool) { c.singleStep = v }

// NextIsEbreak implements hart.Interpreter: it peeks the instruction at PC
// without executing it.
func (c *Core) NextIsEbreak() bool {
	insn, ok := c.fetch(c.PC)
	if !ok {
		return false
	}
	return insn == 0x00100073
}

// CSR reads a CSR by number, defaulting to zero for CSRs never written.
// mhartid (0xf14) is synthesized from HartID rather than stored, since
// it is wired to the core's identity, not writable state.
func (c *Core) CSR(n uint32) uint32 {
	if n == 0xf14 {
		return c.HartID
	}
	return c.csrs[n]
}

// SetCSR writes a CSR by number.
func (c *Core) SetCSR(n, v uint32) { c.csrs[n] = v }

// SetPC sets the program counter, e.g. when the DM patches whereto and
// wants the park loop's jump honoured from a known state in a test.
func (c *Core) SetPC(pc uint32) { c.PC = pc }

func (c *Core) reg(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return c.X[n]
}

func (c *Core) setReg(n, v uint32) {
	if n != 0 {
		c.X[n] = v
	}
}

func (c *Core) fetch(addr uint32) (uint32, bool) {
	buf := make([]byte, 4)
	if !c.Mem.Read(addr, addrspace.DM, buf) {
		return 0, false
	}
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24, true
}

// Run executes instructions until a stop condition or budget exhaustion.
// It is the only entry point a caller needs: the park loop's halt/resume/
// exception routines and abstract-command snippets are all just straight
// lines of RV32I that end in ebreak or dret.
func (c *Core) Run(budget int) Stop {
	for i := 0; i < budget; i++ {
		if c.debugPending && !c.debugMode {
			c.debugMode = true
			c.debugPending = false
			c.SetCSR(riscv.CSRDpc, c.PC) // mirrors hardware latching dpc=PC on debug entry
			c.PC = c.DMHaltVec
			return StopDebugEntry
		}

		insn, ok := c.fetch(c.PC)
		if !ok {
			logger.Logf("rv32", "hart %d: fetch fault at %#x", c.HartID, c.PC)
			return StopIllegal
		}

		stop, handled := c.exec(insn)
		if !handled {
			logger.Logf("rv32", "hart %d: illegal instruction %#08x at %#x", c.HartID, insn, c.PC)
			return StopIllegal
		}
		if stop == StopEbreak {
			// PC was already advanced by exec's own defer: past the
			// ebreak on an ordinary breakpoint, or redirected to
			// DMHaltVec when it re-trapped out of Debug Mode.
			return StopEbreak
		}
		if stop == StopDret {
			c.debugMode = false
			return StopDret
		}

		if c.singleStep && !c.debugMode {
			c.singleStep = false
			c.debugPending = true
		}
	}
	return StopBudget
}

// exec decodes and executes a single instruction, advancing PC itself
// (branches/jumps set PC directly; everything else falls through to
// PC+=4 below). handled is false for anything this interpreter doesn't
// implement.
func (c *Core) exec(insn uint32) (stop Stop, handled bool) {
	opcode := insn & 0x7f
	rd := (insn >> 7) & 0x1f
	funct3 := (insn >> 12) & 0x7
	rs1 := (insn >> 15) & 0x1f
	rs2 := (insn >> 20) & 0x1f
	funct7 := (insn >> 25) & 0x7f

	advance := true
	defer func() {
		if handled && advance {
			c.PC += 4
		}
	}()

	switch opcode {
	case 0x0f: // fence / fence.i: no-op for this interpreter
		return 0, true

	case 0x37: // lui
		c.setReg(rd, insn&0xfffff000)
		return 0, true

	case 0x17: // auipc
		c.setReg(rd, c.PC+(insn&0xfffff000))
		return 0, true

	case 0x6f: // jal
		imm := decodeJImm(insn)
		c.setReg(rd, c.PC+4)
		c.PC = uint32(int32(c.PC) + imm)
		advance = false
		return 0, true

	case 0x67: // jalr
		imm := signExtend(insn>>20, 12)
		target := (c.reg(rs1) + uint32(imm)) &^ 1
		c.setReg(rd, c.PC+4)
		c.PC = target
		advance = false
		return 0, true

	case 0x63: // branches
		imm := decodeBImm(insn)
		taken := false
		a, b := c.reg(rs1), c.reg(rs2)
		switch funct3 {
		case 0b000: // beq
			taken = a == b
		case 0b001: // bne
			taken = a != b
		case 0b100: // blt
			taken = int32(a) < int32(b)
		case 0b101: // bge
			taken = int32(a) >= int32(b)
		case 0b110: // bltu
			taken = a < b
		case 0b111: // bgeu
			taken = a >= b
		default:
			return 0, false
		}
		if taken {
			c.PC = uint32(int32(c.PC) + imm)
			advance = false
		}
		return 0, true

	case 0x03: // loads
		imm := int32(signExtend(insn>>20, 12))
		addr := uint32(int32(c.reg(rs1)) + imm)
		val, ok := c.load(addr, funct3)
		if !ok {
			return 0, false
		}
		c.setReg(rd, val)
		return 0, true

	case 0x23: // stores
		imm := decodeSImm(insn)
		addr := uint32(int32(c.reg(rs1)) + imm)
		if !c.store(addr, funct3, c.reg(rs2)) {
			return 0, false
		}
		return 0, true

	case 0x13: // immediate ALU ops
		imm := signExtend(insn>>20, 12)
		a := c.reg(rs1)
		switch funct3 {
		case 0b000: // addi
			c.setReg(rd, a+uint32(imm))
		case 0b111: // andi
			c.setReg(rd, a&uint32(imm))
		case 0b110: // ori
			c.setReg(rd, a|uint32(imm))
		case 0b100: // xori
			c.setReg(rd, a^uint32(imm))
		case 0b001: // slli
			c.setReg(rd, a<<(rs2&0x1f))
		case 0b101:
			shamt := rs2 & 0x1f
			if funct7&0x20 != 0 {
				c.setReg(rd, uint32(int32(a)>>shamt)) // srai
			} else {
				c.setReg(rd, a>>shamt) // srli
			}
		case 0b010: // slti
			c.setReg(rd, b2u(int32(a) < int32(imm)))
		case 0b011: // sltiu
			c.setReg(rd, b2u(a < uint32(imm)))
		default:
			return 0, false
		}
		return 0, true

	case 0x33: // register ALU ops
		a, b := c.reg(rs1), c.reg(rs2)
		switch {
		case funct3 == 0b000 && funct7 == 0x00: // add
			c.setReg(rd, a+b)
		case funct3 == 0b000 && funct7 == 0x20: // sub
			c.setReg(rd, a-b)
		case funct3 == 0b111: // and
			c.setReg(rd, a&b)
		case funct3 == 0b110: // or
			c.setReg(rd, a|b)
		case funct3 == 0b100: // xor
			c.setReg(rd, a^b)
		case funct3 == 0b001: // sll
			c.setReg(rd, a<<(b&0x1f))
		case funct3 == 0b101 && funct7 == 0x00: // srl
			c.setReg(rd, a>>(b&0x1f))
		case funct3 == 0b101 && funct7 == 0x20: // sra
			c.setReg(rd, uint32(int32(a)>>(b&0x1f)))
		case funct3 == 0b010: // slt
			c.setReg(rd, b2u(int32(a) < int32(b)))
		case funct3 == 0b011: // sltu
			c.setReg(rd, b2u(a < b))
		default:
			return 0, false
		}
		return 0, true

	case 0x73: // system: ebreak, dret, csr*
		csr := insn >> 20
		switch {
		case insn == 0x00100073: // ebreak
			if c.debugMode {
				// ebreak executed while already in Debug Mode re-traps to
				// dmhaltvec rather than leaving Debug Mode, so an
				// abstract-command snippet's trailing ebreak returns
				// control to the park loop's halt entry.
				c.PC = c.DMHaltVec
				advance = false
			}
			return StopEbreak, true
		case insn == 0x7b200073: // dret
			c.PC = c.CSR(riscv.CSRDpc)
			advance = false
			return StopDret, true
		case funct3 == 0b001: // csrrw
			old := c.CSR(csr)
			c.SetCSR(csr, c.reg(rs1))
			c.setReg(rd, old)
			return 0, true
		case funct3 == 0b010: // csrrs
			old := c.CSR(csr)
			if rs1 != 0 {
				c.SetCSR(csr, old|c.reg(rs1))
			}
			c.setReg(rd, old)
			return 0, true
		case funct3 == 0b011: // csrrc
			old := c.CSR(csr)
			if rs1 != 0 {
				c.SetCSR(csr, old&^c.reg(rs1))
			}
			c.setReg(rd, old)
			return 0, true
		default:
			return 0, false
		}

	default:
		return 0, false
	}
}

func b2u(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func signExtend(v uint32, bits uint) uint32 {
	shift := 32 - bits
	return uint32(int32(v<<shift) >> shift)
}

func decodeJImm(insn uint32) int32 {
	imm20 := (insn >> 31) & 0x1
	imm10_1 := (insn >> 21) & 0x3ff
	imm11 := (insn >> 20) & 0x1
	imm19_12 := (insn >> 12) & 0xff
	u := imm20<<20 | imm19_12<<12 | imm11<<11 | imm10_1<<1
	return int32(signExtend(u, 21))
}

func decodeBImm(insn uint32) int32 {
	imm12 := (insn >> 31) & 0x1
	imm10_5 := (insn >> 25) & 0x3f
	imm4_1 := (insn >> 8) & 0xf
	imm11 := (insn >> 7) & 0x1
	u := imm12<<12 | imm11<<11 | imm10_5<<5 | imm4_1<<1
	return int32(signExtend(u, 13))
}

func decodeSImm(insn uint32) int32 {
	imm11_5 := (insn >> 25) & 0x7f
	imm4_0 := (insn >> 7) & 0x1f
	u := imm11_5<<5 | imm4_0
	return int32(signExtend(u, 12))
}

func (c *Core) load(addr uint32, funct3 uint32) (uint32, bool) {
	var n int
	switch funct3 {
	case 0b000, 0b100:
		n = 1
	case 0b001, 0b101:
		n = 2
	case 0b010:
		n = 4
	default:
		return 0, false
	}
	buf := make([]byte, n)
	if !c.Mem.Read(addr, addrspace.DM, buf) {
		return 0, false
	}
	var v uint32
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint32(buf[i])
	}
	switch funct3 {
	case 0b000:
		v = signExtend(v, 8)
	case 0b001:
		v = signExtend(v, 16)
	}
	return v, true
}

func (c *Core) store(addr uint32, funct3 uint32, value uint32) bool {
	var n int
	switch funct3 {
	case 0b000:
		n = 1
	case 0b001:
		n = 2
	case 0b010:
		n = 4
	default:
		return false
	}
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		buf[i] = byte(value >> (8 * i))
	}
	return c.Mem.Write(addr, addrspace.DM, buf)
}
