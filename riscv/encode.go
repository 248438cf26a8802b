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

import "fmt"

// opcode field values (bits [6:0])
const (
	opLoad    = 0x03
	opLoadFP  = 0x07
	opStore   = 0x23
	opStoreFP = 0x27
	opImm     = 0x13
	opOP      = 0x33
	opLUI     = 0x37
	opAUIPC   = 0x17
	opBranch  = 0x63
	opJAL     = 0x6f
	opJALR    = 0x67
	opSystem  = 0x73
	opMiscMem = 0x0f
)

func checkReg(name string, r uint32) {
	if r > 31 {
		panic(fmt.Sprintf("riscv: register out of range in %s: x%d", name, r))
	}
}

func checkSigned(name string, imm int32, bits uint) {
	lo := -(int32(1) << (bits - 1))
	hi := (int32(1) << (bits - 1)) - 1
	if imm < lo || imm > hi {
		panic(fmt.Sprintf("riscv: immediate out of range in %s: %d (must fit in %d signed bits)", name, imm, bits))
	}
}

func rType(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func iType(imm int32, rs1, funct3, rd, opcode uint32) uint32 {
	return uint32(imm&0xfff)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func sType(imm int32, rs2, rs1, funct3, opcode uint32) uint32 {
	u := uint32(imm)
	imm11_5 := (u >> 5) & 0x7f
	imm4_0 := u & 0x1f
	return imm11_5<<25 | rs2<<20 | rs1<<15 | funct3<<12 | imm4_0<<7 | opcode
}

// Jal encodes "jal rd, offset". offset is a byte offset, relative to this
// instruction's address, and must be 2-byte aligned and fit in 21 signed
// bits (the J-type immediate range).
func Jal(rd uint32, offset int32) uint32 {
	checkReg("jal", rd)
	if offset&0x1 != 0 {
		panic("riscv: jal offset must be 2-byte aligned")
	}
	checkSigned("jal", offset, 21)

	u := uint32(offset)
	imm20 := (u >> 20) & 0x1
	imm10_1 := (u >> 1) & 0x3ff
	imm11 := (u >> 11) & 0x1
	imm19_12 := (u >> 12) & 0xff

	return imm20<<31 | imm10_1<<21 | imm11<<20 | imm19_12<<12 | rd<<7 | opJAL
}

// Jalr encodes "jalr rd, offset(rs1)".
func Jalr(rd, rs1 uint32, offset int32) uint32 {
	checkReg("jalr", rd)
	checkReg("jalr", rs1)
	checkSigned("jalr", offset, 12)
	return iType(offset, rs1, 0b000, rd, opJALR)
}

// Andi encodes "andi rd, rs1, imm".
func Andi(rd, rs1 uint32, imm int32) uint32 {
	checkReg("andi", rd)
	checkReg("andi", rs1)
	checkSigned("andi", imm, 12)
	return iType(imm, rs1, 0b111, rd, opImm)
}

// Addi encodes "addi rd, rs1, imm".
func Addi(rd, rs1 uint32, imm int32) uint32 {
	checkReg("addi", rd)
	checkReg("addi", rs1)
	checkSigned("addi", imm, 12)
	return iType(imm, rs1, 0b000, rd, opImm)
}

// Slli encodes "slli rd, rs1, shamt". shamt must be in [0,31].
func Slli(rd, rs1, shamt uint32) uint32 {
	checkReg("slli", rd)
	checkReg("slli", rs1)
	if shamt > 31 {
		panic("riscv: slli shamt out of range")
	}
	return rType(0b0000000, shamt, rs1, 0b001, rd, opImm)
}

// Srli encodes "srli rd, rs1, shamt". shamt must be in [0,31].
func Srli(rd, rs1, shamt uint32) uint32 {
	checkReg("srli", rd)
	checkReg("srli", rs1)
	if shamt > 31 {
		panic("riscv: srli shamt out of range")
	}
	return rType(0b0000000, shamt, rs1, 0b101, rd, opImm)
}

// LoadWidth identifies the width and signedness of a load/store synthesized
// by Load/Store/FLoad/FStore.
type LoadWidth int

// List of valid LoadWidth values.
const (
	Width8 LoadWidth = iota
	Width8U
	Width16
	Width16U
	Width32
	Width64
)

// Load encodes "l{b,h,w} rd, offset(rs1)" (or the unsigned variants).
func Load(width LoadWidth, rd, rs1 uint32, offset int32) uint32 {
	checkReg("load", rd)
	checkReg("load", rs1)
	checkSigned("load", offset, 12)

	var funct3 uint32
	switch width {
	case Width8:
		funct3 = 0b000
	case Width8U:
		funct3 = 0b100
	case Width16:
		funct3 = 0b001
	case Width16U:
		funct3 = 0b101
	case Width32:
		funct3 = 0b010
	default:
		panic("riscv: unsupported integer load width")
	}
	return iType(offset, rs1, funct3, rd, opLoad)
}

// Store encodes "s{b,h,w} rs2, offset(rs1)".
func Store(width LoadWidth, rs2, rs1 uint32, offset int32) uint32 {
	checkReg("store", rs2)
	checkReg("store", rs1)
	checkSigned("store", offset, 12)

	var funct3 uint32
	switch width {
	case Width8, Width8U:
		funct3 = 0b000
	case Width16, Width16U:
		funct3 = 0b001
	case Width32:
		funct3 = 0b010
	default:
		panic("riscv: unsupported integer store width")
	}
	return sType(offset, rs2, rs1, funct3, opStore)
}

// FLoad encodes "fl{w,d} fd, offset(rs1)".
func FLoad(width LoadWidth, fd, rs1 uint32, offset int32) uint32 {
	checkReg("fload", fd)
	checkReg("fload", rs1)
	checkSigned("fload", offset, 12)

	var funct3 uint32
	switch width {
	case Width32:
		funct3 = 0b010
	case Width64:
		funct3 = 0b011
	default:
		panic("riscv: unsupported floating-point load width")
	}
	return iType(offset, rs1, funct3, fd, opLoadFP)
}

// FStore encodes "fs{w,d} fs2, offset(rs1)".
func FStore(width LoadWidth, fs2, rs1 uint32, offset int32) uint32 {
	checkReg("fstore", fs2)
	checkReg("fstore", rs1)
	checkSigned("fstore", offset, 12)

	var funct3 uint32
	switch width {
	case Width32:
		funct3 = 0b010
	case Width64:
		funct3 = 0b011
	default:
		panic("riscv: unsupported floating-point store width")
	}
	return sType(offset, fs2, rs1, funct3, opStoreFP)
}

// Auipc encodes "auipc rd, imm".
func Auipc(rd uint32, imm int32) uint32 {
	checkReg("auipc", rd)
	checkSigned("auipc", imm>>12, 20)
	return uint32(imm)&0xfffff000 | rd<<7 | opAUIPC
}

// Lui encodes "lui rd, imm", where imm is the full 32-bit value whose
// upper 20 bits are loaded (the low 12 bits are zeroed). See
// LoadImmediate for a full 32-bit materialization sequence.
func Lui(rd uint32, imm int32) uint32 {
	checkReg("lui", rd)
	checkSigned("lui", imm>>12, 20)
	return uint32(imm)&0xfffff000 | rd<<7 | opLUI
}

// LoadImmediate returns the one- or two-instruction sequence (addi, or
// lui+addi) that materializes the 32-bit value into rd, following the
// same hi20/lo12 split as the standard "li" pseudo-instruction.
func LoadImmediate(rd uint32, value uint32) []uint32 {
	v := int64(int32(value))
	lo := v & 0xfff
	if lo >= 0x800 {
		lo -= 0x1000
	}
	hi := v - lo

	if hi == 0 {
		return []uint32{Addi(rd, 0, int32(lo))}
	}
	insns := []uint32{Lui(rd, int32(hi))}
	if lo != 0 {
		insns = append(insns, Addi(rd, rd, int32(lo)))
	}
	return insns
}

// bType encodes a branch immediate, which uses the same scrambled bit
// layout as J-type but over a 13-bit (2-byte-aligned) range.
func bType(imm int32, rs2, rs1, funct3, opcode uint32) uint32 {
	u := uint32(imm)
	imm12 := (u >> 12) & 0x1
	imm10_5 := (u >> 5) & 0x3f
	imm4_1 := (u >> 1) & 0xf
	imm11 := (u >> 11) & 0x1
	return imm12<<31 | imm10_5<<25 | rs2<<20 | rs1<<15 | funct3<<12 | imm4_1<<8 | imm11<<7 | opcode
}

// Beq encodes "beq rs1, rs2, offset". offset is a byte offset relative to
// this instruction, 2-byte aligned, fitting in 13 signed bits.
func Beq(rs1, rs2 uint32, offset int32) uint32 {
	checkReg("beq", rs1)
	checkReg("beq", rs2)
	if offset&0x1 != 0 {
		panic("riscv: beq offset must be 2-byte aligned")
	}
	checkSigned("beq", offset, 13)
	return bType(offset, rs2, rs1, 0b000, opBranch)
}

// Bne encodes "bne rs1, rs2, offset".
func Bne(rs1, rs2 uint32, offset int32) uint32 {
	checkReg("bne", rs1)
	checkReg("bne", rs2)
	if offset&0x1 != 0 {
		panic("riscv: bne offset must be 2-byte aligned")
	}
	checkSigned("bne", offset, 13)
	return bType(offset, rs2, rs1, 0b001, opBranch)
}

// Andi already exists above for mask tests; Beqz/Bnez are pseudo-ops
// against x0.

// Beqz encodes "beqz rs1, offset" (beq rs1, x0, offset).
func Beqz(rs1 uint32, offset int32) uint32 { return Beq(rs1, X0, offset) }

// Bnez encodes "bnez rs1, offset" (bne rs1, x0, offset).
func Bnez(rs1 uint32, offset int32) uint32 { return Bne(rs1, X0, offset) }

func checkCSR(csr uint32) {
	if csr > 0xfff {
		panic(fmt.Sprintf("riscv: csr number out of range: %#x", csr))
	}
}

// Csrrw encodes "csrrw rd, csr, rs1".
func Csrrw(rd, csr, rs1 uint32) uint32 {
	checkReg("csrrw", rd)
	checkReg("csrrw", rs1)
	checkCSR(csr)
	return iType(int32(csr), rs1, 0b001, rd, opSystem)
}

// Csrrs encodes "csrrs rd, csr, rs1".
func Csrrs(rd, csr, rs1 uint32) uint32 {
	checkReg("csrrs", rd)
	checkReg("csrrs", rs1)
	checkCSR(csr)
	return iType(int32(csr), rs1, 0b010, rd, opSystem)
}

// Csrr encodes the "csrr rd, csr" pseudo-instruction (csrrs rd, csr, x0).
func Csrr(rd, csr uint32) uint32 {
	return Csrrs(rd, csr, 0)
}

// Ebreak encodes the "ebreak" instruction.
func Ebreak() uint32 {
	return iType(1, 0, 0b000, 0, opSystem)
}

// Nop encodes the "nop" pseudo-instruction (addi x0, x0, 0).
func Nop() uint32 {
	return Addi(0, 0, 0)
}

// Illegal returns the reserved all-zero instruction word, guaranteed to
// raise an illegal-instruction trap on any RISC-V hart.
func Illegal() uint32 {
	return 0x00000000
}

// Dret encodes the debug-mode-only "dret" instruction, used by the park
// loop to return to the hart's halted-program context.
func Dret() uint32 {
	return 0x7b200073
}

// Fence encodes a full "fence iorw, iorw", used by the park loop before
// touching DM-visible memory on entry to the halt routine.
func Fence() uint32 {
	return 0x0ff0000f
}

// Add encodes "add rd, rs1, rs2".
func Add(rd, rs1, rs2 uint32) uint32 {
	checkReg("add", rd)
	checkReg("add", rs1)
	checkReg("add", rs2)
	return rType(0b0000000, rs2, rs1, 0b000, rd, opOP)
}
