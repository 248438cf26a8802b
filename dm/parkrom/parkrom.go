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

// Package parkrom synthesizes the static RV32I "park loop" ROM the hart
// executes whenever halted, per §4.6 of the design. The ROM is built once
// at DM realize time from the DM's memory-contract addresses (§6) and
// never changes afterwards; it is not disassembled or interpreted by this
// package, only assembled.
package parkrom

import "github.com/luismarques/qemu-sub001/riscv"

// Entry-point offsets from the ROM's base address (rom_phyaddr), fixed by
// the design.
const (
	EntryHalt      = 0x0
	EntryResume    = 0x4
	EntryException = 0x8
)

// DM-to-memory contract offsets from dm_phyaddr (§6).
const (
	HaltedOffset    = 0x100
	GoingOffset     = 0x104
	ResumingOffset  = 0x108
	ExceptionOffset = 0x10c
	FlagsOffset     = 0x400

	FlagGo     = 1 << 0
	FlagResume = 1 << 1
)

// Config holds the addresses the ROM needs to bake in as immediate
// constants: the DM's MMIO base (for HALTED/GOING/RESUMING/EXCEPTION and
// the FLAGS page) and the whereto cell the "going" path jumps through.
type Config struct {
	DMPhyAddr      uint32
	WheretoPhyAddr uint32
	NScratch       int // 1: shared flag slot; 2: per-hart flag slot
}

// asm is a minimal two-pass assembler: label() records the current word
// index under a name, emit() appends a word (or a multi-word sequence,
// e.g. from riscv.LoadImmediate); branch/jump helpers record a
// relocation resolved once every label's final address is known.
type asm struct {
	words  []uint32
	labels map[string]int // label -> word index
	relocs []reloc
}

type reloc struct {
	word   int
	target string
	kind   int // 0=jal, 2=bne (1 is unused)
	rd     uint32
	rs1    uint32
	rs2    uint32
}

func newAsm() *asm {
	return &asm{labels: make(map[string]int)}
}

func (a *asm) label(name string) {
	a.labels[name] = len(a.words)
}

func (a *asm) emit(insns ...uint32) {
	a.words = append(a.words, insns...)
}

func (a *asm) jal(rd uint32, target string) {
	a.relocs = append(a.relocs, reloc{word: len(a.words), target: target, kind: 0, rd: rd})
	a.words = append(a.words, 0) // placeholder, patched in resolve()
}

func (a *asm) bnez(rs1 uint32, target string) {
	a.relocs = append(a.relocs, reloc{word: len(a.words), target: target, kind: 2, rs1: rs1, rs2: riscv.X0})
	a.words = append(a.words, 0)
}

func (a *asm) resolve() []uint32 {
	for _, r := range a.relocs {
		targetWord, ok := a.labels[r.target]
		if !ok {
			panic("parkrom: undefined label " + r.target)
		}
		offset := int32(targetWord-r.word) * 4
		switch r.kind {
		case 0:
			a.words[r.word] = riscv.Jal(r.rd, offset)
		case 2:
			a.words[r.word] = riscv.Bne(r.rs1, r.rs2, offset)
		}
	}
	return a.words
}

// Build assembles the park-loop ROM for cfg. The returned slice is the
// sequence of 32-bit RV32I instruction words starting at rom_phyaddr;
// word index i sits at byte offset i*4.
func Build(cfg Config) []uint32 {
	a := newAsm()

	// Fixed entry vectors (§4.6): each is a single-instruction trampoline
	// so the contract offsets stay exactly 0/4/8 regardless of how large
	// the routine bodies grow.
	a.label("entryHalt")
	a.jal(riscv.X0, "halt")
	a.label("entryResume")
	a.jal(riscv.X0, "resumeEntry")
	a.label("entryException")
	a.jal(riscv.X0, "exception")

	a.label("halt")
	a.emit(riscv.Fence())
	a.emit(riscv.Csrrw(riscv.X0, riscv.CSRDscratch0, riscv.S0))
	a.emit(riscv.Csrrw(riscv.X0, riscv.CSRDscratch1, riscv.A0))
	a.emit(riscv.Csrr(riscv.S0, riscv.CSRMhartid))
	a.emit(riscv.LoadImmediate(riscv.A0, cfg.DMPhyAddr)...)

	a.label("haltLoop")
	a.emit(riscv.Store(riscv.Width32, riscv.S0, riscv.A0, HaltedOffset))
	if cfg.NScratch >= 2 {
		a.emit(riscv.Slli(riscv.T0, riscv.S0, 2))
		a.emit(riscv.Add(riscv.T1, riscv.A0, riscv.T0))
		a.emit(riscv.Load(riscv.Width32, riscv.A1, riscv.T1, FlagsOffset))
	} else {
		a.emit(riscv.Load(riscv.Width32, riscv.A1, riscv.A0, FlagsOffset))
	}
	a.emit(riscv.Andi(riscv.T0, riscv.A1, FlagGo))
	a.bnez(riscv.T0, "going")
	a.emit(riscv.Andi(riscv.T0, riscv.A1, FlagResume))
	a.bnez(riscv.T0, "resumeCommon")
	a.jal(riscv.X0, "haltLoop")

	a.label("going")
	a.emit(riscv.Store(riscv.Width32, riscv.X0, riscv.A0, GoingOffset))
	a.emit(riscv.LoadImmediate(riscv.T0, cfg.WheretoPhyAddr)...)
	a.emit(riscv.Csrr(riscv.S0, riscv.CSRDscratch0))
	a.emit(riscv.Csrr(riscv.A0, riscv.CSRDscratch1))
	a.emit(riscv.Jalr(riscv.X0, riscv.T0, 0))

	a.label("resumeEntry")
	a.emit(riscv.Fence())
	a.emit(riscv.Csrrw(riscv.X0, riscv.CSRDscratch0, riscv.S0))
	a.emit(riscv.Csrrw(riscv.X0, riscv.CSRDscratch1, riscv.A0))
	a.emit(riscv.Csrr(riscv.S0, riscv.CSRMhartid))
	a.emit(riscv.LoadImmediate(riscv.A0, cfg.DMPhyAddr)...)

	a.label("resumeCommon")
	a.emit(riscv.Store(riscv.Width32, riscv.S0, riscv.A0, ResumingOffset))
	a.emit(riscv.Csrr(riscv.S0, riscv.CSRDscratch0))
	a.emit(riscv.Csrr(riscv.A0, riscv.CSRDscratch1))
	a.emit(riscv.Dret())

	a.label("exception")
	a.emit(riscv.LoadImmediate(riscv.T0, cfg.DMPhyAddr)...)
	a.emit(riscv.Store(riscv.Width32, riscv.X0, riscv.T0, ExceptionOffset))
	a.emit(riscv.Csrr(riscv.S0, riscv.CSRDscratch0))
	a.emit(riscv.Csrr(riscv.A0, riscv.CSRDscratch1))
	a.emit(riscv.Ebreak())

	return a.resolve()
}

// Bytes returns Build(cfg) as a little-endian byte slice, ready to copy
// into an AddressSpace region at rom_phyaddr.
func Bytes(cfg Config) []byte {
	words := Build(cfg)
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		buf[i*4+0] = byte(w)
		buf[i*4+1] = byte(w >> 8)
		buf[i*4+2] = byte(w >> 16)
		buf[i*4+3] = byte(w >> 24)
	}
	return buf
}
