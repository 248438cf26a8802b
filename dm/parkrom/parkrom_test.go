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

package parkrom_test

import (
	"testing"

	"github.com/luismarques/qemu-sub001/dm/parkrom"
	"github.com/luismarques/qemu-sub001/internal/test"
)

func decodeJal(insn uint32) (rd uint32, offset int32) {
	rd = (insn >> 7) & 0x1f
	imm20 := (insn >> 31) & 0x1
	imm10_1 := (insn >> 21) & 0x3ff
	imm11 := (insn >> 20) & 0x1
	imm19_12 := (insn >> 12) & 0xff
	u := imm20<<20 | imm19_12<<12 | imm11<<11 | imm10_1<<1
	if imm20 != 0 {
		u |= 0xffe00000
	}
	return rd, int32(u)
}

func testConfig() parkrom.Config {
	return parkrom.Config{
		DMPhyAddr:      0x1000,
		WheretoPhyAddr: 0x1300,
		NScratch:       1,
	}
}

func TestEntryPointsAreSingleInstructionJumps(t *testing.T) {
	rom := parkrom.Build(testConfig())

	for _, off := range []int{parkrom.EntryHalt, parkrom.EntryResume, parkrom.EntryException} {
		word := off / 4
		rd, offset := decodeJal(rom[word])
		test.ExpectEquality(t, rd, uint32(0))
		target := word + int(offset)/4
		if target <= word || target >= len(rom) {
			t.Fatalf("entry at offset %#x jumps out of range: target word %d (rom has %d words)", off, target, len(rom))
		}
	}
}

func TestEntryPointsAreDistinct(t *testing.T) {
	rom := parkrom.Build(testConfig())

	_, haltOff := decodeJal(rom[parkrom.EntryHalt/4])
	_, resumeOff := decodeJal(rom[parkrom.EntryResume/4])
	_, exceptionOff := decodeJal(rom[parkrom.EntryException/4])

	haltTarget := parkrom.EntryHalt/4 + int(haltOff)/4
	resumeTarget := parkrom.EntryResume/4 + int(resumeOff)/4
	exceptionTarget := parkrom.EntryException/4 + int(exceptionOff)/4

	if haltTarget == resumeTarget || haltTarget == exceptionTarget || resumeTarget == exceptionTarget {
		t.Fatalf("entry points must target distinct routines: halt=%d resume=%d exception=%d",
			haltTarget, resumeTarget, exceptionTarget)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	cfg := testConfig()
	a := parkrom.Build(cfg)
	b := parkrom.Build(cfg)
	test.ExpectEquality(t, len(a), len(b))
	for i := range a {
		test.ExpectEquality(t, a[i], b[i])
	}
}

func TestBytesIsLittleEndianOfBuild(t *testing.T) {
	cfg := testConfig()
	words := parkrom.Build(cfg)
	buf := parkrom.Bytes(cfg)

	test.ExpectEquality(t, len(buf), len(words)*4)
	for i, w := range words {
		got := uint32(buf[i*4]) | uint32(buf[i*4+1])<<8 | uint32(buf[i*4+2])<<16 | uint32(buf[i*4+3])<<24
		test.ExpectEquality(t, got, w)
	}
}

func TestPerHartFlagSlotChangesWordCount(t *testing.T) {
	shared := testConfig()
	shared.NScratch = 1
	perHart := testConfig()
	perHart.NScratch = 2

	romShared := parkrom.Build(shared)
	romPerHart := parkrom.Build(perHart)

	if len(romPerHart) <= len(romShared) {
		t.Fatalf("per-hart flag addressing should need extra instructions: shared=%d perHart=%d",
			len(romShared), len(romPerHart))
	}
}
