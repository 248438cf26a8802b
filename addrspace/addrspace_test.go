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

package addrspace_test

import (
	"testing"

	"github.com/luismarques/qemu-sub001/addrspace"
	"github.com/luismarques/qemu-sub001/internal/test"
)

func TestReadWriteRoundTrip(t *testing.T) {
	f := addrspace.NewFlat()
	f.AddRegion(&addrspace.Region{Name: "ram", Origin: 0x1000, Mem: make([]byte, 0x100)})

	ok := f.Write(0x1000, addrspace.SBA, []byte{0xef, 0xbe, 0xad, 0xde})
	test.ExpectSuccess(t, ok)

	buf := make([]byte, 4)
	ok = f.Read(0x1000, addrspace.SBA, buf)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, buf, []byte{0xef, 0xbe, 0xad, 0xde})
}

func TestUnmappedAccessFails(t *testing.T) {
	f := addrspace.NewFlat()
	f.AddRegion(&addrspace.Region{Name: "ram", Origin: 0x1000, Mem: make([]byte, 0x10)})

	ok := f.Read(0x2000, addrspace.SBA, make([]byte, 4))
	test.ExpectFailure(t, ok)
}

func TestPartialOutOfBoundsFails(t *testing.T) {
	f := addrspace.NewFlat()
	f.AddRegion(&addrspace.Region{Name: "ram", Origin: 0x1000, Mem: make([]byte, 4)})

	ok := f.Read(0x1002, addrspace.SBA, make([]byte, 4))
	test.ExpectFailure(t, ok)
}

func TestOverlappingRegionPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic for overlapping regions")
		}
	}()

	f := addrspace.NewFlat()
	f.AddRegion(&addrspace.Region{Name: "a", Origin: 0x1000, Mem: make([]byte, 0x10)})
	f.AddRegion(&addrspace.Region{Name: "b", Origin: 0x1008, Mem: make([]byte, 0x10)})
}
