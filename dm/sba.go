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

package dm

import "github.com/luismarques/qemu-sub001/addrspace"

// sbaState holds the system-bus-access register group (sbcs/sbaddress*/
// sbdata*), §4.7. Transactions go through mem directly: there is no hart
// involvement, which is the point of SBA.
type sbaState struct {
	mem addrspace.AddressSpace

	address0, address1 uint32
	data1               uint32

	access          uint32 // lg2 bytes: 0=1B, 1=2B, 2=4B
	autoincrement   bool
	readOnAddr      bool
	readOnData      bool
	sberror         uint32 // sticky until write-1-to-clear
	busyError       bool
}

func (s *sbaState) readonaddr() bool { return s.readOnAddr }

func (s *sbaState) readSBCS() uint32 {
	v := uint32(32) << sbcsSbasizeShift // sbasize=32, this is a 32-bit-only SBA path
	if s.busyError {
		v |= sbcsSbbusyerror
	}
	if s.readOnAddr {
		v |= sbcsSbreadonaddr
	}
	v |= (s.access & sbcsSbaccessMask) << sbcsSbaccessShift
	if s.autoincrement {
		v |= sbcsSbautoincrement
	}
	if s.readOnData {
		v |= sbcsSbreadondata
	}
	v |= (s.sberror & sbcsSberrorMask) << sbcsSberrorShift
	return v
}

func (s *sbaState) writeSBCS(value uint32) {
	if value&sbcsSbbusyerror != 0 {
		s.busyError = false
	}
	if (value>>sbcsSberrorShift)&sbcsSberrorMask != 0 {
		s.sberror = SBErrNone
	}
	s.readOnAddr = value&sbcsSbreadonaddr != 0
	s.access = (value >> sbcsSbaccessShift) & sbcsSbaccessMask
	s.autoincrement = value&sbcsSbautoincrement != 0
	s.readOnData = value&sbcsSbreadondata != 0
}

func (s *sbaState) width() (int, bool) {
	switch s.access {
	case 0:
		return 1, true
	case 1:
		return 2, true
	case 2:
		return 4, true
	default:
		return 0, false
	}
}

func (s *sbaState) setError(code uint32) {
	if s.sberror != SBErrNone {
		return // sticky
	}
	s.sberror = code
}

// doRead performs an SBA read transaction at the current address and
// returns the value (sbdata1 is left alone: this implementation targets
// 32-bit address spaces only). Nothing is latched into sbdata0: an sbdata0
// read (§4.7) returns the value read here, while the read triggered by an
// sbaddress0 write with sbreadonaddr set has only its side effects
// (sberror, autoincrement) and its data is discarded.
func (s *sbaState) doRead(d *DM) (uint32, bool) {
	width, ok := s.width()
	if !ok {
		s.setError(SBErrASize)
		return 0, false
	}
	if s.address0%uint32(width) != 0 {
		s.setError(SBErrBadAlign)
		return 0, false
	}
	buf := make([]byte, width)
	if !s.mem.Read(s.address0, addrspace.SBA, buf) {
		s.setError(SBErrBadAddr)
		return 0, false
	}
	var v uint32
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint32(buf[i])
	}
	lastValue := v
	if s.autoincrement {
		s.address0 += uint32(width)
	}
	return lastValue, true
}

func (s *sbaState) readData0(d *DM) (uint32, bool) {
	v, ok := s.doRead(d)
	if !ok {
		return 0, true // DMI transaction itself still completes; error is in sberror
	}
	return v, true
}

func (s *sbaState) writeData0(d *DM, value uint32) {
	width, ok := s.width()
	if !ok {
		s.setError(SBErrASize)
		return
	}
	if s.address0%uint32(width) != 0 {
		s.setError(SBErrBadAlign)
		return
	}
	buf := make([]byte, width)
	for i := 0; i < width; i++ {
		buf[i] = byte(value >> (8 * i))
	}
	if !s.mem.Write(s.address0, addrspace.SBA, buf) {
		s.setError(SBErrBadAddr)
		return
	}
	if s.autoincrement {
		s.address0 += uint32(width)
	}
}
