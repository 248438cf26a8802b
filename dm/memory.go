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

// ackPage wraps the DM's hart-visible memory window (dm_phyaddr..+size) so
// that writes to the four magic acknowledgement offsets (§6, "DM-to-memory
// contract") are caught synchronously and turned into DM state
// transitions, the same way a real MMIO ack line would fire. Everything
// else in the window (WHERETO, ABSTRACTCMD, PROGBUF, DATAADDR, FLAGS, ROM)
// is plain backing storage delegated to an addrspace.Flat.
type ackPage struct {
	dm     *DM
	origin uint32
	size   uint32
	flat   *addrspace.Flat
}

func newAckPage(dmInstance *DM, origin, size uint32) *ackPage {
	return &ackPage{dm: dmInstance, origin: origin, size: size, flat: addrspace.NewFlat()}
}

// Read implements addrspace.AddressSpace, delegating straight to the
// backing Flat, which synchronizes its own storage (§5). Callers include
// rv32.Core's instruction fetch and load/store, running on the hart's own
// goroutine (cmd/rvdbgd's runHart), and the DM's own register-window
// accessors, running under d.mu from the DMI path: neither needs to know
// about the other's locking, since the race is fully contained in Flat.
func (p *ackPage) Read(addr uint32, attrs addrspace.Attrs, buf []byte) bool {
	return p.flat.Read(addr, attrs, buf)
}

// Write implements addrspace.AddressSpace. A write that lands on one of
// the four magic acknowledgement offsets (§6, "DM-to-memory contract")
// additionally dispatches the matching onAck* transition. Those offsets
// are only ever written by the hart's own ROM code, so the onAck* handlers
// take d.mu themselves (§5) rather than relying on this call already
// holding it.
func (p *ackPage) Write(addr uint32, attrs addrspace.Attrs, buf []byte) bool {
	if !p.flat.Write(addr, attrs, buf) {
		return false
	}
	off := addr - p.origin
	switch off {
	case OffsetHalted:
		p.dm.onAckHalted(le32(buf))
	case OffsetGoing:
		p.dm.onAckGoing()
	case OffsetResuming:
		p.dm.onAckResuming(le32(buf))
	case OffsetException:
		p.dm.onAckException()
	}
	return true
}

func le32(buf []byte) uint32 {
	var v uint32
	for i := len(buf) - 1; i >= 0; i-- {
		v = v<<8 | uint32(buf[i])
	}
	return v
}

func putLE32(buf []byte, v uint32) {
	for i := range buf {
		buf[i] = byte(v)
		v >>= 8
	}
}
