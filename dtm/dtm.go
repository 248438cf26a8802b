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

// Package dtm implements the Debug Transport Module: the dtmcs/dmi scan
// handlers that sit on the TAP and route DMI transactions to one or more
// registered Debug Modules by address range.
//
// The DTM knows nothing about what a DM register means; it only knows how
// to decode a DMI transaction and find the DM whose range the address
// falls in. This mirrors the TAP's own ignorance of DTM semantics (see
// package jtag) and is how the DM/DTM/TAP cycle in the design notes is
// broken without back-pointers: a DM registers itself into a DTM, a DTM
// registers its handlers into a TAP, and nothing downstream ever needs to
// reach back up.
package dtm

import (
	"fmt"
	"sort"
	"sync"

	"github.com/luismarques/qemu-sub001/dbgerrors"
	"github.com/luismarques/qemu-sub001/jtag"
	"github.com/luismarques/qemu-sub001/logger"
)

// dmistat values, per §7 ("DMI status").
const (
	StatusNoErr    = 0
	StatusReserved = 1
	StatusFailed   = 2
	StatusBusy     = 3
)

// DMI op field values.
const (
	opIgnore = 0
	opRead   = 1
	opWrite  = 2
	opReserv = 3
)

// debugVersion is the dtmcs.version field value for External Debug Spec
// v0.13.x.
const debugVersion = 1

// DM is the interface a Debug Module registers with a DTM. Addresses are
// DM-local (already had the registered base subtracted).
type DM interface {
	// DMIRead performs a DMI-routed read of DM-local register addr. ok
	// false maps to dmistat=FAILED on the wire.
	DMIRead(addr uint32) (value uint32, ok bool)
	// DMIWrite performs a DMI-routed write of value to DM-local register
	// addr. ok false maps to dmistat=FAILED on the wire.
	DMIWrite(addr uint32, value uint32) bool
}

type route struct {
	base uint32
	size uint32
	dm   DM
}

// DTM is the Debug Transport Module: two scan handlers (dtmcs, dmi) bound
// to a TAP, plus the DM routing table and sticky DMI status.
type DTM struct {
	mu sync.Mutex

	abits int

	routes []route
	mru    *route

	dmistat       uint8
	lastAddr      uint32
	lastReadValue uint32
	pendingReadOf uint32
	hasPendingRd  bool
}

// IR codes the DTM registers on the TAP, per §4.3/§6.
const (
	IRDtmcs = 0x10
	IRDmi   = 0x11
)

// New creates a DTM for a DMI address space abits bits wide (7..30, per
// §3) and registers its dtmcs/dmi scan handlers on tap.
func New(tap *jtag.TAP, abits int) (*DTM, error) {
	if abits < 7 || abits > 30 {
		return nil, dbgerrors.Errorf(dbgerrors.BadAbits, abits)
	}

	d := &DTM{abits: abits}

	dtmcs := &jtag.Handler{Name: "dtmcs", Length: 32}
	dtmcs.Capture = d.captureDtmcs
	dtmcs.Update = d.updateDtmcs
	if err := tap.RegisterHandler(IRDtmcs, dtmcs); err != nil {
		return nil, err
	}

	dmi := &jtag.Handler{Name: "dmi", Length: abits + 34}
	dmi.Capture = d.captureDmi
	dmi.Update = d.updateDmi
	if err := tap.RegisterHandler(IRDmi, dmi); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *DTM) captureDtmcs(h *jtag.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h.Value = uint64(debugVersion) |
		uint64(d.abits)<<4 |
		uint64(d.dmistat)<<10
}

func (d *DTM) updateDtmcs(h *jtag.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h.Value&(1<<16) != 0 {
		d.dmistat = StatusNoErr
	}
	if h.Value&(1<<17) != 0 {
		logger.Log("dtm", "dtmcs.dmihardreset requested (log-only)")
	}
}

// dmiFields unpacks a raw abits+34-bit dmi scan value.
func (d *DTM) dmiFields(v uint64) (addr uint32, data uint32, op uint8) {
	op = uint8(v & 0x3)
	data = uint32((v >> 2) & 0xffffffff)
	addr = uint32(v >> 34)
	return
}

func (d *DTM) packDmi(addr, data uint32, status uint8) uint64 {
	return uint64(addr)<<34 | uint64(data)<<2 | uint64(status)
}

func (d *DTM) captureDmi(h *jtag.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.hasPendingRd {
		dm, local, ok := d.routeLocked(d.pendingReadOf)
		if !ok {
			d.setStatusLocked(StatusFailed)
		} else if v, ok := dm.DMIRead(local); ok {
			d.lastReadValue = v
			d.setStatusLocked(StatusNoErr)
		} else {
			d.setStatusLocked(StatusFailed)
		}
		d.hasPendingRd = false
	}

	h.Value = d.packDmi(d.lastAddr, d.lastReadValue, d.dmistat)
}

func (d *DTM) updateDmi(h *jtag.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	addr, data, op := d.dmiFields(h.Value)

	// Sticky: once non-NOERR, ignore every op until dmireset.
	if d.dmistat != StatusNoErr {
		return
	}

	switch op {
	case opIgnore:
		// no-op; the next capture is undefined per §4.3, so leave
		// lastAddr/lastReadValue untouched.
	case opRead:
		d.lastAddr = addr
		d.pendingReadOf = addr
		d.hasPendingRd = true
	case opWrite:
		d.lastAddr = addr
		dm, local, ok := d.routeLocked(addr)
		if !ok {
			d.setStatusLocked(StatusFailed)
			return
		}
		if !dm.DMIWrite(local, data) {
			d.setStatusLocked(StatusFailed)
		}
	case opReserv:
		d.setStatusLocked(StatusFailed)
	}
}

func (d *DTM) setStatusLocked(s uint8) {
	d.dmistat = s
}

// Register adds a DM at DMI address range [base, base+size). Ranges are
// kept ordered by base and must not overlap; a collision is a realize-time
// configuration error (§7).
func (d *DTM) Register(base, size uint32, dm DM) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, r := range d.routes {
		if base < r.base+r.size && r.base < base+size {
			return dbgerrors.Errorf(dbgerrors.OverlappingDMRange, base)
		}
	}

	d.routes = append(d.routes, route{base: base, size: size, dm: dm})
	sort.Slice(d.routes, func(i, j int) bool { return d.routes[i].base < d.routes[j].base })
	d.mru = nil
	return nil
}

func (d *DTM) routeLocked(addr uint32) (DM, uint32, bool) {
	if d.mru != nil && addr >= d.mru.base && addr < d.mru.base+d.mru.size {
		return d.mru.dm, addr - d.mru.base, true
	}
	for i := range d.routes {
		r := &d.routes[i]
		if addr >= r.base && addr < r.base+r.size {
			d.mru = r
			return r.dm, addr - r.base, true
		}
	}
	logger.Logf("dtm", dbgerrors.Errorf(dbgerrors.DMIUnroutedAddress, addr).Error())
	return nil, 0, false
}

// Status returns the current sticky DMI status, mostly useful for tests.
func (d *DTM) Status() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dmistat
}

func (d *DTM) String() string {
	return fmt.Sprintf("dtm(abits=%d, dmistat=%d)", d.abits, d.dmistat)
}
