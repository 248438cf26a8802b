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

// Package addrspace defines the memory abstraction shared by the Debug
// Module's register-backed regions (data/progbuf), its system-bus access
// path, and the toy RV32I interpreter standing in for the emulated hart.
//
// It plays the role the design notes ask for: "Abstract it as
// AddressSpace{ read, write } and inject at DM construction", modelled on
// the teacher's habit of mapping a flat address down to a backing slice
// plus an origin (see hardware/memory/cartridge/arm.MapAddress) rather than
// threading a giant switch statement through every access site.
package addrspace

import (
	"fmt"
	"sync"
)

// Attrs tags an access with the attribute bundle the design calls mta_dm
// (DM-originated) or mta_sba (system-bus-originated). Regions may use this
// to apply different side effects (e.g. a debug-only mailbox that is only
// writable via mta_dm).
type Attrs struct {
	// Debug is a placeholder for attribute bits a larger SoC model might
	// condition behaviour on. Nothing in this module consults it: Flat
	// ignores the attributes of every access.
	Debug bool
}

// DM is the attribute bundle used for DM-register-backed accesses
// (data*/progbuf* regions, and the abstract-command engine patching
// program memory).
var DM = Attrs{Debug: true}

// SBA is the attribute bundle used for system-bus-access transactions.
var SBA = Attrs{Debug: false}

// AddressSpace is the single interface the Debug Module needs to talk to
// memory: a flat read/write over a byte-addressed 32-bit space.
type AddressSpace interface {
	// Read fills buf from addr. It returns false if any byte of the
	// access falls outside a mapped region.
	Read(addr uint32, attrs Attrs, buf []byte) bool

	// Write stores buf at addr. It returns false if any byte of the
	// access falls outside a mapped region.
	Write(addr uint32, attrs Attrs, buf []byte) bool
}

// Region is a single contiguous, densely-backed span of an AddressSpace.
type Region struct {
	Name   string
	Origin uint32
	Mem    []byte
}

func (r *Region) contains(addr uint32, n int) bool {
	if addr < r.Origin {
		return false
	}
	end := uint64(r.Origin) + uint64(len(r.Mem))
	return uint64(addr)+uint64(n) <= end
}

// Flat is the simplest AddressSpace: an ordered list of Regions, searched
// linearly. It is what the daemon uses to back ROM, RAM, the park-loop
// flag page and (in tests) a pretend peripheral range.
//
// Read and Write take mu themselves, independent of any lock a caller may
// hold: the debug daemon has one hart goroutine issuing instruction
// fetches and loads/stores against this same backing storage while the
// DMI-serving goroutine pokes data/progbuf/flags through it concurrently,
// and neither side should have to know about the other's locking to stay
// race-free.
type Flat struct {
	mu      sync.Mutex
	regions []*Region
}

// NewFlat creates an empty address space.
func NewFlat() *Flat {
	return &Flat{}
}

// AddRegion registers a region. Overlapping regions are rejected: this
// mirrors the DTM's rule for DM registration (§4.3) and is deliberately
// just as strict here, since a silently-overlapping RAM and ROM region
// would be far harder to debug than a panic at setup time.
func (f *Flat) AddRegion(r *Region) {
	for _, existing := range f.regions {
		if regionsOverlap(existing, r) {
			panic(fmt.Sprintf("addrspace: region %q overlaps %q", r.Name, existing.Name))
		}
	}
	f.regions = append(f.regions, r)
}

func regionsOverlap(a, b *Region) bool {
	aEnd := uint64(a.Origin) + uint64(len(a.Mem))
	bEnd := uint64(b.Origin) + uint64(len(b.Mem))
	return uint64(a.Origin) < bEnd && uint64(b.Origin) < aEnd
}

// MapAddress returns the backing slice and origin of the region
// containing addr, or (nil, 0) if addr is unmapped. Read and Write use it
// to find their region; it does not take mu itself.
func (f *Flat) MapAddress(addr uint32) (*Region, uint32) {
	for _, r := range f.regions {
		if addr >= r.Origin && uint64(addr) < uint64(r.Origin)+uint64(len(r.Mem)) {
			return r, r.Origin
		}
	}
	return nil, 0
}

// Read implements AddressSpace.
func (f *Flat) Read(addr uint32, _ Attrs, buf []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, origin := f.MapAddress(addr)
	if r == nil || !r.contains(addr, len(buf)) {
		return false
	}
	copy(buf, r.Mem[addr-origin:])
	return true
}

// Write implements AddressSpace.
func (f *Flat) Write(addr uint32, _ Attrs, buf []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, origin := f.MapAddress(addr)
	if r == nil || !r.contains(addr, len(buf)) {
		return false
	}
	copy(r.Mem[addr-origin:], buf)
	return true
}
