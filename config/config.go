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

// Package config holds every knob from §6 ("Properties / configuration
// knobs") in one realize-time struct, with the defaulting and validation
// cmd/rvdbgd needs before it can construct a jtag.TAP, a dtm.DTM and a
// dm.DM. See Disk for the optional on-disk persistence
// of these knobs between runs.
package config

import (
	"github.com/luismarques/qemu-sub001/dbgerrors"
	"github.com/luismarques/qemu-sub001/dm"
	"github.com/luismarques/qemu-sub001/jtag"
)

// Config is the realize-time configuration of one debug-transport
// daemon: one TAP/DTM and one DM.
type Config struct {
	IRLength   int
	IDCode     uint32
	IDCodeInst uint64
	EnableQuit bool

	Abits   int
	DMIAddr uint32
	DMINext uint32

	HartCount int

	NScratch         int
	ProgbufCount     int
	DataCount        int
	AbstractCmdCount int

	DMPhyAddr      uint32
	ROMPhyAddr     uint32
	WheretoPhyAddr uint32
	DataPhyAddr    uint32
	ProgbufPhyAddr uint32
	ResumeOffset   uint32

	SysbusAccess bool
	AbstractAuto bool
}

// Default returns the canonical single-DM, single-hart configuration
// used throughout the design notes' worked examples: abits=7, a 32-bit
// IDCODE with a non-trivial part-number field, IR width 5 (wide enough
// for BYPASS/IDCODE/dtmcs/dmi plus headroom), and the §6 memory layout
// rooted at dmPhyAddr.
func Default(dmPhyAddr uint32) Config {
	return Config{
		IRLength:   5,
		IDCode:     0x0ff00001,
		IDCodeInst: 1,

		Abits:   7,
		DMIAddr: 0,
		DMINext: 0,

		HartCount: 1,

		NScratch:         2,
		ProgbufCount:     2,
		DataCount:        1,
		AbstractCmdCount: 4,

		DMPhyAddr:      dmPhyAddr,
		ROMPhyAddr:     dmPhyAddr + dm.OffsetROM,
		WheretoPhyAddr: dmPhyAddr + dm.OffsetWhereto,
		DataPhyAddr:    dmPhyAddr + dm.OffsetDataAddr,
		ProgbufPhyAddr: dmPhyAddr + dm.OffsetProgBuf,

		SysbusAccess: true,
		AbstractAuto: true,
	}
}

// Validate checks the §7 "Configuration errors" list. It is the one
// point at which a misconfigured daemon is refused before anything is
// realized, matching the propagation policy's "fatal conditions abort
// the process only during configuration/realize".
func (c Config) Validate() error {
	if c.IRLength < 1 || c.IRLength > 8 {
		return dbgerrors.Errorf(dbgerrors.BadIRLength, c.IRLength)
	}
	if c.IDCode == 0 {
		return dbgerrors.Errorf(dbgerrors.BadIDCode)
	}
	if c.Abits < 7 || c.Abits > 30 {
		return dbgerrors.Errorf(dbgerrors.BadAbits, c.Abits)
	}
	if c.DataCount < 1 || c.DataCount > 12 {
		return dbgerrors.Errorf(dbgerrors.BadDataCount, c.DataCount)
	}
	if c.ProgbufCount > 16 {
		return dbgerrors.Errorf(dbgerrors.BadProgbufCount, c.ProgbufCount)
	}
	if c.HartCount < 1 {
		return dbgerrors.Errorf(dbgerrors.HartCountMismatch, c.HartCount, 0)
	}
	return nil
}

// TAPConfig projects the TAP-relevant knobs into a jtag.Config.
func (c Config) TAPConfig() jtag.Config {
	return jtag.Config{
		IRLength:   c.IRLength,
		IDCode:     c.IDCode,
		IDCodeInst: c.IDCodeInst,
	}
}

// DMConfig projects the DM-relevant knobs into a dm.Config. The caller
// still owns SystemMem: a real machine wires in its own RAM/ROM map
// there, so Config intentionally carries no address-space value itself.
func (c Config) DMConfig() dm.Config {
	return dm.Config{
		Abits:               c.Abits,
		NScratch:            c.NScratch,
		ProgbufCount:        c.ProgbufCount,
		DataCount:           c.DataCount,
		AbstractCmdCount:    c.AbstractCmdCount,
		DMPhyAddr:           c.DMPhyAddr,
		ROMPhyAddr:          c.ROMPhyAddr,
		WheretoPhyAddr:      c.WheretoPhyAddr,
		DataPhyAddr:         c.DataPhyAddr,
		ProgbufPhyAddr:      c.ProgbufPhyAddr,
		SysbusAccess:        c.SysbusAccess,
		AbstractAutoEnabled: c.AbstractAuto,
		DMIAddr:             c.DMIAddr,
		DMINext:             c.DMINext,
	}
}
