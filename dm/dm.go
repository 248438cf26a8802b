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

// Package dm implements the Debug Module register file, the
// abstract-command engine, and system-bus access, per §4.4/§4.5/§4.7. It
// satisfies the dtm.DM interface structurally (DMIRead/DMIWrite) without
// importing package dtm, breaking the DM/DTM/TAP cycle the design notes
// (§9 "Cyclic references") call for.
package dm

import (
	"sync"

	"github.com/luismarques/qemu-sub001/addrspace"
	"github.com/luismarques/qemu-sub001/dbgerrors"
	"github.com/luismarques/qemu-sub001/dm/parkrom"
	"github.com/luismarques/qemu-sub001/hart"
	"github.com/luismarques/qemu-sub001/logger"
	"github.com/luismarques/qemu-sub001/rv32"
)

// Config holds the realize-time knobs enumerated in §6.
type Config struct {
	Abits             int
	NScratch          int
	ProgbufCount      int
	DataCount         int
	AbstractCmdCount  int
	DMPhyAddr         uint32
	ROMPhyAddr        uint32
	WheretoPhyAddr    uint32
	DataPhyAddr       uint32
	ProgbufPhyAddr    uint32
	SysbusAccess      bool
	AbstractAutoEnabled bool
	DMIAddr           uint32
	DMINext           uint32

	// SystemMem is the address space ACCESS_MEMORY and system-bus access
	// transact against (mta_sba, §9 "Address-space abstraction"). If nil,
	// New defaults it to the DM's own hart-visible window, which is
	// enough to exercise SBA/ACCESS_MEMORY in isolation; a full machine
	// wires in its RAM/ROM/peripheral map instead.
	SystemMem addrspace.AddressSpace
}

// DefaultConfig fills in the canonical offsets from §6's memory layout,
// relative to dmPhyAddr, leaving only the sizing knobs to the caller.
func DefaultConfig(dmPhyAddr uint32, dataCount, progbufCount, abstractCmdCount, nscratch int) Config {
	return Config{
		Abits:             7,
		NScratch:          nscratch,
		ProgbufCount:      progbufCount,
		DataCount:         dataCount,
		AbstractCmdCount:  abstractCmdCount,
		DMPhyAddr:         dmPhyAddr,
		ROMPhyAddr:        dmPhyAddr + OffsetROM,
		WheretoPhyAddr:    dmPhyAddr + OffsetWhereto,
		DataPhyAddr:       dmPhyAddr + OffsetDataAddr,
		ProgbufPhyAddr:    dmPhyAddr + OffsetProgBuf,
		SysbusAccess:      true,
		AbstractAutoEnabled: true,
	}
}

type hartBinding struct {
	h    *hart.Hart
	core *rv32.Core
}

// DM is one Debug Module instance.
type DM struct {
	mu  sync.Mutex
	cfg Config

	page *ackPage

	harts    []*hartBinding
	selected int // index into harts, or -1

	regs map[uint32]uint32 // plain storage for registers without special handling

	abstractAuto uint32
	toGo         map[uint32]bool // harts with FLAG.GO outstanding

	sysbus sbaState
}

// New creates a DM and lays out its hart-visible memory window (ROM,
// whereto, abstractcmd slot, progbuf, data area, flags page) per §6.
func New(cfg Config) (*DM, error) {
	if cfg.Abits < 7 || cfg.Abits > 30 {
		return nil, dbgerrors.Errorf(dbgerrors.BadAbits, cfg.Abits)
	}
	if cfg.DataCount < 1 || cfg.DataCount > 12 {
		return nil, dbgerrors.Errorf(dbgerrors.BadDataCount, cfg.DataCount)
	}
	if cfg.ProgbufCount > 16 {
		return nil, dbgerrors.Errorf(dbgerrors.BadProgbufCount, cfg.ProgbufCount)
	}

	d := &DM{
		cfg:    cfg,
		regs:   make(map[uint32]uint32),
		toGo:   make(map[uint32]bool),
		selected: -1,
	}

	romBytes := parkrom.Bytes(parkrom.Config{
		DMPhyAddr:      cfg.DMPhyAddr,
		WheretoPhyAddr: cfg.WheretoPhyAddr,
		NScratch:       cfg.NScratch,
	})

	flagsSize := uint32(4)
	if cfg.NScratch >= 2 {
		flagsSize = 4 * 32 // room for up to 32 harts' worth of per-hart flag slots
	}

	windowSize := OffsetROM + uint32(len(romBytes))
	d.page = newAckPage(d, cfg.DMPhyAddr, windowSize)
	d.page.flat.AddRegion(&addrspace.Region{Name: "acks", Origin: cfg.DMPhyAddr + OffsetHalted, Mem: make([]byte, OffsetWhereto-OffsetHalted)})
	d.page.flat.AddRegion(&addrspace.Region{Name: "whereto", Origin: cfg.WheretoPhyAddr, Mem: make([]byte, 4)})
	d.page.flat.AddRegion(&addrspace.Region{Name: "abstractcmd", Origin: cfg.DMPhyAddr + OffsetAbstractCmd, Mem: make([]byte, cfg.AbstractCmdCount*4)})
	if cfg.ProgbufCount > 0 {
		d.page.flat.AddRegion(&addrspace.Region{Name: "progbuf", Origin: cfg.ProgbufPhyAddr, Mem: make([]byte, cfg.ProgbufCount*4)})
	}
	d.page.flat.AddRegion(&addrspace.Region{Name: "data", Origin: cfg.DataPhyAddr, Mem: make([]byte, cfg.DataCount*4)})
	d.page.flat.AddRegion(&addrspace.Region{Name: "flags", Origin: cfg.DMPhyAddr + OffsetFlags, Mem: make([]byte, flagsSize)})
	d.page.flat.AddRegion(&addrspace.Region{Name: "rom", Origin: cfg.ROMPhyAddr, Mem: romBytes})

	d.regs[RegNextDM] = cfg.DMINext

	if cfg.SystemMem == nil {
		cfg.SystemMem = d.page
		d.cfg.SystemMem = d.page
	}
	d.sysbus.mem = cfg.SystemMem

	return d, nil
}

// AddHart creates a hart bound to this DM's memory window, parked at the
// ROM's halt entry (its dmhaltvec, per §4.6).
func (d *DM) AddHart() *hart.Hart {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := uint32(len(d.harts))
	core := rv32.New(id, d.page)
	core.DMHaltVec = d.cfg.ROMPhyAddr + parkrom.EntryHalt
	core.SetPC(core.DMHaltVec)
	h := hart.New(id, core)
	d.harts = append(d.harts, &hartBinding{h: h, core: core})
	if d.selected < 0 {
		d.selected = 0
	}
	return h
}

// Core returns the rv32 interpreter bound to hart id, so a driving loop
// (a scenario test, or cmd/rvdbgd's per-hart goroutine) can call Run on
// it after the DM arms FLAG.GO/FLAG.RESUME.
func (d *DM) Core(id uint32) *rv32.Core {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(id) >= len(d.harts) {
		return nil
	}
	return d.harts[id].core
}

func (d *DM) selectedHart() *hartBinding {
	if d.selected < 0 || d.selected >= len(d.harts) {
		return nil
	}
	return d.harts[d.selected]
}

// DMIRead implements dtm.DM.
func (d *DM) DMIRead(addr uint32) (uint32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readLocked(addr)
}

// DMIWrite implements dtm.DM.
func (d *DM) DMIWrite(addr uint32, value uint32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLocked(addr, value)
}

func (d *DM) readLocked(addr uint32) (uint32, bool) {
	switch {
	case addr >= RegData0 && addr < RegData0+uint32(d.cfg.DataCount):
		return d.readDataOrProgbuf(d.cfg.DataPhyAddr, addr-RegData0)
	case addr == RegDMControl:
		return d.regs[RegDMControl], true
	case addr == RegDMStatus:
		return d.computeDMStatus(), true
	case addr == RegHartInfo:
		return d.computeHartInfo(), true
	case addr == RegAbstractCS:
		return d.regs[RegAbstractCS], true
	case addr == RegCommand:
		return d.regs[RegCommand], true
	case addr == RegAbstractAuto:
		if !d.cfg.AbstractAutoEnabled {
			return 0, true
		}
		return d.abstractAuto, true
	case addr == RegNextDM:
		return d.regs[RegNextDM], true
	case addr >= RegProgBuf0 && addr < RegProgBuf0+uint32(d.cfg.ProgbufCount):
		return d.readDataOrProgbuf(d.cfg.ProgbufPhyAddr, addr-RegProgBuf0)
	case addr == RegSBCS:
		return d.sysbus.readSBCS(), true
	case addr == RegSBAddress0:
		return d.sysbus.address0, true
	case addr == RegSBAddress1:
		return d.sysbus.address1, true
	case addr == RegSBData0:
		return d.sysbus.readData0(d)
	case addr == RegSBData1:
		return d.sysbus.data1, true
	case addr == RegHaltSum0:
		return d.computeHaltsum0(), true
	default:
		logger.Logf("dm", "unhandled DMI read at %#x", addr)
		return 0, false
	}
}

func (d *DM) writeLocked(addr uint32, value uint32) bool {
	switch {
	case addr >= RegData0 && addr < RegData0+uint32(d.cfg.DataCount):
		ok := d.writeDataOrProgbuf(d.cfg.DataPhyAddr, addr-RegData0, value)
		d.maybeAutoExec(addr - RegData0)
		return ok
	case addr == RegDMControl:
		d.writeDMControl(value)
		return true
	case addr == RegDMStatus:
		return true // read-only, writes ignored
	case addr == RegHartInfo:
		return true // read-only
	case addr == RegAbstractCS:
		d.writeAbstractCS(value)
		return true
	case addr == RegCommand:
		d.writeCommand(value)
		return true
	case addr == RegAbstractAuto:
		if d.isBusyLocked() {
			return false
		}
		if d.cfg.AbstractAutoEnabled {
			d.abstractAuto = value
		}
		return true
	case addr == RegNextDM:
		return true // plain storage, set once at configuration
	case addr >= RegProgBuf0 && addr < RegProgBuf0+uint32(d.cfg.ProgbufCount):
		ok := d.writeDataOrProgbuf(d.cfg.ProgbufPhyAddr, addr-RegProgBuf0, value)
		d.maybeAutoExec(16 + (addr - RegProgBuf0))
		return ok
	case addr == RegSBCS:
		d.sysbus.writeSBCS(value)
		return true
	case addr == RegSBAddress0:
		d.sysbus.address0 = value
		if d.sysbus.readonaddr() {
			d.sysbus.doRead(d)
		}
		return true
	case addr == RegSBAddress1:
		d.sysbus.address1 = value
		return true
	case addr == RegSBData0:
		d.sysbus.writeData0(d, value)
		return true
	case addr == RegSBData1:
		d.sysbus.data1 = value
		return true
	case addr == RegHaltSum0:
		return true // read-only
	default:
		logger.Logf("dm", "unhandled DMI write at %#x", addr)
		return false
	}
}

func (d *DM) readDataOrProgbuf(base uint32, index uint32) (uint32, bool) {
	buf := make([]byte, 4)
	if !d.page.Read(base+index*4, addrspace.DM, buf) {
		return 0, false
	}
	return le32(buf), true
}

func (d *DM) writeDataOrProgbuf(base uint32, index uint32, value uint32) bool {
	buf := make([]byte, 4)
	putLE32(buf, value)
	return d.page.Write(base+index*4, addrspace.DM, buf)
}

func (d *DM) writeDMControl(value uint32) {
	hb := d.selectedHart()

	if value&dmcontrolHasel == 0 {
		hartsel := (value >> dmcontrolHartselloShift) & dmcontrolHartselloMask
		if int(hartsel) >= len(d.harts) {
			logger.Logf("dm", "dmcontrol selected nonexistent hart %d", hartsel)
			d.selected = -1
		} else {
			d.selected = int(hartsel)
			hb = d.selectedHart()
		}
	}

	if value&dmcontrolAckhavereset != 0 {
		for _, b := range d.harts {
			b.h.ClearHaveReset()
		}
	}

	if hb != nil {
		if value&dmcontrolHaltreq != 0 {
			hb.h.ClearResumeAck()
			hb.h.RequestHalt(hart.CauseHaltreq)
		} else if value&dmcontrolResumereq != 0 {
			if hb.h.RequestResume() {
				d.setFlag(hb.h.ID, FlagResume)
			}
		}
	}

	d.regs[RegDMControl] = value &^ (dmcontrolHaltreq | dmcontrolResumereq | dmcontrolAckhavereset)
}

func (d *DM) computeDMStatus() uint32 {
	v := uint32(dmstatusAuthenticated | dmstatusVersion013)
	if len(d.harts) == 0 {
		return v
	}

	var haltedCount, resumedCount, haveResetCount int
	for _, b := range d.harts {
		if b.h.Halted() {
			haltedCount++
		}
		if b.h.Resumed() {
			resumedCount++
		}
		if b.h.HaveReset() {
			haveResetCount++
		}
	}
	n := len(d.harts)

	if haltedCount == n {
		v |= dmstatusAllhalted
	}
	if haltedCount > 0 {
		v |= dmstatusAnyhalted
	}
	if haltedCount == 0 {
		v |= dmstatusAllrunning
	}
	if haltedCount < n {
		v |= dmstatusAnyrunning
	}
	if resumedCount == n {
		v |= dmstatusAllresumeack
	}
	if resumedCount > 0 {
		v |= dmstatusAnyresumeack
	}
	if haveResetCount == n {
		v |= dmstatusAllhavereset
	}
	if haveResetCount > 0 {
		v |= dmstatusAnyhavereset
	}
	return v
}

func (d *DM) computeHartInfo() uint32 {
	v := uint32(d.cfg.NScratch) << hartinfoNscratchShift
	if d.cfg.DataPhyAddr != 0 {
		v |= hartinfoDataaccess
	}
	v |= uint32(d.cfg.DataCount) << hartinfoDatasizeShift
	v |= (d.cfg.DataPhyAddr - d.cfg.DMPhyAddr) & hartinfoDataaddrMask
	return v
}

func (d *DM) computeHaltsum0() uint32 {
	var v uint32
	for i, b := range d.harts {
		if b.h.Halted() {
			v |= 1 << uint(i)
		}
	}
	return v
}

func (d *DM) isBusyLocked() bool {
	return d.regs[RegAbstractCS]&abstractcsBusy != 0
}

func (d *DM) writeAbstractCS(value uint32) {
	if d.isBusyLocked() {
		d.setCmdErr(CmdErrBusy)
		return
	}
	cur := d.regs[RegAbstractCS]
	cmderr := (cur >> abstractcsCmderrShift) & abstractcsCmderrMask
	// Any write-1 bit in the cmderr field clears the whole field,
	// matching OpenOCD's behaviour (§9 open question resolution).
	if (value>>abstractcsCmderrShift)&abstractcsCmderrMask != 0 {
		cmderr = CmdErrNone
	}
	d.regs[RegAbstractCS] = (cur &^ (abstractcsCmderrMask << abstractcsCmderrShift)) |
		(cmderr << abstractcsCmderrShift)
}

func (d *DM) setCmdErr(code uint32) {
	cur := d.regs[RegAbstractCS]
	existing := (cur >> abstractcsCmderrShift) & abstractcsCmderrMask
	if existing != CmdErrNone {
		return // sticky-first-error semantics
	}
	d.regs[RegAbstractCS] = (cur &^ (abstractcsCmderrMask << abstractcsCmderrShift)) |
		(code << abstractcsCmderrShift)
}

func (d *DM) setFlag(hartID uint32, bit uint32) {
	off := d.cfg.DMPhyAddr + OffsetFlags
	if d.cfg.NScratch >= 2 {
		off += hartID * 4
	}
	buf := make([]byte, 4)
	d.page.Read(off, addrspace.DM, buf)
	v := le32(buf) | bit
	putLE32(buf, v)
	d.page.Write(off, addrspace.DM, buf)
}

func (d *DM) maybeAutoExec(index uint32) {
	if !d.cfg.AbstractAutoEnabled {
		return
	}
	if d.abstractAuto&(1<<index) == 0 {
		return
	}
	d.writeCommand(d.regs[RegCommand])
}

// onAckGoing implements ACK_GOING, §4.5: clear FLAG.GO. It arrives on the
// hart's own goroutine (the ROM write that triggers it runs inside
// rv32.Core.Run, called from cmd/rvdbgd's runHart), never under the DMI
// path's lock, so it takes d.mu itself (§5: "Ack lines from the hart are
// serialized through the main lock").
func (d *DM) onAckGoing() {
	d.mu.Lock()
	defer d.mu.Unlock()

	hb := d.selectedHart()
	if hb == nil {
		return
	}
	off := d.cfg.DMPhyAddr + OffsetFlags
	if d.cfg.NScratch >= 2 {
		off += hb.h.ID * 4
	}
	buf := make([]byte, 4)
	d.page.Read(off, addrspace.DM, buf)
	v := le32(buf) &^ FlagGo
	putLE32(buf, v)
	d.page.Write(off, addrspace.DM, buf)
	delete(d.toGo, hb.h.ID)
}

// onAckHalted implements ACK_HALTED. See onAckGoing on why it locks d.mu
// itself.
func (d *DM) onAckHalted(hartID uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if int(hartID) >= len(d.harts) {
		return
	}
	b := d.harts[hartID]
	b.h.AckHalted()
	d.regs[RegAbstractCS] &^= abstractcsBusy
}

// onAckResuming implements "Resuming a hart" completion. See onAckGoing on
// why it locks d.mu itself.
func (d *DM) onAckResuming(hartID uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if int(hartID) >= len(d.harts) {
		return
	}
	d.harts[hartID].h.AckResuming()

	// Clear FLAG.RESUME, as onAckGoing clears FLAG.GO, so the park loop
	// does not resume the hart again the next time it halts.
	off := d.cfg.DMPhyAddr + OffsetFlags
	if d.cfg.NScratch >= 2 {
		off += hartID * 4
	}
	buf := make([]byte, 4)
	d.page.Read(off, addrspace.DM, buf)
	putLE32(buf, le32(buf)&^FlagResume)
	d.page.Write(off, addrspace.DM, buf)
}

// onAckException implements ACK_EXCEPTION. See onAckGoing on why it locks
// d.mu itself.
func (d *DM) onAckException() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.setCmdErr(CmdErrException)
	d.regs[RegAbstractCS] &^= abstractcsBusy
}

// writeCommand dispatches exec_command, §4.5.
func (d *DM) writeCommand(value uint32) {
	if d.isBusyLocked() {
		return // busy: ignored silently, not a cmderr condition
	}
	if (d.regs[RegAbstractCS]>>abstractcsCmderrShift)&abstractcsCmderrMask != CmdErrNone {
		return // sticky cmderr: ignored until cleared via abstractcs
	}
	d.regs[RegCommand] = value

	hb := d.selectedHart()
	if hb == nil {
		d.setCmdErr(CmdErrHaltResume)
		return
	}
	if !hb.h.Halted() {
		d.setCmdErr(CmdErrHaltResume)
		return
	}
	if d.cfg.DataPhyAddr == 0 {
		d.setCmdErr(CmdErrOther)
		return
	}

	cmdtype := value >> cmdTypeShift
	switch cmdtype {
	case cmdTypeAccessRegister:
		d.execAccessRegister(hb, value)
	case cmdTypeAccessMemory:
		d.execAccessMemory(hb, value)
	default:
		d.setCmdErr(CmdErrNotSupported)
	}
}

// riscvMisaMXL2 models a 32-bit hart (misa.mxl=1, so aarsize up to 2
// (32-bit) is supported; 3 (64-bit) and up are NOT_SUPPORTED, matching
// §8's boundary-behavior test).
const riscvMisaMXL2 = 2

// HartCounters is one hart's lifecycle state, as exposed to package
// monitor's JSON counters endpoint.
type HartCounters struct {
	ID     uint32 `json:"id"`
	Halted bool   `json:"halted"`
}

// Counters snapshots this DM's runtime state: per-hart halted/running
// status, whether an abstract command is in flight, the sticky SBA error
// code and the abstract-command cmderr. It takes the same lock DMIRead/DMIWrite do, so a monitor
// polling this never observes a torn read.
func (d *DM) Counters() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()

	harts := make([]HartCounters, len(d.harts))
	for i, hb := range d.harts {
		harts[i] = HartCounters{ID: uint32(i), Halted: hb.h.Halted()}
	}

	return map[string]any{
		"harts":           harts,
		"abstract_busy":   d.isBusyLocked(),
		"sba_error":       d.sysbus.sberror,
		"abstract_cmderr": (d.regs[RegAbstractCS] >> abstractcsCmderrShift) & abstractcsCmderrMask,
	}
}
