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

// DMI register addresses, §6.
const (
	RegData0       = 0x04
	RegDMControl   = 0x10
	RegDMStatus    = 0x11
	RegHartInfo    = 0x12
	RegAbstractCS  = 0x16
	RegCommand     = 0x17
	RegAbstractAuto = 0x18
	RegNextDM      = 0x1d
	RegProgBuf0    = 0x20
	RegSBCS        = 0x38
	RegSBAddress0  = 0x39
	RegSBAddress1  = 0x3a
	RegSBData0     = 0x3c
	RegSBData1     = 0x3d
	RegHaltSum0    = 0x40
)

// DM-to-memory contract offsets from dm_phyaddr, §6 (the ack, flag and
// flag-bit values repeat parkrom's constants; the remaining offsets are
// defined only here).
const (
	OffsetHalted    = 0x100
	OffsetGoing     = 0x104
	OffsetResuming  = 0x108
	OffsetException = 0x10c
	OffsetWhereto   = 0x300
	OffsetAbstractCmd = 0x338
	OffsetProgBuf   = 0x360
	OffsetDataAddr  = 0x380
	OffsetFlags     = 0x400
	OffsetROM       = 0x800

	FlagGo     = 1 << 0
	FlagResume = 1 << 1
)

// dmcontrol field shifts/masks.
const (
	dmcontrolHaltreq         = 1 << 31
	dmcontrolResumereq       = 1 << 30
	dmcontrolHartreset       = 1 << 29
	dmcontrolAckhavereset    = 1 << 28
	dmcontrolHasel           = 1 << 26
	dmcontrolHartselloShift  = 16
	dmcontrolHartselloMask   = 0x3ff
	dmcontrolSetresethaltreq = 1 << 3
	dmcontrolClrresethaltreq = 1 << 2
	dmcontrolNdmreset        = 1 << 1
	dmcontrolDmactive        = 1 << 0
)

// dmstatus field shifts, matching the published RISC-V Debug Spec v0.13
// bit positions (so the bits the scenario in §8.1 names, 9 and 8, land
// exactly where it expects).
const (
	dmstatusAllhavereset  = 1 << 19
	dmstatusAnyhavereset  = 1 << 18
	dmstatusAllresumeack  = 1 << 17
	dmstatusAnyresumeack  = 1 << 16
	dmstatusAllnonexistent = 1 << 15
	dmstatusAnynonexistent = 1 << 14
	dmstatusAllunavail    = 1 << 13
	dmstatusAnyunavail    = 1 << 12
	dmstatusAllrunning    = 1 << 11
	dmstatusAnyrunning    = 1 << 10
	dmstatusAllhalted     = 1 << 9
	dmstatusAnyhalted     = 1 << 8
	dmstatusAuthenticated = 1 << 7
	dmstatusVersion013    = 2
)

// hartinfo field shifts.
const (
	hartinfoNscratchShift  = 20
	hartinfoDataaccess     = 1 << 16
	hartinfoDatasizeShift  = 12
	hartinfoDataaddrMask   = 0xfff
)

// abstractcs field shifts/masks.
const (
	abstractcsProgbufsizeShift = 24
	abstractcsBusy             = 1 << 12
	abstractcsCmderrShift      = 8
	abstractcsCmderrMask       = 0x7
	abstractcsDatacountMask    = 0xf
)

// CmdErr values, per §7.
const (
	CmdErrNone       = 0
	CmdErrBusy       = 1
	CmdErrNotSupported = 2
	CmdErrException  = 3
	CmdErrHaltResume = 4
	CmdErrBus        = 5
	CmdErrOther      = 7
)

// command fields, ACCESS_REGISTER layout.
const (
	cmdTypeShift            = 24
	cmdTypeAccessRegister    = 0
	cmdTypeQuickAccess       = 1
	cmdTypeAccessMemory      = 2

	arAarsizeShift          = 20
	arAarsizeMask           = 0x7
	arAarpostincrement      = 1 << 19
	arPostexec              = 1 << 18
	arTransfer              = 1 << 17
	arWrite                 = 1 << 16
	arRegnoMask             = 0xffff

	amAamvirtual            = 1 << 23
	amAamsizeShift          = 20
	amAamsizeMask           = 0x7
	amAampostincrement      = 1 << 19
	amWrite                 = 1 << 16
)

// regno ranges, §4.5.
const (
	regnoCSRMax  = 0x0fff
	regnoGPRBase = 0x1000
	regnoGPRMax  = 0x101f
	regnoFPRBase = 0x1020
	regnoFPRMax  = 0x103f
	regnoReserved = 0xc000
)

// sbcs field shifts/masks.
const (
	sbcsSbbusyerror        = 1 << 22
	sbcsSbbusy             = 1 << 21
	sbcsSbreadonaddr       = 1 << 20
	sbcsSbaccessShift      = 17
	sbcsSbaccessMask       = 0x7
	sbcsSbautoincrement    = 1 << 16
	sbcsSbreadondata       = 1 << 15
	sbcsSberrorShift       = 12
	sbcsSberrorMask        = 0x7
	sbcsSbasizeShift       = 5
	sbcsSbasizeMask        = 0x7f
)

// SBA error codes, §7.
const (
	SBErrNone     = 0
	SBErrTimeout  = 1
	SBErrBadAddr  = 2
	SBErrBadAlign = 3
	SBErrASize    = 4
	SBErrOther    = 7
)
