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

import (
	"github.com/luismarques/qemu-sub001/addrspace"
	"github.com/luismarques/qemu-sub001/riscv"
)

// execAccessRegister implements the ACCESS_REGISTER command, §4.5: it
// synthesizes an RV32I snippet into the abstractcmd slot, patches whereto,
// and arms FLAG.GO. Completion arrives later via onAckGoing/onAckHalted/
// onAckException, not from this call.
func (d *DM) execAccessRegister(hb *hartBinding, value uint32) {
	aarsize := (value >> arAarsizeShift) & arAarsizeMask
	postexec := value&arPostexec != 0
	transfer := value&arTransfer != 0
	write := value&arWrite != 0
	postincrement := value&arAarpostincrement != 0
	regno := value & arRegnoMask

	if postincrement {
		d.setCmdErr(CmdErrNotSupported)
		return
	}
	if transfer && aarsize > riscvMisaMXL2 {
		d.setCmdErr(CmdErrNotSupported)
		return
	}
	if regno >= regnoReserved {
		d.setCmdErr(CmdErrNotSupported)
		return
	}

	// dcsr is maintained by the Hart, not the simulated core's CSR file
	// (§4.8): a write must reach hb.h.SetDCSR so dcsr.step actually arms
	// single-stepping, and the access completes synchronously since
	// nothing needs to run on the hart to service it.
	if transfer && regno == riscv.CSRDcsr {
		if write {
			buf := make([]byte, 4)
			d.page.Read(d.cfg.DataPhyAddr, addrspace.DM, buf)
			hb.h.SetDCSR(le32(buf))
		} else {
			buf := make([]byte, 4)
			putLE32(buf, hb.h.DCSR())
			d.page.Write(d.cfg.DataPhyAddr, addrspace.DM, buf)
		}
		return
	}

	var snippet []uint32
	switch {
	case regno <= regnoCSRMax:
		snippet = buildCSRSnippet(d.cfg.DataPhyAddr, regno, write, transfer)
	case regno >= regnoGPRBase && regno <= regnoGPRMax:
		snippet = buildGPRSnippet(d.cfg.DataPhyAddr, regno-regnoGPRBase, write, transfer)
	case regno >= regnoFPRBase && regno <= regnoFPRMax:
		snippet = buildFPRSnippet(d.cfg.DataPhyAddr, regno-regnoFPRBase, write, transfer, aarsize)
	default:
		d.setCmdErr(CmdErrNotSupported)
		return
	}

	if postexec && len(snippet) > 0 && snippet[len(snippet)-1] == riscv.Ebreak() {
		// Falls through into the program buffer instead of stopping.
		snippet[len(snippet)-1] = riscv.Nop()
	}

	d.dispatchSnippet(hb, snippet)
}

// buildCSRSnippet implements the 0x0000..0x0FFF regno range: swap S0 via
// DSCRATCH0, move the value through S0, restore S0.
func buildCSRSnippet(dataPhyAddr uint32, csr uint32, write, transfer bool) []uint32 {
	var insns []uint32
	insns = append(insns, riscv.Csrrw(riscv.X0, riscv.CSRDscratch0, riscv.S0))
	if transfer {
		insns = append(insns, riscv.LoadImmediate(riscv.T0, dataPhyAddr)...)
		if write {
			insns = append(insns,
				riscv.Load(riscv.Width32, riscv.S0, riscv.T0, 0),
				riscv.Csrrw(riscv.X0, csr, riscv.S0),
			)
		} else {
			insns = append(insns,
				riscv.Csrrs(riscv.S0, csr, riscv.X0),
				riscv.Store(riscv.Width32, riscv.S0, riscv.T0, 0),
			)
		}
	}
	insns = append(insns, riscv.Csrr(riscv.S0, riscv.CSRDscratch0))
	insns = append(insns, riscv.Ebreak())
	return insns
}

// buildGPRSnippet implements the 0x1000..0x101F regno range (x0..x31):
// the target register itself carries the value, so no save/restore is
// needed around it, only a scratch base-address register distinct from
// the target.
func buildGPRSnippet(dataPhyAddr uint32, gpr uint32, write, transfer bool) []uint32 {
	base := uint32(riscv.T0)
	if gpr == riscv.T0 {
		base = riscv.T1
	}
	var insns []uint32
	if transfer {
		insns = append(insns, riscv.LoadImmediate(base, dataPhyAddr)...)
		if write {
			insns = append(insns, riscv.Load(riscv.Width32, gpr, base, 0))
		} else {
			insns = append(insns, riscv.Store(riscv.Width32, gpr, base, 0))
		}
	}
	insns = append(insns, riscv.Ebreak())
	return insns
}

// buildFPRSnippet implements the 0x1020..0x103F regno range using
// fl*/fs* per aarsize. The interpreter standing in for the hart in this
// module (package rv32) does not implement the F extension; this
// synthesis is provided for completeness against the design note's
// request for "floating-point variants" and would need a hart with F
// support to actually retire.
func buildFPRSnippet(dataPhyAddr uint32, fpr uint32, write, transfer bool, aarsize uint32) []uint32 {
	width := riscv.Width32
	if aarsize >= 3 {
		width = riscv.Width64
	}
	var insns []uint32
	if transfer {
		insns = append(insns, riscv.LoadImmediate(riscv.T0, dataPhyAddr)...)
		if write {
			insns = append(insns, riscv.FLoad(width, fpr, riscv.T0, 0))
		} else {
			insns = append(insns, riscv.FStore(width, fpr, riscv.T0, 0))
		}
	}
	insns = append(insns, riscv.Ebreak())
	return insns
}

// dispatchSnippet writes the snippet into the abstractcmd slot, patches
// whereto with a jal to it, and arms FLAG.GO, per the "Execution
// handshake" in §4.5. It never blocks: the call returns once the memory
// is written, matching the "DM writes snippet + flags and returns"
// control-flow shape (§9).
func (d *DM) dispatchSnippet(hb *hartBinding, snippet []uint32) {
	buf := make([]byte, len(snippet)*4)
	for i, w := range snippet {
		putLE32(buf[i*4:i*4+4], w)
	}
	d.page.Write(d.cfg.DMPhyAddr+OffsetAbstractCmd, addrspace.DM, buf)

	offset := int32(d.cfg.DMPhyAddr+OffsetAbstractCmd) - int32(d.cfg.WheretoPhyAddr)
	wherebuf := make([]byte, 4)
	putLE32(wherebuf, riscv.Jal(riscv.X0, offset))
	d.page.Write(d.cfg.WheretoPhyAddr, addrspace.DM, wherebuf)

	d.regs[RegAbstractCS] |= abstractcsBusy
	d.toGo[hb.h.ID] = true
	d.setFlag(hb.h.ID, FlagGo)
}

// execAccessMemory implements the ACCESS_MEMORY command, §4.5: a direct
// DM-side transaction through the system address space, entirely outside
// the hart and so it always completes synchronously.
func (d *DM) execAccessMemory(_ *hartBinding, value uint32) {
	aamsize := (value >> amAamsizeShift) & amAamsizeMask
	write := value&amWrite != 0
	postincrement := value&amAampostincrement != 0

	width := 1 << aamsize
	if width > 4 {
		d.setCmdErr(CmdErrNotSupported)
		return
	}

	addrBuf := make([]byte, 4)
	d.page.Read(d.cfg.DataPhyAddr+4, addrspace.DM, addrBuf)
	addr := le32(addrBuf)

	if addr%uint32(width) != 0 {
		d.setCmdErr(CmdErrBus)
		return
	}

	if write {
		full := make([]byte, 4)
		d.page.Read(d.cfg.DataPhyAddr, addrspace.DM, full)
		if !d.cfg.SystemMem.Write(addr, addrspace.SBA, full[:width]) {
			d.setCmdErr(CmdErrBus)
			return
		}
	} else {
		dataBuf := make([]byte, 4)
		if !d.cfg.SystemMem.Read(addr, addrspace.SBA, dataBuf[:width]) {
			d.setCmdErr(CmdErrBus)
			return
		}
		d.page.Write(d.cfg.DataPhyAddr, addrspace.DM, dataBuf)
	}

	if postincrement {
		putLE32(addrBuf, addr+uint32(width))
		d.page.Write(d.cfg.DataPhyAddr+4, addrspace.DM, addrBuf)
	}
}
