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

package config

// Bind registers every knob in c against d under its §6 name, backed by
// c's own fields via the Get/Set closures below, so a later d.Load()
// overwrites c's defaults in place and d.Save() persists whatever c
// currently holds. Used by cmd/rvdbgd to let a saved config file
// override the realize-time defaults before Validate runs.
func (c *Config) Bind(d *Disk) {
	d.Add("ir_length", newGenericInt(&c.IRLength))
	d.Add("idcode", newGenericHex32(&c.IDCode))
	d.Add("idcode_inst", newGenericUint64(&c.IDCodeInst))
	d.Add("enable_quit", newGenericBool(&c.EnableQuit))

	d.Add("abits", newGenericInt(&c.Abits))
	d.Add("dmi_addr", newGenericHex32(&c.DMIAddr))
	d.Add("dmi_next", newGenericHex32(&c.DMINext))

	d.Add("hart_count", newGenericInt(&c.HartCount))

	d.Add("nscratch", newGenericInt(&c.NScratch))
	d.Add("progbuf_count", newGenericInt(&c.ProgbufCount))
	d.Add("data_count", newGenericInt(&c.DataCount))
	d.Add("abstractcmd_count", newGenericInt(&c.AbstractCmdCount))

	d.Add("dm_phyaddr", newGenericHex32(&c.DMPhyAddr))
	d.Add("rom_phyaddr", newGenericHex32(&c.ROMPhyAddr))
	d.Add("whereto_phyaddr", newGenericHex32(&c.WheretoPhyAddr))
	d.Add("data_phyaddr", newGenericHex32(&c.DataPhyAddr))
	d.Add("progbuf_phyaddr", newGenericHex32(&c.ProgbufPhyAddr))
	d.Add("resume_offset", newGenericHex32(&c.ResumeOffset))

	d.Add("sysbus_access", newGenericBool(&c.SysbusAccess))
	d.Add("abstractauto", newGenericBool(&c.AbstractAuto))
}

// genericValue adapts a field pointer to the Value interface via a pair
// of closures, the way prefs.NewGeneric does for fields a typed wrapper
// (Bool, Int, Hex) can't reach directly.
type genericValue struct {
	set func(any) error
	get func() string
}

func (g *genericValue) Set(v any) error { return g.set(v) }
func (g *genericValue) String() string  { return g.get() }

func newGenericBool(p *bool) Value {
	var b Bool
	b.v = *p
	return &genericValue{
		set: func(v any) error {
			if err := b.Set(v); err != nil {
				return err
			}
			*p = b.v
			return nil
		},
		get: func() string {
			b.v = *p
			return b.String()
		},
	}
}

func newGenericInt(p *int) Value {
	var i Int
	return &genericValue{
		set: func(v any) error {
			if err := i.Set(v); err != nil {
				return err
			}
			*p = i.v
			return nil
		},
		get: func() string {
			i.v = *p
			return i.String()
		},
	}
}

func newGenericHex32(p *uint32) Value {
	var h Hex
	return &genericValue{
		set: func(v any) error {
			if err := h.Set(v); err != nil {
				return err
			}
			*p = h.v
			return nil
		},
		get: func() string {
			h.v = *p
			return h.String()
		},
	}
}

func newGenericUint64(p *uint64) Value {
	return &genericValue{
		set: func(v any) error {
			var h Hex
			if err := h.Set(v); err != nil {
				return err
			}
			*p = uint64(h.v)
			return nil
		},
		get: func() string {
			var h Hex
			h.v = uint32(*p)
			return h.String()
		},
	}
}
