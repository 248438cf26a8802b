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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luismarques/qemu-sub001/config"
	"github.com/luismarques/qemu-sub001/internal/test"
)

func tmpPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "qemu-sub001-config-test")
}

func TestDefaultValidates(t *testing.T) {
	c := config.Default(0x1000)
	test.ExpectSuccess(t, c.Validate())
}

func TestValidateRejectsBadIRLength(t *testing.T) {
	c := config.Default(0x1000)
	c.IRLength = 0
	test.ExpectFailure(t, c.Validate())

	c.IRLength = 9
	test.ExpectFailure(t, c.Validate())
}

func TestValidateRejectsZeroIDCode(t *testing.T) {
	c := config.Default(0x1000)
	c.IDCode = 0
	test.ExpectFailure(t, c.Validate())
}

func TestValidateRejectsBadAbits(t *testing.T) {
	c := config.Default(0x1000)
	c.Abits = 6
	test.ExpectFailure(t, c.Validate())

	c.Abits = 31
	test.ExpectFailure(t, c.Validate())
}

func TestAbitsBoundaryAccepted(t *testing.T) {
	c := config.Default(0x1000)
	c.Abits = 7
	test.ExpectSuccess(t, c.Validate())
	c.Abits = 30
	test.ExpectSuccess(t, c.Validate())
}

func TestProjectionsCarryDerivedOffsets(t *testing.T) {
	c := config.Default(0x2000)
	dmCfg := c.DMConfig()
	test.ExpectEquality(t, dmCfg.ROMPhyAddr, c.ROMPhyAddr)
	test.ExpectEquality(t, dmCfg.DMPhyAddr, uint32(0x2000))

	tapCfg := c.TAPConfig()
	test.ExpectEquality(t, tapCfg.IRLength, c.IRLength)
	test.ExpectEquality(t, tapCfg.IDCode, c.IDCode)
}

func TestDiskRoundTrip(t *testing.T) {
	path := tmpPath(t)
	defer os.Remove(path)

	d, err := config.NewDisk(path)
	test.ExpectSuccess(t, err)

	c := config.Default(0x1000)
	c.Bind(d)
	test.ExpectSuccess(t, d.Save())

	c2 := config.Config{}
	d2, err := config.NewDisk(path)
	test.ExpectSuccess(t, err)
	c2.Bind(d2)
	test.ExpectSuccess(t, d2.Load())

	test.ExpectEquality(t, c2.Abits, c.Abits)
	test.ExpectEquality(t, c2.IDCode, c.IDCode)
	test.ExpectEquality(t, c2.DMPhyAddr, c.DMPhyAddr)
	test.ExpectEquality(t, c2.SysbusAccess, c.SysbusAccess)
}

func TestDiskLoadIgnoresMissingFile(t *testing.T) {
	d, err := config.NewDisk(tmpPath(t))
	test.ExpectSuccess(t, err)
	var c config.Config
	c.Bind(d)
	test.ExpectSuccess(t, d.Load()) // no file yet: not an error
}

func TestHexValueParsesWithOrWithoutPrefix(t *testing.T) {
	var h config.Hex
	test.ExpectSuccess(t, h.Set("0x1a"))
	test.ExpectEquality(t, h.Get(), uint32(0x1a))
	test.ExpectSuccess(t, h.Set("2b"))
	test.ExpectEquality(t, h.Get(), uint32(0x2b))
}

func TestBoolValueAcceptsStringForms(t *testing.T) {
	var b config.Bool
	test.ExpectSuccess(t, b.Set("true"))
	test.ExpectEquality(t, b.Get(), true)
	test.ExpectSuccess(t, b.Set("1"))
	test.ExpectEquality(t, b.Get(), true)
	test.ExpectSuccess(t, b.Set("false"))
	test.ExpectEquality(t, b.Get(), false)
}
