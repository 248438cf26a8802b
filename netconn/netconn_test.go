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

package netconn_test

import (
	"net"
	"testing"
	"time"

	"github.com/luismarques/qemu-sub001/bitbang"
	"github.com/luismarques/qemu-sub001/internal/test"
	"github.com/luismarques/qemu-sub001/jtag"
	"github.com/luismarques/qemu-sub001/netconn"
)

func TestListenerServesEachConnection(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	test.ExpectSuccess(t, err)
	defer ln.Close()

	l := netconn.NewListener(ln, func() netconn.Serveable {
		tap, err := jtag.NewTAP(jtag.Config{IRLength: 4, IDCode: 0xdeadbeef, IDCodeInst: 1})
		test.ExpectSuccess(t, err)
		return bitbang.NewServer(tap, bitbang.Config{})
	})
	go l.Serve()

	conn, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	test.ExpectSuccess(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{'R'})
	test.ExpectSuccess(t, err)

	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = conn.Read(buf)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, buf[0], byte('0'))
}
