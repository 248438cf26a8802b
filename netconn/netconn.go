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

// Package netconn serves a bitbang.Server over a net.Listener, such as
// cmd/rvdbgd's production TCP transport. bitbang.Server itself only knows
// about io.Reader/io.Writer, so this package's entire job is accepting
// connections and handing each one to a Server in its own goroutine.
package netconn

import (
	"io"
	"net"

	"github.com/luismarques/qemu-sub001/logger"
)

// Serveable is the subset of bitbang.Server that a connection loop needs.
type Serveable interface {
	Serve(r io.Reader, w io.Writer) error
}

// Listener accepts connections on a net.Listener and serves each one
// with a freshly constructed Server, via newServer. One hart's worth of
// JTAG traffic is strictly sequential (§4.2 is single-threaded
// cooperative), so newServer is called once per accepted connection
// rather than sharing one Server across connections.
type Listener struct {
	ln        net.Listener
	newServer func() Serveable
}

// NewListener wraps ln, serving each accepted connection with a Server
// built by newServer.
func NewListener(ln net.Listener, newServer func() Serveable) *Listener {
	return &Listener{ln: ln, newServer: newServer}
}

// Serve accepts connections until ln.Accept returns an error (typically
// because the listener was closed during shutdown), serving each one in
// its own goroutine so a stuck peer cannot wedge the others.
func (l *Listener) Serve() error {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return err
		}
		go func() {
			defer conn.Close()
			s := l.newServer()
			if err := s.Serve(conn, conn); err != nil {
				logger.Logf("netconn", "connection from %s ended: %v", conn.RemoteAddr(), err)
			}
		}()
	}
}
