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

// Package console is an interactive, raw-mode front end for the Remote
// BitBang protocol: it reads single key presses from a real terminal
// ('0'-'7', 'r', 's', 't', 'u', 'R', 'B', 'b', 'Q') and feeds them
// straight to a bitbang.Server, printing TDO responses as they arrive.
// It exists so a developer can poke at a TAP by hand without running a
// full OpenOCD instance, the same job easyterm does for the teacher's
// colour-terminal debugger front end, wrapping the same
// "github.com/pkg/term/termios" primitives.
package console

import (
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/term/termios"

	"github.com/luismarques/qemu-sub001/bitbang"
)

// Console puts the controlling terminal into cbreak mode (input
// available byte-by-byte, no local echo of control characters) for the
// duration of Run, restoring the original mode on return.
type Console struct {
	in  *os.File
	out *os.File

	canonical syscall.Termios
	cbreak    syscall.Termios
}

// New prepares a Console reading from in and writing to out. Call Run to
// enter the interactive loop.
func New(in, out *os.File) (*Console, error) {
	if in == nil || out == nil {
		return nil, fmt.Errorf("console: input and output files are required")
	}

	c := &Console{in: in, out: out}
	if err := termios.Tcgetattr(c.in.Fd(), &c.canonical); err != nil {
		return nil, err
	}
	c.cbreak = c.canonical
	termios.Cfmakecbreak(&c.cbreak)
	return c, nil
}

// Run enters cbreak mode and feeds every byte typed at c.in to srv,
// printing 'R' responses and the current TAP state is left entirely to
// srv/the underlying TAP. Run returns when srv reports the byte stream
// ended (EOF, or a 'Q' byte if the server was built with EnableQuit).
func (c *Console) Run(srv *bitbang.Server) error {
	if err := termios.Tcsetattr(c.in.Fd(), termios.TCSANOW, &c.cbreak); err != nil {
		return err
	}
	defer termios.Tcsetattr(c.in.Fd(), termios.TCSANOW, &c.canonical)

	fmt.Fprintln(c.out, "remote bitbang console: 0-7 clock, r/s/t/u reset, R read TDO, Q quit")
	return srv.Serve(c.in, c.out)
}
