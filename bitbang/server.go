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

// Package bitbang implements the Remote BitBang wire protocol, §4.2: a
// single-threaded cooperative consumer of a byte stream (usually a TCP
// socket opened by cmd/rvdbgd) that decodes one ASCII byte per clock/reset/
// read event and drives a *jtag.TAP directly. There is no third-party
// implementation of this protocol in the Go ecosystem to build on (it is
// an OpenOCD-specific ASCII wire format with no general-purpose library),
// so this is hand-decoded against the design's own byte table.
package bitbang

import (
	"bufio"
	"io"

	"github.com/luismarques/qemu-sub001/dbgerrors"
	"github.com/luismarques/qemu-sub001/jtag"
	"github.com/luismarques/qemu-sub001/logger"
)

// bufferCapacity is the "up to ~4 KiB between reads" flow-control figure
// from §4.2.
const bufferCapacity = 4096

// Config holds the realize-time knobs for a Server.
type Config struct {
	// EnableQuit gates the 'Q' byte. A production daemon normally leaves
	// this false; it exists for test harnesses that need to tell the
	// emulator to exit cleanly over the same channel that drives it.
	EnableQuit bool
}

// Server decodes the Remote BitBang byte protocol against one *jtag.TAP.
// It is not safe for concurrent use by multiple goroutines: the protocol
// is inherently single-threaded cooperative, one byte at a time, per its
// own description.
type Server struct {
	tap *jtag.TAP
	cfg Config

	quitRequested bool
}

// NewServer creates a Server bound to tap. tap may be nil, in which case
// Capacity reports zero per the flow-control contract ("when no TAP is
// configured it reports zero-capacity") and Serve still consumes bytes
// off the stream (so a misconfigured peer doesn't wedge) but every event
// is a no-op.
func NewServer(tap *jtag.TAP, cfg Config) *Server {
	return &Server{tap: tap, cfg: cfg}
}

// Capacity returns how many bytes the server currently accepts before it
// needs another read, per §4.2's flow-control contract.
func (s *Server) Capacity() int {
	if s.tap == nil {
		return 0
	}
	return bufferCapacity
}

// QuitRequested reports whether a 'Q' byte has been processed (and
// EnableQuit was set). A driving loop in cmd/rvdbgd polls this to decide
// when to tear the emulator down.
func (s *Server) QuitRequested() bool {
	return s.quitRequested
}

// Serve decodes bytes from r, driving the TAP and writing TDO responses to
// w, until r returns an error (including io.EOF) or a 'Q' byte is accepted.
// Writes back to the peer happen synchronously within the same call that
// processed 'R', matching the design's ordering guarantee.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	br := bufio.NewReaderSize(r, bufferCapacity)
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if done, err := s.process(b, w); done || err != nil {
			return err
		}
	}
}

// process handles a single protocol byte. done reports that Serve should
// stop (a 'Q' byte was accepted).
func (s *Server) process(b byte, w io.Writer) (done bool, err error) {
	switch {
	case b >= '0' && b <= '7':
		bits := b - '0'
		tck := bits&(1<<2) != 0
		tms := bits&(1<<1) != 0
		tdi := bits&(1<<0) != 0
		if s.tap == nil {
			logger.Logf("bitbang", dbgerrors.Errorf(dbgerrors.TAPNotEnabled).Error())
			break
		}
		s.tap.Step(tck, tms, tdi)

	case b == 'r':
		s.reset(false, false)
	case b == 's':
		s.reset(false, true)
	case b == 't':
		s.reset(true, false)
	case b == 'u':
		s.reset(true, true)

	case b == 'R':
		bit := byte('0')
		if s.tap != nil && s.tap.TDO() {
			bit = '1'
		}
		_, err = w.Write([]byte{bit})
		return false, err

	case b == 'B' || b == 'b':
		// LED blink on/off: no-op in emulation, per §4.2.

	case b == 'Q':
		if s.cfg.EnableQuit {
			s.quitRequested = true
			return true, nil
		}
		logger.Logf("bitbang", "'Q' received but quit is not enabled, ignoring")

	default:
		logger.Logf("bitbang", dbgerrors.Errorf(dbgerrors.UnknownBitbangByte, b).Error())
	}
	return false, nil
}

func (s *Server) reset(trst, srst bool) {
	if s.tap != nil {
		s.tap.Reset(trst, srst)
	}
}
