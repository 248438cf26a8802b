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

package logger_test

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/luismarques/qemu-sub001/internal/test"
	"github.com/luismarques/qemu-sub001/logger"
)

func TestRingBuffer(t *testing.T) {
	log := logger.NewLogger(2)
	w := &strings.Builder{}

	log.Log(logger.Allow, "dmi", "op 1")
	log.Log(logger.Allow, "dmi", "op 2")
	log.Log(logger.Allow, "dmi", "op 3")

	log.Write(w)
	test.ExpectEquality(t, w.String(), "dmi: op 2\ndmi: op 3\n")
}

func TestTail(t *testing.T) {
	log := logger.NewLogger(100)
	w := &strings.Builder{}

	log.Write(w)
	test.ExpectEquality(t, w.String(), "")

	log.Log(logger.Allow, "tap", "reset")
	log.Log(logger.Allow, "dm", "haltreq")

	w.Reset()
	log.Tail(w, 1)
	test.ExpectEquality(t, w.String(), "dm: haltreq\n")

	w.Reset()
	log.Tail(w, 100)
	test.ExpectEquality(t, w.String(), "tap: reset\ndm: haltreq\n")

	w.Reset()
	log.Tail(w, 0)
	test.ExpectEquality(t, w.String(), "")
}

type prohibitLogging struct {
	allow int
}

func (p prohibitLogging) AllowLogging() bool {
	return p.allow > 50
}

func TestPermissions(t *testing.T) {
	log := logger.NewLogger(100)
	w := &strings.Builder{}

	var p prohibitLogging

	for i := 0; i < 100; i++ {
		p.allow = rand.Intn(100)
		log.Clear()
		w.Reset()
		log.Log(p, "tag", "detail")
		log.Write(w)
		if p.AllowLogging() {
			test.ExpectEquality(t, w.String(), "tag: detail\n")
		} else {
			test.ExpectEquality(t, w.String(), "")
		}
	}
}

func TestErrorAndFormattedLogging(t *testing.T) {
	log := logger.NewLogger(100)
	w := &strings.Builder{}

	log.Log(logger.Allow, "dmi", errors.New("unmapped address"))
	log.Write(w)
	test.ExpectEquality(t, w.String(), "dmi: unmapped address\n")

	log.Clear()
	w.Reset()
	log.Logf(logger.Allow, "sba", "bad alignment: %08x", 0x1001)
	log.Write(w)
	test.ExpectEquality(t, w.String(), "sba: bad alignment: 00001001\n")
}
