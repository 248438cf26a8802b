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

// Package dbgerrors provides curated errors for the debug subsystem: each
// error is tagged with a stable head message so that callers (and tests)
// can match on "kind of failure" without string-matching the fully
// formatted message.
//
// Realize-time configuration failures use this package so that a daemon
// can decide whether a failure is fatal (configuration, per §7 of the
// design) or should simply be logged and absorbed into a DMI/SBA/command
// status field.
package dbgerrors

import (
	"fmt"
	"strings"
)

// Values is the list of arguments used to format a curated error.
type Values []any

type curated struct {
	message string
	values  Values
}

// Errorf creates a new curated error. message is a format string, values
// its format arguments.
func Errorf(message string, values ...any) error {
	return curated{message: message, values: values}
}

// Error implements the error interface. Adjacent duplicate message parts
// (a common symptom of wrapping the same curated error twice) are
// collapsed.
func (e curated) Error() string {
	s := fmt.Errorf(e.message, e.values...).Error()

	p := strings.SplitN(s, ": ", 3)
	if len(p) > 1 && p[0] == p[1] {
		return strings.Join(p[1:], ": ")
	}
	return strings.Join(p, ": ")
}

// Head returns the format-string head of a curated error, or the plain
// Error() string for any other error.
func Head(err error) string {
	if e, ok := err.(curated); ok {
		return e.message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Is reports whether err is a curated error with the given head.
func Is(err error, head string) bool {
	if err == nil {
		return false
	}
	e, ok := err.(curated)
	return ok && e.message == head
}

// Has reports whether msg appears as the head of err, or of any curated
// error nested in err's format values.
func Has(err error, msg string) bool {
	if err == nil {
		return false
	}
	e, ok := err.(curated)
	if !ok {
		return false
	}
	if e.message == msg {
		return true
	}
	for _, v := range e.values {
		if nested, ok := v.(curated); ok {
			if Has(nested, msg) {
				return true
			}
		}
	}
	return false
}
