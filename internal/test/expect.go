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

// Package test collects small assertion helpers used throughout the
// project's test suites, in place of a third-party assertion library.
package test

import (
	"math"
	"reflect"
	"testing"
)

// ExpectSuccess fails the test unless v indicates success. Accepted types
// are bool, error (nil is success) and nil.
func ExpectSuccess(t *testing.T, v any) {
	t.Helper()

	switch v := v.(type) {
	case bool:
		if !v {
			t.Errorf("expected success")
		}
	case error:
		if v != nil {
			t.Errorf("expected success: %v", v)
		}
	case nil:
		return
	default:
		t.Errorf("unsupported type (%T) passed to ExpectSuccess", v)
	}
}

// ExpectFailure fails the test unless v indicates failure. Accepted types
// are bool and error.
func ExpectFailure(t *testing.T, v any) {
	t.Helper()

	switch v := v.(type) {
	case bool:
		if v {
			t.Errorf("expected failure")
		}
	case error:
		if v == nil {
			t.Errorf("expected failure")
		}
	default:
		t.Errorf("unsupported type (%T) passed to ExpectFailure", v)
	}
}

// ExpectEquality fails the test unless a and b are equal.
func ExpectEquality(t *testing.T, a any, b any) {
	t.Helper()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("expected equality: %v != %v", a, b)
	}
}

// ExpectInequality fails the test if a and b are equal.
func ExpectInequality(t *testing.T, a any, b any) {
	t.Helper()
	if reflect.DeepEqual(a, b) {
		t.Errorf("expected inequality: %v == %v", a, b)
	}
}

// ExpectApproximate fails the test unless a and b are within tolerance of
// one another.
func ExpectApproximate(t *testing.T, a float64, b float64, tolerance float64) {
	t.Helper()
	if math.Abs(a-b) > tolerance {
		t.Errorf("expected %v to be within %v of %v", a, tolerance, b)
	}
}
