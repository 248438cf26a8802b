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

package dbgerrors_test

import (
	"testing"

	"github.com/luismarques/qemu-sub001/dbgerrors"
	"github.com/luismarques/qemu-sub001/internal/test"
)

func TestHeadAndIs(t *testing.T) {
	err := dbgerrors.Errorf(dbgerrors.BadAbits, 3)
	test.ExpectEquality(t, dbgerrors.Head(err), dbgerrors.BadAbits)
	test.ExpectSuccess(t, dbgerrors.Is(err, dbgerrors.BadAbits))
	test.ExpectFailure(t, dbgerrors.Is(err, dbgerrors.BadIDCode))
}

func TestHasNested(t *testing.T) {
	inner := dbgerrors.Errorf(dbgerrors.DMIUnroutedAddress, 0x7f)
	outer := dbgerrors.Errorf("%v", inner)
	test.ExpectSuccess(t, dbgerrors.Has(outer, "%v"))
}

func TestHeadOfNilIsEmpty(t *testing.T) {
	test.ExpectEquality(t, dbgerrors.Head(nil), "")
}
