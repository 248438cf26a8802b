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

// Package riscv is a tiny RV32I instruction encoder. It exists so that the
// abstract-command engine (package dm) and the park-loop ROM builder
// (package parkrom) can synthesize instruction words arithmetically
// without scattering bit-twiddling magic numbers across both packages.
//
// Field widths are validated at construction: an out-of-range register
// number, immediate or CSR number panics immediately rather than silently
// truncating, since a malformed encoding would otherwise only surface as
// mysterious hart behaviour much later.
package riscv
