// This file is part of Gopher800.
//
// Gopher800 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher800 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher800.  If not, see <https://www.gnu.org/licenses/>.

// Package pbi implements the parallel bus interface: device selection
// through the select register, the shared IRQ controller with per-device
// allocatable bits, and status register reads.
//
// Status reads come in two forms. The normal form may have side effects in
// the device (event dispatch, latch clearing). The debugOnly form is for
// inspection tooling and is guaranteed to leave all state untouched.
package pbi
