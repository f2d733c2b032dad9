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

// Package sio implements the serial bus between the computer and the
// device: command frame accumulation and dispatch, timed data transmission,
// fences, raw byte mode and the motor/proceed/interrupt lines.
//
// The emulation is protocol level, not electrical. Bytes move whole, on a
// cycle budget of CyclesPerByte, rather than bit by bit. What the package
// is strict about is ordering: everything a device queues goes out on the
// bus in queue order, and a fence fires only when everything queued before
// it has been transmitted.
package sio
