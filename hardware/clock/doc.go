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

// Package clock implements the cycle clock that the rest of the hardware
// package hangs off. The clock is a 64-bit tick counter with a queue of
// scheduled events. Nothing about the clock is wall-time; a tick is a machine
// cycle and the host decides how quickly ticks pass.
//
// Determinism is the whole point of the package. Given the same sequence of
// SetEvent() and Advance() calls the same events fire at the same ticks in
// the same order, every time.
package clock
