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

// Package monitor is a simple terminal inspector for a running device. It
// lists segments and layers, peeks and pokes the bus, steps the clock and
// triggers resets. It is deliberately not a debugger; the scripts running
// inside the device are not visible to it beyond their effects on memory.
//
// The monitor takes over the terminal while it runs. The device must not be
// driven from anywhere else during that time.
package monitor
