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

// Package device assembles a programmable custom device from a JSON
// description file. The description declares memory segments and layers,
// serial and parallel bus devices, scripts and the event hooks that bind
// them together. The result is a Device that the emulated machine drives
// through its bus surfaces.
//
// Compilation is atomic. A description either compiles completely, giving a
// fresh program with its own memory map and script domain, or it fails and
// leaves the running program untouched. Hot reload is built on the same
// property: the watched files are recompiled when they settle after a
// change and the new program is swapped in whole.
//
// Scripts run cooperatively on a single goroutine. A blocking operation
// (sleep, a serial transfer, a wait on a bus line, a network round trip)
// suspends the calling thread and the scheduler resumes it when the event
// arrives.
// The scheduler is driven entirely by the device clock so behaviour is
// deterministic for a given stimulus.
package device
