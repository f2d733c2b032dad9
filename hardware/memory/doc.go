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

// Package memory implements the device's segment store and the layer
// manager that projects segments into the 64K bus address space.
//
// Segments are flat byte buffers. Layers are page-aligned windows that map
// a run of the address space onto a segment, onto a set of access handlers,
// or onto both. Overlapping layers are resolved by priority; handlers can
// decline an access and pass it down.
//
// The hard rule throughout the package is that no operation ever touches
// bytes outside a segment and no layer window ever extends past the end of
// its segment or the address space. Violations are rejected, never clamped.
package memory
