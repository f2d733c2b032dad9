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

// Package dsl parses device description files. A description is a JSON
// document with a device name and an ordered list of declarations:
// segments, memory layers, SIO and PBI device identities, controller
// ports, assets, script threads, functions and event bindings, and
// device-wide options.
//
// The package validates structure only: required members, unknown member
// rejection, name uniqueness, layer/segment cross references and the
// segment data budget. Script bodies are carried as text; compiling them
// into a runnable domain is the business of the hardware/device package.
//
// Parsing is all-or-nothing. Any error in any declaration fails the whole
// description, which is what allows a running device to keep its previous
// program when a hot reload picks up a broken file.
package dsl
