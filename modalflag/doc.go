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

// Package modalflag is a wrapper around the flag package in the Go standard
// library. It provides sub-mode parsing: each mode of the program carries
// its own flags, and modes nest.
//
// In its simplest form:
//
//	md := modalflag.Modes{Output: os.Stdout}
//	md.NewArgs(os.Args[1:])
//	md.AddSubModes("run", "check")
//
//	r, err := md.Parse()
//	if r != modalflag.ParseContinue {
//		...
//	}
//
//	switch md.Mode() {
//	...
//	}
//
// After a sub-mode has been selected, NewMode() begins a fresh flag layer
// for that mode's own options.
package modalflag
