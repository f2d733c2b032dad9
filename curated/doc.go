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

// Package curated is a helper package for the plain Go language error type.
// Curated errors implement the error interface.
//
// Curated errors are created with the Errorf() function. Like the Errorf()
// function in the fmt package it takes a formatting pattern and placeholder
// values, and returns an error. Unlike the fmt package, the pattern string is
// kept and used as the identity of the error.
//
// The Is() function checks whether an error is a curated error with a
// specific pattern:
//
//	e := curated.Errorf("segment: %s: access out of range", name)
//
//	if curated.Is(e, "segment: %s: access out of range") {
//		fmt.Println("true")
//	}
//
// The Has() function is similar but checks whether the pattern occurs
// anywhere in the error chain, not just at the head. A curated error wrapped
// by another curated error retains its identity for the purposes of Has().
//
// The IsAny() function answers whether the error was created by the
// Errorf() function at all. We can think of the difference between curated
// and uncurated errors as the difference between 'expected' and 'unexpected'
// errors. Uncurated errors reaching the top of the application indicate a
// programming error.
//
// The Error() function for curated errors normalises the message chain by
// removing duplicate adjacent parts. The practical advantage is that
// functions can wrap errors freely without worrying about repeated prefixes
// in the message presented to the user. Parts of a chain are the sub-strings
// separated by ': ', as suggested on p239 of "The Go Programming Language"
// (Donovan, Kernighan). For example:
//
//	device: script: script: unknown variable
//
// normalises to:
//
//	device: script: unknown variable
//
// Sentinel patterns should be stored as const strings, suitably named and
// commented, in the package that creates them.
package curated
