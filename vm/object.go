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

package vm

// Value is a single stack slot. Obj is nil for plain integers. Object values
// only ever appear as method arguments; arithmetic on an object value uses
// the Int field, which is always zero for objects.
type Value struct {
	Int int32
	Obj Object
}

// IntValue is a convenience constructor for a plain integer Value.
func IntValue(v int32) Value {
	return Value{Int: v}
}

// Object is any host entity that scripts can call methods on. Objects are
// bound into a Domain by name at compile time.
type Object interface {
	Class() *Class
}

// Flags describe the blocking behaviour of functions and methods. A method
// carrying a flag can only be compiled into a function whose context allows
// that flag. A function's flags are the union of the flags of everything it
// calls.
type Flags uint8

const (
	// FlagAsyncSIO marks methods that can suspend the thread on serial
	// protocol operations (send_frame, recv_frame, delay).
	FlagAsyncSIO Flags = 1 << iota

	// FlagAsyncRawSIO marks methods that can suspend the thread on raw
	// serial operations and command/motor line waits.
	FlagAsyncRawSIO

	// FlagAsyncNet marks methods that can suspend the thread on network
	// round-trips.
	FlagAsyncNet

	// FlagAsyncThread marks methods that can suspend the thread
	// indefinitely on another thread (sleep, join).
	FlagAsyncThread
)

// FlagAsyncAll is the set of all async flags. Thread entry functions are
// compiled with this allowance.
const FlagAsyncAll = FlagAsyncSIO | FlagAsyncRawSIO | FlagAsyncNet | FlagAsyncThread

// MethodFn is the host implementation of a script-callable method. The
// function may call Suspend() on the thread, in which case the return value
// is ignored and the value provided to SetResumeInt() is used when the
// thread resumes.
type MethodFn func(t *Thread, args []Value) int32

// StringParam marks a method parameter as taking a string constant. The
// argument value is an index into the domain string table.
const StringParam = "$string"

// Method describes one entry in a Class method table.
type Method struct {
	Name string

	// "" for an integer parameter, StringParam for a string constant,
	// otherwise the name of the required class
	Params []string

	// does the method push a result
	Returns bool

	// async flags required to call this method
	Flags Flags

	Fn MethodFn
}

// Class is a method table shared by all objects of one kind.
type Class struct {
	Name    string
	Methods []Method
}

// MethodIndex returns the index of the named method, or -1.
func (c *Class) MethodIndex(name string) int {
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			return i
		}
	}
	return -1
}
