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

// Domain is one compiled device description and everything that executes
// against it. A recompile produces a whole new Domain; the old one is
// discarded wholesale, which is what makes configuration reloads atomic.
type Domain struct {
	// global variables, zeroed on cold reset
	Globals []int32

	// all compiled functions, in declaration order
	Functions []*Function

	// objects that scripts can reference by name. the compiler pushes
	// entries of this table with OpPushObject
	Objects []Object

	// string constants. scripts refer to these by index
	Strings []string

	// all threads created against this domain, in creation order. a
	// thread's Index field is its position in this slice
	Threads []*Thread

	// the thread currently executing, nil outside of Resume()
	ActiveThread *Thread

	// called whenever a thread runs to completion. the scheduler uses this
	// to release threads parked on the completed thread's join queue
	OnThreadDone func(*Thread)

	// called when a thread is killed by the interpreter (runaway loop,
	// stack overflow). may be nil
	OnThreadError func(*Thread, error)
}

// NewDomain is the preferred method of initialisation of the Domain type.
func NewDomain() *Domain {
	return &Domain{}
}

// NewThread creates a thread attached to the domain. Thread creation order
// decides tie-breaks wherever two threads become runnable on the same cycle,
// so threads must be created in declaration order.
func (d *Domain) NewThread(name string) *Thread {
	t := &Thread{
		domain: d,
		Index:  len(d.Threads),
		Name:   name,
	}
	d.Threads = append(d.Threads, t)
	return t
}

// AddObject appends an object to the domain object table, returning its
// index for the compiler to reference.
func (d *Domain) AddObject(obj Object) int {
	d.Objects = append(d.Objects, obj)
	return len(d.Objects) - 1
}

// AddString interns a string constant, returning its index. Identical
// strings share an entry.
func (d *Domain) AddString(s string) int {
	for i := range d.Strings {
		if d.Strings[i] == s {
			return i
		}
	}
	d.Strings = append(d.Strings, s)
	return len(d.Strings) - 1
}

// String returns the string constant with the given index. An out of range
// index returns the empty string.
func (d *Domain) String(idx int32) string {
	if idx < 0 || int(idx) >= len(d.Strings) {
		return ""
	}
	return d.Strings[idx]
}

// AddFunction appends a function to the domain function table, returning its
// index for the compiler to reference.
func (d *Domain) AddFunction(fn *Function) int {
	d.Functions = append(d.Functions, fn)
	return len(d.Functions) - 1
}

// Reset aborts every thread and zeroes every global variable. Object state
// is the owner's problem.
func (d *Domain) Reset() {
	for _, t := range d.Threads {
		t.Abort()
	}
	for i := range d.Globals {
		d.Globals[i] = 0
	}
}
