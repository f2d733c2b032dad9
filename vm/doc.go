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

// Package vm implements the bytecode runtime that device scripts execute on.
//
// The instruction set is deliberately small. Values are 32-bit signed
// integers; object references exist only as compile-time constants pushed by
// the compiler and consumed by method calls. There is no garbage collector
// and no dynamic allocation at run time beyond the value stack.
//
// A Domain is one compiled device description: global variables, functions,
// host objects and the threads that run against them. Threads are
// cooperative. A thread runs until its function chain returns or until a
// host method suspends it, at which point control returns to the caller of
// Resume(). A suspended thread holds its continuation (call frames, value
// stack, program counter) and an abort handler that releases whatever
// external resource the thread is parked on.
//
// Nothing in this package schedules threads. Wake policy (sleep queues, wait
// queues, run queues) belongs to the caller; the package only provides the
// suspend/resume machinery and the FIFO WaitQueue container.
package vm
