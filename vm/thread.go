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

import (
	"github.com/gopher800/gopher800/curated"
)

// Thread variable indices. Written by the host before dispatching a handler
// function on the thread.
const (
	ThreadVarTimestamp = iota
	ThreadVarDevice
	ThreadVarCommand
	ThreadVarAux1
	ThreadVarAux2
	ThreadVarAux
	NumThreadVars
)

// interpreter limits
const (
	maxCallDepth = 64
	maxStack     = 256

	// instructions per Resume() before the thread is killed as a runaway
	runawayLimit = 1 << 24
)

// interpreter error patterns
const (
	RunawayLoop   = "thread %s: runaway loop"
	StackOverflow = "thread %s: stack overflow"
	BadMethodCall = "thread %s: method call on non-object"
)

type frame struct {
	fn     *Function
	pc     int
	locals []int32
}

// Thread is a cooperative script thread. A thread is either idle, running
// (inside Resume()) or suspended part-way through a function chain.
//
// Threads never run concurrently. All execution happens inside Resume() on
// the caller's goroutine.
type Thread struct {
	domain *Domain

	// position in the domain's thread table. used as the tie-break wherever
	// two threads wake on the same cycle
	Index int

	Name string

	// thread variables (ThreadVarTimestamp etc.)
	Vars [NumThreadVars]int32

	// threads waiting for this thread to complete
	JoinQueue WaitQueue

	frames []frame
	stack  []Value

	started   bool
	suspended bool

	// value to push when resuming from a value-returning method
	pendingPush bool
	resumeValue int32

	// release whatever external structure the thread is parked on. set by
	// the suspending method, cleared by Unblock()
	abortFn func(*Thread)

	// value delivered by ReturnValue from the outermost frame
	result int32
}

// Domain returns the domain the thread belongs to.
func (t *Thread) Domain() *Domain {
	return t.domain
}

// IsStarted returns true if the thread has a function chain in flight,
// whether running or suspended.
func (t *Thread) IsStarted() bool {
	return t.started
}

// IsSuspended returns true if the thread is parked waiting for the host.
func (t *Thread) IsSuspended() bool {
	return t.suspended
}

// Suspend parks the thread. Only meaningful when called from a method
// implementation during Resume(). The abort function releases whatever
// external structure the thread is parked on; it runs synchronously if the
// thread is aborted before it resumes.
func (t *Thread) Suspend(abort func(*Thread)) {
	t.suspended = true
	t.abortFn = abort
}

// SetResumeInt sets the value a value-returning method delivers when the
// thread next resumes.
func (t *Thread) SetResumeInt(v int32) {
	t.resumeValue = v
}

// Unblock clears the abort handler. Whoever removes a thread from an
// external queue calls this before scheduling the thread to resume.
func (t *Thread) Unblock() {
	t.abortFn = nil
}

// Abort kills the thread. If the thread is parked on an external structure
// the abort handler runs, synchronously, before Abort returns. Joined
// threads are not woken; an aborted thread never completes.
func (t *Thread) Abort() {
	if t.abortFn != nil {
		fn := t.abortFn
		t.abortFn = nil
		fn(t)
	}
	t.frames = t.frames[:0]
	t.stack = t.stack[:0]
	t.started = false
	t.suspended = false
	t.pendingPush = false
}

// StartVoid readies the thread to run the function from the beginning but
// does not execute anything. Any function chain already in flight is
// aborted. Follow with Resume().
func (t *Thread) StartVoid(fn *Function) {
	t.Abort()
	t.pushFrame(fn, nil)
	t.started = true
}

// RunVoid runs the function on the thread from the beginning. Returns true
// if the function chain ran to completion and false if the thread suspended.
func (t *Thread) RunVoid(fn *Function) bool {
	t.StartVoid(fn)
	return t.Resume()
}

// RunInt is RunVoid for value-returning functions. The value is only
// meaningful if the completed return is true.
func (t *Thread) RunInt(fn *Function) (int32, bool) {
	t.StartVoid(fn)
	if !t.Resume() {
		return 0, false
	}
	return t.result, true
}

func (t *Thread) pushFrame(fn *Function, args []Value) {
	f := frame{
		fn:     fn,
		locals: make([]int32, fn.NumLocals),
	}
	for i := 0; i < fn.NumParams && i < len(args); i++ {
		f.locals[i] = args[i].Int
	}
	t.frames = append(t.frames, f)
}

func (t *Thread) push(v int32) {
	t.stack = append(t.stack, Value{Int: v})
}

func (t *Thread) pop() Value {
	v := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return v
}

// kill the thread in response to an interpreter error
func (t *Thread) kill(err error) {
	t.Abort()
	if t.domain.OnThreadError != nil {
		t.domain.OnThreadError(t, err)
	}
}

// Resume continues the thread from wherever it stopped. Returns true if the
// function chain ran to completion (or the thread was killed) and false if
// the thread suspended again.
func (t *Thread) Resume() bool {
	if !t.started {
		return true
	}

	t.suspended = false

	prev := t.domain.ActiveThread
	t.domain.ActiveThread = t
	defer func() {
		t.domain.ActiveThread = prev
	}()

	if t.pendingPush {
		t.pendingPush = false
		t.push(t.resumeValue)
	}

	budget := runawayLimit

	for len(t.frames) > 0 {
		budget--
		if budget <= 0 {
			t.kill(curated.Errorf(RunawayLoop, t.Name))
			return true
		}

		f := &t.frames[len(t.frames)-1]
		in := f.fn.Code[f.pc]
		f.pc++

		switch in.Op {
		case OpNop:

		case OpPushInt:
			t.push(in.A)

		case OpPushObject:
			t.stack = append(t.stack, Value{Obj: t.domain.Objects[in.A]})

		case OpPop:
			t.pop()

		case OpLoadLocal:
			t.push(f.locals[in.A])
		case OpStoreLocal:
			f.locals[in.A] = t.pop().Int
		case OpLoadGlobal:
			t.push(t.domain.Globals[in.A])
		case OpStoreGlobal:
			t.domain.Globals[in.A] = t.pop().Int
		case OpLoadThread:
			t.push(t.Vars[in.A])

		case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpAnd, OpOr, OpXor,
			OpShl, OpShr, OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
			b := t.pop().Int
			a := t.pop().Int
			t.push(binaryOp(in.Op, a, b))

		case OpNeg:
			t.push(-t.pop().Int)
		case OpNot:
			t.push(^t.pop().Int)
		case OpBool:
			if t.pop().Int != 0 {
				t.push(1)
			} else {
				t.push(0)
			}
		case OpLNot:
			if t.pop().Int != 0 {
				t.push(0)
			} else {
				t.push(1)
			}

		case OpJump:
			f.pc = int(in.A)
		case OpJz:
			if t.pop().Int == 0 {
				f.pc = int(in.A)
			}
		case OpJnz:
			if t.pop().Int != 0 {
				f.pc = int(in.A)
			}

		case OpCallFunc:
			if len(t.frames) >= maxCallDepth {
				t.kill(curated.Errorf(StackOverflow, t.Name))
				return true
			}
			fn := t.domain.Functions[in.A]
			argc := int(in.B)
			args := t.stack[len(t.stack)-argc:]
			t.pushFrame(fn, args)
			t.stack = t.stack[:len(t.stack)-argc]

		case OpCallMethod:
			argc := int(in.B)
			args := t.stack[len(t.stack)-argc:]
			recv := t.stack[len(t.stack)-argc-1]
			if recv.Obj == nil {
				t.kill(curated.Errorf(BadMethodCall, t.Name))
				return true
			}
			m := &recv.Obj.Class().Methods[in.A]
			ret := m.Fn(t, args)
			t.stack = t.stack[:len(t.stack)-argc-1]
			if t.suspended {
				t.pendingPush = m.Returns
				return false
			}
			if m.Returns {
				t.push(ret)
			}

		case OpReturn:
			t.frames = t.frames[:len(t.frames)-1]

		case OpReturnValue:
			v := t.pop().Int
			t.frames = t.frames[:len(t.frames)-1]
			if len(t.frames) > 0 {
				t.push(v)
			} else {
				t.result = v
			}
		}

		if len(t.stack) > maxStack {
			t.kill(curated.Errorf(StackOverflow, t.Name))
			return true
		}
	}

	// completed
	t.started = false
	t.stack = t.stack[:0]

	if t.domain.OnThreadDone != nil {
		t.domain.OnThreadDone(t)
	}

	return true
}

func binaryOp(op Opcode, a, b int32) int32 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		if b == 0 {
			return 0
		}
		if a == -1<<31 && b == -1 {
			return a
		}
		return a / b
	case OpMod:
		if b == 0 {
			return 0
		}
		if a == -1<<31 && b == -1 {
			return 0
		}
		return a % b
	case OpAnd:
		return a & b
	case OpOr:
		return a | b
	case OpXor:
		return a ^ b
	case OpShl:
		return a << uint(b&31)
	case OpShr:
		return a >> uint(b&31)
	case OpEq:
		return boolInt(a == b)
	case OpNe:
		return boolInt(a != b)
	case OpLt:
		return boolInt(a < b)
	case OpLe:
		return boolInt(a <= b)
	case OpGt:
		return boolInt(a > b)
	case OpGe:
		return boolInt(a >= b)
	}
	return 0
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
