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

package script_test

import (
	"testing"

	"github.com/gopher800/gopher800/test"
	"github.com/gopher800/gopher800/vm"
	"github.com/gopher800/gopher800/vm/script"
)

// a counter object for scripts to poke at
type counter struct {
	class *vm.Class
	value int32

	// whether wait() was called and left the thread suspended
	waiting bool
}

func newCounter() *counter {
	c := &counter{}
	c.class = &vm.Class{
		Name: "counter",
		Methods: []vm.Method{
			{
				Name:   "add",
				Params: []string{""},
				Fn: func(t *vm.Thread, args []vm.Value) int32 {
					c.value += args[0].Int
					return 0
				},
			},
			{
				Name:    "get",
				Returns: true,
				Fn: func(t *vm.Thread, args []vm.Value) int32 {
					return c.value
				},
			},
			{
				Name:    "wait",
				Returns: true,
				Flags:   vm.FlagAsyncThread,
				Fn: func(t *vm.Thread, args []vm.Value) int32 {
					c.waiting = true
					t.Suspend(nil)
					return 0
				},
			},
		},
	}
	return c
}

func (c *counter) Class() *vm.Class {
	return c.class
}

type resolver struct {
	globals    map[string]int
	objects    map[string]int
	funcs      map[string]int
	threadvars map[string]int
}

func (r *resolver) Lookup(name string) (script.SymbolKind, int) {
	if idx, ok := r.globals[name]; ok {
		return script.SymGlobal, idx
	}
	if idx, ok := r.objects[name]; ok {
		return script.SymObject, idx
	}
	if idx, ok := r.funcs[name]; ok {
		return script.SymFunction, idx
	}
	if idx, ok := r.threadvars[name]; ok {
		return script.SymThreadVar, idx
	}
	return script.SymNone, 0
}

func newTestDomain() (*vm.Domain, *resolver, *counter) {
	d := vm.NewDomain()
	d.Globals = make([]int32, 1)
	cnt := newCounter()
	oi := d.AddObject(cnt)
	res := &resolver{
		globals:    map[string]int{"total": 0},
		objects:    map[string]int{"counter": oi},
		funcs:      map[string]int{},
		threadvars: map[string]int{"$aux1": int(vm.ThreadVarAux1)},
	}
	return d, res, cnt
}

func TestArithmetic(t *testing.T) {
	d, res, _ := newTestDomain()

	fn, err := script.Compile(d, "test", "return (2+3)*4 - 10/2;",
		script.Config{Returns: true}, res)
	test.ExpectedSuccess(t, err)

	th := d.NewThread("test")
	v, done := th.RunInt(fn)
	test.ExpectedSuccess(t, done)
	test.Equate(t, v, int32(15))
}

func TestThreadVariables(t *testing.T) {
	d, res, _ := newTestDomain()

	fn, err := script.Compile(d, "test", "return $aux1 * 2;",
		script.Config{Returns: true}, res)
	test.ExpectedSuccess(t, err)

	th := d.NewThread("test")
	th.Vars[vm.ThreadVarAux1] = 21
	v, done := th.RunInt(fn)
	test.ExpectedSuccess(t, done)
	test.Equate(t, v, int32(42))

	// thread variables cannot be assigned to
	_, err = script.Compile(d, "test", "$aux1 = 1;", script.Config{}, res)
	test.ExpectedFailure(t, err)
}

func TestLocalsAndLoop(t *testing.T) {
	d, res, _ := newTestDomain()

	src := `
		int i = 0, sum = 0;
		while (i < 10) {
			sum += i;
			i = i + 1;
		}
		return sum;
	`
	fn, err := script.Compile(d, "test", src, script.Config{Returns: true}, res)
	test.ExpectedSuccess(t, err)

	th := d.NewThread("test")
	v, done := th.RunInt(fn)
	test.ExpectedSuccess(t, done)
	test.Equate(t, v, int32(45))
}

func TestIfElseAndTernary(t *testing.T) {
	d, res, _ := newTestDomain()

	src := `
		int x = 0x10;
		if (x == 16) {
			x = x << 2;
		} else {
			x = 0;
		}
		return x > 0 ? x : -1;
	`
	fn, err := script.Compile(d, "test", src, script.Config{Returns: true}, res)
	test.ExpectedSuccess(t, err)

	th := d.NewThread("test")
	v, done := th.RunInt(fn)
	test.ExpectedSuccess(t, done)
	test.Equate(t, v, int32(64))
}

func TestBreak(t *testing.T) {
	d, res, _ := newTestDomain()

	src := `
		int i = 0;
		while (1) {
			if (i >= 5) {
				break;
			}
			i = i + 1;
		}
		return i;
	`
	fn, err := script.Compile(d, "test", src, script.Config{Returns: true}, res)
	test.ExpectedSuccess(t, err)

	th := d.NewThread("test")
	v, done := th.RunInt(fn)
	test.ExpectedSuccess(t, done)
	test.Equate(t, v, int32(5))
}

func TestGlobals(t *testing.T) {
	d, res, _ := newTestDomain()

	fn, err := script.Compile(d, "test", "total = total + 7;",
		script.Config{}, res)
	test.ExpectedSuccess(t, err)

	th := d.NewThread("test")
	test.ExpectedSuccess(t, th.RunVoid(fn))
	test.ExpectedSuccess(t, th.RunVoid(fn))
	test.Equate(t, d.Globals[0], int32(14))
}

func TestMethodCall(t *testing.T) {
	d, res, cnt := newTestDomain()

	src := `
		counter.add(5);
		counter.add(counter.get() * 2);
		return counter.get();
	`
	fn, err := script.Compile(d, "test", src, script.Config{Returns: true}, res)
	test.ExpectedSuccess(t, err)

	th := d.NewThread("test")
	v, done := th.RunInt(fn)
	test.ExpectedSuccess(t, done)
	test.Equate(t, v, int32(15))
	test.Equate(t, cnt.value, int32(15))
}

func TestSuspendResume(t *testing.T) {
	d, res, cnt := newTestDomain()

	fn, err := script.Compile(d, "test", "counter.add(counter.wait());",
		script.Config{Allowed: vm.FlagAsyncAll}, res)
	test.ExpectedSuccess(t, err)

	th := d.NewThread("test")
	test.ExpectedFailure(t, th.RunVoid(fn))
	test.ExpectedSuccess(t, cnt.waiting)
	test.ExpectedSuccess(t, th.IsSuspended())

	// deliver the value the suspended method call resolves to
	th.SetResumeInt(42)
	test.ExpectedSuccess(t, th.Resume())
	test.Equate(t, cnt.value, int32(42))
	test.ExpectedFailure(t, th.IsStarted())
}

func TestAsyncFlagRejected(t *testing.T) {
	d, res, _ := newTestDomain()

	// wait() requires an async allowance which the config does not grant
	_, err := script.Compile(d, "test", "counter.wait();", script.Config{}, res)
	test.ExpectedFailure(t, err)
}

func TestFunctionCall(t *testing.T) {
	d, res, _ := newTestDomain()

	double, err := script.Compile(d, "double", "return value * 2;",
		script.Config{Params: []string{"value"}, Returns: true}, res)
	test.ExpectedSuccess(t, err)
	res.funcs["double"] = d.AddFunction(double)

	fn, err := script.Compile(d, "test", "return double(double(5));",
		script.Config{Returns: true}, res)
	test.ExpectedSuccess(t, err)

	th := d.NewThread("test")
	v, done := th.RunInt(fn)
	test.ExpectedSuccess(t, done)
	test.Equate(t, v, int32(20))
}

func TestCompileErrors(t *testing.T) {
	d, res, _ := newTestDomain()

	for _, src := range []string{
		"return unknown;",
		"counter.add();",
		"counter.add(1, 2);",
		"counter.nosuch();",
		"int x = ;",
		"break;",
		"total = counter;",
		"return 1",
	} {
		_, err := script.Compile(d, "test", src, script.Config{Returns: true}, res)
		test.ExpectedFailure(t, err)
	}
}
