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

package device

import (
	"time"

	"github.com/gopher800/gopher800/hardware/memory"
	"github.com/gopher800/gopher800/hardware/ports"
	"github.com/gopher800/gopher800/logger"
	"github.com/gopher800/gopher800/vm"
)

// Script-callable objects. Each object builds its own method table; the
// methods close over the object instance. Classes with the same name are
// interchangeable as far as typed method arguments are concerned.

// segmentObject exposes a memory segment to scripts. Out of range
// operations follow the segment rules: rejected whole, reads of bad
// offsets produce zero.
type segmentObject struct {
	class *vm.Class
	seg   *memory.Segment
}

func (o *segmentObject) Class() *vm.Class { return o.class }

func newSegmentObject(seg *memory.Segment) *segmentObject {
	o := &segmentObject{seg: seg}
	o.class = &vm.Class{
		Name: "segment",
		Methods: []vm.Method{
			{Name: "size", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				return seg.Length()
			}},
			{Name: "read", Params: []string{""}, Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				return seg.ReadByte(args[0].Int)
			}},
			{Name: "write", Params: []string{"", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				seg.WriteByte(args[0].Int, args[1].Int)
				return 0
			}},
			{Name: "read_word", Params: []string{""}, Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				return seg.ReadWord(args[0].Int)
			}},
			{Name: "write_word", Params: []string{"", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				seg.WriteWord(args[0].Int, args[1].Int)
				return 0
			}},
			{Name: "read_rev_word", Params: []string{""}, Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				return seg.ReadRevWord(args[0].Int)
			}},
			{Name: "write_rev_word", Params: []string{"", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				seg.WriteRevWord(args[0].Int, args[1].Int)
				return 0
			}},
			{Name: "clear", Params: []string{""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				seg.Clear(args[0].Int)
				return 0
			}},
			{Name: "fill", Params: []string{"", "", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				seg.Fill(args[0].Int, args[1].Int, args[2].Int)
				return 0
			}},
			{Name: "xor", Params: []string{"", "", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				seg.XorConst(args[0].Int, args[1].Int, args[2].Int)
				return 0
			}},
			{Name: "reverse_bits", Params: []string{"", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				seg.ReverseBits(args[0].Int, args[1].Int)
				return 0
			}},
			{Name: "copy", Params: []string{"", "segment", "", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				src := args[1].Obj.(*segmentObject).seg
				seg.Copy(args[0].Int, src, args[2].Int, args[3].Int)
				return 0
			}},
			{Name: "translate", Params: []string{"", "segment", "", "", "segment", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				src := args[1].Obj.(*segmentObject).seg
				table := args[4].Obj.(*segmentObject).seg
				seg.Translate(args[0].Int, src, args[2].Int, args[3].Int, table, args[5].Int)
				return 0
			}},
			{Name: "reinit", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				seg.Reinit()
				return 0
			}},
		},
	}
	return o
}

// layerObject exposes a memory layer to scripts. Failed offset changes are
// rejected and logged; the mapping is left as it was.
type layerObject struct {
	class *vm.Class
	layer *memory.Layer
}

func (o *layerObject) Class() *vm.Class { return o.class }

func newLayerObject(layer *memory.Layer) *layerObject {
	o := &layerObject{layer: layer}
	o.class = &vm.Class{
		Name: "memory_layer",
		Methods: []vm.Method{
			{Name: "enable", Params: []string{"", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				layer.SetModes(args[0].Int != 0, args[1].Int != 0)
				return 0
			}},
			{Name: "disable", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				layer.SetModes(false, false)
				return 0
			}},
			{Name: "set_offset", Params: []string{""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if err := layer.SetOffset(args[0].Int); err != nil {
					logger.Logf(logger.Allow, "script", "%v", err)
				}
				return 0
			}},
			{Name: "set_base", Params: []string{""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if err := layer.SetBaseAddress(args[0].Int); err != nil {
					logger.Logf(logger.Allow, "script", "%v", err)
				}
				return 0
			}},
			{Name: "set_readonly", Params: []string{""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				layer.SetReadOnly(args[0].Int != 0)
				return 0
			}},
			{Name: "set_mask", Params: []string{"", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if err := layer.SetAddressMask(args[0].Int, args[1].Int); err != nil {
					logger.Logf(logger.Allow, "script", "%v", err)
				}
				return 0
			}},
			{Name: "clear_mask", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				layer.ClearAddressMask()
				return 0
			}},
			{Name: "enabled", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if layer.IsEnabled() {
					return 1
				}
				return 0
			}},
		},
	}
	return o
}

// threadObject exposes a declared script thread.
type threadObject struct {
	class  *vm.Class
	dev    *Device
	thread *vm.Thread
	entry  *vm.Function
}

func (o *threadObject) Class() *vm.Class { return o.class }

func newThreadObject(dev *Device, thread *vm.Thread) *threadObject {
	o := &threadObject{dev: dev, thread: thread}
	o.class = &vm.Class{
		Name: "thread",
		Methods: []vm.Method{
			{Name: "run", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				// restart from the top, aborting any run in flight
				o.thread.StartVoid(o.entry)
				o.thread.Vars[vm.ThreadVarTimestamp] = int32(dev.clk.Tick64())
				dev.sched.ScheduleThread(o.thread)
				return 0
			}},
			{Name: "interrupt", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				o.thread.Abort()
				return 0
			}},
			{Name: "running", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if o.thread.IsStarted() {
					return 1
				}
				return 0
			}},
			{Name: "join", Flags: vm.FlagAsyncThread, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if !o.thread.IsStarted() || o.thread == t {
					return 0
				}
				o.thread.JoinQueue.Suspend(t, nil)
				return 0
			}},
		},
	}
	return o
}

// consoleObject is the built-in "console" object: logging, the device
// clock and cooperative sleep.
type consoleObject struct {
	class *vm.Class
	dev   *Device
}

func (o *consoleObject) Class() *vm.Class { return o.class }

func newConsoleObject(dev *Device) *consoleObject {
	o := &consoleObject{dev: dev}
	o.class = &vm.Class{
		Name: "console",
		Methods: []vm.Method{
			{Name: "log", Params: []string{vm.StringParam}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				logger.Log(logger.Allow, "script", t.Domain().String(args[0].Int))
				return 0
			}},
			{Name: "sleep", Params: []string{""}, Flags: vm.FlagAsyncThread, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				cycles := args[0].Int
				if cycles < 0 {
					cycles = 0
				}
				dev.sched.SleepThread(t, uint64(cycles))
				return 0
			}},
			{Name: "tick", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				return int32(dev.clk.Tick64())
			}},
			{Name: "set_led", Params: []string{"", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.SetIndicator(int(args[0].Int), args[1].Int != 0)
				return 0
			}},
		},
	}
	return o
}

// debugObject is the built-in "debug" object.
type debugObject struct {
	class *vm.Class
	dev   *Device
}

func (o *debugObject) Class() *vm.Class { return o.class }

func newDebugObject(dev *Device) *debugObject {
	o := &debugObject{dev: dev}
	o.class = &vm.Class{
		Name: "debug",
		Methods: []vm.Method{
			{Name: "log", Params: []string{vm.StringParam}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				logger.Log(logger.Allow, "script", t.Domain().String(args[0].Int))
				return 0
			}},
			{Name: "logv", Params: []string{vm.StringParam, ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				logger.Logf(logger.Allow, "script", "%s %d", t.Domain().String(args[0].Int), args[1].Int)
				return 0
			}},
			{Name: "fail", Params: []string{vm.StringParam}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.postError(t.Domain().String(args[0].Int))
				return 0
			}},
		},
	}
	return o
}

// clockObject is the built-in "clock" object exposing host local time.
// Scripts emulating real time clock hardware read these fields.
type clockObject struct {
	class *vm.Class
	dev   *Device
}

func (o *clockObject) Class() *vm.Class { return o.class }

func newClockObject(dev *Device) *clockObject {
	o := &clockObject{dev: dev}

	field := func(name string, get func(tm time.Time) int) vm.Method {
		return vm.Method{Name: name, Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
			return int32(get(time.Now()))
		}}
	}

	o.class = &vm.Class{
		Name: "clock",
		Methods: []vm.Method{
			field("year", func(tm time.Time) int { return tm.Year() }),
			field("month", func(tm time.Time) int { return int(tm.Month()) }),
			field("day", func(tm time.Time) int { return tm.Day() }),
			field("weekday", func(tm time.Time) int { return int(tm.Weekday()) }),
			field("hour", func(tm time.Time) int { return tm.Hour() }),
			field("minute", func(tm time.Time) int { return tm.Minute() }),
			field("second", func(tm time.Time) int { return tm.Second() }),
		},
	}
	return o
}

// netObject is the built-in "net" object, present when the description
// names a network address.
type netObject struct {
	class *vm.Class
	dev   *Device
}

func (o *netObject) Class() *vm.Class { return o.class }

func newNetObject(dev *Device) *netObject {
	o := &netObject{dev: dev}
	o.class = &vm.Class{
		Name: "net",
		Methods: []vm.Method{
			{Name: "post", Params: []string{"", "", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.PostNetCommand(uint8(args[0].Int), uint32(args[1].Int), uint32(args[2].Int))
				return 0
			}},
			{Name: "send", Params: []string{"", "", ""}, Returns: true, Flags: vm.FlagAsyncNet, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.SendNetCommand(t, uint8(args[0].Int), uint32(args[1].Int), uint32(args[2].Int))
				return 0
			}},
			{Name: "connected", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if dev.eng != nil && dev.eng.IsConnected() {
					return 1
				}
				return 0
			}},
			{Name: "restore", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.TryRestoreNet()
				return 0
			}},
		},
	}
	return o
}

// portObject exposes a controller port.
type portObject struct {
	class *vm.Class
	port  *ports.Port
}

func (o *portObject) Class() *vm.Class { return o.class }

func newPortObject(port *ports.Port) *portObject {
	o := &portObject{port: port}
	o.class = &vm.Class{
		Name: "controller_port",
		Methods: []vm.Method{
			{Name: "read", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				return int32(port.Read())
			}},
			{Name: "write", Params: []string{""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				port.Write(uint8(args[0].Int))
				return 0
			}},
			{Name: "output", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				return int32(port.Output())
			}},
		},
	}
	return o
}
