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
	"github.com/gopher800/gopher800/hardware/memory"
	"github.com/gopher800/gopher800/hardware/sio"
	"github.com/gopher800/gopher800/logger"
	"github.com/gopher800/gopher800/vm"
)

// fence ids on the serial transmission queue
const (
	fenceAutoReceive uint32 = iota + 1
	fenceScriptReceive
	fenceScriptDelay
	fenceScriptSend
)

// bytes buffered while no script is waiting in raw mode
const maxRawBuffer = 4096

// target of a pending script receive, FIFO alongside the manager's
// receive queue
type recvTarget struct {
	seg    *memory.Segment
	offset int32
}

// sioDeviceObject is a serial bus identity declared in the description.
// Scripts drive the protocol through its methods.
type sioDeviceObject struct {
	class *vm.Class
	dev   *Device

	name         string
	baseID       uint8
	count        int
	autoTransfer bool
}

func (o *sioDeviceObject) Class() *vm.Class { return o.class }

func (o *sioDeviceObject) claims(id uint8) bool {
	return id >= o.baseID && int(id) < int(o.baseID)+o.count
}

func newSIODeviceObject(dev *Device, name string, baseID uint8, count int, autoTransfer bool) *sioDeviceObject {
	o := &sioDeviceObject{
		dev:          dev,
		name:         name,
		baseID:       baseID,
		count:        count,
		autoTransfer: autoTransfer,
	}

	o.class = &vm.Class{
		Name: "sio",
		Methods: []vm.Method{
			{Name: "ack", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.bus.SendACK()
				return 0
			}},
			{Name: "nak", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.bus.SendNAK()
				return 0
			}},
			{Name: "complete", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.bus.SendComplete()
				return 0
			}},
			{Name: "error", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.bus.SendError()
				return 0
			}},

			// the standard gap between receiving a frame and acknowledging
			{Name: "ack_delay", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.bus.Delay(sio.DataToACKDelay)
				return 0
			}},

			{Name: "delay", Params: []string{""}, Flags: vm.FlagAsyncSIO, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				cycles := args[0].Int
				if cycles < 0 {
					cycles = 0
				}
				dev.bus.Delay(uint64(cycles))
				dev.bus.InsertFence(fenceScriptDelay)
				dev.sioDelayWait.Suspend(t, nil)
				return 0
			}},

			{Name: "send", Params: []string{"segment", "", ""}, Flags: vm.FlagAsyncSIO, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				seg := args[0].Obj.(*segmentObject).seg
				offset := args[1].Int
				count := args[2].Int
				data, ok := segmentRange(seg, offset, count)
				if !ok {
					logger.Logf(logger.Allow, "script", "sio send out of range in segment '%s'", seg.Name)
					return 0
				}
				dev.bus.SendData(data, true)
				dev.bus.InsertFence(fenceScriptSend)
				dev.sioSendWait.Suspend(t, nil)
				return 0
			}},

			{Name: "send_async", Params: []string{"segment", "", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				seg := args[0].Obj.(*segmentObject).seg
				data, ok := segmentRange(seg, args[1].Int, args[2].Int)
				if !ok {
					logger.Logf(logger.Allow, "script", "sio send out of range in segment '%s'", seg.Name)
					return 0
				}
				dev.bus.SendData(data, true)
				return 0
			}},

			// receive a data frame into the segment. delivers 1 if the
			// frame checksum was good
			{Name: "recv", Params: []string{"segment", "", ""}, Returns: true, Flags: vm.FlagAsyncSIO, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				seg := args[0].Obj.(*segmentObject).seg
				offset := args[1].Int
				count := args[2].Int
				if _, ok := segmentRange(seg, offset, count); !ok {
					logger.Logf(logger.Allow, "script", "sio recv out of range in segment '%s'", seg.Name)
					return 0
				}
				dev.sioRecvTargets = append(dev.sioRecvTargets, recvTarget{seg: seg, offset: offset})
				dev.bus.ReceiveData(fenceScriptReceive, int(count))
				dev.sioRecvWait.Suspend(t, nil)
				return 0
			}},

			{Name: "enable_raw", Params: []string{""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.bus.EnableRaw(args[0].Int != 0)
				return 0
			}},

			{Name: "raw_send", Params: []string{""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.bus.SendData([]byte{uint8(args[0].Int)}, false)
				return 0
			}},

			// delivers the next byte written by the computer in raw mode
			{Name: "recv_raw", Returns: true, Flags: vm.FlagAsyncRawSIO, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if len(dev.rawBuffer) > 0 {
					b := dev.rawBuffer[0]
					dev.rawBuffer = dev.rawBuffer[1:]
					return int32(b)
				}
				dev.rawByteWait.Suspend(t, nil)
				return 0
			}},

			{Name: "wait_command", Flags: vm.FlagAsyncRawSIO, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if dev.bus.IsCommandAsserted() {
					return 0
				}
				dev.cmdAssertWait.Suspend(t, nil)
				return 0
			}},

			{Name: "wait_command_off", Flags: vm.FlagAsyncRawSIO, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if !dev.bus.IsCommandAsserted() {
					return 0
				}
				dev.cmdDeassertWait.Suspend(t, nil)
				return 0
			}},

			// waits for the next motor line transition
			{Name: "wait_motor", Flags: vm.FlagAsyncRawSIO, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.motorWait.Suspend(t, nil)
				return 0
			}},

			{Name: "proceed", Params: []string{""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.bus.SetProceed(args[0].Int != 0)
				return 0
			}},
			{Name: "interrupt", Params: []string{""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				dev.bus.SetInterrupt(args[0].Int != 0)
				return 0
			}},

			{Name: "command_asserted", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if dev.bus.IsCommandAsserted() {
					return 1
				}
				return 0
			}},
			{Name: "motor_asserted", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if dev.bus.IsMotorAsserted() {
					return 1
				}
				return 0
			}},
		},
	}

	return o
}

// segmentRange returns the backing bytes for a segment range, or false if
// any part of the range is out of bounds.
func segmentRange(seg *memory.Segment, offset, count int32) ([]byte, bool) {
	if offset < 0 || count < 0 || int64(offset)+int64(count) > int64(seg.Length()) {
		return nil, false
	}
	return seg.Data[offset : offset+count], true
}

// The Device is the peripheral on the serial bus. Electrical events arrive
// here and turn into scheduler wake-ups and event hook dispatch.

// CommandFrame implements the sio.Device interface.
func (dev *Device) CommandFrame(cmd sio.Command) sio.CmdResponse {
	obj := dev.sioDeviceFor(cmd.Device)
	if obj == nil {
		return sio.NotHandled
	}

	if h, ok := dev.prog.hooks["sio_command"]; ok {
		dev.startHook(h, func(t *vm.Thread) {
			t.Vars[vm.ThreadVarDevice] = int32(cmd.Device)
			t.Vars[vm.ThreadVarCommand] = int32(cmd.Command)
			t.Vars[vm.ThreadVarAux1] = int32(cmd.Aux1)
			t.Vars[vm.ThreadVarAux2] = int32(cmd.Aux2)
			t.Vars[vm.ThreadVarAux] = int32(cmd.Aux())
		})
		return sio.Start
	}

	if obj.autoTransfer {
		// no script wants the command. acknowledge and complete with the
		// standard delay so the computer sees a well behaved device
		dev.bus.Delay(sio.DataToACKDelay)
		dev.bus.SendACK()
		dev.bus.SendComplete()
		return sio.Start
	}

	return sio.NotHandled
}

// AccelCommand implements the sio.Device interface. Scripted commands
// always force the timed path; only auto-transfer identities can answer
// synchronously.
func (dev *Device) AccelCommand(cmd sio.Command) sio.CmdResponse {
	obj := dev.sioDeviceFor(cmd.Device)
	if obj == nil {
		return sio.NotHandled
	}
	if _, ok := dev.prog.hooks["sio_command"]; ok {
		return sio.BypassAccel
	}
	if obj.autoTransfer {
		return sio.SendACKComplete
	}
	return sio.NotHandled
}

// AbortCommand implements the sio.Device interface. Threads parked on
// serial fences are aborted with the command; their wait will never be
// satisfied now that the queue is gone.
func (dev *Device) AbortCommand() {
	if h, ok := dev.prog.hooks["sio_command"]; ok {
		h.thread.Abort()
	}

	for _, q := range []*vm.WaitQueue{&dev.sioSendWait, &dev.sioDelayWait, &dev.sioRecvWait} {
		for {
			t := q.Pop()
			if t == nil {
				break
			}
			t.Abort()
		}
	}
	dev.sioRecvTargets = dev.sioRecvTargets[:0]
}

// ReceiveComplete implements the sio.Device interface.
func (dev *Device) ReceiveComplete(id uint32, data []byte, checksumOK bool) {
	switch id {
	case fenceScriptReceive:
		if len(dev.sioRecvTargets) == 0 {
			logger.Log(logger.Allow, "sio", "receive completed with no script waiting")
			return
		}
		target := dev.sioRecvTargets[0]
		dev.sioRecvTargets = dev.sioRecvTargets[1:]

		// range was validated when the receive was queued
		copy(target.seg.Data[target.offset:], data)

		t := dev.sioRecvWait.Pop()
		if t != nil {
			if checksumOK {
				t.SetResumeInt(1)
			} else {
				t.SetResumeInt(0)
			}
			dev.sched.ScheduleThread(t)
		}

	case fenceAutoReceive:
		if !checksumOK {
			logger.Log(logger.Allow, "sio", "auto transfer frame checksum mismatch")
		}
	}
}

// Fence implements the sio.Device interface.
func (dev *Device) Fence(id uint32) {
	switch id {
	case fenceScriptDelay:
		dev.sched.ScheduleNextThread(&dev.sioDelayWait)
	case fenceScriptSend:
		dev.sched.ScheduleNextThread(&dev.sioSendWait)
	}
}

// CommandStateChanged implements the sio.Device interface.
func (dev *Device) CommandStateChanged(asserted bool) {
	if asserted {
		dev.sched.ScheduleThreads(&dev.cmdAssertWait)
	} else {
		dev.sched.ScheduleThreads(&dev.cmdDeassertWait)
	}

	if h, ok := dev.prog.hooks["sio_command_changed"]; ok {
		dev.startHook(h, func(t *vm.Thread) {
			t.Vars[vm.ThreadVarAux] = boolVar(asserted)
		})
	}
}

// MotorStateChanged implements the sio.Device interface.
func (dev *Device) MotorStateChanged(asserted bool) {
	dev.sched.ScheduleThreads(&dev.motorWait)

	if h, ok := dev.prog.hooks["sio_motor_changed"]; ok {
		dev.startHook(h, func(t *vm.Thread) {
			t.Vars[vm.ThreadVarAux] = boolVar(asserted)
		})
	}
}

// ReceiveByte implements the sio.Device interface. Raw mode bytes go to
// the oldest waiting script, or into a bounded buffer when nothing waits.
func (dev *Device) ReceiveByte(value uint8, cyclesPerByte uint32) {
	if t := dev.rawByteWait.Pop(); t != nil {
		t.SetResumeInt(int32(value))
		dev.sched.ScheduleThread(t)
	} else if len(dev.rawBuffer) < maxRawBuffer {
		dev.rawBuffer = append(dev.rawBuffer, value)
	} else {
		logger.Log(logger.Allow, "sio", "raw buffer overflow, byte dropped")
	}

	if h, ok := dev.prog.hooks["sio_receive_byte"]; ok {
		dev.startHook(h, func(t *vm.Thread) {
			t.Vars[vm.ThreadVarAux] = int32(value)
		})
	}
}

func (dev *Device) sioDeviceFor(id uint8) *sioDeviceObject {
	for _, o := range dev.prog.sioDevs {
		if o.claims(id) {
			return o
		}
	}
	return nil
}

func boolVar(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
