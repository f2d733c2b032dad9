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
	"github.com/gopher800/gopher800/curated"
	"github.com/gopher800/gopher800/hardware/memory"
	"github.com/gopher800/gopher800/logger"
	"github.com/gopher800/gopher800/network"
	"github.com/gopher800/gopher800/vm"
)

// PostNetCommand sends a command to the external engine without waiting for
// a reply. Silently dropped while disconnected.
func (dev *Device) PostNetCommand(kind uint8, addr uint32, value uint32) {
	if dev.eng == nil {
		return
	}
	err := dev.eng.Send(network.Command{
		Kind:  kind,
		Addr:  addr,
		Value: value,
		Tick:  dev.clk.Tick64(),
	})
	if err != nil {
		logger.Logf(logger.Allow, "network", "post failed: %v", err)
		dev.runHook("net_error")
	}
}

// SendNetCommand sends a command and parks the calling thread until the
// engine's return value arrives. On a send failure the thread is not
// suspended and the script sees a zero return.
func (dev *Device) SendNetCommand(t *vm.Thread, kind uint8, addr uint32, value uint32) {
	if dev.eng == nil {
		return
	}
	err := dev.eng.Send(network.Command{
		Kind:  kind,
		Addr:  addr,
		Value: value,
		Tick:  dev.clk.Tick64(),
	})
	if err != nil {
		logger.Logf(logger.Allow, "network", "send failed: %v", err)
		dev.runHook("net_error")
		return
	}
	dev.netWait.Suspend(t, nil)
}

// TryRestoreNet attempts reconnection to the external engine. On success
// the protocol level drops back to base and the engine is told the device
// is present.
func (dev *Device) TryRestoreNet() bool {
	if dev.eng == nil {
		return false
	}
	if err := dev.eng.Restore(); err != nil {
		if !curated.Is(err, network.RestoreCooldown) {
			logger.Logf(logger.Allow, "network", "restore failed: %v", err)
		}
		return false
	}

	// a fresh connection knows nothing of any earlier negotiation
	dev.protocolLevel = network.ProtocolLevelBase
	dev.PostNetCommand(network.CmdColdReset, 0, 0)

	return true
}

// postNetError reports a bad engine request. The engine is told something
// went wrong; the detail goes to the log.
func (dev *Device) postNetError(format string, args ...interface{}) {
	logger.Logf(logger.Allow, "network", format, args...)
	dev.PostNetCommand(network.CmdError, 0, 0)
}

// ExecuteNetRequests drains the engine's buffered replies. Called from the
// emulation pump; replies never run concurrently with scripts.
func (dev *Device) ExecuteNetRequests() {
	if dev.eng == nil {
		return
	}

	for {
		r, ok := dev.eng.Recv()
		if !ok {
			return
		}

		if network.MinProtocolLevel(r.Kind) > dev.protocolLevel {
			dev.postNetError("reply %#02x needs protocol level %d, have %d",
				r.Kind, network.MinProtocolLevel(r.Kind), dev.protocolLevel)
			continue
		}

		dev.executeNetRequest(r)
	}
}

func (dev *Device) executeNetRequest(r network.Reply) {
	p := dev.prog

	switch r.Kind {
	case network.ReplyNone:
		// keepalive

	case network.ReplyReturnValue:
		t := dev.netWait.Pop()
		if t == nil {
			dev.postNetError("return value with no thread waiting")
			return
		}
		t.SetResumeInt(int32(r.Value))
		dev.sched.ScheduleThread(t)

	case network.ReplyEnableMemoryLayer:
		layer, ok := dev.netLayer(r.Addr)
		if !ok {
			return
		}
		layer.SetModes(r.Value&1 != 0, r.Value&2 != 0)

	case network.ReplySetMemoryLayerOffset:
		layer, ok := dev.netLayer(r.Addr)
		if !ok {
			return
		}
		if err := layer.SetOffset(int32(r.Value)); err != nil {
			dev.postNetError("%v", err)
		}

	case network.ReplySetMemoryLayerSegmentOffset:
		// layer index in the top byte, segment index below it
		layer, ok := dev.netLayer(r.Addr >> 24)
		if !ok {
			return
		}
		segIdx := (r.Addr >> 16) & 0xff
		if int(segIdx) >= len(p.segList) {
			dev.postNetError("bad segment index %d", segIdx)
			return
		}
		if err := layer.SetSegmentAndOffset(p.segList[segIdx], int32(r.Value)); err != nil {
			dev.postNetError("%v", err)
		}

	case network.ReplySetMemoryLayerReadOnly:
		layer, ok := dev.netLayer(r.Addr)
		if !ok {
			return
		}
		layer.SetReadOnly(r.Value != 0)

	case network.ReplyReadSegmentMemory:
		seg, offset, ok := dev.netSegment(r.Addr)
		if !ok {
			return
		}
		if offset >= uint32(len(seg.Data)) {
			dev.postNetError("read outside segment '%s'", seg.Name)
			return
		}
		dev.PostNetCommand(network.CmdReturnValue, r.Addr, uint32(seg.Data[offset]))

	case network.ReplyWriteSegmentMemory:
		seg, offset, ok := dev.netSegment(r.Addr)
		if !ok {
			return
		}
		if offset >= uint32(len(seg.Data)) {
			dev.postNetError("write outside segment '%s'", seg.Name)
			return
		}
		seg.Data[offset] = uint8(r.Value)

	case network.ReplyCopySegmentMemory:
		// Addr: dst segment (31-24), src segment (23-16), dst offset (15-0)
		// Value: src offset (31-16), length (15-0)
		dstIdx := r.Addr >> 24
		srcIdx := (r.Addr >> 16) & 0xff
		if int(dstIdx) >= len(p.segList) || int(srcIdx) >= len(p.segList) {
			dev.postNetError("bad segment index in copy")
			return
		}
		dst := p.segList[dstIdx]
		src := p.segList[srcIdx]
		dstOff := r.Addr & 0xffff
		srcOff := r.Value >> 16
		length := r.Value & 0xffff
		if dstOff+length > uint32(len(dst.Data)) || srcOff+length > uint32(len(src.Data)) {
			dev.postNetError("copy outside segment bounds")
			return
		}
		copy(dst.Data[dstOff:dstOff+length], src.Data[srcOff:srcOff+length])

	case network.ReplyFillSegmentMemory:
		// Value: length (31-8), fill byte (7-0)
		seg, offset, ok := dev.netSegment(r.Addr)
		if !ok {
			return
		}
		length := r.Value >> 8
		if offset+length > uint32(len(seg.Data)) {
			dev.postNetError("fill outside segment '%s'", seg.Name)
			return
		}
		fill := uint8(r.Value)
		for i := offset; i < offset+length; i++ {
			seg.Data[i] = fill
		}

	case network.ReplyScriptInterrupt:
		if h, ok := p.hooks["net_interrupt"]; ok {
			dev.startHook(h, func(t *vm.Thread) {
				t.Vars[vm.ThreadVarAux1] = int32(r.Addr)
				t.Vars[vm.ThreadVarAux2] = int32(r.Value)
			})
		}

	case network.ReplyGetSegmentNames:
		dev.PostNetCommand(network.CmdReturnValue, r.Addr, uint32(len(p.segList)))

	case network.ReplyGetMemoryLayerNames:
		dev.PostNetCommand(network.CmdReturnValue, r.Addr, uint32(len(p.layerList)))

	case network.ReplySetProtocolLevel:
		level := int(r.Value)
		if level < network.ProtocolLevelBase || level > network.MaxProtocolLevel {
			dev.postNetError("bad protocol level %d", level)
			return
		}
		dev.protocolLevel = level
		dev.PostNetCommand(network.CmdReturnValue, 0, uint32(level))

	default:
		dev.postNetError("unknown reply %#02x", r.Kind)
	}
}

// netLayer resolves a layer index from a reply.
func (dev *Device) netLayer(idx uint32) (layer *memory.Layer, ok bool) {
	if int(idx) >= len(dev.prog.layerList) {
		dev.postNetError("bad layer index %d", idx)
		return nil, false
	}
	return dev.prog.layerList[idx], true
}

// netSegment resolves the segment index and offset packed into a reply
// address: segment index in the top byte, offset below it.
func (dev *Device) netSegment(addr uint32) (seg *memory.Segment, offset uint32, ok bool) {
	idx := addr >> 24
	if int(idx) >= len(dev.prog.segList) {
		dev.postNetError("bad segment index %d", idx)
		return nil, 0, false
	}
	return dev.prog.segList[idx], addr & 0xffffff, true
}
