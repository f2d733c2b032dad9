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
	"testing"

	"github.com/gopher800/gopher800/curated"
	"github.com/gopher800/gopher800/network"
	"github.com/gopher800/gopher800/test"
)

// fakeEngine is an in-memory network.Engine for driving the bridge from
// tests.
type fakeEngine struct {
	connected bool
	sent      []network.Command
	replies   []network.Reply
}

func (e *fakeEngine) Send(cmd network.Command) error {
	if !e.connected {
		return curated.Errorf(network.NotConnected)
	}
	e.sent = append(e.sent, cmd)
	return nil
}

func (e *fakeEngine) Recv() (network.Reply, bool) {
	if len(e.replies) == 0 {
		return network.Reply{}, false
	}
	r := e.replies[0]
	e.replies = e.replies[1:]
	return r, true
}

func (e *fakeEngine) Restore() error {
	e.connected = true
	return nil
}

func (e *fakeEngine) SetRecvNotifyEnabled(enabled bool) {}

func (e *fakeEngine) IsConnected() bool { return e.connected }

func (e *fakeEngine) Shutdown() { e.connected = false }

// lastSent returns the most recent command of the given kind, or false.
func (e *fakeEngine) lastSent(kind uint8) (network.Command, bool) {
	for i := len(e.sent) - 1; i >= 0; i-- {
		if e.sent[i].Kind == kind {
			return e.sent[i], true
		}
	}
	return network.Command{}, false
}

const netDescription = `{
	"name": "networked",
	"declarations": [
		{"type": "global", "name": "a_val"},
		{"type": "global", "name": "b_val"},
		{"type": "segment", "name": "buf", "size": 256},
		{"type": "thread", "name": "worker_a",
			"body": "a_val = net.send(32, 1, 0);"},
		{"type": "thread", "name": "worker_b",
			"body": "b_val = net.send(32, 2, 0);"},
		{"type": "event", "name": "warm_reset",
			"body": "worker_a.run(); worker_b.run();"},
		{"type": "option", "name": "allowunsafe", "value": true},
		{"type": "option", "name": "network", "value": "127.0.0.1:1"}
	]
}`

// newNetDevice builds a device talking to a fakeEngine. The TCP engine the
// device dialled during initialisation is discarded.
func newNetDevice(t *testing.T) (*Device, *fakeEngine) {
	t.Helper()
	_, dev := newTestDevice(t, netDescription)

	eng := &fakeEngine{connected: true}
	dev.eng = eng
	dev.protocolLevel = network.ProtocolLevelBase
	return dev, eng
}

func TestNetRoundTrip(t *testing.T) {
	dev, eng := newNetDevice(t)

	// both worker threads send a command and park
	dev.WarmReset()
	test.Equate(t, len(eng.sent), 3) // warm reset notification plus two sends
	test.Equate(t, dev.netWait.Len(), 2)

	// one return value resumes exactly the oldest sender
	eng.replies = append(eng.replies, network.Reply{Kind: network.ReplyReturnValue, Value: 5})
	dev.ExecuteNetRequests()
	test.Equate(t, global(dev, "a_val"), int32(5))
	test.Equate(t, global(dev, "b_val"), int32(0))
	test.Equate(t, dev.netWait.Len(), 1)

	eng.replies = append(eng.replies, network.Reply{Kind: network.ReplyReturnValue, Value: 7})
	dev.ExecuteNetRequests()
	test.Equate(t, global(dev, "b_val"), int32(7))
	test.Equate(t, dev.netWait.Len(), 0)
}

func TestNetWriteSegmentMemory(t *testing.T) {
	dev, eng := newNetDevice(t)

	eng.replies = append(eng.replies, network.Reply{
		Kind:  network.ReplyWriteSegmentMemory,
		Addr:  0x10, // segment 0, offset 0x10
		Value: 0xa5,
	})
	dev.ExecuteNetRequests()
	test.Equate(t, dev.prog.segList[0].Data[0x10], uint8(0xa5))

	// reading it back goes out as a return value command
	eng.replies = append(eng.replies, network.Reply{
		Kind: network.ReplyReadSegmentMemory,
		Addr: 0x10,
	})
	dev.ExecuteNetRequests()
	cmd, ok := eng.lastSent(network.CmdReturnValue)
	test.ExpectedSuccess(t, ok)
	test.Equate(t, cmd.Value, uint32(0xa5))
}

func TestNetProtocolGating(t *testing.T) {
	dev, eng := newNetDevice(t)

	fill := network.Reply{
		Kind:  network.ReplyFillSegmentMemory,
		Addr:  0x10,                // segment 0, offset 0x10
		Value: uint32(4<<8 | 0xaa), // four bytes of 0xaa
	}

	// FillSegmentMemory needs protocol level 2. at level 1 the request is
	// rejected, not applied
	eng.replies = append(eng.replies, fill)
	dev.ExecuteNetRequests()
	test.Equate(t, dev.prog.segList[0].Data[0x10], uint8(0))
	_, errSent := eng.lastSent(network.CmdError)
	test.ExpectedSuccess(t, errSent)

	// negotiate up and retry
	eng.replies = append(eng.replies,
		network.Reply{Kind: network.ReplySetProtocolLevel, Value: 2}, fill)
	dev.ExecuteNetRequests()
	test.Equate(t, dev.protocolLevel, 2)
	test.Equate(t, dev.prog.segList[0].Data[0x10], uint8(0xaa))
	test.Equate(t, dev.prog.segList[0].Data[0x13], uint8(0xaa))
	test.Equate(t, dev.prog.segList[0].Data[0x14], uint8(0))
}

func TestNetScriptInterrupt(t *testing.T) {
	_, dev := newTestDevice(t, `{
		"name": "networked",
		"declarations": [
			{"type": "global", "name": "irq_addr"},
			{"type": "global", "name": "irq_value"},
			{"type": "event", "name": "net_interrupt",
				"body": "irq_addr = $aux1; irq_value = $aux2;"},
			{"type": "option", "name": "allowunsafe", "value": true},
			{"type": "option", "name": "network", "value": "127.0.0.1:1"}
		]
	}`)

	eng := &fakeEngine{connected: true}
	dev.eng = eng

	eng.replies = append(eng.replies, network.Reply{
		Kind:  network.ReplyScriptInterrupt,
		Addr:  0x1234,
		Value: 99,
	})
	dev.ExecuteNetRequests()
	test.Equate(t, global(dev, "irq_addr"), int32(0x1234))
	test.Equate(t, global(dev, "irq_value"), int32(99))
}

func TestNetCopySegmentMemory(t *testing.T) {
	dev, eng := newNetDevice(t)
	dev.protocolLevel = network.ProtocolLevelV2

	seg := dev.prog.segList[0]
	seg.Data[0] = 1
	seg.Data[1] = 2
	seg.Data[2] = 3

	// copy three bytes from offset 0 to offset 0x80 within segment 0
	eng.replies = append(eng.replies, network.Reply{
		Kind:  network.ReplyCopySegmentMemory,
		Addr:  0x80,      // dst segment 0, src segment 0, dst offset 0x80
		Value: 0<<16 | 3, // src offset 0, length 3
	})
	dev.ExecuteNetRequests()
	test.Equate(t, seg.Data[0x80], uint8(1))
	test.Equate(t, seg.Data[0x81], uint8(2))
	test.Equate(t, seg.Data[0x82], uint8(3))
}
