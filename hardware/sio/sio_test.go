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

package sio_test

import (
	"testing"

	"github.com/gopher800/gopher800/hardware/clock"
	"github.com/gopher800/gopher800/hardware/sio"
	"github.com/gopher800/gopher800/test"
)

// a scriptable device for exercising the manager
type mockDevice struct {
	mgr *sio.Manager

	commands []sio.Command
	response sio.CmdResponse

	fences   []uint32
	received [][]byte
	checksum []bool

	cmdLine   []bool
	motorLine []bool

	rawBytes []uint8
}

func (d *mockDevice) CommandFrame(cmd sio.Command) sio.CmdResponse {
	d.commands = append(d.commands, cmd)
	return d.response
}

func (d *mockDevice) AccelCommand(cmd sio.Command) sio.CmdResponse {
	d.commands = append(d.commands, cmd)
	return d.response
}

func (d *mockDevice) AbortCommand() {}

func (d *mockDevice) ReceiveComplete(id uint32, data []byte, checksumOK bool) {
	c := make([]byte, len(data))
	copy(c, data)
	d.received = append(d.received, c)
	d.checksum = append(d.checksum, checksumOK)
}

func (d *mockDevice) Fence(id uint32) {
	d.fences = append(d.fences, id)
}

func (d *mockDevice) CommandStateChanged(asserted bool) {
	d.cmdLine = append(d.cmdLine, asserted)
}

func (d *mockDevice) MotorStateChanged(asserted bool) {
	d.motorLine = append(d.motorLine, asserted)
}

func (d *mockDevice) ReceiveByte(value uint8, cyclesPerByte uint32) {
	d.rawBytes = append(d.rawBytes, value)
}

func newTestBus() (*clock.Clock, *sio.Manager, *mockDevice, *[]uint8) {
	clk := clock.NewClock()
	mgr := sio.NewManager(clk)
	dev := &mockDevice{mgr: mgr}
	mgr.Connect(dev)

	out := &[]uint8{}
	mgr.Output = func(v uint8) {
		*out = append(*out, v)
	}
	return clk, mgr, dev, out
}

// write a well formed command frame while the command line is asserted
func writeCommandFrame(mgr *sio.Manager, dev, cmd, aux1, aux2 uint8) {
	frame := []byte{dev, cmd, aux1, aux2}
	mgr.AssertCommand()
	for _, b := range frame {
		mgr.WriteComputerByte(b)
	}
	mgr.WriteComputerByte(sio.FrameChecksum(frame))
	mgr.DeassertCommand()
}

func TestFrameChecksum(t *testing.T) {
	// end-around carry: 0xff + 0x02 = 0x101 -> 0x02
	test.Equate(t, sio.FrameChecksum([]byte{0xff, 0x02}), uint8(0x02))
	test.Equate(t, sio.FrameChecksum([]byte{0x31, 0x53, 0x00, 0x00}), uint8(0x84))
}

func TestCommandDispatch(t *testing.T) {
	_, mgr, dev, _ := newTestBus()
	dev.response = sio.Start

	writeCommandFrame(mgr, 0x31, 0x53, 0x12, 0x34)

	test.Equate(t, len(dev.commands), 1)
	test.Equate(t, dev.commands[0].Device, uint8(0x31))
	test.Equate(t, dev.commands[0].Command, uint8(0x53))
	test.Equate(t, dev.commands[0].Aux(), uint16(0x3412))

	// command line transitions were reported
	test.Equate(t, len(dev.cmdLine), 2)
	test.ExpectedSuccess(t, dev.cmdLine[0])
	test.ExpectedFailure(t, dev.cmdLine[1])
}

func TestBadChecksumIgnored(t *testing.T) {
	_, mgr, dev, _ := newTestBus()

	mgr.AssertCommand()
	for _, b := range []byte{0x31, 0x53, 0x00, 0x00, 0x99} {
		mgr.WriteComputerByte(b)
	}
	mgr.DeassertCommand()

	test.Equate(t, len(dev.commands), 0)
}

func TestSendOrderAndFences(t *testing.T) {
	clk, mgr, dev, out := newTestBus()

	mgr.SendACK()
	mgr.SendData([]byte{0x01, 0x02}, true)
	mgr.InsertFence(7)
	mgr.SendComplete()

	// nothing happens until the clock moves
	test.Equate(t, len(*out), 0)
	test.Equate(t, len(dev.fences), 0)

	// the ACK takes one byte period
	clk.Advance(mgr.CyclesPerByte())
	test.Equate(t, len(*out), 1)
	test.Equate(t, (*out)[0], uint8(sio.ByteACK))

	// the fence fires only after the whole data frame is out
	clk.Advance(2 * mgr.CyclesPerByte())
	test.Equate(t, len(dev.fences), 0)
	clk.Advance(mgr.CyclesPerByte())
	test.Equate(t, len(dev.fences), 1)
	test.Equate(t, dev.fences[0], uint32(7))

	clk.Advance(mgr.CyclesPerByte())
	test.Equate(t, len(*out), 5)
	test.Equate(t, (*out)[4], uint8(sio.ByteComplete))

	// data frame checksum was appended
	test.Equate(t, (*out)[3], sio.FrameChecksum([]byte{0x01, 0x02}))
}

func TestReceiveData(t *testing.T) {
	_, mgr, dev, _ := newTestBus()

	mgr.ReceiveData(3, 2)

	data := []byte{0xaa, 0xbb}
	mgr.WriteComputerByte(data[0])
	test.Equate(t, len(dev.received), 0)
	mgr.WriteComputerByte(data[1])
	mgr.WriteComputerByte(sio.FrameChecksum(data))

	test.Equate(t, len(dev.received), 1)
	test.Equate(t, dev.received[0], data)
	test.ExpectedSuccess(t, dev.checksum[0])
}

func TestReceiveBadChecksum(t *testing.T) {
	_, mgr, dev, _ := newTestBus()

	mgr.ReceiveData(3, 2)
	mgr.WriteComputerByte(0xaa)
	mgr.WriteComputerByte(0xbb)
	mgr.WriteComputerByte(0x00)

	test.Equate(t, len(dev.received), 1)
	test.ExpectedFailure(t, dev.checksum[0])
}

func TestResetDropsQueuedTraffic(t *testing.T) {
	clk, mgr, dev, out := newTestBus()

	mgr.EnableRaw(true)
	mgr.SendData([]byte{0x01, 0x02}, true)
	mgr.InsertFence(7)

	mgr.Reset()

	// the queued frame and its fence are gone
	clk.Advance(8 * mgr.CyclesPerByte())
	test.Equate(t, len(*out), 0)
	test.Equate(t, len(dev.fences), 0)

	// raw mode is back to the framed default
	mgr.ReceiveData(3, 0)
	mgr.WriteComputerByte(0x00)
	test.Equate(t, len(dev.rawBytes), 0)
	test.Equate(t, len(dev.received), 1)

	// the bus is usable after the reset
	mgr.SendACK()
	clk.Advance(mgr.CyclesPerByte())
	test.Equate(t, len(*out), 1)
	test.Equate(t, (*out)[0], uint8(sio.ByteACK))
}

func TestRawMode(t *testing.T) {
	_, mgr, dev, _ := newTestBus()

	mgr.EnableRaw(true)
	mgr.WriteComputerByte(0x55)
	mgr.WriteComputerByte(0xaa)

	test.Equate(t, dev.rawBytes, []uint8{0x55, 0xaa})
	test.Equate(t, len(dev.received), 0)
}
