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
	"os"
	"path/filepath"
	"testing"

	"github.com/gopher800/gopher800/hardware/clock"
	"github.com/gopher800/gopher800/hardware/sio"
	"github.com/gopher800/gopher800/test"
)

// writeFrame delivers a five byte command frame with a valid checksum.
func writeFrame(dev *Device, device, command, aux1, aux2 uint8) {
	frame := []byte{device, command, aux1, aux2}
	dev.Bus().AssertCommand()
	for _, b := range frame {
		dev.Bus().WriteComputerByte(b)
	}
	dev.Bus().WriteComputerByte(sio.FrameChecksum(frame))
	dev.Bus().DeassertCommand()
}

func TestSIOScriptedCommand(t *testing.T) {
	clk, dev := newTestDevice(t, `{
		"name": "disk drive",
		"declarations": [
			{"type": "global", "name": "got_device"},
			{"type": "global", "name": "got_cmd"},
			{"type": "global", "name": "got_aux"},
			{"type": "segment", "name": "buf", "size": 16, "pattern": [1, 2]},
			{"type": "sio_device", "name": "disk", "device": 49},
			{"type": "event", "name": "sio_command", "body": [
				"got_device = $device;",
				"got_cmd = $command;",
				"got_aux = $aux;",
				"disk.ack_delay();",
				"disk.ack();",
				"disk.send(buf, 0, 2);",
				"disk.complete();"
			]}
		]
	}`)

	var out []uint8
	dev.Bus().Output = func(v uint8) {
		out = append(out, v)
	}

	writeFrame(dev, 0x31, 0x52, 0x34, 0x12)

	// the hook has run as far as its first blocking operation
	test.Equate(t, global(dev, "got_device"), int32(0x31))
	test.Equate(t, global(dev, "got_cmd"), int32(0x52))
	test.Equate(t, global(dev, "got_aux"), int32(0x1234))

	clk.Advance(20000)

	// ACK, the data frame with its checksum, then Complete
	test.Equate(t, len(out), 5)
	test.Equate(t, out[0], uint8(sio.ByteACK))
	test.Equate(t, out[1], uint8(1))
	test.Equate(t, out[2], uint8(2))
	test.Equate(t, out[3], sio.FrameChecksum([]byte{1, 2}))
	test.Equate(t, out[4], uint8(sio.ByteComplete))
}

func TestSIOScriptedReceive(t *testing.T) {
	clk, dev := newTestDevice(t, `{
		"name": "disk drive",
		"declarations": [
			{"type": "global", "name": "got_ok"},
			{"type": "segment", "name": "buf", "size": 16},
			{"type": "sio_device", "name": "disk", "device": 49},
			{"type": "event", "name": "sio_command", "body": [
				"disk.ack_delay();",
				"disk.ack();",
				"got_ok = disk.recv(buf, 4, 2);",
				"disk.complete();"
			]}
		]
	}`)

	writeFrame(dev, 0x31, 0x57, 0, 0)

	// the computer sends the data frame while the device is still inside
	// its ACK delay. the bytes wait for the receive to reach the head of
	// the transmission queue
	dev.Bus().WriteComputerByte(0x11)
	dev.Bus().WriteComputerByte(0x22)
	dev.Bus().WriteComputerByte(sio.FrameChecksum([]byte{0x11, 0x22}))

	clk.Advance(20000)

	test.Equate(t, global(dev, "got_ok"), int32(1))
	test.Equate(t, dev.prog.segList[0].Data[4], uint8(0x11))
	test.Equate(t, dev.prog.segList[0].Data[5], uint8(0x22))
}

func TestSIOAutoTransfer(t *testing.T) {
	clk, dev := newTestDevice(t, `{
		"name": "disk drive",
		"declarations": [
			{"type": "sio_device", "name": "disk", "device": 49, "auto_transfer": true}
		]
	}`)

	var out []uint8
	dev.Bus().Output = func(v uint8) {
		out = append(out, v)
	}

	writeFrame(dev, 0x31, 0x53, 0, 0)
	clk.Advance(20000)

	test.Equate(t, len(out), 2)
	test.Equate(t, out[0], uint8(sio.ByteACK))
	test.Equate(t, out[1], uint8(sio.ByteComplete))

	// a frame for some other device stays unanswered
	out = out[:0]
	writeFrame(dev, 0x60, 0x53, 0, 0)
	clk.Advance(20000)
	test.Equate(t, len(out), 0)
}

func TestSIORawMode(t *testing.T) {
	_, dev := newTestDevice(t, `{
		"name": "modem",
		"declarations": [
			{"type": "global", "name": "first_byte"},
			{"type": "global", "name": "second_byte"},
			{"type": "sio_device", "name": "modem", "device": 80},
			{"type": "thread", "name": "pump", "body": [
				"first_byte = modem.recv_raw();",
				"second_byte = modem.recv_raw();"
			]},
			{"type": "event", "name": "init",
				"body": "modem.enable_raw(1); pump.run();"}
		]
	}`)

	dev.Bus().WriteComputerByte(0x5a)
	test.Equate(t, global(dev, "first_byte"), int32(0x5a))
	test.Equate(t, global(dev, "second_byte"), int32(0))

	dev.Bus().WriteComputerByte(0x7e)
	test.Equate(t, global(dev, "second_byte"), int32(0x7e))
}

func TestSIOCommandAbort(t *testing.T) {
	clk, dev := newTestDevice(t, `{
		"name": "disk drive",
		"declarations": [
			{"type": "global", "name": "done"},
			{"type": "sio_device", "name": "disk", "device": 49},
			{"type": "event", "name": "sio_command",
				"body": "disk.delay(100000); done = 1;"}
		]
	}`)

	writeFrame(dev, 0x31, 0x52, 0, 0)
	test.Equate(t, global(dev, "done"), int32(0))

	// a new command aborts the one in flight. the delayed thread never
	// completes
	writeFrame(dev, 0x31, 0x21, 0, 0)
	dev.Bus().AssertCommand()
	clk.Advance(1000000)
	test.Equate(t, global(dev, "done"), int32(0))
}

func TestSIOReloadDropsQueuedTraffic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	if err := os.WriteFile(path, []byte(`{
		"name": "disk drive",
		"declarations": [
			{"type": "segment", "name": "buf", "size": 4, "pattern": [1]},
			{"type": "sio_device", "name": "disk", "device": 49},
			{"type": "event", "name": "sio_command", "body": [
				"disk.ack();",
				"disk.send(buf, 0, 4);",
				"disk.complete();"
			]}
		]
	}`), 0644); err != nil {
		t.Fatal(err)
	}

	clk := clock.NewClock()
	dev, err := NewDevice(clk, Settings{Path: path})
	test.ExpectedSuccess(t, err)

	var out []uint8
	dev.Bus().Output = func(v uint8) {
		out = append(out, v)
	}

	// the command queues a reply but nothing has gone out yet
	writeFrame(dev, 0x31, 0x52, 0, 0)
	test.Equate(t, len(out), 0)

	// a program swap drops the queued traffic along with the old program's
	// threads. the new program starts with a quiet bus
	test.ExpectedSuccess(t, dev.load())
	clk.Advance(1000000)
	test.Equate(t, len(out), 0)
}

func TestSIOMotorHook(t *testing.T) {
	_, dev := newTestDevice(t, `{
		"name": "recorder",
		"declarations": [
			{"type": "global", "name": "motor_state", "value": -1},
			{"type": "sio_device", "name": "tape", "device": 96},
			{"type": "event", "name": "sio_motor_changed",
				"body": "motor_state = $aux;"}
		]
	}`)

	dev.Bus().SetMotor(true)
	test.Equate(t, global(dev, "motor_state"), int32(1))
	dev.Bus().SetMotor(false)
	test.Equate(t, global(dev, "motor_state"), int32(0))
}
