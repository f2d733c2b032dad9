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

package sio

// Protocol bytes sent from a peripheral to the computer.
const (
	ByteACK      = 0x41 // 'A'
	ByteNAK      = 0x4e // 'N'
	ByteComplete = 0x43 // 'C'
	ByteError    = 0x45 // 'E'
)

// timing constants, in machine cycles
const (
	// one serial byte at the standard rate. ten bit cells of 93 cycles
	DefaultCyclesPerByte = 930

	// the gap a peripheral must leave between receiving a data frame and
	// sending the ACK
	DataToACKDelay = 1530
)

// CmdResponse is a device's answer to a command frame.
type CmdResponse int

// List of valid CmdResponse values.
const (
	// the command is not for this device, or not recognised
	NotHandled CmdResponse = iota

	// the device recognises the command but wants it replayed through the
	// full timed protocol rather than the accelerated path
	BypassAccel

	// the device has taken responsibility for the command and has queued
	// (or will queue) its own protocol traffic
	Start

	// the framework should acknowledge and complete the command
	SendACKComplete

	// the framework should reject the command
	FailNAK
)

// Command is a decoded five byte command frame. The checksum has been
// verified by the time a Command reaches a device.
type Command struct {
	Device  uint8
	Command uint8
	Aux1    uint8
	Aux2    uint8
}

// Aux returns the 16-bit auxiliary value.
func (c Command) Aux() uint16 {
	return uint16(c.Aux1) | uint16(c.Aux2)<<8
}

// Device is a peripheral attached to the serial bus.
type Device interface {
	// CommandFrame delivers a validated command frame. The device drives
	// any further protocol traffic itself through the Manager.
	CommandFrame(cmd Command) CmdResponse

	// AccelCommand offers the command over the accelerated path. The
	// device may answer synchronously or return BypassAccel to force the
	// timed protocol.
	AccelCommand(cmd Command) CmdResponse

	// AbortCommand tells the device that the computer has abandoned the
	// command in flight. Queued protocol traffic has already been dropped.
	AbortCommand()

	// ReceiveComplete delivers a data frame requested with
	// Manager.ReceiveData()
	ReceiveComplete(id uint32, data []byte, checksumOK bool)

	// Fence reports that transmission has progressed past a fence queued
	// with Manager.InsertFence()
	Fence(id uint32)

	// CommandStateChanged reports the command line changing state
	CommandStateChanged(asserted bool)

	// MotorStateChanged reports the cassette motor line changing state
	MotorStateChanged(asserted bool)

	// ReceiveByte delivers a byte from the computer while the device has
	// raw mode enabled
	ReceiveByte(value uint8, cyclesPerByte uint32)
}

// FrameChecksum computes the serial bus checksum: a sum with end-around
// carry. The result of summing a frame together with a valid checksum byte
// is always 0xff or 0x00 for the degenerate empty frame.
func FrameChecksum(data []byte) uint8 {
	chk := uint32(0)
	for _, b := range data {
		chk += uint32(b)
		chk = (chk & 0xff) + (chk >> 8)
	}
	return uint8(chk)
}
