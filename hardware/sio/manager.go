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

import (
	"github.com/gopher800/gopher800/hardware/clock"
	"github.com/gopher800/gopher800/logger"
)

const logTag = "sio"

// clock event id used by the manager
const eventIDStep = 1

type actionKind int

const (
	actSend actionKind = iota
	actDelay
	actFence
	actRecv
)

type action struct {
	kind actionKind

	// actSend
	value uint8

	// actDelay
	cycles uint64

	// actFence and actRecv
	id uint32

	// actRecv. want excludes the checksum byte, which is always expected
	want int
	buf  []byte
}

// Manager is the serial bus. It connects the computer side (command and
// motor lines, bytes written by the computer) to a Device, running all
// transmission against the cycle clock.
//
// The manager processes its transmission queue strictly in order: a fence
// queued after a data frame fires only when the last byte of the frame has
// gone out on the wire.
type Manager struct {
	clk *clock.Clock
	dev Device

	// bytes arriving at the computer. may be nil
	Output func(value uint8)

	cyclesPerByte uint64

	cmdAsserted   bool
	motorAsserted bool

	// peripheral controlled lines
	proceed   bool
	interrupt bool

	// command frame accumulation while the command line is asserted
	frame []byte

	// bytes from the computer are forwarded to the device as they are when
	// raw mode is enabled
	raw bool

	// a command is considered in flight from dispatch until the queue
	// drains. a new command frame while in flight aborts the old command
	inFlight bool

	queue []action

	// bytes from the computer waiting for a receive action to reach the
	// head of the queue
	pendingIn []byte

	ev *clock.Event

	// guards against re-entry when a device callback queues more traffic
	stepping bool
}

// NewManager is the preferred method of initialisation of the Manager type.
func NewManager(clk *clock.Clock) *Manager {
	return &Manager{
		clk:           clk,
		cyclesPerByte: DefaultCyclesPerByte,
	}
}

// Connect attaches the peripheral to the bus. Only one peripheral is
// supported; the custom device multiplexes its own sub-devices.
func (m *Manager) Connect(dev Device) {
	m.dev = dev
}

// CyclesPerByte returns the serial byte period in cycles.
func (m *Manager) CyclesPerByte() uint64 {
	return m.cyclesPerByte
}

// IsCommandAsserted returns the state of the command line.
func (m *Manager) IsCommandAsserted() bool {
	return m.cmdAsserted
}

// IsMotorAsserted returns the state of the cassette motor line.
func (m *Manager) IsMotorAsserted() bool {
	return m.motorAsserted
}

// ProceedAsserted returns the state of the peripheral's proceed line.
func (m *Manager) ProceedAsserted() bool {
	return m.proceed
}

// InterruptAsserted returns the state of the peripheral's interrupt line.
func (m *Manager) InterruptAsserted() bool {
	return m.interrupt
}

// SetProceed drives the proceed line. Called by the peripheral.
func (m *Manager) SetProceed(asserted bool) {
	m.proceed = asserted
}

// SetInterrupt drives the interrupt line. Called by the peripheral.
func (m *Manager) SetInterrupt(asserted bool) {
	m.interrupt = asserted
}

// EnableRaw switches the bus out of the framed protocol. While enabled,
// bytes from the computer are forwarded to the device as they arrive.
func (m *Manager) EnableRaw(enable bool) {
	m.raw = enable
}

// AssertCommand drives the command line low (asserted), beginning a command
// frame. A command already in flight is aborted.
func (m *Manager) AssertCommand() {
	if m.cmdAsserted {
		return
	}

	if m.inFlight {
		m.dropQueue()
		m.dev.AbortCommand()
	}

	m.cmdAsserted = true
	m.frame = m.frame[:0]
	m.dev.CommandStateChanged(true)
}

// DeassertCommand releases the command line, ending the command frame. A
// well formed frame is dispatched to the device.
func (m *Manager) DeassertCommand() {
	if !m.cmdAsserted {
		return
	}
	m.cmdAsserted = false
	m.dev.CommandStateChanged(false)

	if len(m.frame) != 5 {
		logger.Logf(logger.Allow, logTag, "short command frame (%d bytes)", len(m.frame))
		return
	}
	if FrameChecksum(m.frame[:4]) != m.frame[4] {
		logger.Log(logger.Allow, logTag, "command frame checksum mismatch")
		return
	}

	cmd := Command{
		Device:  m.frame[0],
		Command: m.frame[1],
		Aux1:    m.frame[2],
		Aux2:    m.frame[3],
	}

	switch m.dev.CommandFrame(cmd) {
	case NotHandled:
		// a real bus would time out. nothing to do

	case FailNAK:
		m.SendNAK()
		m.inFlight = true

	default:
		m.inFlight = true
	}
}

// ExecuteCommand offers a command over the accelerated path, skipping the
// serial timing. The caller deals with a BypassAccel response by replaying
// the command through the command line.
func (m *Manager) ExecuteCommand(cmd Command) CmdResponse {
	return m.dev.AccelCommand(cmd)
}

// SetMotor drives the cassette motor line.
func (m *Manager) SetMotor(asserted bool) {
	if m.motorAsserted == asserted {
		return
	}
	m.motorAsserted = asserted
	m.dev.MotorStateChanged(asserted)
}

// WriteComputerByte delivers a byte written by the computer to the bus.
func (m *Manager) WriteComputerByte(value uint8) {
	if m.cmdAsserted {
		if len(m.frame) < 5 {
			m.frame = append(m.frame, value)
		}
		return
	}

	if m.raw {
		m.dev.ReceiveByte(value, uint32(m.cyclesPerByte))
		return
	}

	m.pendingIn = append(m.pendingIn, value)
	m.step()
}

// SendACK queues the ACK protocol byte.
func (m *Manager) SendACK() {
	m.enqueue(action{kind: actSend, value: ByteACK})
}

// SendNAK queues the NAK protocol byte.
func (m *Manager) SendNAK() {
	m.enqueue(action{kind: actSend, value: ByteNAK})
}

// SendComplete queues the Complete protocol byte.
func (m *Manager) SendComplete() {
	m.enqueue(action{kind: actSend, value: ByteComplete})
}

// SendError queues the Error protocol byte.
func (m *Manager) SendError() {
	m.enqueue(action{kind: actSend, value: ByteError})
}

// SendData queues a data frame, optionally followed by its checksum.
func (m *Manager) SendData(data []byte, addChecksum bool) {
	for _, b := range data {
		m.enqueue(action{kind: actSend, value: b})
	}
	if addChecksum {
		m.enqueue(action{kind: actSend, value: FrameChecksum(data)})
	}
}

// ReceiveData queues an expectation of n data bytes plus a checksum byte
// from the computer. The device's ReceiveComplete() is called with the id
// when the frame has arrived.
func (m *Manager) ReceiveData(id uint32, n int) {
	m.enqueue(action{kind: actRecv, id: id, want: n})
}

// InsertFence queues a marker. The device's Fence() is called with the id
// when transmission progresses past it.
func (m *Manager) InsertFence(id uint32) {
	m.enqueue(action{kind: actFence, id: id})
}

// Delay queues dead time on the bus.
func (m *Manager) Delay(cycles uint64) {
	m.enqueue(action{kind: actDelay, cycles: cycles})
}

func (m *Manager) enqueue(a action) {
	m.queue = append(m.queue, a)
	m.step()
}

// Reset restores the bus to its power-on state. Queued traffic is dropped,
// fences included, and the peripheral driven lines are released. The
// computer driven lines (command, motor) are left as the computer has them.
func (m *Manager) Reset() {
	m.dropQueue()
	m.frame = m.frame[:0]
	m.proceed = false
	m.interrupt = false
	m.raw = false
}

func (m *Manager) dropQueue() {
	m.queue = m.queue[:0]
	m.pendingIn = m.pendingIn[:0]
	m.inFlight = false
	m.clk.UnsetEvent(&m.ev)
}

// step makes progress on the head of the queue. Timed actions arm a clock
// event; instantaneous actions complete immediately and the queue advances.
func (m *Manager) step() {
	if m.ev != nil || m.stepping {
		return
	}
	m.stepping = true
	defer func() {
		m.stepping = false
	}()

	for len(m.queue) > 0 {
		a := &m.queue[0]
		switch a.kind {
		case actSend:
			m.clk.SetEvent(m.cyclesPerByte, m, eventIDStep, &m.ev)
			return

		case actDelay:
			m.clk.SetEvent(a.cycles, m, eventIDStep, &m.ev)
			return

		case actFence:
			id := a.id
			m.pop()
			m.dev.Fence(id)

		case actRecv:
			if !m.fillReceive(a) {
				return
			}
		}
	}

	m.inFlight = false
}

// OnScheduledEvent implements the clock.Subscriber interface.
func (m *Manager) OnScheduledEvent(id uint32) {
	m.ev = nil

	if len(m.queue) == 0 {
		return
	}

	a := m.queue[0]
	m.pop()

	switch a.kind {
	case actSend:
		if m.Output != nil {
			m.Output(a.value)
		}
	case actDelay:
		// dead time is its own completion
	}

	m.step()
}

func (m *Manager) pop() {
	copy(m.queue, m.queue[1:])
	m.queue = m.queue[:len(m.queue)-1]
}

// fillReceive moves pending input into the receive action. Returns true if
// the receive completed and was popped from the queue.
func (m *Manager) fillReceive(a *action) bool {
	need := a.want + 1 - len(a.buf)
	take := need
	if take > len(m.pendingIn) {
		take = len(m.pendingIn)
	}
	a.buf = append(a.buf, m.pendingIn[:take]...)
	m.pendingIn = m.pendingIn[take:]

	if len(a.buf) < a.want+1 {
		return false
	}

	id := a.id
	data := a.buf[:a.want]
	ok := FrameChecksum(data) == a.buf[a.want]
	m.pop()
	m.dev.ReceiveComplete(id, data, ok)
	return true
}
