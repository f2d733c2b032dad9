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

package pbi

import (
	"github.com/gopher800/gopher800/curated"
)

// Sentinel error returned by IRQController.Allocate() when all eight bits
// are taken.
const NoFreeIRQBits = "pbi: no free irq bits"

// Device is a peripheral on the parallel bus.
type Device interface {
	// ID returns the device's select bit. Exactly one bit must be set.
	ID() uint8

	// Selected reports a change to the device's select state. A device is
	// selected when the select register is written with its ID bit set.
	Selected(enabled bool)

	// ReadStatus returns the device's contribution to the bus status
	// register. busData carries the floating bus value for unclaimed bits.
	//
	// The debugOnly variant of a status read must have no side effects. A
	// device must not dispatch events or mutate state when debugOnly is
	// true.
	ReadStatus(busData uint8, debugOnly bool) uint8
}

// IRQController arbitrates the shared parallel bus interrupt line. Devices
// allocate a bit each and assert/negate it independently. The line to the
// host is the OR of all asserted bits.
type IRQController struct {
	allocated uint8
	asserted  uint8

	// OnChange is called when the aggregate interrupt line changes state.
	// May be nil
	OnChange func(asserted bool)
}

// NewIRQController is the preferred method of initialisation of the
// IRQController type.
func NewIRQController() *IRQController {
	return &IRQController{}
}

// Allocate claims a free IRQ bit for a device. The returned value has
// exactly one bit set.
func (irq *IRQController) Allocate() (uint8, error) {
	for b := uint8(1); b != 0; b <<= 1 {
		if irq.allocated&b == 0 {
			irq.allocated |= b
			return b, nil
		}
	}
	return 0, curated.Errorf(NoFreeIRQBits)
}

// Free releases a bit claimed with Allocate(). The bit is negated first if
// still asserted.
func (irq *IRQController) Free(bit uint8) {
	irq.Negate(bit)
	irq.allocated &^= bit
}

// Assert raises the device's IRQ bit.
func (irq *IRQController) Assert(bit uint8) {
	was := irq.asserted != 0
	irq.asserted |= bit
	if !was && irq.asserted != 0 && irq.OnChange != nil {
		irq.OnChange(true)
	}
}

// Negate lowers the device's IRQ bit.
func (irq *IRQController) Negate(bit uint8) {
	was := irq.asserted != 0
	irq.asserted &^= bit
	if was && irq.asserted == 0 && irq.OnChange != nil {
		irq.OnChange(false)
	}
}

// Asserted returns the state of the aggregate interrupt line.
func (irq *IRQController) Asserted() bool {
	return irq.asserted != 0
}

// AssertedBits returns the currently asserted IRQ bits.
func (irq *IRQController) AssertedBits() uint8 {
	return irq.asserted
}

// Manager multiplexes devices on the parallel bus. At most one device is
// selected at a time, chosen by writing its ID bit to the select register.
type Manager struct {
	IRQ *IRQController

	devices  []Device
	selected Device
}

// NewManager is the preferred method of initialisation of the Manager type.
func NewManager() *Manager {
	return &Manager{
		IRQ: NewIRQController(),
	}
}

// Register adds a device to the bus.
func (m *Manager) Register(dev Device) {
	m.devices = append(m.devices, dev)
}

// WriteSelect handles a write to the device select register. The device
// whose ID bit is set becomes selected; any previously selected device is
// deselected first. A value selecting no registered device (including zero)
// deselects the bus.
func (m *Manager) WriteSelect(value uint8) {
	var sel Device
	for _, d := range m.devices {
		if d.ID()&value != 0 {
			sel = d
			break
		}
	}

	if sel == m.selected {
		return
	}

	if m.selected != nil {
		m.selected.Selected(false)
	}
	m.selected = sel
	if m.selected != nil {
		m.selected.Selected(true)
	}
}

// Selected returns the currently selected device, or nil.
func (m *Manager) Selected() Device {
	return m.selected
}

// ReadStatus handles a read of the bus status register. IRQ-pending bits
// are combined with the selected device's own status. Unclaimed bits float
// at the busData value.
//
// With debugOnly set the read is guaranteed side effect free.
func (m *Manager) ReadStatus(busData uint8, debugOnly bool) uint8 {
	status := busData &^ m.IRQ.allocated
	status |= m.IRQ.asserted
	if m.selected != nil {
		status = m.selected.ReadStatus(status, debugOnly)
	}
	return status
}

// Reset deselects the bus and clears all asserted IRQ bits. Allocations are
// kept, they belong to the device instances.
func (m *Manager) Reset() {
	if m.selected != nil {
		m.selected.Selected(false)
		m.selected = nil
	}
	for b := uint8(1); b != 0; b <<= 1 {
		if m.IRQ.asserted&b != 0 {
			m.IRQ.Negate(b)
		}
	}
}
