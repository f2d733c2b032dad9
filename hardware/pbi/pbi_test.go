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

package pbi_test

import (
	"testing"

	"github.com/gopher800/gopher800/curated"
	"github.com/gopher800/gopher800/hardware/pbi"
	"github.com/gopher800/gopher800/test"
)

type mockPBIDevice struct {
	id uint8

	selects []bool

	statusBits  uint8
	statusReads int
}

func (d *mockPBIDevice) ID() uint8 {
	return d.id
}

func (d *mockPBIDevice) Selected(enabled bool) {
	d.selects = append(d.selects, enabled)
}

func (d *mockPBIDevice) ReadStatus(busData uint8, debugOnly bool) uint8 {
	if !debugOnly {
		d.statusReads++
	}
	return busData | d.statusBits
}

func TestIRQAllocation(t *testing.T) {
	irq := pbi.NewIRQController()

	bits := make(map[uint8]bool)
	for i := 0; i < 8; i++ {
		b, err := irq.Allocate()
		test.ExpectedSuccess(t, err)

		// each allocation is a distinct single bit
		test.Equate(t, b&(b-1), uint8(0))
		test.ExpectedFailure(t, bits[b])
		bits[b] = true
	}

	_, err := irq.Allocate()
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, pbi.NoFreeIRQBits))
}

func TestIRQLine(t *testing.T) {
	irq := pbi.NewIRQController()

	var transitions []bool
	irq.OnChange = func(asserted bool) {
		transitions = append(transitions, asserted)
	}

	a, _ := irq.Allocate()
	b, _ := irq.Allocate()

	irq.Assert(a)
	irq.Assert(b)

	// the line changes once no matter how many bits assert
	test.Equate(t, len(transitions), 1)
	test.ExpectedSuccess(t, irq.Asserted())

	irq.Negate(a)
	test.Equate(t, len(transitions), 1)
	test.ExpectedSuccess(t, irq.Asserted())

	irq.Negate(b)
	test.Equate(t, len(transitions), 2)
	test.ExpectedFailure(t, transitions[1])
	test.ExpectedFailure(t, irq.Asserted())
}

func TestSelection(t *testing.T) {
	mgr := pbi.NewManager()

	d1 := &mockPBIDevice{id: 0x01}
	d2 := &mockPBIDevice{id: 0x02}
	mgr.Register(d1)
	mgr.Register(d2)

	mgr.WriteSelect(0x01)
	test.Equate(t, len(d1.selects), 1)
	test.ExpectedSuccess(t, d1.selects[0])

	// repeated select of the same device does not redispatch
	mgr.WriteSelect(0x01)
	test.Equate(t, len(d1.selects), 1)

	// selecting another device deselects the first
	mgr.WriteSelect(0x02)
	test.Equate(t, len(d1.selects), 2)
	test.ExpectedFailure(t, d1.selects[1])
	test.ExpectedSuccess(t, d2.selects[0])

	// zero deselects the bus
	mgr.WriteSelect(0x00)
	test.Equate(t, len(d2.selects), 2)
	test.ExpectedFailure(t, d2.selects[1])
}

func TestReadStatus(t *testing.T) {
	mgr := pbi.NewManager()

	d := &mockPBIDevice{id: 0x01, statusBits: 0x40}
	mgr.Register(d)

	bit, err := mgr.IRQ.Allocate()
	test.ExpectedSuccess(t, err)

	mgr.WriteSelect(0x01)
	mgr.IRQ.Assert(bit)

	status := mgr.ReadStatus(0x00, false)
	test.Equate(t, status&bit, bit)
	test.Equate(t, status&0x40, uint8(0x40))
	test.Equate(t, d.statusReads, 1)

	// the debugOnly variant must not touch device state
	_ = mgr.ReadStatus(0x00, true)
	test.Equate(t, d.statusReads, 1)
}
