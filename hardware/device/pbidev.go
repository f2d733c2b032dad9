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
	"github.com/gopher800/gopher800/hardware/pbi"
	"github.com/gopher800/gopher800/vm"
)

// pbiDeviceObject is a parallel bus identity declared in the description.
// The select bit doubles as the device's IRQ bit.
type pbiDeviceObject struct {
	class *vm.Class
	dev   *Device
	irq   *pbi.IRQController

	name string
	bit  uint8

	selected bool

	// status bits set by script, ORed into the select register readback
	status uint8
}

func (o *pbiDeviceObject) Class() *vm.Class { return o.class }

func newPBIDeviceObject(dev *Device, name string, bit uint8, irq *pbi.IRQController) *pbiDeviceObject {
	o := &pbiDeviceObject{
		dev:  dev,
		irq:  irq,
		name: name,
		bit:  bit,
	}

	o.class = &vm.Class{
		Name: "pbi",
		Methods: []vm.Method{
			{Name: "assert_irq", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				o.irq.Assert(o.bit)
				return 0
			}},
			{Name: "negate_irq", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				o.irq.Negate(o.bit)
				return 0
			}},
			{Name: "irq_asserted", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				return boolVar(o.irq.AssertedBits()&o.bit != 0)
			}},
			{Name: "set_status", Params: []string{""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				o.status = uint8(args[0].Int)
				return 0
			}},
			{Name: "selected", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				return boolVar(o.selected)
			}},
		},
	}

	return o
}

// ID implements the pbi.Device interface.
func (o *pbiDeviceObject) ID() uint8 {
	return o.bit
}

// Selected implements the pbi.Device interface. PBI priority memory layers
// follow the selection state and the matching event hook runs.
func (o *pbiDeviceObject) Selected(enabled bool) {
	if o.selected == enabled {
		return
	}
	o.selected = enabled

	o.dev.setPBILayers(enabled)

	name := "pbi_deselect"
	if enabled {
		name = "pbi_select"
	}
	if h, ok := o.dev.prog.hooks[name]; ok {
		o.dev.startHook(h, func(t *vm.Thread) {
			t.Vars[vm.ThreadVarDevice] = int32(o.bit)
		})
	}
}

// ReadStatus implements the pbi.Device interface. Reads are side effect
// free in both variants so the script sets the status ahead of time.
func (o *pbiDeviceObject) ReadStatus(busData uint8, debugOnly bool) uint8 {
	return busData | o.status
}
