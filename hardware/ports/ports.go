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

// Package ports gives device scripts access to the console's controller
// ports. The host wires real input in through the Input callback; headless
// use leaves it nil and reads float high.
package ports

// Port is one controller port.
type Port struct {
	Label string
	ID    int

	// Input is sampled whenever a script reads the port. May be nil
	Input func() uint8

	// OnOutput is called when a script drives the port's output lines.
	// May be nil
	OnOutput func(value uint8)

	output uint8
}

// NewPort is the preferred method of initialisation of the Port type.
func NewPort(label string, id int) *Port {
	return &Port{
		Label: label,
		ID:    id,
	}
}

// Read samples the port's input lines.
func (p *Port) Read() uint8 {
	if p.Input == nil {
		// unplugged lines float high
		return 0xff
	}
	return p.Input()
}

// Write drives the port's output lines.
func (p *Port) Write(value uint8) {
	p.output = value
	if p.OnOutput != nil {
		p.OnOutput(value)
	}
}

// Output returns the last value driven with Write().
func (p *Port) Output() uint8 {
	return p.output
}
