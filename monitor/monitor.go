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

package monitor

import (
	"os"
	"strconv"
	"strings"

	"github.com/bradleyjkemp/memviz"
	"github.com/gopher800/gopher800/hardware/clock"
	"github.com/gopher800/gopher800/hardware/device"
	"github.com/gopher800/gopher800/hardware/memory"
)

const prompt = "g800> "

// Monitor is an interactive inspector for a running device. It talks to
// the terminal directly and drives the device from its own read loop; do
// not advance the clock elsewhere while the monitor is running.
type Monitor struct {
	clk *clock.Clock
	dev *device.Device
	tm  terminal
}

// NewMonitor is the preferred method of initialisation of the Monitor type.
func NewMonitor(clk *clock.Clock, dev *device.Device) (*Monitor, error) {
	m := &Monitor{clk: clk, dev: dev}
	if err := m.tm.initialise(os.Stdin, os.Stdout); err != nil {
		return nil, err
	}
	return m, nil
}

// Run the monitor read loop until the user quits.
func (m *Monitor) Run() {
	m.tm.cbreakMode()
	defer m.tm.canonicalMode()

	m.tm.print("%s at tick %d. type help for commands\n", m.dev.SettingsBlurb(), m.clk.Tick64())

	for {
		line, ok := m.tm.readLine(prompt)
		if !ok {
			return
		}
		if !m.dispatch(strings.Fields(line)) {
			return
		}
	}
}

// dispatch runs one command. Returns false when the monitor should quit.
func (m *Monitor) dispatch(args []string) bool {
	if len(args) == 0 {
		return true
	}

	switch args[0] {
	case "help":
		m.tm.print("segments            list memory segments\n")
		m.tm.print("layers              list memory layers\n")
		m.tm.print("peek <addr>         debug read of a bus address\n")
		m.tm.print("poke <addr> <val>   bus write\n")
		m.tm.print("read <seg> <off>    read a segment byte\n")
		m.tm.print("write <seg> <off> <val>\n")
		m.tm.print("step <cycles>       advance the device clock\n")
		m.tm.print("vblank              run one frame pump\n")
		m.tm.print("coldreset           cold reset the device\n")
		m.tm.print("warmreset           warm reset the device\n")
		m.tm.print("leds                show indicator state\n")
		m.tm.print("errors              show script error reports\n")
		m.tm.print("graph <file>        dump the object graph (graphviz dot)\n")
		m.tm.print("quit\n")

	case "segments":
		for _, seg := range m.dev.Segments() {
			m.tm.print("%-20s %6d bytes", seg.Name, seg.Length())
			if seg.NonVolatile {
				m.tm.print("  (non-volatile)")
			}
			m.tm.print("\n")
		}

	case "layers":
		for _, l := range m.dev.Layers() {
			state := "off"
			if l.IsEnabled() {
				state = "on"
			}
			m.tm.print("%-20s %04x +%04x  %s\n", l.Name, l.Base(), l.Size(), state)
		}

	case "peek":
		addr, ok := m.number(args, 1, 0xffff)
		if !ok {
			return true
		}
		m.tm.print("%04x = %02x\n", addr, m.dev.DebugRead(uint16(addr)))

	case "poke":
		addr, ok := m.number(args, 1, 0xffff)
		if !ok {
			return true
		}
		val, ok := m.number(args, 2, 0xff)
		if !ok {
			return true
		}
		m.dev.Write(uint16(addr), uint8(val))

	case "read":
		seg, off, ok := m.segOffset(args)
		if !ok {
			return true
		}
		m.tm.print("%s[%d] = %02x\n", seg.Name, off, seg.Data[off])

	case "write":
		seg, off, ok := m.segOffset(args)
		if !ok {
			return true
		}
		val, ok := m.number(args, 3, 0xff)
		if !ok {
			return true
		}
		seg.Data[off] = uint8(val)

	case "step":
		cycles, ok := m.number(args, 1, 1<<31)
		if !ok {
			return true
		}
		m.clk.Advance(cycles)
		m.tm.print("tick %d\n", m.clk.Tick64())

	case "vblank":
		m.dev.VBlank()

	case "coldreset":
		m.dev.ColdReset()

	case "warmreset":
		m.dev.WarmReset()

	case "leds":
		m.tm.print("%08b\n", m.dev.Indicators())

	case "errors":
		errs := m.dev.ErrorStatus()
		if len(errs) == 0 {
			m.tm.print("no errors\n")
		}
		for _, e := range errs {
			m.tm.print("%s\n", e)
		}

	case "graph":
		if len(args) < 2 {
			m.tm.print("graph needs a filename\n")
			return true
		}
		f, err := os.Create(args[1])
		if err != nil {
			m.tm.print("%v\n", err)
			return true
		}
		memviz.Map(f, m.dev)
		f.Close()
		m.tm.print("object graph written to %s\n", args[1])

	case "quit", "q":
		return false

	default:
		m.tm.print("unknown command '%s'\n", args[0])
	}

	return true
}

func (m *Monitor) number(args []string, idx int, max uint64) (uint64, bool) {
	if idx >= len(args) {
		m.tm.print("%s needs more arguments\n", args[0])
		return 0, false
	}
	v, err := strconv.ParseUint(args[idx], 0, 64)
	if err != nil || v > max {
		m.tm.print("bad value '%s'\n", args[idx])
		return 0, false
	}
	return v, true
}

func (m *Monitor) segOffset(args []string) (seg *memory.Segment, off uint64, ok bool) {
	if len(args) < 3 {
		m.tm.print("%s needs a segment and offset\n", args[0])
		return nil, 0, false
	}
	for _, s := range m.dev.Segments() {
		if s.Name == args[1] {
			off, ok := m.number(args, 2, uint64(s.Length())-1)
			if !ok {
				return nil, 0, false
			}
			return s, off, true
		}
	}
	m.tm.print("unknown segment '%s'\n", args[1])
	return nil, 0, false
}
