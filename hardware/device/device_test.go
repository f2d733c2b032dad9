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
	"github.com/gopher800/gopher800/test"
)

func newTestDevice(t *testing.T, desc string) (*clock.Clock, *Device) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "device.json")
	if err := os.WriteFile(path, []byte(desc), 0644); err != nil {
		t.Fatal(err)
	}

	clk := clock.NewClock()
	dev, err := NewDevice(clk, Settings{Path: path})
	test.ExpectedSuccess(t, err)

	return clk, dev
}

// global reads a declared global variable by name.
func global(dev *Device, name string) int32 {
	s := dev.prog.symbols[name]
	return dev.prog.dom.Globals[s.idx]
}

func TestSleepOrdering(t *testing.T) {
	clk, dev := newTestDevice(t, `{
		"name": "sleeper",
		"declarations": [
			{"type": "global", "name": "order"},
			{"type": "thread", "name": "worker_a",
				"body": "console.sleep(10); order = order * 10 + 1;"},
			{"type": "thread", "name": "worker_b",
				"body": "console.sleep(10); order = order * 10 + 2;"},
			{"type": "event", "name": "init",
				"body": "worker_a.run(); worker_b.run();"}
		]
	}`)

	// both threads are asleep. identical wake cycles resolve in thread
	// creation order
	test.Equate(t, global(dev, "order"), int32(0))
	clk.Advance(10)
	test.Equate(t, global(dev, "order"), int32(12))
}

func TestSleepTiming(t *testing.T) {
	clk, dev := newTestDevice(t, `{
		"name": "sleeper",
		"declarations": [
			{"type": "global", "name": "done_at"},
			{"type": "thread", "name": "worker",
				"body": "console.sleep(100); done_at = console.tick();"},
			{"type": "event", "name": "init", "body": "worker.run();"}
		]
	}`)

	// a sleep never wakes early
	clk.Advance(99)
	test.Equate(t, global(dev, "done_at"), int32(0))
	clk.Advance(1)
	test.Equate(t, global(dev, "done_at"), int32(100))
}

func TestAbortedSleepNeverWakes(t *testing.T) {
	clk, dev := newTestDevice(t, `{
		"name": "sleeper",
		"declarations": [
			{"type": "global", "name": "flag"},
			{"type": "thread", "name": "worker",
				"body": "console.sleep(10); flag = 1;"},
			{"type": "event", "name": "init",
				"body": "worker.run(); worker.interrupt();"}
		]
	}`)

	clk.Advance(100)
	test.Equate(t, global(dev, "flag"), int32(0))
}

func TestThreadJoin(t *testing.T) {
	clk, dev := newTestDevice(t, `{
		"name": "joiner",
		"declarations": [
			{"type": "global", "name": "order"},
			{"type": "thread", "name": "worker",
				"body": "console.sleep(10); order = order * 10 + 1;"},
			{"type": "thread", "name": "waiter",
				"body": "worker.join(); order = order * 10 + 2;"},
			{"type": "event", "name": "init",
				"body": "worker.run(); waiter.run();"}
		]
	}`)

	test.Equate(t, global(dev, "order"), int32(0))
	clk.Advance(10)
	test.Equate(t, global(dev, "order"), int32(12))
}

func TestCommandWaitFIFO(t *testing.T) {
	_, dev := newTestDevice(t, `{
		"name": "waiter",
		"declarations": [
			{"type": "global", "name": "order"},
			{"type": "sio_device", "name": "disk", "device": 49},
			{"type": "thread", "name": "wa",
				"body": "disk.wait_command(); order = order * 10 + 1;"},
			{"type": "thread", "name": "wb",
				"body": "disk.wait_command(); order = order * 10 + 2;"},
			{"type": "thread", "name": "wc",
				"body": "disk.wait_command(); order = order * 10 + 3;"},
			{"type": "event", "name": "init",
				"body": "wa.run(); wb.run(); wc.run();"}
		]
	}`)

	// all three are parked. asserting the command line releases them in
	// the order they began waiting
	test.Equate(t, global(dev, "order"), int32(0))
	dev.Bus().AssertCommand()
	test.Equate(t, global(dev, "order"), int32(123))
}

func TestControlLayer(t *testing.T) {
	_, dev := newTestDevice(t, `{
		"name": "control",
		"declarations": [
			{"type": "global", "name": "reads"},
			{"type": "global", "name": "last_addr"},
			{"type": "global", "name": "last_value"},
			{"type": "memory_layer", "name": "ctl", "address": 54528,
				"size": 256, "mode": "control"},
			{"type": "function", "name": "ctl_read", "returns": "int",
				"body": "reads = reads + 1; return 90;"},
			{"type": "function", "name": "ctl_write",
				"body": "last_addr = $aux1; last_value = $aux2;"}
		]
	}`)

	test.Equate(t, dev.Read(0xd500), uint8(90))
	test.Equate(t, global(dev, "reads"), int32(1))

	// a debug read delivers the last scripted value without running any
	// script
	test.Equate(t, dev.DebugRead(0xd500), uint8(90))
	test.Equate(t, global(dev, "reads"), int32(1))

	dev.Write(0xd510, 7)
	test.Equate(t, global(dev, "last_addr"), int32(0xd510))
	test.Equate(t, global(dev, "last_value"), int32(7))
}

func TestColdReset(t *testing.T) {
	_, dev := newTestDevice(t, `{
		"name": "resetter",
		"declarations": [
			{"type": "global", "name": "counter", "value": 5},
			{"type": "global", "name": "resets"},
			{"type": "segment", "name": "ram", "size": 256, "pattern": [170]},
			{"type": "segment", "name": "nvram", "size": 256, "persistent": true},
			{"type": "event", "name": "init",
				"body": ["counter = 99;", "ram.write(0, 1);", "nvram.write(0, 1);"]},
			{"type": "event", "name": "cold_reset", "body": "resets = resets + 1;"}
		]
	}`)

	test.Equate(t, global(dev, "counter"), int32(99))
	test.Equate(t, dev.prog.segList[0].Data[0], uint8(1))

	dev.ColdReset()

	// globals return to declared values, volatile segments to their
	// pattern, persistent segments keep their contents
	test.Equate(t, global(dev, "counter"), int32(5))
	test.Equate(t, global(dev, "resets"), int32(1))
	test.Equate(t, dev.prog.segList[0].Data[0], uint8(170))
	test.Equate(t, dev.prog.segList[1].Data[0], uint8(1))
}

func TestPBISelection(t *testing.T) {
	_, dev := newTestDevice(t, `{
		"name": "parallel",
		"declarations": [
			{"type": "global", "name": "sel"},
			{"type": "global", "name": "desel"},
			{"type": "segment", "name": "rom", "size": 256, "pattern": [127]},
			{"type": "memory_layer", "name": "prom", "address": 55296,
				"size": 256, "segment": "rom", "mode": "r", "priority": "pbi"},
			{"type": "pbi_device", "name": "pdev"},
			{"type": "event", "name": "pbi_select", "body": "sel = sel + 1;"},
			{"type": "event", "name": "pbi_deselect", "body": "desel = desel + 1;"}
		]
	}`)

	// deselected: the PBI layer is not mapped
	test.Equate(t, dev.Read(0xd800), uint8(0xff))

	bit := dev.prog.pbiDevs[0].bit
	dev.WritePBISelect(bit)
	test.Equate(t, global(dev, "sel"), int32(1))
	test.Equate(t, dev.Read(0xd800), uint8(127))

	dev.WritePBISelect(0)
	test.Equate(t, global(dev, "desel"), int32(1))
	test.Equate(t, dev.Read(0xd800), uint8(0xff))
}

func TestCompileFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	if err := os.WriteFile(path, []byte(`{
		"name": "broken",
		"declarations": [
			{"type": "event", "name": "init", "body": "nonsense();"}
		]
	}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewDevice(clock.NewClock(), Settings{Path: path})
	test.ExpectedFailure(t, err)
}

func TestReloadFailureKeepsProgram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	if err := os.WriteFile(path, []byte(`{
		"name": "stable",
		"declarations": [
			{"type": "global", "name": "marker", "value": 1}
		]
	}`), 0644); err != nil {
		t.Fatal(err)
	}

	dev, err := NewDevice(clock.NewClock(), Settings{Path: path})
	test.ExpectedSuccess(t, err)

	if err := os.WriteFile(path, []byte(`{"name": "broken", "declarations": [`), 0644); err != nil {
		t.Fatal(err)
	}

	test.ExpectedFailure(t, dev.load())
	test.Equate(t, dev.Name(), "stable")
	test.Equate(t, global(dev, "marker"), int32(1))
}

func TestHotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	if err := os.WriteFile(path, []byte(`{
		"name": "reloadable",
		"declarations": [
			{"type": "global", "name": "marker", "value": 1}
		]
	}`), 0644); err != nil {
		t.Fatal(err)
	}

	dev, err := NewDevice(clock.NewClock(), Settings{Path: path, HotReload: true})
	test.ExpectedSuccess(t, err)
	test.Equate(t, global(dev, "marker"), int32(1))

	if err := os.WriteFile(path, []byte(`{
		"name": "reloadable",
		"declarations": [
			{"type": "global", "name": "marker", "value": 2}
		]
	}`), 0644); err != nil {
		t.Fatal(err)
	}

	// the first check sees the change but waits for it to settle
	dev.CheckReload()
	test.Equate(t, global(dev, "marker"), int32(1))

	dev.CheckReload()
	test.Equate(t, global(dev, "marker"), int32(2))
}

func TestScriptErrorReported(t *testing.T) {
	_, dev := newTestDevice(t, `{
		"name": "failing",
		"declarations": [
			{"type": "event", "name": "init", "body": "debug.fail(\"deliberate\");"}
		]
	}`)

	errs := dev.ErrorStatus()
	test.Equate(t, len(errs), 1)
	test.Equate(t, errs[0], "deliberate")
}

func TestIndicators(t *testing.T) {
	_, dev := newTestDevice(t, `{
		"name": "blinker",
		"declarations": [
			{"type": "event", "name": "init",
				"body": "console.set_led(0, 1); console.set_led(2, 1); console.set_led(0, 0);"}
		]
	}`)

	test.Equate(t, dev.Indicators(), uint8(0b100))

	dev.SetIndicator(7, true)
	test.Equate(t, dev.Indicators(), uint8(0b10000100))

	// out of range ids are ignored
	dev.SetIndicator(8, true)
	test.Equate(t, dev.Indicators(), uint8(0b10000100))
}

func TestCartridgeGating(t *testing.T) {
	_, dev := newTestDevice(t, `{
		"name": "cart",
		"declarations": [
			{"type": "segment", "name": "rom", "size": 4096, "pattern": [96]},
			{"type": "memory_layer", "name": "window", "address": 32768,
				"size": 4096, "segment": "rom", "mode": "r"}
		]
	}`)

	test.Equate(t, dev.Read(0x8000), uint8(0x60))
	test.ExpectedSuccess(t, dev.CartridgeSense())

	// the host pulling the cartridge enable unmaps the window
	dev.SetCartridgeEnable(false)
	test.Equate(t, dev.Read(0x8000), uint8(0xff))
	test.ExpectedFailure(t, dev.CartridgeSense())

	dev.SetCartridgeEnable(true)
	test.Equate(t, dev.Read(0x8000), uint8(0x60))
}
