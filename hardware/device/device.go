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
	"fmt"
	"os"
	"path/filepath"

	"github.com/gopher800/gopher800/curated"
	"github.com/gopher800/gopher800/dsl"
	"github.com/gopher800/gopher800/hardware/clock"
	"github.com/gopher800/gopher800/hardware/memory"
	"github.com/gopher800/gopher800/hardware/sio"
	"github.com/gopher800/gopher800/hardware/video"
	"github.com/gopher800/gopher800/logger"
	"github.com/gopher800/gopher800/network"
	"github.com/gopher800/gopher800/sound"
	"github.com/gopher800/gopher800/vm"
)

const logTag = "device"

// cap on retained script error reports
const maxErrorReports = 64

// Settings configure a Device beyond what the description file declares.
type Settings struct {
	// path of the description file
	Path string

	// recompile the description when it or any of its assets change on disk
	HotReload bool

	// allow description options that reach outside the emulated machine
	AllowUnsafe bool

	// receives video output frames. nil means headless
	Renderer video.Renderer

	// plays sound assets. nil means silent
	Player sound.Player

	// called on indicator (LED) state changes. nil means no indicators
	OnIndicator func(id int, on bool)
}

// Device is the programmable custom device. It owns the script domain, the
// memory map and the bus adapters, all built from a description file.
//
// The Device is driven from the emulation goroutine: clock advancement, bus
// access and the VBlank pump all happen there. Nothing here is safe for
// concurrent use.
type Device struct {
	clk      *clock.Clock
	bus      *sio.Manager
	sched    *scheduler
	settings Settings

	prog   *program
	reload *reloader

	eng           network.Engine
	protocolLevel int
	netWait       vm.WaitQueue

	// serial protocol state, see siodev.go
	sioSendWait     vm.WaitQueue
	sioDelayWait    vm.WaitQueue
	sioRecvWait     vm.WaitQueue
	sioRecvTargets  []recvTarget
	rawByteWait     vm.WaitQueue
	rawBuffer       []uint8
	cmdAssertWait   vm.WaitQueue
	cmdDeassertWait vm.WaitQueue
	motorWait       vm.WaitQueue

	// LED style indicator state, one bit per indicator
	indicators uint8

	errors []string
}

// NewDevice is the preferred method of initialisation of the Device type.
// The description file is compiled immediately; an error means no device.
func NewDevice(clk *clock.Clock, settings Settings) (*Device, error) {
	dev := &Device{
		clk:      clk,
		settings: settings,
	}
	dev.sched = newScheduler(clk)
	dev.bus = sio.NewManager(clk)
	dev.bus.Connect(dev)

	if err := dev.load(); err != nil {
		return nil, err
	}

	desc := dev.prog.desc

	if desc.Options.NetworkAddr != "" {
		dev.eng = network.NewTCPEngine(desc.Options.NetworkAddr)
		dev.protocolLevel = network.ProtocolLevelBase
		dev.TryRestoreNet()
	}

	if settings.HotReload || desc.Options.HotReload {
		dev.reload = newReloader(dev.watchPaths())
	}

	dev.runHook("init")

	return dev, nil
}

// load compiles the description file and swaps the result in. On failure
// the running program, if any, is untouched.
func (dev *Device) load() error {
	data, err := os.ReadFile(dev.settings.Path)
	if err != nil {
		return curated.Errorf(CompileFailed, dev.settings.Path, err)
	}

	desc, err := dsl.Parse(data)
	if err != nil {
		return curated.Errorf(CompileFailed, dev.settings.Path, err)
	}

	prog, err := dev.compile(desc, filepath.Dir(dev.settings.Path))
	if err != nil {
		return err
	}

	dev.swapProgram(prog)
	return nil
}

// swapProgram discards the running program and installs a new one. All
// script execution state goes with the old program.
func (dev *Device) swapProgram(p *program) {
	if dev.prog != nil {
		dev.prog.dom.Reset()
	}
	dev.sched.Reset()
	dev.clearBusState()
	dev.prog = p
}

// clearBusState drops serial protocol state tied to the outgoing program's
// threads, including any traffic still queued on the bus itself. A fence
// queued by the old program must never release a thread of the new one.
// The wait queues drain themselves as threads abort.
func (dev *Device) clearBusState() {
	dev.bus.Reset()
	dev.sioRecvTargets = dev.sioRecvTargets[:0]
	dev.rawBuffer = dev.rawBuffer[:0]
}

func (dev *Device) watchPaths() []string {
	paths := []string{dev.settings.Path}
	return append(paths, dev.prog.assetPaths...)
}

// CheckReload recompiles the description if the watched files have changed
// and settled. A failed recompile logs and keeps the running program.
func (dev *Device) CheckReload() {
	if dev.reload == nil || !dev.reload.Check() {
		return
	}

	logger.Logf(logger.Allow, logTag, "reloading %s", dev.settings.Path)
	if err := dev.load(); err != nil {
		logger.Logf(logger.Allow, logTag, "reload failed: %v", err)
		return
	}

	dev.reload = newReloader(dev.watchPaths())
	dev.runHook("init")
}

// ColdReset restores the device to its power-on state. Every thread is
// aborted, globals return to their declared values and volatile segments
// are reinitialised.
func (dev *Device) ColdReset() {
	p := dev.prog

	p.dom.Reset()
	dev.sched.Reset()
	dev.clearBusState()

	copy(p.dom.Globals, p.globalInit)

	for i, seg := range p.segList {
		if seg.NonVolatile {
			continue
		}
		seg.Reinit()
		if p.segSource[i] != nil {
			copy(seg.Data, p.segSource[i])
		}
	}

	p.pbi.Reset()

	dev.PostNetCommand(network.CmdColdReset, 0, 0)
	dev.runHook("cold_reset")
}

// WarmReset runs the warm reset hook. Script and memory state survives.
func (dev *Device) WarmReset() {
	dev.PostNetCommand(network.CmdWarmReset, 0, 0)
	dev.runHook("warm_reset")
}

// VBlank is the device pump, called once per frame. Network replies are
// executed, the reload watcher polled and the vblank hook run.
func (dev *Device) VBlank() {
	if dev.eng != nil {
		if dev.eng.IsConnected() {
			dev.ExecuteNetRequests()
		} else {
			dev.TryRestoreNet()
		}
	}

	dev.CheckReload()
	dev.runHook("vblank")
}

// Shutdown releases external resources. The device is unusable afterwards.
func (dev *Device) Shutdown() {
	if dev.eng != nil {
		dev.eng.Shutdown()
		dev.eng = nil
	}
	dev.prog.dom.Reset()
	dev.sched.Reset()
}

// Read is a bus read through the device's memory layers.
func (dev *Device) Read(addr uint16) uint8 {
	return dev.prog.mem.Read(addr)
}

// DebugRead is a bus read with no side effects.
func (dev *Device) DebugRead(addr uint16) uint8 {
	return dev.prog.mem.DebugRead(addr)
}

// Write is a bus write through the device's memory layers.
func (dev *Device) Write(addr uint16, value uint8) {
	dev.prog.mem.Write(addr, value)
}

// Bus returns the serial bus manager the computer side drives.
func (dev *Device) Bus() *sio.Manager {
	return dev.bus
}

// WritePBISelect is a write to the parallel bus device select register.
func (dev *Device) WritePBISelect(value uint8) {
	dev.prog.pbi.WriteSelect(value)
}

// ReadPBIStatus is a read of the parallel bus status register.
func (dev *Device) ReadPBIStatus(busData uint8, debugOnly bool) uint8 {
	return dev.prog.pbi.ReadStatus(busData, debugOnly)
}

// setPBILayers applies device selection to the PBI priority memory layers.
func (dev *Device) setPBILayers(enabled bool) {
	for _, s := range dev.prog.pbiLayers {
		if enabled {
			s.layer.SetModes(s.read, s.write)
		} else {
			s.layer.SetModes(false, false)
		}
	}
}

// runHook restarts the named event hook's thread, if the hook is bound.
func (dev *Device) runHook(name string) {
	if h, ok := dev.prog.hooks[name]; ok {
		dev.startHook(h, func(t *vm.Thread) {})
	}
}

// startHook restarts the hook's private thread. Thread variables are set by
// the setup function before the thread is scheduled; a hook still running
// from a previous dispatch is aborted.
func (dev *Device) startHook(h hook, setup func(t *vm.Thread)) {
	h.thread.StartVoid(h.fn)
	h.thread.Vars[vm.ThreadVarTimestamp] = int32(dev.clk.Tick64())
	setup(h.thread)
	dev.sched.ScheduleThread(h.thread)
}

// onThreadDone releases threads joined on the completed thread.
func (dev *Device) onThreadDone(t *vm.Thread) {
	dev.sched.ScheduleThreads(&t.JoinQueue)
}

// onThreadError records a thread killed by the interpreter.
func (dev *Device) onThreadError(t *vm.Thread, err error) {
	dev.postError(curated.Errorf("thread '%s': %v", t.Name, err).Error())
}

// postError records a script failure. The error status is readable by the
// host and the engine is told something went wrong.
func (dev *Device) postError(msg string) {
	logger.Log(logger.Allow, "script", msg)
	if len(dev.errors) < maxErrorReports {
		dev.errors = append(dev.errors, msg)
	}
	dev.PostNetCommand(network.CmdError, 0, 0)
}

// ErrorStatus returns the accumulated script error reports.
func (dev *Device) ErrorStatus() []string {
	return dev.errors
}

// Name returns the device name from the description.
func (dev *Device) Name() string {
	return dev.prog.desc.Name
}

// SettingsBlurb returns a short summary of how the device is configured.
func (dev *Device) SettingsBlurb() string {
	s := fmt.Sprintf("%s (%s)", dev.prog.desc.Name, dev.settings.Path)
	if dev.reload != nil {
		s += " [hot reload]"
	}
	if dev.eng != nil {
		s += fmt.Sprintf(" [network %s]", dev.prog.desc.Options.NetworkAddr)
	}
	return s
}

// SetIndicator changes one of the device's eight LED style indicators.
func (dev *Device) SetIndicator(id int, on bool) {
	if id < 0 || id > 7 {
		return
	}
	if on {
		dev.indicators |= 1 << id
	} else {
		dev.indicators &^= 1 << id
	}
	if dev.settings.OnIndicator != nil {
		dev.settings.OnIndicator(id, on)
	}
}

// Indicators returns the indicator state, one bit per indicator.
func (dev *Device) Indicators() uint8 {
	return dev.indicators
}

// SetCartridgeEnable gates the device's cartridge priority layers, in the
// way the host machine disables an external cartridge. Declared modes are
// restored on enable.
func (dev *Device) SetCartridgeEnable(enabled bool) {
	for _, s := range dev.prog.cartLayers {
		if enabled {
			s.layer.SetModes(s.read, s.write)
		} else {
			s.layer.SetModes(false, false)
		}
	}
}

// CartridgeSense reports whether any cartridge priority layer is mapped,
// the equivalent of the cartridge sense line on the bus.
func (dev *Device) CartridgeSense() bool {
	for _, l := range dev.prog.layerList {
		if l.Priority == memory.PriCartridge && l.IsEnabled() {
			return true
		}
	}
	return false
}

// Segments returns the device's memory segments, in declaration order.
func (dev *Device) Segments() []*memory.Segment {
	return dev.prog.segList
}

// Layers returns the device's memory layers, in declaration order.
func (dev *Device) Layers() []*memory.Layer {
	return dev.prog.layerList
}
