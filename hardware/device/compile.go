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
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gopher800/gopher800/curated"
	"github.com/gopher800/gopher800/dsl"
	"github.com/gopher800/gopher800/hardware/memory"
	"github.com/gopher800/gopher800/hardware/pbi"
	"github.com/gopher800/gopher800/hardware/ports"
	"github.com/gopher800/gopher800/hardware/video"
	"github.com/gopher800/gopher800/sound"
	"github.com/gopher800/gopher800/vm"
	"github.com/gopher800/gopher800/vm/script"
)

// CompileFailed is the pattern every description compilation error wraps.
// The running program is untouched when compilation fails.
const CompileFailed = "device '%s': %v"

// names of the thread variables available to every script
var threadVarNames = map[string]int{
	"$timestamp": vm.ThreadVarTimestamp,
	"$device":    vm.ThreadVarDevice,
	"$command":   vm.ThreadVarCommand,
	"$aux1":      vm.ThreadVarAux1,
	"$aux2":      vm.ThreadVarAux2,
	"$aux":       vm.ThreadVarAux,
}

type symbol struct {
	kind script.SymbolKind
	idx  int
}

type symbolTable map[string]symbol

// Lookup implements the script.Resolver interface.
func (st symbolTable) Lookup(name string) (script.SymbolKind, int) {
	if idx, ok := threadVarNames[name]; ok {
		return script.SymThreadVar, idx
	}
	if s, ok := st[name]; ok {
		return s.kind, s.idx
	}
	return script.SymNone, 0
}

type hook struct {
	fn     *vm.Function
	thread *vm.Thread
}

// program is everything produced from one description: the domain, the
// memory map, the device identities and the event hook bindings. A program
// is built whole and swapped in whole; a failed build leaves no residue.
type program struct {
	desc *dsl.Description

	dom *vm.Domain
	mem *memory.Manager
	pbi *pbi.Manager

	symbols symbolTable

	segList   []*memory.Segment
	layerList []*memory.Layer

	// per segment, content loaded from a source file. reapplied after the
	// initialisation pattern on cold reset. nil for pattern-only segments
	segSource [][]byte

	// every file the program was built from, for the hot reload watcher
	assetPaths []string

	// initial values reapplied to domain globals after every reset
	globalInit []int32

	sioDevs []*sioDeviceObject
	pbiDevs []*pbiDeviceObject
	outputs []*video.Output
	threads []*threadObject

	hooks map[string]hook

	// control register read/write script bindings, per control layer
	controls []*controlBinding

	// PBI priority layers follow device selection; cartridge priority
	// layers follow the host's cartridge enable. declared modes are
	// restored on enable and cleared on disable
	pbiLayers  []gatedLayer
	cartLayers []gatedLayer
}

// gatedLayer remembers a layer's declared modes so external gating can
// restore them.
type gatedLayer struct {
	layer *memory.Layer
	read  bool
	write bool
}

// controlBinding runs script functions for reads and writes of a control
// layer. Debug reads bypass scripts entirely, they must not have side
// effects.
type controlBinding struct {
	layer *memory.Layer

	readFn  *vm.Function
	writeFn *vm.Function

	// a private thread. control scripts must not suspend
	thread *vm.Thread

	lastValue uint8
}

// compile builds a program from a parsed description. Compilation is
// all-or-nothing: any error aborts the build and the device keeps running
// its previous program.
func (dev *Device) compile(desc *dsl.Description, dir string) (*program, error) {
	fail := func(err error) (*program, error) {
		return nil, curated.Errorf(CompileFailed, desc.Name, err)
	}

	p := &program{
		desc:    desc,
		dom:     vm.NewDomain(),
		mem:     memory.NewManager(),
		pbi:     pbi.NewManager(),
		symbols: make(symbolTable),
		hooks:   make(map[string]hook),
	}

	claim := func(name string, s symbol) {
		p.symbols[name] = s
	}

	// globals
	for _, g := range desc.Globals {
		idx := len(p.dom.Globals)
		p.dom.Globals = append(p.dom.Globals, g.Value)
		p.globalInit = append(p.globalInit, g.Value)
		claim(g.Name, symbol{kind: script.SymGlobal, idx: idx})
	}

	// segments
	for _, d := range desc.Segments {
		seg := memory.NewSegment(d.Name, int(d.Size), d.Persistent)

		if len(d.Pattern) > 0 {
			pat := make([]byte, len(d.Pattern))
			for i, v := range d.Pattern {
				pat[i] = byte(v)
			}
			seg.SetPattern(pat)
		}

		var src []byte
		if d.Source != "" {
			p.assetPaths = append(p.assetPaths, filepath.Join(dir, d.Source))
			data, err := os.ReadFile(filepath.Join(dir, d.Source))
			if err != nil {
				return fail(curated.Errorf("segment '%s': %v", d.Name, err))
			}
			if int64(len(data)) > d.Size {
				return fail(curated.Errorf("segment '%s': source larger than segment", d.Name))
			}
			copy(seg.Data, data)
			src = data
		}

		p.segSource = append(p.segSource, src)
		p.segList = append(p.segList, seg)
		idx := p.dom.AddObject(newSegmentObject(seg))
		claim(d.Name, symbol{kind: script.SymObject, idx: idx})
	}

	// memory layers
	for _, d := range desc.Layers {
		layer, err := p.mem.NewLayer(d.Name, layerPriority(d.Priority), int32(d.Address), d.Size)
		if err != nil {
			return fail(err)
		}

		if d.Segment != "" {
			seg := p.segmentByName(d.Segment)
			if err := layer.SetSegmentAndOffset(seg, int32(d.SegmentOffset)); err != nil {
				return fail(err)
			}
		}
		layer.SetWriteThrough(d.WriteThrough)

		switch d.Mode {
		case "r":
			layer.SetModes(true, false)
		case "rw":
			layer.SetModes(true, true)
		case "control":
			cb := &controlBinding{layer: layer}
			p.controls = append(p.controls, cb)
			layer.SetHandlers(&memory.Handlers{
				Read:      cb.read,
				DebugRead: cb.debugRead,
				Write:     cb.write,
			})
			layer.SetModes(true, true)
		}

		gated := gatedLayer{
			layer: layer,
			read:  d.Mode == "r" || d.Mode == "rw" || d.Mode == "control",
			write: d.Mode == "rw" || d.Mode == "control",
		}
		if d.Priority == "pbi" {
			p.pbiLayers = append(p.pbiLayers, gated)
		} else if layerPriority(d.Priority) == memory.PriCartridge {
			p.cartLayers = append(p.cartLayers, gated)
		}

		p.layerList = append(p.layerList, layer)
		idx := p.dom.AddObject(newLayerObject(layer))
		claim(d.Name, symbol{kind: script.SymObject, idx: idx})
	}

	// sio device identities
	for _, d := range desc.SIODevices {
		count := d.DeviceCount
		if count == 0 {
			count = 1
		}
		obj := newSIODeviceObject(dev, d.Name, d.Device, count, d.AutoTransfer)
		p.sioDevs = append(p.sioDevs, obj)
		idx := p.dom.AddObject(obj)
		claim(d.Name, symbol{kind: script.SymObject, idx: idx})
	}

	// controller ports
	for _, d := range desc.ControllerPorts {
		port := ports.NewPort(d.Name, d.Port)
		idx := p.dom.AddObject(newPortObject(port))
		claim(d.Name, symbol{kind: script.SymObject, idx: idx})
	}

	// pbi device identities
	for _, d := range desc.PBIDevices {
		bit, err := p.pbi.IRQ.Allocate()
		if err != nil {
			return fail(err)
		}
		obj := newPBIDeviceObject(dev, d.Name, bit, p.pbi.IRQ)
		p.pbiDevs = append(p.pbiDevs, obj)
		p.pbi.Register(obj)
		idx := p.dom.AddObject(obj)
		claim(d.Name, symbol{kind: script.SymObject, idx: idx})
	}

	// with PBI devices declared, PBI priority layers stay disabled until a
	// device is selected
	if len(p.pbiDevs) > 0 {
		for _, s := range p.pbiLayers {
			s.layer.SetModes(false, false)
		}
	}

	// image assets
	for _, d := range desc.Images {
		p.assetPaths = append(p.assetPaths, filepath.Join(dir, d.Source))
		img, err := loadImage(d.Name, filepath.Join(dir, d.Source))
		if err != nil {
			return fail(err)
		}
		idx := p.dom.AddObject(newImageObject(img))
		claim(d.Name, symbol{kind: script.SymObject, idx: idx})
	}

	// video outputs
	for _, d := range desc.VideoOutputs {
		out := video.NewOutput(d.Name, d.Width, d.Height)
		p.outputs = append(p.outputs, out)
		idx := p.dom.AddObject(newVideoObject(dev, out))
		claim(d.Name, symbol{kind: script.SymObject, idx: idx})
	}

	// sound assets and parameters
	for _, d := range desc.Sounds {
		p.assetPaths = append(p.assetPaths, filepath.Join(dir, d.Source))
		f, err := os.Open(filepath.Join(dir, d.Source))
		if err != nil {
			return fail(curated.Errorf("sound '%s': %v", d.Name, err))
		}
		smp, err := sound.Load(d.Name, d.Source, f)
		f.Close()
		if err != nil {
			return fail(err)
		}
		idx := p.dom.AddObject(newSoundObject(dev, smp))
		claim(d.Name, symbol{kind: script.SymObject, idx: idx})
	}
	for _, d := range desc.SoundParams {
		obj := newSoundParamsObject(d.Name, sound.Params{Volume: d.Volume, Loop: d.Loop})
		idx := p.dom.AddObject(obj)
		claim(d.Name, symbol{kind: script.SymObject, idx: idx})
	}

	// built-in objects
	idx := p.dom.AddObject(newConsoleObject(dev))
	claim("console", symbol{kind: script.SymObject, idx: idx})
	idx = p.dom.AddObject(newDebugObject(dev))
	claim("debug", symbol{kind: script.SymObject, idx: idx})
	idx = p.dom.AddObject(newClockObject(dev))
	claim("clock", symbol{kind: script.SymObject, idx: idx})

	if desc.Options.NetworkAddr != "" {
		if !dev.settings.AllowUnsafe && !desc.Options.AllowUnsafe {
			return fail(curated.Errorf("network option requires allowunsafe"))
		}
		idx = p.dom.AddObject(newNetObject(dev))
		claim("net", symbol{kind: script.SymObject, idx: idx})
	}

	// declared threads. created before any script is compiled so that
	// thread objects resolve everywhere, compiled after functions so that
	// entry scripts can call them
	for _, d := range desc.Threads {
		obj := newThreadObject(dev, p.dom.NewThread(d.Name))
		p.threads = append(p.threads, obj)
		idx := p.dom.AddObject(obj)
		claim(d.Name, symbol{kind: script.SymObject, idx: idx})
	}

	// script functions, in declaration order. a function can call any
	// function declared before it
	for _, d := range desc.Functions {
		cfg := script.Config{
			Returns: d.Returns == "int",
			Allowed: vm.FlagAsyncAll,
		}
		for i := 0; i < d.Params; i++ {
			cfg.Params = append(cfg.Params, paramName(i))
		}

		fn, err := script.Compile(p.dom, d.Name, string(d.Body), cfg, p.symbols)
		if err != nil {
			return fail(err)
		}
		fidx := p.dom.AddFunction(fn)
		claim(d.Name, symbol{kind: script.SymFunction, idx: fidx})
	}

	// thread entry scripts
	for i, d := range desc.Threads {
		fn, err := script.Compile(p.dom, d.Name, string(d.Body), script.Config{Allowed: vm.FlagAsyncAll}, p.symbols)
		if err != nil {
			return fail(err)
		}
		p.dom.AddFunction(fn)
		p.threads[i].entry = fn
	}

	// event hooks, each on a private thread
	for _, d := range desc.Events {
		fn, err := script.Compile(p.dom, "event "+d.Name, string(d.Body), script.Config{Allowed: vm.FlagAsyncAll}, p.symbols)
		if err != nil {
			return fail(err)
		}
		p.dom.AddFunction(fn)
		p.hooks[d.Name] = hook{
			fn:     fn,
			thread: p.dom.NewThread("event " + d.Name),
		}
	}

	// control register bindings resolve to functions named after the layer.
	// the address and value of the access arrive in $aux1 and $aux2
	for _, cb := range p.controls {
		if s, ok := p.symbols[cb.layer.Name+"_read"]; ok && s.kind == script.SymFunction {
			cb.readFn = p.dom.Functions[s.idx]
			if !cb.readFn.Returns || cb.readFn.NumParams != 0 {
				return fail(curated.Errorf("control read function '%s_read' must take no arguments and return int", cb.layer.Name))
			}
			if cb.readFn.Flags != 0 {
				return fail(curated.Errorf("control read function '%s_read' cannot block", cb.layer.Name))
			}
		}
		if s, ok := p.symbols[cb.layer.Name+"_write"]; ok && s.kind == script.SymFunction {
			cb.writeFn = p.dom.Functions[s.idx]
			if cb.writeFn.NumParams != 0 {
				return fail(curated.Errorf("control write function '%s_write' must take no arguments", cb.layer.Name))
			}
			if cb.writeFn.Flags != 0 {
				return fail(curated.Errorf("control write function '%s_write' cannot block", cb.layer.Name))
			}
		}
		cb.thread = p.dom.NewThread("control " + cb.layer.Name)
	}

	p.dom.OnThreadDone = dev.onThreadDone
	p.dom.OnThreadError = dev.onThreadError

	return p, nil
}

func (p *program) segmentByName(name string) *memory.Segment {
	for _, seg := range p.segList {
		if seg.Name == name {
			return seg
		}
	}
	return nil
}

func layerPriority(name string) memory.Priority {
	switch name {
	case "extsel":
		return memory.PriExtsel
	case "pbi":
		return memory.PriPBI
	case "overlay":
		return memory.PriHWOverlay
	}
	return memory.PriCartridge
}

func paramName(i int) string {
	return "$" + string(rune('0'+i))
}

// loadImage decodes a PNG asset into an RGBA image buffer.
func loadImage(name string, path string) (*video.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, curated.Errorf("image '%s': %v", name, err)
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, curated.Errorf("image '%s': %v", name, err)
	}

	b := src.Bounds()
	img := video.NewImage(name, b.Dx(), b.Dy())

	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	copy(img.Pix, rgba.Pix)

	return img, nil
}

// control register dispatch. reads and writes run the bound script
// function synchronously; debug reads never touch scripts

func (cb *controlBinding) read(addr uint16) (uint8, bool) {
	if cb.readFn == nil {
		return 0, false
	}
	cb.thread.Abort()
	cb.thread.Vars[vm.ThreadVarAux1] = int32(addr)
	cb.thread.Vars[vm.ThreadVarAux2] = 0
	v, ok := cb.thread.RunInt(cb.readFn)
	if !ok {
		return 0, false
	}
	cb.lastValue = uint8(v)
	return uint8(v), true
}

func (cb *controlBinding) debugRead(addr uint16) (uint8, bool) {
	if cb.readFn == nil {
		return 0, false
	}
	// scripts must not run for a debug read. the last scripted value is
	// the best side effect free answer available
	return cb.lastValue, true
}

func (cb *controlBinding) write(addr uint16, value uint8) bool {
	if cb.writeFn == nil {
		return false
	}
	cb.thread.Abort()
	cb.thread.Vars[vm.ThreadVarAux1] = int32(addr)
	cb.thread.Vars[vm.ThreadVarAux2] = int32(value)
	cb.thread.RunVoid(cb.writeFn)
	return true
}
