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

package dsl

// Description is a parsed and structurally validated device description.
// Declarations appear in file order; later stages (compilation into a VM
// domain) depend on that order for object creation.
type Description struct {
	Name string

	Globals         []GlobalDecl
	Segments        []SegmentDecl
	Layers          []MemoryLayerDecl
	SIODevices      []SIODeviceDecl
	ControllerPorts []ControllerPortDecl
	PBIDevices      []PBIDeviceDecl
	Images          []ImageDecl
	VideoOutputs    []VideoOutputDecl
	Sounds          []SoundDecl
	SoundParams     []SoundParamsDecl
	Threads         []ThreadDecl
	Functions       []FunctionDecl
	Events          []EventDecl
	Options         Options
}

// Options are the device-wide toggles set by option declarations.
type Options struct {
	HotReload   bool
	AllowUnsafe bool
	NetworkAddr string
}

// GlobalDecl declares a script-visible global integer variable.
type GlobalDecl struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value int32  `json:"value,omitempty"`
}

// SegmentDecl declares a named byte buffer.
type SegmentDecl struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Size int64  `json:"size"`

	// persistent segments survive a cold reset
	Persistent bool `json:"persistent,omitempty"`

	// repeating fill pattern applied at initialisation and reinit. values
	// must fit a byte. not []uint8, which encoding/json treats as base64
	Pattern []int `json:"pattern,omitempty"`

	// initial contents loaded from a file, relative to the description
	Source string `json:"source,omitempty"`
}

// MemoryLayerDecl declares an address-space window onto a segment or onto
// control handlers.
type MemoryLayerDecl struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Address uint32 `json:"address"`
	Size    uint32 `json:"size"`

	// empty for a control layer
	Segment       string `json:"segment,omitempty"`
	SegmentOffset int64  `json:"segment_offset,omitempty"`

	// "off", "r", "rw" or "control"
	Mode string `json:"mode,omitempty"`

	// "extsel", "cartridge", "pbi" or "overlay". defaults to "cartridge"
	Priority string `json:"priority,omitempty"`

	WriteThrough bool `json:"write_through,omitempty"`
}

// SIODeviceDecl declares a serial bus device identity.
type SIODeviceDecl struct {
	Type string `json:"type"`
	Name string `json:"name"`

	// the base device id the scripts answer to
	Device uint8 `json:"device"`

	// number of consecutive device ids claimed. defaults to 1
	DeviceCount int `json:"device_count,omitempty"`

	// commands handled by the framework's auto-transfer path
	AutoTransfer bool `json:"auto_transfer,omitempty"`
}

// ControllerPortDecl declares a controller port binding.
type ControllerPortDecl struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Port int    `json:"port"`
}

// PBIDeviceDecl declares a parallel bus device identity.
type PBIDeviceDecl struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ImageDecl declares an image asset.
type ImageDecl struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// VideoOutputDecl declares a host video surface.
type VideoOutputDecl struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SoundDecl declares an audio sample asset.
type SoundDecl struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// SoundParamsDecl declares playback parameters for sounds.
type SoundParamsDecl struct {
	Type   string  `json:"type"`
	Name   string  `json:"name"`
	Volume float64 `json:"volume,omitempty"`
	Loop   bool    `json:"loop,omitempty"`
}

// ThreadDecl declares a named script thread and its entry script.
type ThreadDecl struct {
	Type string     `json:"type"`
	Name string     `json:"name"`
	Body ScriptBody `json:"body"`
}

// FunctionDecl declares a script function.
type FunctionDecl struct {
	Type string `json:"type"`
	Name string `json:"name"`

	// number of integer parameters
	Params int `json:"params,omitempty"`

	// "void" or "int". defaults to "void"
	Returns string `json:"returns,omitempty"`

	// script source text, joined when given as an array of lines
	Body ScriptBody `json:"body"`
}

// EventDecl binds a script body to a device lifecycle or bus event hook.
type EventDecl struct {
	Type string     `json:"type"`
	Name string     `json:"name"`
	Body ScriptBody `json:"body"`
}

// OptionDecl sets a device-wide toggle.
type OptionDecl struct {
	Type  string      `json:"type"`
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}
