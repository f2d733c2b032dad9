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

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/gopher800/gopher800/curated"
	"github.com/gopher800/gopher800/hardware/memory"
)

// Sentinel errors for description parsing. Every parse failure wraps
// DescriptionError.
const (
	DescriptionError = "description: %v"
	declError        = "declaration %d (%s): %v"
)

// hard caps on configuration driven memory growth
const (
	// the description file itself
	MaxDescriptionSize = 256 * 1024 * 1024

	// the sum of all declared segment sizes
	MaxTotalSegmentData = 256 * 1024 * 1024
)

// ScriptBody is script source text. In JSON it is either a single string
// or an array of line strings.
type ScriptBody string

// UnmarshalJSON implements the json.Unmarshaler interface.
func (b *ScriptBody) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = ScriptBody(s)
		return nil
	}

	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*b = ScriptBody(strings.Join(lines, "\n"))
	return nil
}

// the hooks an event declaration may bind to
var eventHooks = map[string]bool{
	"init":                true,
	"cold_reset":          true,
	"warm_reset":          true,
	"vblank":              true,
	"sio_command":         true,
	"sio_command_changed": true,
	"sio_motor_changed":   true,
	"sio_receive_byte":    true,
	"pbi_select":          true,
	"pbi_deselect":        true,
	"net_interrupt":       true,
	"net_error":           true,
}

// envelope of the description file. declarations keep their file order
type rawDescription struct {
	Name         string            `json:"name"`
	Declarations []json.RawMessage `json:"declarations"`
}

// Parse reads a JSON device description. Parsing is all-or-nothing: any
// malformed or inconsistent declaration fails the whole description.
func Parse(data []byte) (*Description, error) {
	if len(data) > MaxDescriptionSize {
		return nil, curated.Errorf(DescriptionError, "file too large")
	}

	var raw rawDescription
	if err := strictUnmarshal(data, &raw); err != nil {
		return nil, curated.Errorf(DescriptionError, err)
	}
	if raw.Name == "" {
		return nil, curated.Errorf(DescriptionError, "missing device name")
	}

	desc := &Description{Name: raw.Name}

	for i, rd := range raw.Declarations {
		var head struct {
			Type string `json:"type"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(rd, &head); err != nil {
			return nil, curated.Errorf(DescriptionError, curated.Errorf(declError, i, "?", err))
		}

		if err := desc.addDeclaration(head.Type, rd); err != nil {
			return nil, curated.Errorf(DescriptionError, curated.Errorf(declError, i, head.Type, err))
		}
	}

	if err := desc.validate(); err != nil {
		return nil, curated.Errorf(DescriptionError, err)
	}

	return desc, nil
}

// strictUnmarshal is json.Unmarshal with unknown members rejected.
func strictUnmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (desc *Description) addDeclaration(typ string, data []byte) error {
	switch typ {
	case "global":
		var d GlobalDecl
		if err := strictUnmarshal(data, &d); err != nil {
			return err
		}
		desc.Globals = append(desc.Globals, d)

	case "segment":
		var d SegmentDecl
		if err := strictUnmarshal(data, &d); err != nil {
			return err
		}
		desc.Segments = append(desc.Segments, d)

	case "memory_layer":
		var d MemoryLayerDecl
		if err := strictUnmarshal(data, &d); err != nil {
			return err
		}
		desc.Layers = append(desc.Layers, d)

	case "sio_device":
		var d SIODeviceDecl
		if err := strictUnmarshal(data, &d); err != nil {
			return err
		}
		desc.SIODevices = append(desc.SIODevices, d)

	case "controller_port":
		var d ControllerPortDecl
		if err := strictUnmarshal(data, &d); err != nil {
			return err
		}
		desc.ControllerPorts = append(desc.ControllerPorts, d)

	case "pbi_device":
		var d PBIDeviceDecl
		if err := strictUnmarshal(data, &d); err != nil {
			return err
		}
		desc.PBIDevices = append(desc.PBIDevices, d)

	case "image":
		var d ImageDecl
		if err := strictUnmarshal(data, &d); err != nil {
			return err
		}
		desc.Images = append(desc.Images, d)

	case "video_output":
		var d VideoOutputDecl
		if err := strictUnmarshal(data, &d); err != nil {
			return err
		}
		desc.VideoOutputs = append(desc.VideoOutputs, d)

	case "sound":
		var d SoundDecl
		if err := strictUnmarshal(data, &d); err != nil {
			return err
		}
		desc.Sounds = append(desc.Sounds, d)

	case "sound_params":
		var d SoundParamsDecl
		if err := strictUnmarshal(data, &d); err != nil {
			return err
		}
		desc.SoundParams = append(desc.SoundParams, d)

	case "thread":
		var d ThreadDecl
		if err := strictUnmarshal(data, &d); err != nil {
			return err
		}
		desc.Threads = append(desc.Threads, d)

	case "function":
		var d FunctionDecl
		if err := strictUnmarshal(data, &d); err != nil {
			return err
		}
		desc.Functions = append(desc.Functions, d)

	case "event":
		var d EventDecl
		if err := strictUnmarshal(data, &d); err != nil {
			return err
		}
		desc.Events = append(desc.Events, d)

	case "option":
		var d OptionDecl
		if err := strictUnmarshal(data, &d); err != nil {
			return err
		}
		return desc.setOption(d)

	default:
		return curated.Errorf("unknown declaration type '%s'", typ)
	}

	return nil
}

func (desc *Description) setOption(d OptionDecl) error {
	boolValue := func() (bool, error) {
		b, ok := d.Value.(bool)
		if !ok {
			return false, curated.Errorf("option '%s' wants a boolean", d.Name)
		}
		return b, nil
	}

	switch d.Name {
	case "hotreload":
		b, err := boolValue()
		if err != nil {
			return err
		}
		desc.Options.HotReload = b

	case "allowunsafe":
		b, err := boolValue()
		if err != nil {
			return err
		}
		desc.Options.AllowUnsafe = b

	case "network":
		s, ok := d.Value.(string)
		if !ok {
			return curated.Errorf("option 'network' wants an address string")
		}
		desc.Options.NetworkAddr = s

	default:
		return curated.Errorf("unknown option '%s'", d.Name)
	}

	return nil
}

// validate checks required members, name uniqueness, cross references and
// the segment data budget.
func (desc *Description) validate() error {
	names := make(map[string]bool)
	claim := func(n string) error {
		if n == "" {
			return curated.Errorf("declaration with no name")
		}
		if names[n] {
			return curated.Errorf("duplicate name '%s'", n)
		}
		names[n] = true
		return nil
	}

	for _, g := range desc.Globals {
		if err := claim(g.Name); err != nil {
			return err
		}
	}

	segments := make(map[string]SegmentDecl)

	total := int64(0)
	for _, s := range desc.Segments {
		if err := claim(s.Name); err != nil {
			return err
		}
		if s.Size <= 0 {
			return curated.Errorf("segment '%s': size must be positive", s.Name)
		}
		total += s.Size
		if total > MaxTotalSegmentData {
			return curated.Errorf("segment data exceeds %d byte budget", MaxTotalSegmentData)
		}
		for _, v := range s.Pattern {
			if v < 0 || v > 255 {
				return curated.Errorf("segment '%s': pattern value out of byte range", s.Name)
			}
		}
		segments[s.Name] = s
	}

	for _, l := range desc.Layers {
		if err := claim(l.Name); err != nil {
			return err
		}

		switch l.Mode {
		case "", "off", "r", "rw", "control":
			// ok
		default:
			return curated.Errorf("layer '%s': unknown mode '%s'", l.Name, l.Mode)
		}
		switch l.Priority {
		case "", "extsel", "cartridge", "pbi", "overlay":
			// ok
		default:
			return curated.Errorf("layer '%s': unknown priority '%s'", l.Name, l.Priority)
		}

		if l.Address%memory.PageSize != 0 || l.Size%memory.PageSize != 0 {
			return curated.Errorf("layer '%s': window not page aligned", l.Name)
		}
		if l.Size == 0 || uint64(l.Address)+uint64(l.Size) > memory.AddressSpace {
			return curated.Errorf("layer '%s': window outside address space", l.Name)
		}

		if l.Mode == "control" {
			if l.Segment != "" {
				return curated.Errorf("layer '%s': control layer cannot name a segment", l.Name)
			}
			continue
		}

		if l.Segment != "" {
			seg, ok := segments[l.Segment]
			if !ok {
				return curated.Errorf("layer '%s': unknown segment '%s'", l.Name, l.Segment)
			}
			if l.SegmentOffset < 0 || l.SegmentOffset%memory.PageSize != 0 {
				return curated.Errorf("layer '%s': segment offset not page aligned", l.Name)
			}
			if l.SegmentOffset+int64(l.Size) > seg.Size {
				return curated.Errorf("layer '%s': window extends past end of segment '%s'", l.Name, l.Segment)
			}
		}
	}

	for _, d := range desc.SIODevices {
		if err := claim(d.Name); err != nil {
			return err
		}
		if d.DeviceCount < 0 || d.DeviceCount > 16 {
			return curated.Errorf("sio device '%s': bad device count", d.Name)
		}
	}

	for _, d := range desc.ControllerPorts {
		if err := claim(d.Name); err != nil {
			return err
		}
		if d.Port < 0 || d.Port > 3 {
			return curated.Errorf("controller port '%s': port out of range", d.Name)
		}
	}

	for _, d := range desc.PBIDevices {
		if err := claim(d.Name); err != nil {
			return err
		}
	}

	for _, d := range desc.Images {
		if err := claim(d.Name); err != nil {
			return err
		}
		if d.Source == "" {
			return curated.Errorf("image '%s': missing source", d.Name)
		}
	}

	for _, d := range desc.VideoOutputs {
		if err := claim(d.Name); err != nil {
			return err
		}
		if d.Width <= 0 || d.Height <= 0 {
			return curated.Errorf("video output '%s': bad dimensions", d.Name)
		}
	}

	for _, d := range desc.Sounds {
		if err := claim(d.Name); err != nil {
			return err
		}
		if d.Source == "" {
			return curated.Errorf("sound '%s': missing source", d.Name)
		}
	}

	for _, d := range desc.SoundParams {
		if err := claim(d.Name); err != nil {
			return err
		}
	}

	for _, d := range desc.Threads {
		if err := claim(d.Name); err != nil {
			return err
		}
	}

	for _, d := range desc.Functions {
		if err := claim(d.Name); err != nil {
			return err
		}
		switch d.Returns {
		case "", "void", "int":
			// ok
		default:
			return curated.Errorf("function '%s': unknown return type '%s'", d.Name, d.Returns)
		}
		if d.Params < 0 || d.Params > 8 {
			return curated.Errorf("function '%s': bad parameter count", d.Name)
		}
	}

	hooks := make(map[string]bool)
	for _, d := range desc.Events {
		if !eventHooks[d.Name] {
			return curated.Errorf("unknown event hook '%s'", d.Name)
		}
		if hooks[d.Name] {
			return curated.Errorf("duplicate event hook '%s'", d.Name)
		}
		hooks[d.Name] = true
	}

	return nil
}
