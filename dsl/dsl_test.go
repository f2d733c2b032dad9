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

package dsl_test

import (
	"testing"

	"github.com/gopher800/gopher800/curated"
	"github.com/gopher800/gopher800/dsl"
	"github.com/gopher800/gopher800/test"
)

const exampleDescription = `{
	"name": "testdev",
	"declarations": [
		{"type": "segment", "name": "ram", "size": 65536},
		{"type": "segment", "name": "rom", "size": 16384, "pattern": [255]},
		{"type": "memory_layer", "name": "window", "address": 32768, "size": 4096,
			"segment": "rom", "segment_offset": 8192, "mode": "r", "priority": "cartridge"},
		{"type": "memory_layer", "name": "ctl", "address": 54528, "size": 256, "mode": "control"},
		{"type": "sio_device", "name": "disk", "device": 49, "auto_transfer": true},
		{"type": "thread", "name": "worker"},
		{"type": "function", "name": "double", "params": 1, "returns": "int",
			"body": ["int v;", "v = $0 + $0;", "return v;"]},
		{"type": "event", "name": "cold_reset", "body": "worker.run();"},
		{"type": "option", "name": "hotreload", "value": true},
		{"type": "option", "name": "network", "value": "localhost:6502"}
	]
}`

func TestParse(t *testing.T) {
	desc, err := dsl.Parse([]byte(exampleDescription))
	test.ExpectedSuccess(t, err)

	test.Equate(t, desc.Name, "testdev")
	test.Equate(t, len(desc.Segments), 2)
	test.Equate(t, len(desc.Layers), 2)
	test.Equate(t, desc.Layers[0].Segment, "rom")
	test.Equate(t, desc.Layers[0].SegmentOffset, int64(8192))
	test.Equate(t, desc.SIODevices[0].Device, uint8(49))
	test.ExpectedSuccess(t, desc.SIODevices[0].AutoTransfer)
	test.ExpectedSuccess(t, desc.Options.HotReload)
	test.ExpectedFailure(t, desc.Options.AllowUnsafe)
	test.Equate(t, desc.Options.NetworkAddr, "localhost:6502")

	// array script bodies are joined into one source text
	test.Equate(t, string(desc.Functions[0].Body), "int v;\nv = $0 + $0;\nreturn v;")
	test.Equate(t, string(desc.Events[0].Body), "worker.run();")
}

func TestParseErrors(t *testing.T) {
	fail := func(src string) {
		t.Helper()
		_, err := dsl.Parse([]byte(src))
		test.ExpectedFailure(t, err)
		test.ExpectedSuccess(t, curated.Is(err, dsl.DescriptionError))
	}

	// missing device name
	fail(`{"declarations": []}`)

	// unknown declaration type
	fail(`{"name": "d", "declarations": [{"type": "widget", "name": "w"}]}`)

	// unknown member
	fail(`{"name": "d", "declarations": [{"type": "segment", "name": "s", "size": 16, "colour": 1}]}`)

	// duplicate name
	fail(`{"name": "d", "declarations": [
		{"type": "segment", "name": "s", "size": 16},
		{"type": "thread", "name": "s"}]}`)

	// layer referencing an unknown segment
	fail(`{"name": "d", "declarations": [
		{"type": "memory_layer", "name": "l", "address": 0, "size": 256, "segment": "nope"}]}`)

	// layer window past the end of the segment
	fail(`{"name": "d", "declarations": [
		{"type": "segment", "name": "s", "size": 256},
		{"type": "memory_layer", "name": "l", "address": 0, "size": 512, "segment": "s"}]}`)

	// misaligned window
	fail(`{"name": "d", "declarations": [
		{"type": "segment", "name": "s", "size": 512},
		{"type": "memory_layer", "name": "l", "address": 100, "size": 256, "segment": "s"}]}`)

	// unknown event hook
	fail(`{"name": "d", "declarations": [{"type": "event", "name": "teatime", "body": ""}]}`)

	// option with the wrong value type
	fail(`{"name": "d", "declarations": [{"type": "option", "name": "hotreload", "value": 1}]}`)
}

func TestSegmentBudget(t *testing.T) {
	// two segments that are individually fine but together exceed the cap
	src := `{"name": "d", "declarations": [
		{"type": "segment", "name": "a", "size": 200000000},
		{"type": "segment", "name": "b", "size": 200000000}]}`

	_, err := dsl.Parse([]byte(src))
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, dsl.DescriptionError))
}
