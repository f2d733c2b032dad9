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

package memory

import (
	"sort"

	"github.com/gopher800/gopher800/curated"
)

// value returned for a read that no layer claims
const floatingBus = 0xff

// Manager composes layers into the 64K bus address space. The highest
// priority enabled layer covering an address wins; handlers can decline an
// access, passing it to the next layer down.
type Manager struct {
	layers []*Layer

	// per-page layer lists, highest priority first. rebuilt lazily after
	// any layer change
	pages [AddressSpace / PageSize][]*Layer
	dirty bool
}

// NewManager is the preferred method of initialisation of the Manager type.
func NewManager() *Manager {
	return &Manager{}
}

// NewLayer creates a layer and adds it to the manager. The address must be
// page aligned and the window must fit inside the address space. Layers
// start disabled in both directions.
func (m *Manager) NewLayer(name string, pri Priority, addr int32, size uint32) (*Layer, error) {
	if addr&0xff != 0 {
		return nil, curated.Errorf(NotPageAligned, name, "address")
	}
	if addr < 0 || uint32(addr)+size > AddressSpace {
		return nil, curated.Errorf(OutOfSpace, name)
	}

	l := &Layer{
		Name:     name,
		Priority: pri,
		mgr:      m,
		base:     uint16(addr),
		size:     size,
	}
	m.layers = append(m.layers, l)
	m.invalidate()
	return l, nil
}

// Layers returns all layers in creation order.
func (m *Manager) Layers() []*Layer {
	return m.layers
}

func (m *Manager) invalidate() {
	m.dirty = true
}

func (m *Manager) rebuild() {
	m.dirty = false

	for i := range m.pages {
		m.pages[i] = m.pages[i][:0]
	}

	// stable sort keeps creation order between layers of equal priority,
	// with the later created layer on top
	sorted := make([]*Layer, len(m.layers))
	copy(sorted, m.layers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	for _, l := range sorted {
		if !l.IsEnabled() {
			continue
		}
		first := int(l.base) / PageSize
		last := int(uint32(l.base)+l.size-1) / PageSize
		for p := first; p <= last; p++ {
			m.pages[p] = append(m.pages[p], l)
		}
	}
}

// Read returns the value at the bus address. Unclaimed addresses read as
// floating bus.
func (m *Manager) Read(addr uint16) uint8 {
	return m.readAddr(addr, false)
}

// DebugRead is Read without side effects. Layer debug handlers are used in
// place of read handlers so that scripts and network peers can inspect the
// bus without consuming hardware state.
func (m *Manager) DebugRead(addr uint16) uint8 {
	return m.readAddr(addr, true)
}

func (m *Manager) readAddr(addr uint16, debug bool) uint8 {
	if m.dirty {
		m.rebuild()
	}
	for _, l := range m.pages[addr/PageSize] {
		if !l.readEnabled || !l.covers(addr) {
			continue
		}
		if v, ok := l.read(addr, debug); ok {
			return v
		}
	}
	return floatingBus
}

// Write delivers the value to the highest priority write-enabled layer
// covering the bus address. Writes to unclaimed addresses are lost.
func (m *Manager) Write(addr uint16, value uint8) {
	if m.dirty {
		m.rebuild()
	}
	for _, l := range m.pages[addr/PageSize] {
		if !l.writeEnabled || l.readOnly || !l.covers(addr) {
			continue
		}
		if l.write(addr, value) {
			return
		}
	}
}
