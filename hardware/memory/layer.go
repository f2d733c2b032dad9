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
	"github.com/gopher800/gopher800/curated"
)

// PageSize is the granularity of layer placement in the address space.
const PageSize = 256

// AddressSpace is the size of the bus address space.
const AddressSpace = 0x10000

// Layer error patterns.
const (
	NotPageAligned = "layer %s: %s is not page aligned"
	OutOfSpace     = "layer %s: window exceeds the address space"
	OffsetTooLarge = "layer %s: offset leaves window outside segment"
)

// Priority decides which layer wins when windows overlap. Higher values sit
// on top. The values mirror the priority bands of the host bus.
type Priority uint8

// List of valid Priority values.
const (
	PriExtsel    Priority = 8
	PriCartridge Priority = 16
	PriPBI       Priority = 24
	PriHWOverlay Priority = 32
)

// Handlers intercept bus accesses to a layer. A handler returning false
// passes the access down to the layer's backing segment, or to the next
// layer if there is no segment.
type Handlers struct {
	Read      func(addr uint16) (uint8, bool)
	Write     func(addr uint16, value uint8) bool
	DebugRead func(addr uint16) (uint8, bool)
}

// Layer is a page-aligned window of the bus address space, mapped onto a
// segment, a set of handlers, or both. Layers are created through
// Manager.NewLayer().
type Layer struct {
	Name     string
	Priority Priority

	mgr *Manager

	base uint16
	size uint32

	readEnabled  bool
	writeEnabled bool
	readOnly     bool

	// writes handled by the handlers also land in the backing segment
	writeThrough bool

	seg       *Segment
	segOffset uint32

	// optional mask narrowing the responding addresses to a sub range of
	// the window. maskHi of zero means no mask
	maskLo uint32
	maskHi uint32

	handlers *Handlers
}

// Base returns the bus address of the start of the window.
func (l *Layer) Base() uint16 {
	return l.base
}

// Size returns the window size in bytes.
func (l *Layer) Size() uint32 {
	return l.size
}

// Segment returns the backing segment and the offset into it. The segment
// may be nil for pure handler layers.
func (l *Layer) Segment() (*Segment, uint32) {
	return l.seg, l.segOffset
}

// IsEnabled returns true if the layer participates in either bus direction.
func (l *Layer) IsEnabled() bool {
	return l.readEnabled || l.writeEnabled
}

// SetModes enables or disables the layer per bus direction. Invalidates the
// manager's dispatch tables.
func (l *Layer) SetModes(read, write bool) {
	l.readEnabled = read
	l.writeEnabled = write
	l.mgr.invalidate()
}

// SetReadOnly stops the layer from participating in the write path without
// forgetting its write mode. Clearing read-only restores the previous mode.
func (l *Layer) SetReadOnly(ro bool) {
	l.readOnly = ro
	l.mgr.invalidate()
}

// SetWriteThrough makes writes handled by the layer's handlers also land in
// the backing segment.
func (l *Layer) SetWriteThrough(wt bool) {
	l.writeThrough = wt
}

// SetBaseAddress moves the window. The address must be page aligned and the
// window must stay inside the address space.
func (l *Layer) SetBaseAddress(addr int32) error {
	if addr&0xff != 0 {
		return curated.Errorf(NotPageAligned, l.Name, "address")
	}
	if addr < 0 || uint32(addr)+l.size > AddressSpace {
		return curated.Errorf(OutOfSpace, l.Name)
	}
	l.base = uint16(addr)
	l.mgr.invalidate()
	return nil
}

// SetOffset changes where in the backing segment the window starts. The
// offset must be page aligned and the whole window must stay inside the
// segment.
func (l *Layer) SetOffset(offset int32) error {
	if l.seg == nil {
		return curated.Errorf(OffsetTooLarge, l.Name)
	}
	return l.setSegmentAndOffset(l.seg, offset)
}

// SetSegmentAndOffset rebases the window onto a different segment.
func (l *Layer) SetSegmentAndOffset(seg *Segment, offset int32) error {
	return l.setSegmentAndOffset(seg, offset)
}

func (l *Layer) setSegmentAndOffset(seg *Segment, offset int32) error {
	if offset&0xff != 0 {
		return curated.Errorf(NotPageAligned, l.Name, "offset")
	}
	if offset < 0 || int64(offset)+int64(l.size) > int64(len(seg.Data)) {
		return curated.Errorf(OffsetTooLarge, l.Name)
	}
	l.seg = seg
	l.segOffset = uint32(offset)
	return nil
}

// SetAddressMask narrows the responding addresses to [lo, hi). Addresses
// inside the window but outside the mask fall through to the next layer.
func (l *Layer) SetAddressMask(lo, hi int32) error {
	if lo < 0 || hi <= lo || hi > AddressSpace {
		return curated.Errorf(OutOfSpace, l.Name)
	}
	l.maskLo = uint32(lo)
	l.maskHi = uint32(hi)
	l.mgr.invalidate()
	return nil
}

// ClearAddressMask restores the full window.
func (l *Layer) ClearAddressMask() {
	l.maskLo = 0
	l.maskHi = 0
	l.mgr.invalidate()
}

// SetHandlers attaches bus access handlers to the layer.
func (l *Layer) SetHandlers(h *Handlers) {
	l.handlers = h
	l.mgr.invalidate()
}

// covers returns true if the bus address falls inside the window and any
// address mask.
func (l *Layer) covers(addr uint16) bool {
	if addr < l.base || uint32(addr-l.base) >= l.size {
		return false
	}
	if l.maskHi != 0 && (uint32(addr) < l.maskLo || uint32(addr) >= l.maskHi) {
		return false
	}
	return true
}

func (l *Layer) read(addr uint16, debug bool) (uint8, bool) {
	if l.handlers != nil {
		// a debug read must never run the Read handler. handlers without a
		// side effect free path are skipped on the debug bus
		h := l.handlers.Read
		if debug {
			h = l.handlers.DebugRead
		}
		if h != nil {
			if v, ok := h(addr); ok {
				return v, true
			}
		}
	}
	if l.seg != nil {
		return l.seg.Data[l.segOffset+uint32(addr-l.base)], true
	}
	return 0, false
}

func (l *Layer) write(addr uint16, value uint8) bool {
	if l.handlers != nil && l.handlers.Write != nil {
		if l.handlers.Write(addr, value) {
			if l.writeThrough && l.seg != nil {
				l.seg.Data[l.segOffset+uint32(addr-l.base)] = value
			}
			return true
		}
	}
	if l.seg != nil {
		l.seg.Data[l.segOffset+uint32(addr-l.base)] = value
		return true
	}
	return false
}
