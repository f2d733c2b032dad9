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

// Segment is a named block of device memory. Segments back memory layers
// and are operated on directly by scripts.
//
// Every operation is bounds checked. An access that would touch bytes
// outside the segment is rejected outright, not clamped. Out of range reads
// return zero; out of range writes change nothing. The boolean return values
// report whether the operation happened, so that callers can log.
type Segment struct {
	Name string
	Data []byte

	// non-volatile segments keep their contents over a cold reset
	NonVolatile bool

	// pattern the segment is (re)initialised with. nil means zero fill
	pattern []byte
}

// NewSegment is the preferred method of initialisation of the Segment type.
func NewSegment(name string, size int, nonVolatile bool) *Segment {
	return &Segment{
		Name:        name,
		Data:        make([]byte, size),
		NonVolatile: nonVolatile,
	}
}

// SetPattern sets the initialisation pattern and applies it. The pattern is
// repeated to the end of the segment.
func (s *Segment) SetPattern(pattern []byte) {
	s.pattern = append([]byte(nil), pattern...)
	s.Reinit()
}

// Reinit restores the segment to its initial contents. Called on cold reset
// for volatile segments.
func (s *Segment) Reinit() {
	if len(s.pattern) == 0 {
		for i := range s.Data {
			s.Data[i] = 0
		}
		return
	}

	n := copy(s.Data, s.pattern)

	// double the filled region until the segment is full
	for n < len(s.Data) {
		n += copy(s.Data[n:], s.Data[:n])
	}
}

// Length returns the segment length in bytes.
func (s *Segment) Length() int32 {
	return int32(len(s.Data))
}

// rangeOK checks that [offset, offset+count) lies inside the segment.
func (s *Segment) rangeOK(offset, count int32) bool {
	return offset >= 0 && count >= 0 && int64(offset)+int64(count) <= int64(len(s.Data))
}

// ReadByte returns the byte at the offset, or zero if out of range.
func (s *Segment) ReadByte(offset int32) int32 {
	if !s.rangeOK(offset, 1) {
		return 0
	}
	return int32(s.Data[offset])
}

// WriteByte writes the byte at the offset.
func (s *Segment) WriteByte(offset, value int32) bool {
	if !s.rangeOK(offset, 1) {
		return false
	}
	s.Data[offset] = byte(value)
	return true
}

// ReadWord returns the little-endian word at the offset, or zero if out of
// range.
func (s *Segment) ReadWord(offset int32) int32 {
	if !s.rangeOK(offset, 2) {
		return 0
	}
	return int32(s.Data[offset]) | int32(s.Data[offset+1])<<8
}

// WriteWord writes the little-endian word at the offset.
func (s *Segment) WriteWord(offset, value int32) bool {
	if !s.rangeOK(offset, 2) {
		return false
	}
	s.Data[offset] = byte(value)
	s.Data[offset+1] = byte(value >> 8)
	return true
}

// ReadRevWord returns the big-endian word at the offset, or zero if out of
// range.
func (s *Segment) ReadRevWord(offset int32) int32 {
	if !s.rangeOK(offset, 2) {
		return 0
	}
	return int32(s.Data[offset])<<8 | int32(s.Data[offset+1])
}

// WriteRevWord writes the big-endian word at the offset.
func (s *Segment) WriteRevWord(offset, value int32) bool {
	if !s.rangeOK(offset, 2) {
		return false
	}
	s.Data[offset] = byte(value >> 8)
	s.Data[offset+1] = byte(value)
	return true
}

// Clear fills the entire segment with the value.
func (s *Segment) Clear(value int32) {
	for i := range s.Data {
		s.Data[i] = byte(value)
	}
}

// Fill writes count copies of the value starting at the offset.
func (s *Segment) Fill(offset, value, count int32) bool {
	if !s.rangeOK(offset, count) {
		return false
	}
	for i := int32(0); i < count; i++ {
		s.Data[offset+i] = byte(value)
	}
	return true
}

// XorConst exclusive-ors count bytes starting at the offset with the value.
func (s *Segment) XorConst(offset, value, count int32) bool {
	if !s.rangeOK(offset, count) {
		return false
	}
	for i := int32(0); i < count; i++ {
		s.Data[offset+i] ^= byte(value)
	}
	return true
}

// ReverseBits reverses the bit order of count bytes starting at the offset.
func (s *Segment) ReverseBits(offset, count int32) bool {
	if !s.rangeOK(offset, count) {
		return false
	}
	for i := int32(0); i < count; i++ {
		b := s.Data[offset+i]
		b = b>>4 | b<<4
		b = (b&0xcc)>>2 | (b&0x33)<<2
		b = (b&0xaa)>>1 | (b&0x55)<<1
		s.Data[offset+i] = b
	}
	return true
}

// Copy copies count bytes from the source segment. Overlapping copies within
// the same segment behave like memmove.
func (s *Segment) Copy(dstOffset int32, src *Segment, srcOffset, count int32) bool {
	if !s.rangeOK(dstOffset, count) || !src.rangeOK(srcOffset, count) {
		return false
	}
	copy(s.Data[dstOffset:dstOffset+count], src.Data[srcOffset:srcOffset+count])
	return true
}

// CopyRect copies a w by h rectangle of bytes between segments. Pitches are
// byte strides between rows and may be negative. Every touched row must be
// in range in both segments.
func (s *Segment) CopyRect(dstOffset, dstPitch int32, src *Segment, srcOffset, srcPitch, w, h int32) bool {
	if w < 0 || h < 0 {
		return false
	}

	// validate every row before touching anything
	d, r := int64(dstOffset), int64(srcOffset)
	for y := int32(0); y < h; y++ {
		if d < 0 || d+int64(w) > int64(len(s.Data)) {
			return false
		}
		if r < 0 || r+int64(w) > int64(len(src.Data)) {
			return false
		}
		d += int64(dstPitch)
		r += int64(srcPitch)
	}

	d, r = int64(dstOffset), int64(srcOffset)
	for y := int32(0); y < h; y++ {
		copy(s.Data[d:d+int64(w)], src.Data[r:r+int64(w)])
		d += int64(dstPitch)
		r += int64(srcPitch)
	}
	return true
}

// Translate maps count bytes from the source segment through a 256 byte
// table and writes the result at the destination offset.
func (s *Segment) Translate(dstOffset int32, src *Segment, srcOffset, count int32, table *Segment, tableOffset int32) bool {
	if !s.rangeOK(dstOffset, count) || !src.rangeOK(srcOffset, count) || !table.rangeOK(tableOffset, 256) {
		return false
	}
	tbl := table.Data[tableOffset : tableOffset+256]
	for i := int32(0); i < count; i++ {
		s.Data[dstOffset+i] = tbl[src.Data[srcOffset+i]]
	}
	return true
}
