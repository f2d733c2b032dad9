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

// Package video is the host-facing surface for device driven displays.
// Scripts draw into Image buffers and present them through a VideoOutput.
// How (or whether) an output reaches a window is the host's business; the
// Renderer interface has a headless default of doing nothing.
package video

// Image is a 32bpp RGBA pixel buffer.
type Image struct {
	Name   string
	Width  int
	Height int

	// RGBA order, four bytes per pixel, rows top to bottom
	Pix []uint8
}

// NewImage is the preferred method of initialisation of the Image type.
func NewImage(name string, width int, height int) *Image {
	return &Image{
		Name:   name,
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// Clear sets every pixel to the packed RGBA colour.
func (img *Image) Clear(rgba uint32) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.putPacked(i, rgba)
	}
}

// SetPixel sets one pixel to the packed RGBA colour. Out of bounds
// coordinates are ignored.
func (img *Image) SetPixel(x int, y int, rgba uint32) {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return
	}
	img.putPacked((y*img.Width+x)*4, rgba)
}

// Pixel returns the packed RGBA colour of one pixel. Out of bounds
// coordinates read as zero.
func (img *Image) Pixel(x int, y int) uint32 {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return 0
	}
	i := (y*img.Width + x) * 4
	return uint32(img.Pix[i])<<24 | uint32(img.Pix[i+1])<<16 | uint32(img.Pix[i+2])<<8 | uint32(img.Pix[i+3])
}

// Blit copies src into the image at (dx, dy). Areas falling outside the
// destination are clipped.
func (img *Image) Blit(src *Image, dx int, dy int) {
	for y := 0; y < src.Height; y++ {
		ty := dy + y
		if ty < 0 || ty >= img.Height {
			continue
		}
		for x := 0; x < src.Width; x++ {
			tx := dx + x
			if tx < 0 || tx >= img.Width {
				continue
			}
			si := (y*src.Width + x) * 4
			di := (ty*img.Width + tx) * 4
			copy(img.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
}

func (img *Image) putPacked(i int, rgba uint32) {
	img.Pix[i] = uint8(rgba >> 24)
	img.Pix[i+1] = uint8(rgba >> 16)
	img.Pix[i+2] = uint8(rgba >> 8)
	img.Pix[i+3] = uint8(rgba)
}

// Output is a display surface presented to the host.
type Output struct {
	Name  string
	Frame *Image

	// dirty is set by Invalidate() and cleared by the renderer through
	// ClearDirty()
	dirty bool
}

// NewOutput is the preferred method of initialisation of the Output type.
func NewOutput(name string, width int, height int) *Output {
	return &Output{
		Name:  name,
		Frame: NewImage(name, width, height),
	}
}

// Invalidate marks the frame as changed.
func (o *Output) Invalidate() {
	o.dirty = true
}

// Dirty returns true if the frame has changed since the last ClearDirty().
func (o *Output) Dirty() bool {
	return o.dirty
}

// ClearDirty acknowledges a dirty frame. Called by the renderer.
func (o *Output) ClearDirty() {
	o.dirty = false
}

// Renderer presents outputs to the user. A nil Renderer is valid and means
// headless operation.
type Renderer interface {
	Render(o *Output)
}
