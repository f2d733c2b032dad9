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
	"github.com/gopher800/gopher800/hardware/video"
	"github.com/gopher800/gopher800/sound"
	"github.com/gopher800/gopher800/vm"
)

// imageObject exposes an image asset to scripts.
type imageObject struct {
	class *vm.Class
	img   *video.Image
}

func (o *imageObject) Class() *vm.Class { return o.class }

func newImageObject(img *video.Image) *imageObject {
	o := &imageObject{img: img}
	o.class = &vm.Class{
		Name: "image",
		Methods: []vm.Method{
			{Name: "width", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				return int32(img.Width)
			}},
			{Name: "height", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				return int32(img.Height)
			}},
			{Name: "pixel", Params: []string{"", ""}, Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				return int32(img.Pixel(int(args[0].Int), int(args[1].Int)))
			}},
			{Name: "set_pixel", Params: []string{"", "", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				img.SetPixel(int(args[0].Int), int(args[1].Int), uint32(args[2].Int))
				return 0
			}},
			{Name: "clear", Params: []string{""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				img.Clear(uint32(args[0].Int))
				return 0
			}},
			{Name: "blit", Params: []string{"image", "", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				src := args[0].Obj.(*imageObject).img
				img.Blit(src, int(args[1].Int), int(args[2].Int))
				return 0
			}},
		},
	}
	return o
}

// videoObject exposes a video output surface to scripts.
type videoObject struct {
	class *vm.Class
	dev   *Device
	out   *video.Output
}

func (o *videoObject) Class() *vm.Class { return o.class }

func newVideoObject(dev *Device, out *video.Output) *videoObject {
	o := &videoObject{dev: dev, out: out}
	o.class = &vm.Class{
		Name: "video_output",
		Methods: []vm.Method{
			{Name: "width", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				return int32(out.Frame.Width)
			}},
			{Name: "height", Returns: true, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				return int32(out.Frame.Height)
			}},
			{Name: "set_pixel", Params: []string{"", "", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				out.Frame.SetPixel(int(args[0].Int), int(args[1].Int), uint32(args[2].Int))
				return 0
			}},
			{Name: "clear", Params: []string{""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				out.Frame.Clear(uint32(args[0].Int))
				return 0
			}},
			{Name: "blit", Params: []string{"image", "", ""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				src := args[0].Obj.(*imageObject).img
				out.Frame.Blit(src, int(args[1].Int), int(args[2].Int))
				return 0
			}},
			{Name: "invalidate", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				out.Invalidate()
				if dev.settings.Renderer != nil {
					dev.settings.Renderer.Render(out)
				}
				return 0
			}},
		},
	}
	return o
}

// soundObject exposes a sound asset to scripts.
type soundObject struct {
	class  *vm.Class
	dev    *Device
	sample *sound.Sample
}

func (o *soundObject) Class() *vm.Class { return o.class }

func newSoundObject(dev *Device, sample *sound.Sample) *soundObject {
	o := &soundObject{dev: dev, sample: sample}
	o.class = &vm.Class{
		Name: "sound",
		Methods: []vm.Method{
			{Name: "play", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if dev.settings.Player != nil {
					dev.settings.Player.Play(sample, sound.Params{Volume: 1.0})
				}
				return 0
			}},
			{Name: "play_with", Params: []string{"sound_params"}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if dev.settings.Player != nil {
					dev.settings.Player.Play(sample, args[0].Obj.(*soundParamsObject).params)
				}
				return 0
			}},
			{Name: "stop", Fn: func(t *vm.Thread, args []vm.Value) int32 {
				if dev.settings.Player != nil {
					dev.settings.Player.Stop(sample)
				}
				return 0
			}},
		},
	}
	return o
}

// soundParamsObject exposes a set of playback parameters to scripts.
type soundParamsObject struct {
	class  *vm.Class
	name   string
	params sound.Params
}

func (o *soundParamsObject) Class() *vm.Class { return o.class }

func newSoundParamsObject(name string, params sound.Params) *soundParamsObject {
	o := &soundParamsObject{name: name, params: params}
	o.class = &vm.Class{
		Name: "sound_params",
		Methods: []vm.Method{
			{Name: "set_volume", Params: []string{""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				v := args[0].Int
				if v < 0 {
					v = 0
				}
				if v > 100 {
					v = 100
				}
				o.params.Volume = float64(v) / 100
				return 0
			}},
			{Name: "set_loop", Params: []string{""}, Fn: func(t *vm.Thread, args []vm.Value) int32 {
				o.params.Loop = args[0].Int != 0
				return 0
			}},
		},
	}
	return o
}
