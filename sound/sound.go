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

// Package sound loads audio sample assets declared in a device
// description and defines the host-facing playback surface. WAV and MP3
// sources are supported. Samples are held as mono float data; stereo
// sources contribute their left channel only.
package sound

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/gopher800/gopher800/curated"
	"github.com/gopher800/gopher800/logger"
)

const logTag = "sound"

// Sentinel errors for sample loading.
const (
	UnsupportedFormat = "sound: unsupported format '%s'"
	DecodeError       = "sound: %s: %v"
)

// Sample is a decoded audio asset.
type Sample struct {
	Name string

	// in seconds
	TotalTime float64

	SampleRate float64

	// mono data (taken from the left channel in the case of stereo source
	// files). values are on the 16bit integer scale whatever the source
	// format
	Data []float32
}

// Params are the playback parameters attached to a sample by a
// sound_params declaration or a script call.
type Params struct {
	// 0.0 to 1.0
	Volume float64

	Loop bool
}

// Player is the host's audio surface. The emulation has no opinion about
// how samples reach a speaker.
type Player interface {
	Play(s *Sample, p Params)
	Stop(s *Sample)
	StopAll()
}

// Load decodes a sample from r. The format is chosen by the extension of
// filename: ".wav" or ".mp3".
func Load(name string, filename string, r io.ReadSeeker) (*Sample, error) {
	s := &Sample{
		Name: name,
		Data: make([]float32, 0),
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		dec := wav.NewDecoder(r)
		if dec == nil || !dec.IsValidFile() {
			return nil, curated.Errorf(DecodeError, name, "not a valid wav file")
		}

		buf, err := dec.FullPCMBuffer()
		if err != nil {
			return nil, curated.Errorf(DecodeError, name, err)
		}

		s.Data = mixdown(buf, int(dec.NumChans))

		s.SampleRate = float64(dec.SampleRate)

		dur, err := dec.Duration()
		if err != nil {
			return nil, curated.Errorf(DecodeError, name, err)
		}
		s.TotalTime = dur.Seconds()

	case ".mp3":
		dec, err := mp3.NewDecoder(r)
		if err != nil {
			return nil, curated.Errorf(DecodeError, name, err)
		}

		err = nil
		chunk := make([]byte, 4096)
		for err != io.EOF {
			var chunkLen int
			chunkLen, err = dec.Read(chunk)
			if err != nil && err != io.EOF {
				return nil, curated.Errorf(DecodeError, name, err)
			}
			s.Data = appendStereoChunk(s.Data, chunk[:chunkLen])
		}

		s.SampleRate = float64(dec.SampleRate())
		s.TotalTime = float64(len(s.Data)) / s.SampleRate

	default:
		return nil, curated.Errorf(UnsupportedFormat, filepath.Ext(filename))
	}

	logger.Logf(logger.Allow, logTag, "%s: %0.2fHz, %.02fs", name, s.SampleRate, s.TotalTime)

	return s, nil
}

// mixdown takes the first channel of an interleaved PCM buffer. the buffer
// is used unnormalised so that wav and mp3 sources land on the same scale
func mixdown(buf *audio.IntBuffer, numChans int) []float32 {
	data := make([]float32, 0, len(buf.Data)/numChans)
	for i := 0; i < len(buf.Data); i += numChans {
		data = append(data, float32(buf.Data[i]))
	}
	return data
}

// appendStereoChunk decodes part of a go-mp3 output stream. the stream is
// always 16bit little endian 2 channel, even for single channel sources.
// four bytes per sample, left channel in the first two
func appendStereoChunk(data []float32, chunk []byte) []float32 {
	for i := 0; i+1 < len(chunk); i += 4 {
		f := int(chunk[i]) | (int(chunk[i+1]) << 8)

		// interpret as two's complement
		if f >= 32768 {
			f -= 65536
		}

		data = append(data, float32(f))
	}
	return data
}
