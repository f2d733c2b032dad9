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

package sound_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/gopher800/gopher800/curated"
	"github.com/gopher800/gopher800/sound"
	"github.com/gopher800/gopher800/test"
)

// buildWAV assembles a 16bit PCM wav file from interleaved samples.
func buildWAV(numChans int, sampleRate int, samples []int16) []byte {
	dataLen := len(samples) * 2

	w := &bytes.Buffer{}
	w.WriteString("RIFF")
	binary.Write(w, binary.LittleEndian, uint32(36+dataLen))
	w.WriteString("WAVE")

	w.WriteString("fmt ")
	binary.Write(w, binary.LittleEndian, uint32(16))
	binary.Write(w, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(w, binary.LittleEndian, uint16(numChans))
	binary.Write(w, binary.LittleEndian, uint32(sampleRate))
	binary.Write(w, binary.LittleEndian, uint32(sampleRate*numChans*2))
	binary.Write(w, binary.LittleEndian, uint16(numChans*2))
	binary.Write(w, binary.LittleEndian, uint16(16))

	w.WriteString("data")
	binary.Write(w, binary.LittleEndian, uint32(dataLen))
	for _, s := range samples {
		binary.Write(w, binary.LittleEndian, s)
	}

	return w.Bytes()
}

func TestLoadWAV(t *testing.T) {
	data := buildWAV(1, 8000, []int16{0, 1000, -1000, 32767})

	s, err := sound.Load("beep", "beep.wav", bytes.NewReader(data))
	test.ExpectedSuccess(t, err)

	test.Equate(t, s.Name, "beep")
	test.Equate(t, s.SampleRate, float64(8000))
	test.Equate(t, len(s.Data), 4)
	test.Equate(t, s.Data[1], float32(1000))
	test.Equate(t, s.Data[2], float32(-1000))
}

func TestLoadWAVStereo(t *testing.T) {
	// left channel 1,2 right channel 9,9
	data := buildWAV(2, 8000, []int16{1, 9, 2, 9})

	s, err := sound.Load("beep", "beep.wav", bytes.NewReader(data))
	test.ExpectedSuccess(t, err)

	// left channel only
	test.Equate(t, len(s.Data), 2)
	test.Equate(t, s.Data[0], float32(1))
	test.Equate(t, s.Data[1], float32(2))
}

func TestLoadErrors(t *testing.T) {
	_, err := sound.Load("x", "x.ogg", bytes.NewReader(nil))
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, sound.UnsupportedFormat))

	_, err = sound.Load("x", "x.wav", bytes.NewReader([]byte("not a wav")))
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, sound.DecodeError))
}
