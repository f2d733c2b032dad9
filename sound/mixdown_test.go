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

package sound

import (
	"testing"

	"github.com/gopher800/gopher800/test"
)

func TestAppendStereoChunk(t *testing.T) {
	// two frames: left 1000 right 9, left -1000 right 9
	chunk := []byte{
		0xe8, 0x03, 0x09, 0x00,
		0x18, 0xfc, 0x09, 0x00,
	}

	data := appendStereoChunk(nil, chunk)

	// left channel only, on the 16bit integer scale
	test.Equate(t, len(data), 2)
	test.Equate(t, data[0], float32(1000))
	test.Equate(t, data[1], float32(-1000))
}
