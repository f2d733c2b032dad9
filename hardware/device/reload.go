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
	"os"
	"time"
)

type fileStamp struct {
	size  int64
	mtime time.Time
}

// reloader watches the description file and its assets for changes. A
// change must hold still across two consecutive checks before it is
// reported, so that a half written file is never compiled.
type reloader struct {
	paths    []string
	baseline []fileStamp

	pending      []fileStamp
	pendingValid bool
}

func newReloader(paths []string) *reloader {
	r := &reloader{paths: paths}
	r.baseline = r.snapshot()
	return r
}

func (r *reloader) snapshot() []fileStamp {
	stamps := make([]fileStamp, len(r.paths))
	for i, p := range r.paths {
		fi, err := os.Stat(p)
		if err != nil {
			// a vanished file is a change like any other
			stamps[i] = fileStamp{size: -1}
			continue
		}
		stamps[i] = fileStamp{size: fi.Size(), mtime: fi.ModTime()}
	}
	return stamps
}

func stampsEqual(a, b []fileStamp) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].size != b[i].size || !a[i].mtime.Equal(b[i].mtime) {
			return false
		}
	}
	return true
}

// Check returns true when the watched files have changed and the change
// has settled.
func (r *reloader) Check() bool {
	current := r.snapshot()

	if stampsEqual(current, r.baseline) {
		r.pendingValid = false
		return false
	}

	if r.pendingValid && stampsEqual(current, r.pending) {
		r.baseline = current
		r.pendingValid = false
		return true
	}

	// still in motion. wait for it to settle
	r.pending = current
	r.pendingValid = true
	return false
}
