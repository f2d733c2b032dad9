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

package monitor

import (
	"fmt"
	"os"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// terminal wraps the posix terminal for the monitor. Input runs in cbreak
// mode so the monitor sees keys as they are typed; canonical mode is
// restored on the way out.
type terminal struct {
	input  *os.File
	output *os.File

	canAttr    unix.Termios
	cbreakAttr unix.Termios
}

func (tm *terminal) initialise(input, output *os.File) error {
	if input == nil || output == nil {
		return fmt.Errorf("monitor terminal requires input and output files")
	}
	tm.input = input
	tm.output = output

	if err := termios.Tcgetattr(tm.input.Fd(), &tm.canAttr); err != nil {
		return err
	}
	tm.cbreakAttr = tm.canAttr
	termios.Cfmakecbreak(&tm.cbreakAttr)

	return nil
}

// cbreakMode puts the terminal into cbreak mode.
func (tm *terminal) cbreakMode() {
	_ = termios.Tcsetattr(tm.input.Fd(), termios.TCIFLUSH, &tm.cbreakAttr)
}

// canonicalMode puts the terminal back into normal, everyday canonical mode.
func (tm *terminal) canonicalMode() {
	_ = termios.Tcsetattr(tm.input.Fd(), termios.TCIFLUSH, &tm.canAttr)
}

func (tm *terminal) print(s string, a ...interface{}) {
	tm.output.WriteString(fmt.Sprintf(s, a...))
	tm.output.Sync()
}

// control bytes the line reader cares about
const (
	keyInterrupt = 3
	keyEndOfFile = 4
	keyBackspace = 8
	keyReturn    = 13
	keyNewline   = 10
	keyDelete    = 127
)

// readLine collects a line of input in cbreak mode, echoing as it goes.
// Returns false on ctrl-c or ctrl-d.
func (tm *terminal) readLine(prompt string) (string, bool) {
	tm.print("%s", prompt)

	line := make([]byte, 0, 64)
	buf := make([]byte, 1)

	for {
		n, err := tm.input.Read(buf)
		if err != nil || n == 0 {
			return "", false
		}

		switch buf[0] {
		case keyInterrupt, keyEndOfFile:
			tm.print("\n")
			return "", false

		case keyReturn, keyNewline:
			tm.print("\n")
			return string(line), true

		case keyBackspace, keyDelete:
			if len(line) > 0 {
				line = line[:len(line)-1]
				tm.print("\b \b")
			}

		default:
			if buf[0] >= 32 && buf[0] < 127 {
				line = append(line, buf[0])
				tm.print("%c", buf[0])
			}
		}
	}
}
