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

package logger_test

import (
	"strings"
	"testing"

	"github.com/gopher800/gopher800/logger"
	"github.com/gopher800/gopher800/test"
)

func TestLogger(t *testing.T) {
	logger.Clear()

	s := &strings.Builder{}

	logger.Write(s)
	test.ExpectedSuccess(t, s.Len() == 0)

	logger.Log(logger.Allow, "test", "this is a test")
	logger.Write(s)
	test.Equate(t, s.String(), "test: this is a test\n")
}

func TestLoggerRepeats(t *testing.T) {
	logger.Clear()

	s := &strings.Builder{}

	// the same entry made twice in succession should be coalesced
	logger.Log(logger.Allow, "test", "this is a test")
	logger.Log(logger.Allow, "test", "this is a test")
	logger.Write(s)
	test.Equate(t, s.String(), "test: this is a test (repeat x2)\n")
}

func TestLoggerTail(t *testing.T) {
	logger.Clear()

	s := &strings.Builder{}

	logger.Log(logger.Allow, "test", "this is a test (A)")
	logger.Log(logger.Allow, "test", "this is a test (B)")
	logger.Log(logger.Allow, "test", "this is a test (C)")

	logger.Tail(s, 2)
	test.Equate(t, s.String(), "test: this is a test (B)\ntest: this is a test (C)\n")
}

func TestLoggerWriteRecent(t *testing.T) {
	logger.Clear()

	s := &strings.Builder{}

	logger.Log(logger.Allow, "test", "this is a test (A)")
	logger.WriteRecent(s)
	test.Equate(t, s.String(), "test: this is a test (A)\n")

	// a second call without any intervening entries writes nothing
	s.Reset()
	logger.WriteRecent(s)
	test.ExpectedSuccess(t, s.Len() == 0)
}
