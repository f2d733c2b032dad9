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

package script

import (
	"strings"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokNumber
	tokString
	tokPunct
)

type token struct {
	typ  tokenType
	text string
	num  int32
	line int
}

// the multi-character punctuation tokens, longest first so that the lexer
// is greedy
var punctuation = []string{
	"<<", ">>", "<=", ">=", "==", "!=", "&&", "||", "+=", "-=",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "!", "<", ">",
	"=", "(", ")", "{", "}", ";", ",", ".", "?", ":",
}

type lexer struct {
	src  string
	pos  int
	line int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1}
}

func (lx *lexer) next() (token, error) {
	// skip white space and comments
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == '\n' {
			lx.line++
			lx.pos++
		} else if c == ' ' || c == '\t' || c == '\r' {
			lx.pos++
		} else if c == '/' && lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '/' {
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.pos++
			}
		} else {
			break
		}
	}

	if lx.pos >= len(lx.src) {
		return token{typ: tokEOF, line: lx.line}, nil
	}

	c := lx.src[lx.pos]

	if isIdentStart(c) {
		start := lx.pos
		for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
			lx.pos++
		}
		return token{typ: tokIdent, text: lx.src[start:lx.pos], line: lx.line}, nil
	}

	if c >= '0' && c <= '9' {
		return lx.number()
	}

	if c == '"' {
		return lx.stringLiteral()
	}

	for _, p := range punctuation {
		if strings.HasPrefix(lx.src[lx.pos:], p) {
			lx.pos += len(p)
			return token{typ: tokPunct, text: p, line: lx.line}, nil
		}
	}

	return token{}, compileError(lx.line, "unexpected character '%c'", c)
}

func (lx *lexer) number() (token, error) {
	start := lx.pos
	base := int32(10)

	if strings.HasPrefix(lx.src[lx.pos:], "0x") || strings.HasPrefix(lx.src[lx.pos:], "0X") {
		base = 16
		lx.pos += 2
	}

	var v int64
	digits := 0
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		var d int32
		switch {
		case c >= '0' && c <= '9':
			d = int32(c - '0')
		case base == 16 && c >= 'a' && c <= 'f':
			d = int32(c-'a') + 10
		case base == 16 && c >= 'A' && c <= 'F':
			d = int32(c-'A') + 10
		default:
			goto done
		}
		if d >= base {
			return token{}, compileError(lx.line, "malformed number '%s'", lx.src[start:lx.pos+1])
		}
		v = v*int64(base) + int64(d)
		if v > 0xffffffff {
			return token{}, compileError(lx.line, "number out of range")
		}
		digits++
		lx.pos++
	}
done:
	if digits == 0 {
		return token{}, compileError(lx.line, "malformed number")
	}
	return token{typ: tokNumber, num: int32(uint32(v)), line: lx.line}, nil
}

func (lx *lexer) stringLiteral() (token, error) {
	line := lx.line
	lx.pos++ // opening quote

	s := strings.Builder{}
	for {
		if lx.pos >= len(lx.src) || lx.src[lx.pos] == '\n' {
			return token{}, compileError(line, "unterminated string")
		}
		c := lx.src[lx.pos]
		lx.pos++

		if c == '"' {
			return token{typ: tokString, text: s.String(), line: line}, nil
		}

		if c == '\\' {
			if lx.pos >= len(lx.src) {
				return token{}, compileError(line, "unterminated string")
			}
			e := lx.src[lx.pos]
			lx.pos++
			switch e {
			case 'n':
				s.WriteByte('\n')
			case 't':
				s.WriteByte('\t')
			case '"':
				s.WriteByte('"')
			case '\\':
				s.WriteByte('\\')
			default:
				return token{}, compileError(line, "unknown escape '\\%c'", e)
			}
			continue
		}

		s.WriteByte(c)
	}
}

// identifiers may start with '$', the prefix of the thread variables
func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
