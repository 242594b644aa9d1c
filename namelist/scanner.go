// Package namelist parses Bibtex style name lists, the "and" separated values
// of person name fields like author and editor.
package namelist

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type scanner struct {
	src      string
	ch       rune // current character
	offset   int  // character offset
	rdOffset int  // reading offset (position after current character)
	prev     Part // previous token
	prev2    Part // previous-previous token

	nameSeps []string // separator strings, typically just "and"
	others   []string // additional author strings, typically just "others"

	errors []error
}

const bom = 0xFEFF // byte order mark, only permitted as very first character

func (s *scanner) next() {
	if s.rdOffset < len(s.src) {
		s.offset = s.rdOffset
		r, w := utf8.DecodeRuneInString(s.src[s.rdOffset:])
		if r == utf8.RuneError && w == 1 {
			s.error(s.offset, "illegal UTF-8 encoding in name list")
		}
		s.rdOffset += w
		s.ch = r
	} else {
		s.offset = len(s.src)
		s.ch = -1
	}
}

// init prepares the scanner s to tokenize src.
func (s *scanner) init(src string) {
	s.src = src
	s.ch = ' '
	s.offset = 0
	s.rdOffset = 0
	s.prev = Illegal
	s.prev2 = Illegal
	s.errors = nil
	if s.nameSeps == nil {
		s.nameSeps = []string{"and"}
	}
	if s.others == nil {
		s.others = []string{"others"}
	}

	s.next()
	if s.ch == bom {
		s.next() // ignore BOM at the beginning
	}
}

func (s *scanner) error(offs int, msg string) {
	s.errors = append(s.errors, fmt.Errorf("offset %d: %s", offs, msg))
}

func isSpace(ch rune) bool {
	return ch >= 0 && unicode.IsSpace(ch)
}

func (s *scanner) skipWhitespace() {
	for isSpace(s.ch) {
		s.next()
	}
}

func (s *scanner) scanString() string {
	offs := s.offset
	for s.ch >= 0 && !isSpace(s.ch) && s.ch != '{' && s.ch != '}' && s.ch != ',' {
		s.next()
	}
	return s.src[offs:s.offset]
}

func contains(xs []string, x string) bool {
	for _, y := range xs {
		if x == y {
			return true
		}
	}
	return false
}

// scanBraceString scans a brace delimited group, nested groups included. The
// returned literal excludes the outer braces.
func (s *scanner) scanBraceString() string {
	offs := s.offset
	depth := 0
	for {
		switch s.ch {
		case -1:
			s.error(offs, "string literal in braces not terminated")
			return s.src[offs+1 : s.offset]
		case '{':
			depth++
		case '}':
			depth--
		}
		s.next()
		if depth == 0 {
			return s.src[offs+1 : s.offset-1]
		}
	}
}

// scan returns the next token and its byte offset. The literal of a
// BraceString excludes the braces.
func (s *scanner) scan() (offs int, tok Part, lit string) {
	offs = s.offset
	switch ch := s.ch; {
	case ch == -1:
		tok = EOF
	case isSpace(ch):
		tok = Whitespace
		s.skipWhitespace() // collapse adjacent whitespace
		lit = s.src[offs:s.offset]
	case ch == '{':
		tok = BraceString
		lit = s.scanBraceString()
	case ch == ',':
		tok = Comma
		lit = ","
		s.next()
	case ch == '}':
		tok = Illegal
		lit = "}"
		s.error(offs, "unbalanced closing brace")
		s.next()
	default:
		tok = String
		lit = s.scanString()
		l := strings.ToLower(lit)
		switch {
		case s.prev == Whitespace && isSpace(s.ch) && contains(s.nameSeps, l):
			tok = NameSep
		case s.prev2 == NameSep && s.prev == Whitespace && contains(s.others, l):
			tok = Others
		}
	}

	s.prev2 = s.prev
	s.prev = tok
	return
}
