// Package scanner implements the character-level reader of the bibtex
// database parser. A Source provides characters with pushback and raw-text
// checkpoints; a Scanner builds the lexical primitives of the format on top
// of it: tokens, citation keys, braced and quoted blocks.
package scanner

import (
	"fmt"
	"strings"
	"unicode"
)

// DefaultLookahead bounds how far ReadKey scans when recovering a citation key
// that contains whitespace.
const DefaultLookahead = 64

// An ErrorHandler may be provided to Scanner.Init. It is called with the
// current line and a message for every recoverable problem, such as a
// corrupted citation key.
type ErrorHandler func(line int, msg string)

// SyntaxError reports a malformed block. The parser skips the block and
// continues with the next one.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// A Scanner holds the lexical state of one parse. It must be initialized via
// Init before use.
type Scanner struct {
	src  *Source
	warn ErrorHandler
	eof  bool

	// public state - ok to modify
	Lookahead    int // key recovery window
	WarningCount int // number of warnings reported
}

// Init prepares s to read from src. Recoverable problems are reported to warn
// if it is not nil.
func (s *Scanner) Init(src *Source, warn ErrorHandler) {
	s.src = src
	s.warn = warn
	s.eof = false
	s.Lookahead = DefaultLookahead
	s.WarningCount = 0
}

// Source returns the underlying character source.
func (s *Scanner) Source() *Source { return s.src }

// EOF reports whether a skip or read operation hit the end of input.
func (s *Scanner) EOF() bool { return s.eof }

// Line returns the current line number.
func (s *Scanner) Line() int { return s.src.Line() }

func (s *Scanner) warnf(format string, args ...any) {
	if s.warn != nil {
		s.warn(s.src.Line(), fmt.Sprintf(format, args...))
	}
	s.WarningCount++
}

func (s *Scanner) errorf(format string, args ...any) error {
	return &SyntaxError{Line: s.src.Line(), Msg: fmt.Sprintf(format, args...)}
}

// isWhitespace is unicode.IsSpace without the non-breaking spaces, which are
// content in keys and tokens.
func isWhitespace(ch rune) bool {
	switch ch {
	case '\u00a0', '\u2007', '\u202f':
		return false
	}
	return unicode.IsSpace(ch)
}

func describe(ch rune) string {
	if ch == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%q", ch)
}

// SkipWhitespace advances over whitespace.
func (s *Scanner) SkipWhitespace() {
	for {
		ch := s.src.Read()
		if ch == EOF {
			s.eof = true
			return
		}
		if !isWhitespace(ch) {
			s.src.Unread(ch)
			return
		}
	}
}

// SkipSpaces advances over ' ' only.
func (s *Scanner) SkipSpaces() {
	for {
		ch := s.src.Read()
		if ch == EOF {
			s.eof = true
			return
		}
		if ch != ' ' {
			s.src.Unread(ch)
			return
		}
	}
}

// SkipOneNewline skips spaces followed by at most one line terminator.
func (s *Scanner) SkipOneNewline() {
	s.SkipSpaces()
	if s.src.Peek() == '\r' {
		s.src.Read()
	}
	if s.src.Peek() == '\n' {
		s.src.Read()
	}
}

// SkipTo consumes characters up to and including c. It returns false if the
// input ended first.
func (s *Scanner) SkipTo(c rune) bool {
	for {
		ch := s.src.Read()
		if ch == EOF {
			s.eof = true
			return false
		}
		if ch == c {
			return true
		}
	}
}

func isTokenChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || strings.ContainsRune(":-_*+./'", ch)
}

// ReadToken reads a run of letters, digits and the characters ":-_*+./'".
// The first other character is left unread.
func (s *Scanner) ReadToken() string {
	var sb strings.Builder
	for {
		ch := s.src.Read()
		if ch == EOF {
			s.eof = true
			return sb.String()
		}
		if !isTokenChar(ch) {
			s.src.Unread(ch)
			return sb.String()
		}
		sb.WriteRune(ch)
	}
}

// ReadKey reads a citation key. A following ',' or '}' is left unread; a
// following '=' is consumed. Whitespace inside the key starts recovery, see
// recoverKey.
func (s *Scanner) ReadKey() (string, error) {
	var sb strings.Builder
	for {
		ch := s.src.Read()
		switch {
		case ch == EOF:
			s.eof = true
			return sb.String(), nil
		case isWhitespace(ch):
			return sb.String() + s.recoverKey(), nil
		case ch == ',' || ch == '}':
			s.src.Unread(ch)
			return sb.String(), nil
		case ch == '=':
			return sb.String(), nil
		case ch == '#' || ch == '{' || ch == '~' || ch == '\uFFFD':
			return "", s.errorf("character %s is not allowed in citation keys", describe(ch))
		default:
			sb.WriteRune(ch)
		}
	}
}

// recoverKey looks ahead at most Lookahead characters after whitespace in a
// citation key for '=', ',' or a line break and returns the part that belongs
// to the key.
//
//	@article{my key,            -> "mykey"
//	@article{key                -> "key", comma missing
//	  title = {X}}
//	@article{key title = {X}}   -> "key", "title" is pushed back
func (s *Scanner) recoverKey() string {
	la := make([]rune, 0, s.Lookahead)
	for len(la) < s.Lookahead {
		ch := s.src.Read()
		switch ch {
		case '=':
			s.src.Unread(ch)
			// The last word before '=' is the name of the first field.
			end := len(la)
			for end > 0 && isWhitespace(la[end-1]) {
				end--
			}
			start := end
			for start > 0 && !isWhitespace(la[start-1]) {
				start--
			}
			for i := len(la) - 1; i >= start; i-- {
				s.src.Unread(la[i])
			}
			s.warnf("found corrupted citation key")
			return removeWhitespace(la[:start])
		case ',':
			s.src.Unread(ch)
			s.warnf("found corrupted citation key (contains whitespace)")
			return removeWhitespace(la)
		case '\n':
			s.src.Unread(ch)
			s.warnf("found corrupted citation key (comma missing)")
			return removeWhitespace(la)
		case EOF:
			s.unreadAll(la)
			return ""
		}
		la = append(la, ch)
	}
	s.unreadAll(la)
	return ""
}

func (s *Scanner) unreadAll(rs []rune) {
	for i := len(rs) - 1; i >= 0; i-- {
		s.src.Unread(rs[i])
	}
}

func removeWhitespace(rs []rune) string {
	var sb strings.Builder
	for _, r := range rs {
		if !isWhitespace(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ReadBalanced reads a block delimited by '{' or '(' with nested delimiters
// counted, as used by preambles. A run of spaces collapses to one space, as
// does a line break followed by one tab. Otherwise tabs are dropped and line
// breaks in a run are kept.
func (s *Scanner) ReadBalanced() (string, error) {
	if err := s.ConsumeEither('{', '('); err != nil {
		return "", err
	}
	var sb strings.Builder
	depth := 0
	for {
		next := s.src.Peek()
		if (next == '}' || next == ')') && depth == 0 {
			break
		}
		ch := s.src.Read()
		switch ch {
		case EOF:
			return "", s.errorf("EOF in mid-string")
		case '{', '(':
			depth++
		case '}', ')':
			depth--
		}
		if isWhitespace(ch) {
			ws := s.readWhitespaceRun(ch)
			if ws == "" || ws == "\n\t" {
				sb.WriteRune(' ')
			} else {
				sb.WriteString(strings.ReplaceAll(ws, "\t", ""))
			}
			continue
		}
		sb.WriteRune(ch)
	}
	if err := s.ConsumeEither('}', ')'); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// readWhitespaceRun consumes the whitespace following ch and returns the run
// without its ' ' characters.
func (s *Scanner) readWhitespaceRun(ch rune) string {
	var sb strings.Builder
	if ch != ' ' {
		sb.WriteRune(ch)
	}
	for {
		next := s.src.Read()
		if next == EOF {
			return sb.String()
		}
		if !isWhitespace(next) {
			s.src.Unread(next)
			return sb.String()
		}
		if next != ' ' {
			sb.WriteRune(next)
		}
	}
}

// ReadBracedExactly reads a '{' delimited block verbatim. An escaped brace
// does not count, except that "\}" followed by ',' and a line break closes
// the block with the backslash as the last character of content.
func (s *Scanner) ReadBracedExactly() (string, error) {
	if err := s.Consume('{'); err != nil {
		return "", err
	}
	var sb strings.Builder
	depth := 0
	var last rune
	for {
		ch := s.src.Read()
		if ch == EOF {
			return "", s.errorf("EOF in mid-string")
		}
		closing := ch == '}' && (last != '\\' || s.closesAfterBackslash())
		if closing && depth == 0 {
			return sb.String(), nil
		}
		switch {
		case ch == '{' && last != '\\':
			depth++
		case closing:
			depth--
		}
		sb.WriteRune(ch)
		last = ch
	}
}

// closesAfterBackslash reports whether the next characters are ',' and a line
// terminator, without consuming them.
func (s *Scanner) closesAfterBackslash() bool {
	next := s.src.Read()
	if next != ',' {
		s.src.Unread(next)
		return false
	}
	after := s.src.Peek()
	s.src.Unread(next)
	return after == '\n' || after == '\r'
}

// ReadQuotedExactly reads a '"' delimited block verbatim. A quote inside
// braces is content.
func (s *Scanner) ReadQuotedExactly() (string, error) {
	if err := s.Consume('"'); err != nil {
		return "", err
	}
	var sb strings.Builder
	depth := 0
	for {
		if s.src.Peek() == '"' && depth == 0 {
			break
		}
		ch := s.src.Read()
		switch ch {
		case EOF:
			return "", s.errorf("EOF in mid-string")
		case '{':
			depth++
		case '}':
			depth--
		}
		sb.WriteRune(ch)
	}
	if err := s.Consume('"'); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Consume reads one character and fails unless it is c.
func (s *Scanner) Consume(c rune) error {
	ch := s.src.Read()
	if ch != c {
		s.unreadMismatch(ch)
		return s.errorf("expected %s but received %s", describe(c), describe(ch))
	}
	return nil
}

// ConsumeEither reads one character and fails unless it is a or b.
func (s *Scanner) ConsumeEither(a, b rune) error {
	ch := s.src.Read()
	if ch != a && ch != b {
		s.unreadMismatch(ch)
		return s.errorf("expected %s or %s but received %s", describe(a), describe(b), describe(ch))
	}
	return nil
}

// unreadMismatch handles an unexpected character. An '@' starts the next
// block and is pushed back so that the caller can resume there.
func (s *Scanner) unreadMismatch(ch rune) {
	switch ch {
	case EOF:
		s.eof = true
	case '@':
		s.src.Unread(ch)
	}
}
