package scanner

import (
	"bufio"
	"errors"
	"io"
)

// EOF is returned by Source.Read at the end of input.
const EOF rune = -1

// PushbackSize is the default depth of the pushback stack of a Source.
const PushbackSize = 1024

// ErrPushbackOverflow is recorded when more characters are pushed back than
// the Source can hold. It is fatal for the parse.
var ErrPushbackOverflow = errors.New("scanner: pushback buffer overflow")

// A Source is a stream of characters that supports pushing back a bounded
// number of characters. It counts lines and keeps every consumed character in
// a checkpoint buffer until the next call to Flush, so callers can recover the
// exact text of a block after parsing it.
type Source struct {
	rd      *bufio.Reader
	stack   []rune // pushed back characters; the last one is read next
	max     int
	buf     []rune // characters consumed since the last Flush
	line    int
	newline string
	last    rune // last character read from rd
	err     error
}

// NewSource returns a Source reading from r with the default pushback depth.
func NewSource(r io.Reader) *Source {
	return NewSourceSize(r, PushbackSize)
}

// NewSourceSize returns a Source reading from r that can hold at least size
// pushed back characters.
func NewSourceSize(r io.Reader, size int) *Source {
	if size < 1 {
		size = PushbackSize
	}
	return &Source{
		rd:   bufio.NewReader(r),
		max:  size,
		line: 1,
	}
}

// Read consumes and returns the next character, or EOF at the end of input
// and after any error.
func (s *Source) Read() rune {
	if s.err != nil {
		return EOF
	}
	var ch rune
	if n := len(s.stack); n > 0 {
		ch = s.stack[n-1]
		s.stack = s.stack[:n-1]
	} else {
		r, _, err := s.rd.ReadRune()
		if err != nil {
			if err != io.EOF {
				s.err = err
			}
			return EOF
		}
		if r == '\n' && s.newline == "" {
			if s.last == '\r' {
				s.newline = "\r\n"
			} else {
				s.newline = "\n"
			}
		}
		s.last = r
		ch = r
	}
	if ch == '\n' {
		s.line++
	}
	s.buf = append(s.buf, ch)
	return ch
}

// Unread pushes ch back so the next Read returns it. Pushing back EOF is a
// no-op since the input stays exhausted.
func (s *Source) Unread(ch rune) {
	if ch == EOF || s.err != nil {
		return
	}
	if len(s.stack) >= s.max {
		s.err = ErrPushbackOverflow
		return
	}
	if ch == '\n' {
		s.line--
	}
	s.stack = append(s.stack, ch)
	if n := len(s.buf); n > 0 && s.buf[n-1] == ch {
		s.buf = s.buf[:n-1]
	}
}

// Peek returns the next character without consuming it.
func (s *Source) Peek() rune {
	ch := s.Read()
	s.Unread(ch)
	return ch
}

// Flush returns the characters consumed since the previous Flush and clears
// the checkpoint buffer.
func (s *Source) Flush() string {
	str := string(s.buf)
	s.buf = s.buf[:0]
	return str
}

// Line returns the current 1-based line number.
func (s *Source) Line() int { return s.line }

// NewLine returns the line terminator of the first line break seen, "\r\n" or
// "\n". It defaults to "\n".
func (s *Source) NewLine() string {
	if s.newline == "" {
		return "\n"
	}
	return s.newline
}

// Err returns the first I/O error or ErrPushbackOverflow. It is nil at a
// clean end of input.
func (s *Source) Err() error { return s.err }
