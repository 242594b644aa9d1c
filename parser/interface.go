// This file contains the exported entry points for invoking the parser.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	bibtex "github.com/jschaf/bibparse"
	"github.com/jschaf/bibparse/scanner"
)

// LogName is the commonlog name of the parser's logger.
const LogName = "bibparse.parser"

// ErrReused is returned by Parse on a Parser that already parsed an input.
var ErrReused = errors.New("parser: Parse called twice on the same parser")

// A Mode value is a set of flags (or 0).
// They control optional parser functionality.
type Mode uint

const (
	Trace               Mode = 1 << iota // log a trace of parsed blocks at debug level
	WarnDuplicateFields                  // warn when a repeated field is dropped
)

// Options configure a Parser.
type Options struct {
	Mode Mode
	// KeywordSeparator delimits the words of a keywords field.
	KeywordSeparator rune
	// PersonNameFields are fields merged with " and " when repeated, in
	// addition to the standard person name fields.
	PersonNameFields []bibtex.Field
	// FieldFormatter transforms every quoted or braced fragment of a field
	// value. Nil means identity.
	FieldFormatter func(field bibtex.Field, content string) string
	// Lookahead bounds citation key recovery; 0 means
	// scanner.DefaultLookahead. It is capped at PushbackSize.
	Lookahead int
	// PushbackSize is the pushback capacity of the source; 0 means
	// scanner.PushbackSize.
	PushbackSize int
}

// DefaultOptions returns the options used by ParseString and friends.
func DefaultOptions() Options {
	return Options{
		KeywordSeparator: ',',
		Lookahead:        scanner.DefaultLookahead,
		PushbackSize:     scanner.PushbackSize,
	}
}

// Parser parses one bibtex database. Create it with New; it is single-use.
type Parser struct {
	opts Options
	used bool
}

// New returns a parser using opts. Zero fields fall back to DefaultOptions.
func New(opts Options) *Parser {
	def := DefaultOptions()
	if opts.KeywordSeparator == 0 {
		opts.KeywordSeparator = def.KeywordSeparator
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = def.Lookahead
	}
	if opts.PushbackSize <= 0 {
		opts.PushbackSize = def.PushbackSize
	}
	// Key recovery pushes back up to Lookahead characters.
	opts.Lookahead = min(opts.Lookahead, opts.PushbackSize)
	return &Parser{opts: opts}
}

// Parse reads a complete database from r.
//
// Malformed blocks do not stop the parse: they are skipped and reported as
// warnings in the result. The returned error is non-nil only when reading r
// fails or the pushback capacity is exceeded; the result then holds
// everything parsed before the failure and Result.Err repeats the error.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	if p.used {
		return nil, ErrReused
	}
	p.used = true

	var ps parser
	ps.init(r, p.opts)
	res := ps.parseDatabase()
	return res, res.Err
}

// ParseString parses src with the default options.
func ParseString(src string) (*Result, error) {
	return New(DefaultOptions()).Parse(strings.NewReader(src))
}

// ParseFile parses the named file with opts.
func ParseFile(filename string, opts Options) (*Result, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open bibtex file: %w", err)
	}
	defer f.Close()
	res, err := New(opts).Parse(f)
	if err != nil {
		return res, fmt.Errorf("parse %s: %w", filename, err)
	}
	return res, nil
}

// ParseEntries parses src and returns only its entries.
func ParseEntries(src string) ([]*bibtex.Entry, error) {
	res, err := ParseString(src)
	if err != nil {
		return nil, err
	}
	return res.Database.Entries, nil
}

// ParseSingleEntry parses src and returns its first entry, or nil if src
// holds no entry.
func ParseSingleEntry(src string) (*bibtex.Entry, error) {
	entries, err := ParseEntries(src)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return entries[0], nil
}

var recognizedLine = regexp.MustCompile(`^\s*@[A-Za-z]+\s*[{(]`)

// IsRecognizedFormat reports whether some line of r starts a block, like
// "@article{".
func IsRecognizedFormat(r io.Reader) (bool, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if recognizedLine.MatchString(sc.Text()) {
			return true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return false, fmt.Errorf("sniff bibtex format: %w", err)
	}
	return false, nil
}
