package parser

import (
	"fmt"

	bibtex "github.com/jschaf/bibparse"
)

// A Warning is a recoverable problem found while parsing. The parser skipped
// or repaired the offending text and continued.
type Warning struct {
	Line int // 0 when no line applies
	Msg  string
}

func (w Warning) String() string {
	if w.Line <= 0 {
		return w.Msg
	}
	return fmt.Sprintf("line %d: %s", w.Line, w.Msg)
}

// Result is the outcome of one parse.
type Result struct {
	Database *bibtex.Database
	// EntryTypes holds the custom entry types declared in comment blocks,
	// keyed by lower-cased name.
	EntryTypes map[string]*bibtex.EntryType
	// Meta holds the raw key/value pairs of "jabref-meta:" comment blocks.
	Meta          map[string]string
	Warnings      []Warning
	DuplicateKeys []bibtex.CiteKey
	// Err is the fatal error that stopped the parse, if any. The database
	// holds everything parsed before it.
	Err error
}

func newResult() *Result {
	return &Result{
		Database:   bibtex.NewDatabase(),
		EntryTypes: make(map[string]*bibtex.EntryType),
		Meta:       make(map[string]string),
	}
}

// HasWarnings reports whether any warning was recorded.
func (r *Result) HasWarnings() bool { return len(r.Warnings) > 0 }

func (r *Result) addDuplicateKey(key bibtex.CiteKey) {
	for _, k := range r.DuplicateKeys {
		if k == key {
			return
		}
	}
	r.DuplicateKeys = append(r.DuplicateKeys, key)
}
