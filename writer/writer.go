// Package writer serializes a parsed bibtex database. Entries that were not
// modified after parsing are written back exactly as they were read; all
// other blocks are formatted.
package writer

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	bibtex "github.com/jschaf/bibparse"
	"github.com/jschaf/bibparse/parser"
)

// Writer writes bibtex databases to an output stream.
type Writer struct {
	bw         *bufio.Writer
	nl         string
	indent     string
	reformat   bool
	afterEntry bool // last block written was an entry
	err        error
}

type Option func(w *Writer)

// WithNewLine sets the line terminator. By default the terminator detected
// in the parsed database is used.
func WithNewLine(nl string) Option {
	return func(w *Writer) { w.nl = nl }
}

// WithIndent sets the indentation of fields in formatted entries.
func WithIndent(indent string) Option {
	return func(w *Writer) { w.indent = indent }
}

// WithReformat formats every entry, ignoring the text it was parsed from.
func WithReformat() Option {
	return func(w *Writer) { w.reformat = true }
}

func New(w io.Writer, opts ...Option) *Writer {
	wr := &Writer{bw: bufio.NewWriter(w), indent: "  "}
	for _, opt := range opts {
		opt(wr)
	}
	return wr
}

func (w *Writer) write(ss ...string) {
	if w.err != nil {
		return
	}
	for _, s := range ss {
		if _, err := w.bw.WriteString(s); err != nil {
			w.err = fmt.Errorf("write bibtex: %w", err)
			return
		}
	}
}

func (w *Writer) newline(db *bibtex.Database) string {
	if w.nl != "" {
		return w.nl
	}
	if db != nil && db.NewLine != "" {
		return db.NewLine
	}
	return "\n"
}

// WriteResult writes the database of res followed by its metadata and custom
// entry types as structured comments.
func (w *Writer) WriteResult(res *parser.Result) error {
	db := res.Database
	nl := w.newline(db)
	w.writeHeader(db, nl)
	w.writePreamble(db, nl)
	w.writeAbbrevs(db, nl)
	for _, e := range db.Entries {
		w.writeEntry(e, res.EntryTypes, nl)
	}
	w.writeMeta(res.Meta, nl)
	w.writeEntryTypes(res.EntryTypes, nl)
	w.writeEpilog(db, nl)
	return w.Flush()
}

// WriteDatabase writes db without metadata or custom entry types.
func (w *Writer) WriteDatabase(db *bibtex.Database) error {
	nl := w.newline(db)
	w.writeHeader(db, nl)
	w.writePreamble(db, nl)
	w.writeAbbrevs(db, nl)
	for _, e := range db.Entries {
		w.writeEntry(e, nil, nl)
	}
	w.writeEpilog(db, nl)
	return w.Flush()
}

// WriteEntry writes a single entry.
func (w *Writer) WriteEntry(e *bibtex.Entry) error {
	w.writeEntry(e, nil, w.newline(nil))
	return w.Flush()
}

// Flush writes buffered output and returns the first error.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.bw.Flush(); err != nil {
		w.err = fmt.Errorf("flush bibtex: %w", err)
	}
	return w.err
}

func (w *Writer) writeHeader(db *bibtex.Database, nl string) {
	if db.SharedID != "" {
		w.write("% DBID: ", db.SharedID, nl, nl)
	}
}

func (w *Writer) writePreamble(db *bibtex.Database, nl string) {
	if db.Preamble != "" {
		w.write("@Preamble{", db.Preamble, "}", nl, nl)
	}
}

func (w *Writer) writeAbbrevs(db *bibtex.Database, nl string) {
	as := db.Abbrevs.All()
	for _, a := range as {
		if a.ParsedSerialization != "" && !w.reformat {
			w.write(a.ParsedSerialization)
			continue
		}
		w.write("@String{", a.Name, " = ", FormatValue(a.Content), "}", nl)
	}
	if len(as) > 0 {
		w.write(nl)
	}
}

func (w *Writer) writeEntry(e *bibtex.Entry, custom map[string]*bibtex.EntryType, nl string) {
	switch {
	case !e.Changed && e.ParsedSerialization != "" && !w.reformat:
		w.write(e.ParsedSerialization, nl)
	default:
		if w.afterEntry {
			w.write(nl)
		}
		w.write(e.CommentsBefore, FormatEntry(e, custom, w.indent, nl), nl)
	}
	w.afterEntry = true
}

func (w *Writer) writeMeta(meta map[string]string, nl string) {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		w.write(nl, "@Comment{jabref-meta: ", k, ":", meta[k], "}", nl)
	}
}

func (w *Writer) writeEntryTypes(types map[string]*bibtex.EntryType, nl string) {
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		w.write(nl, "@Comment{", bibtex.EntryTypePrefix, types[name].String(), "}", nl)
	}
}

func (w *Writer) writeEpilog(db *bibtex.Database, nl string) {
	if db.Epilog != "" {
		w.write(nl, db.Epilog, nl)
	}
}

// FormatEntry formats e as a block. Fields are ordered by the entry type:
// required fields, then optional fields, then all others by name.
func FormatEntry(e *bibtex.Entry, custom map[string]*bibtex.EntryType, indent, nl string) string {
	var sb strings.Builder
	sb.WriteString("@" + displayType(e.Type) + "{" + e.Key + "," + nl)
	names := fieldOrder(e, custom)
	width := 0
	for _, f := range names {
		width = max(width, len(f))
	}
	for _, f := range names {
		sb.WriteString(indent)
		sb.WriteString(f)
		sb.WriteString(strings.Repeat(" ", width-len(f)))
		sb.WriteString(" = ")
		sb.WriteString(FormatValue(e.Fields[f]))
		sb.WriteString("," + nl)
	}
	sb.WriteString("}")
	return sb.String()
}

func displayType(typ string) string {
	r, size := utf8.DecodeRuneInString(typ)
	if r == utf8.RuneError {
		return typ
	}
	return string(unicode.ToUpper(r)) + typ[size:]
}

func fieldOrder(e *bibtex.Entry, custom map[string]*bibtex.EntryType) []bibtex.Field {
	var order []bibtex.Field
	seen := make(map[bibtex.Field]bool, len(e.Fields))
	add := func(f bibtex.Field) {
		if _, ok := e.Fields[f]; ok && !seen[f] {
			seen[f] = true
			order = append(order, f)
		}
	}
	if t, ok := bibtex.LookupType(e.Type, custom); ok {
		for _, or := range t.Required {
			for _, f := range or {
				add(f)
			}
		}
		for _, f := range t.Optional {
			add(f)
		}
	}
	for _, f := range e.FieldNames() {
		add(f)
	}
	return order
}

// FormatValue formats field content as a value. Abbreviation references
// (#name#) become bare names joined to braced text with '#'.
//
//	"1-4~#nov#"  -> {1-4~} # nov
//	"#ieee#"     -> ieee
//	"C# and F#"  -> {C# and F#}
func FormatValue(content string) string {
	var parts []string
	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			parts = append(parts, "{"+lit.String()+"}")
			lit.Reset()
		}
	}
	s := content
	for s != "" {
		i := strings.IndexByte(s, '#')
		if i < 0 {
			lit.WriteString(s)
			break
		}
		lit.WriteString(s[:i])
		s = s[i:]
		j := strings.IndexByte(s[1:], '#')
		if j < 0 || !isName(s[1:1+j]) {
			lit.WriteByte('#')
			s = s[1:]
			continue
		}
		flushLit()
		parts = append(parts, s[1:1+j])
		s = s[j+2:]
	}
	flushLit()
	if len(parts) == 0 {
		return "{}"
	}
	return strings.Join(parts, " # ")
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsSpace(r) || strings.ContainsRune("{}\",=#%", r) {
			return false
		}
	}
	return true
}
