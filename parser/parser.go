// Package parser implements a parser for bibtex databases. Input may be
// provided in a variety of forms (see the various Parse* functions); the
// output is a Result holding the database, the custom entry types and
// metadata declared in comments, and the warnings raised while recovering
// from malformed blocks.
package parser

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	bibtex "github.com/jschaf/bibparse"
	"github.com/jschaf/bibparse/scanner"
	"github.com/jschaf/bibparse/token"
	"github.com/tliron/commonlog"
)

const (
	metaPrefix     = "jabref-meta: "
	sharedIDPrefix = "DBID:"
	encodingPrefix = "Encoding: "
)

// headerPrefixes mark the lines of a file header that are dropped from the
// raw text of the first block.
var headerPrefixes = []string{sharedIDPrefix, encodingPrefix}

// The parser structure holds the parser's internal state.
type parser struct {
	src     *scanner.Source
	scanner scanner.Scanner
	res     *Result
	log     commonlog.Logger

	keywordSep   rune
	personFields map[bibtex.Field]bool
	formatter    func(field bibtex.Field, content string) string

	// Tracing/debugging
	mode   Mode // parsing mode
	trace  bool // == (mode & Trace != 0)
	indent int  // indentation used for tracing output
}

func (p *parser) init(r io.Reader, opts Options) {
	p.res = newResult()
	p.log = commonlog.GetLogger(LogName)
	p.src = scanner.NewSourceSize(r, opts.PushbackSize)
	eh := func(line int, msg string) { p.addWarning(line, "%s", msg) }
	p.scanner.Init(p.src, eh)
	p.scanner.Lookahead = opts.Lookahead

	p.keywordSep = opts.KeywordSeparator
	p.personFields = make(map[bibtex.Field]bool, len(opts.PersonNameFields))
	for _, f := range opts.PersonNameFields {
		p.personFields[strings.ToLower(f)] = true
	}
	p.formatter = opts.FieldFormatter

	p.mode = opts.Mode
	p.trace = opts.Mode&Trace != 0
}

// ----------------------------------------------------------------------------
// Parsing support

func (p *parser) printTrace(a ...any) {
	const dots = ". . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . "
	const n = len(dots)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%5d: ", p.scanner.Line())
	i := 2 * p.indent
	for i > n {
		sb.WriteString(dots)
		i -= n
	}
	// i <= n
	sb.WriteString(dots[0:i])
	sb.WriteString(fmt.Sprint(a...))
	p.log.Debugf("%s", sb.String())
}

func trace(p *parser, msg string) *parser {
	p.printTrace(msg, " (")
	p.indent++
	return p
}

// Usage pattern: defer un(trace(p, "..."))
func un(p *parser) {
	p.indent--
	p.printTrace(")")
}

func (p *parser) addWarning(line int, format string, args ...any) {
	w := Warning{Line: line, Msg: fmt.Sprintf(format, args...)}
	p.log.Warningf("%s", w)
	p.res.Warnings = append(p.res.Warnings, w)
}

func (p *parser) warn(format string, args ...any) {
	p.addWarning(p.scanner.Line(), format, args...)
}

// skipped records a malformed block of the given kind.
func (p *parser) skipped(kind string, err error) {
	var se *scanner.SyntaxError
	if !errors.As(err, &se) {
		p.warn("error occurred when parsing %s: '%s'. Skipped %s.", kind, err, kind)
		return
	}
	p.log.Debugf("skipped %s ending at line %d: %s", kind, se.Line, se.Msg)
	p.addWarning(se.Line, "error occurred when parsing %s: '%s'. Skipped %s.", kind, se.Msg, kind)
}

// flush returns the raw text read since the last flush. A file header before
// the first '@' is dropped up to the end of its line.
func (p *parser) flush() string {
	text := p.src.Flush()
	at := strings.IndexByte(text, '@')
	if at < 0 {
		return text
	}
	for _, prefix := range headerPrefixes {
		i := strings.Index(text[:at], prefix)
		if i < 0 {
			continue
		}
		end := at
		if nl := strings.IndexByte(text[i:at], '\n'); nl >= 0 {
			end = i + nl + 1
		}
		text = text[end:]
		at -= end
	}
	return text
}

// ----------------------------------------------------------------------------
// Blocks

// parseDatabaseID reads the '%' header lines before the first block and
// picks up the shared database id.
func (p *parser) parseDatabaseID() {
	for {
		p.scanner.SkipWhitespace()
		switch ch := p.src.Read(); ch {
		case scanner.EOF:
			return
		case '@':
			p.src.Unread(ch)
			return
		case '%':
			p.scanner.SkipWhitespace()
			if p.scanner.ReadToken() == sharedIDPrefix {
				p.scanner.SkipWhitespace()
				p.res.Database.SharedID = p.scanner.ReadToken()
				p.log.Debugf("shared database id %q", p.res.Database.SharedID)
			}
		}
	}
}

func (p *parser) parsePreamble() {
	if p.trace {
		defer un(trace(p, "Preamble"))
	}
	p.scanner.SkipWhitespace()
	s, err := p.scanner.ReadBalanced()
	if err != nil {
		p.skipped("preamble", err)
		return
	}
	p.res.Database.AddPreamble(s)
	p.scanner.SkipOneNewline()
	p.flush()
}

func (p *parser) parseAbbrev() {
	if p.trace {
		defer un(trace(p, "Abbrev"))
	}
	a, err := p.parseAbbrevBody()
	if err != nil {
		p.skipped("string", err)
		return
	}
	line := p.scanner.Line()
	p.scanner.SkipOneNewline()
	a.ParsedSerialization = p.flush()
	if alt := p.res.Database.Abbrevs.Insert(a); alt != nil {
		p.addWarning(line, "duplicate string name: %s", a.Name)
	}
}

func (p *parser) parseAbbrevBody() (*bibtex.Abbrev, error) {
	sc := &p.scanner
	sc.SkipWhitespace()
	if err := sc.ConsumeEither('{', '('); err != nil {
		return nil, err
	}
	sc.SkipWhitespace()
	name := sc.ReadToken()
	sc.SkipWhitespace()
	if err := sc.Consume('='); err != nil {
		return nil, err
	}
	content, err := p.parseFieldContent(name)
	if err != nil {
		return nil, err
	}
	if err := sc.ConsumeEither('}', ')'); err != nil {
		return nil, err
	}
	return &bibtex.Abbrev{Name: name, Content: content}, nil
}

func (p *parser) parseComment() {
	if p.trace {
		defer un(trace(p, "Comment"))
	}
	p.scanner.SkipWhitespace()
	if p.src.Peek() != '{' {
		// Unbracketed: plain text before the next block.
		return
	}
	s, err := p.scanner.ReadBracedExactly()
	if err != nil {
		p.log.Debugf("comment is not a structured comment: %s", err)
		return
	}
	comment := strings.NewReplacer("\r", "", "\n", "").Replace(s)

	switch {
	case strings.HasPrefix(comment, metaPrefix):
		rest := comment[len(metaPrefix):]
		if pos := strings.IndexByte(rest, ':'); pos > 0 {
			p.res.Meta[rest[:pos]] = rest[pos+1:]
		}
		p.flush()
	case strings.HasPrefix(comment, bibtex.EntryTypePrefix):
		t, err := bibtex.ParseEntryType(comment)
		if err != nil {
			p.warn("ill-formed entrytype comment: %s", comment)
		} else {
			p.res.EntryTypes[t.Name] = t
		}
		p.flush()
	default:
		p.log.Debugf("keeping comment as text: %.40q", comment)
	}
}

func (p *parser) parseEntryBlock(typ string) {
	if p.trace {
		defer un(trace(p, "Entry "+typ))
	}
	commentsAndType := p.flush()
	e, err := p.parseEntry(typ)
	if err != nil {
		p.skipped("entry", err)
		return
	}
	raw := p.src.Flush()
	p.scanner.SkipOneNewline()
	p.src.Flush()

	comments := commentsAndType
	if at := strings.LastIndexByte(comments, '@'); at >= 0 {
		comments = comments[:at]
	}
	if c, ok := strings.CutPrefix(comments, "\r\n"); ok {
		comments = c
	} else {
		comments = strings.TrimPrefix(comments, "\n")
	}
	e.CommentsBefore = comments
	e.ParsedSerialization = commentsAndType + raw
	e.Changed = false

	if p.res.Database.Insert(e) {
		p.res.addDuplicateKey(e.Key)
	}
}

// epilogField matches text that looks like a field outside of any entry.
var epilogField = regexp.MustCompile(`\w+\s*=.*,`)

func (p *parser) parseDatabase() *Result {
	if p.trace {
		defer un(trace(p, "Database"))
	}
	res := p.res
	p.parseDatabaseID()

	for p.src.Err() == nil {
		if !p.scanner.SkipTo('@') {
			break
		}
		p.scanner.SkipWhitespace()
		name := strings.ToLower(strings.TrimSpace(p.scanner.ReadToken()))
		switch token.Lookup(name) {
		case token.Preamble:
			p.parsePreamble()
		case token.Abbrev:
			p.parseAbbrev()
		case token.Comment:
			p.parseComment()
		default:
			p.parseEntryBlock(name)
		}
	}
	if err := p.src.Err(); err != nil {
		res.Err = fmt.Errorf("read bibtex database: %w", err)
	}

	db := res.Database
	db.Epilog = strings.TrimSpace(p.flush())
	db.NewLine = p.src.NewLine()
	if !res.HasWarnings() && epilogField.MatchString(db.Epilog) {
		p.warn("unparsed content in epilog, entries may have been dropped")
	}
	for _, e := range db.Entries {
		if t, ok := res.EntryTypes[e.Type]; ok {
			e.Declared = t
		}
	}
	p.log.Infof("parsed %d entries, %d strings, %d warnings", len(db.Entries), db.Abbrevs.Len(), len(res.Warnings))
	return res
}
