package parser

import (
	"strings"
	"unicode"

	bibtex "github.com/jschaf/bibparse"
	"github.com/jschaf/bibparse/namelist"
	"github.com/jschaf/bibparse/scanner"
)

// parseEntry reads an entry after its type name, up to and including the
// closing delimiter.
func (p *parser) parseEntry(typ string) (*bibtex.Entry, error) {
	sc := &p.scanner
	e := bibtex.NewEntry(typ)

	sc.SkipWhitespace()
	if err := sc.ConsumeEither('{', '('); err != nil {
		return nil, err
	}
	// A line break right after the delimiter belongs to a missing key.
	if ch := p.src.Peek(); ch != '\n' && ch != '\r' {
		sc.SkipWhitespace()
	}
	key, err := sc.ReadKey()
	if err != nil {
		return nil, err
	}
	e.Key = key
	if p.trace {
		p.printTrace("key ", key)
	}

	for {
		sc.SkipWhitespace()
		ch := p.src.Peek()
		if ch == '}' || ch == ')' {
			break
		}
		if ch == ',' {
			if err := sc.Consume(','); err != nil {
				return nil, err
			}
		}
		sc.SkipWhitespace()
		ch = p.src.Peek()
		if ch == '}' || ch == ')' {
			break
		}
		if err := p.parseField(e); err != nil {
			return nil, err
		}
	}
	if err := sc.ConsumeEither('}', ')'); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) isPersonField(f bibtex.Field) bool {
	return bibtex.IsPersonNameField(f) || p.personFields[f]
}

// parseField reads one name = value pair and merges it into e.
func (p *parser) parseField(e *bibtex.Entry) error {
	sc := &p.scanner
	name := strings.ToLower(sc.ReadToken())
	sc.SkipWhitespace()
	if err := sc.Consume('='); err != nil {
		return err
	}
	content, err := p.parseFieldContent(name)
	if err != nil {
		return err
	}
	if p.trace {
		p.printTrace("field ", name, " = ", content)
	}
	if content == "" {
		return nil
	}

	prev, ok := e.Fields[name]
	switch {
	case !ok:
		e.Fields[name] = content
	case p.isPersonField(name):
		e.Fields[name] = namelist.Join([]string{prev, content})
	case name == bibtex.FieldKeywords:
		e.AddKeywords(content, p.keywordSep)
	default:
		p.log.Debugf("entry %q: dropping repeated field %s = %q", e.Key, name, content)
		if p.mode&WarnDuplicateFields != 0 {
			p.warn("duplicate field %s in entry %s; keeping the first value", name, e.Key)
		}
	}
	return nil
}

func (p *parser) format(field bibtex.Field, content string) string {
	if p.formatter == nil {
		return content
	}
	return p.formatter(field, content)
}

// parseFieldContent reads a field value: quoted and braced parts, numbers and
// abbreviation references joined by '#'. A reference is returned as #name#.
func (p *parser) parseFieldContent(field bibtex.Field) (string, error) {
	sc := &p.scanner
	var sb strings.Builder
	sc.SkipWhitespace()
	for {
		ch := p.src.Peek()
		if ch == ',' || ch == '}' || ch == ')' {
			break
		}
		switch {
		case ch == scanner.EOF:
			return "", &scanner.SyntaxError{Line: sc.Line(), Msg: "EOF in mid-string"}
		case ch == '"':
			s, err := sc.ReadQuotedExactly()
			if err != nil {
				return "", err
			}
			sb.WriteString(p.format(field, s))
		case ch == '{':
			s, err := sc.ReadBracedExactly()
			if err != nil {
				return "", err
			}
			sb.WriteString(p.format(field, s))
		case unicode.IsDigit(ch):
			sb.WriteString(sc.ReadToken())
		case ch == '#':
			if err := sc.Consume('#'); err != nil {
				return "", err
			}
		default:
			tok := sc.ReadToken()
			if tok == "" {
				return "", &scanner.SyntaxError{
					Line: sc.Line(),
					Msg:  "empty text token; possibly a missing comma between two fields",
				}
			}
			sb.WriteString("#" + tok + "#")
		}
		sc.SkipWhitespace()
	}
	return sb.String(), nil
}
