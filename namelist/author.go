package namelist

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	bibtex "github.com/jschaf/bibparse"
)

// ErrEmptyName is returned by ParseAuthors for a list with an empty name, as
// in "A and and B".
var ErrEmptyName = errors.New("found an empty author")

// Split returns the names of an "and" separated name list as written, without
// surrounding whitespace. An "and" inside braces does not separate names.
// Empty names are dropped.
func Split(list string) []string {
	var s scanner
	s.init(list)
	names := make([]string, 0, 4)
	start := 0
	add := func(end int) {
		if n := strings.TrimSpace(list[start:end]); n != "" {
			names = append(names, n)
		}
	}
	for {
		offs, tok, lit := s.scan()
		if tok == EOF {
			add(len(list))
			return names
		}
		if tok == NameSep {
			add(offs)
			start = offs + len(lit)
		}
	}
}

// Join joins names into a name list.
func Join(names []string) string {
	return strings.Join(names, " and ")
}

// word is a whitespace delimited part of a name.
type word struct {
	text  string
	lower bool // starts with a lowercase letter; a von part candidate
}

// group holds the words of one name between commas.
type group []word

// ParseAuthors splits a name list into authors. Names are interpreted with the
// bibtex rules for "First von Last", "von Last, First" and
// "von Last, Jr, First".
func ParseAuthors(list string) ([]bibtex.Author, error) {
	var s scanner
	s.init(list)

	authors := make([]bibtex.Author, 0, 4)
	groups := make([]group, 1, 3)
	var cur strings.Builder // current word
	curBraced := 0          // brace groups in the current word
	curParts := 0           // tokens in the current word

	flushWord := func() {
		if curParts == 0 {
			return
		}
		raw := cur.String()
		text := raw
		if curBraced == 1 && curParts == 1 {
			text = strings.TrimSuffix(strings.TrimPrefix(raw, "{"), "}")
		}
		g := &groups[len(groups)-1]
		*g = append(*g, word{text: text, lower: hasLowerPrefix(raw)})
		cur.Reset()
		curBraced, curParts = 0, 0
	}
	flushName := func() error {
		flushWord()
		a, err := extractAuthor(groups)
		if err != nil {
			return err
		}
		authors = append(authors, a)
		groups = groups[:1]
		groups[0] = nil
		return nil
	}

	for {
		_, tok, lit := s.scan()
		switch tok {
		case EOF:
			if err := flushName(); err != nil {
				return nil, err
			}
			if len(s.errors) > 0 {
				return authors, fmt.Errorf("parse name list %q: %w", list, s.errors[0])
			}
			return authors, nil
		case Whitespace:
			flushWord()
		case NameSep:
			if err := flushName(); err != nil {
				return nil, err
			}
		case Comma:
			flushWord()
			groups = append(groups, nil)
		case BraceString:
			cur.WriteString("{" + lit + "}")
			curBraced++
			curParts++
		case String, Others, Illegal:
			cur.WriteString(lit)
			curParts++
		}
	}
}

func hasLowerPrefix(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLower(r)
}

func extractAuthor(groups []group) (bibtex.Author, error) {
	for _, g := range groups {
		if len(g) == 0 {
			return bibtex.Author{}, ErrEmptyName
		}
	}
	switch len(groups) {
	case 1:
		if len(groups[0]) == 1 && groups[0][0].text == "others" {
			return bibtex.Author{Last: "others"}, nil
		}
		return resolveAuthor0(groups[0]), nil
	case 2:
		prefix, last := splitVonLast(groups[0])
		return bibtex.Author{First: join(groups[1]), Prefix: prefix, Last: last}, nil
	case 3:
		prefix, last := splitVonLast(groups[0])
		return bibtex.Author{First: join(groups[2]), Prefix: prefix, Last: last, Suffix: join(groups[1])}, nil
	default:
		return bibtex.Author{}, fmt.Errorf("too many commas in name %q", join(groups[0]))
	}
}

func join(ws []word) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.text
	}
	return strings.Join(parts, " ")
}

// resolveAuthor0 resolves an author for a name with no commas, like
// "First von Last". The last word always belongs to the last name.
func resolveAuthor0(ws []word) bibtex.Author {
	idx := 0
	for ; idx < len(ws)-1 && !ws[idx].lower; idx++ {
	}
	first := ws[:idx]
	von := idx
	for ; idx < len(ws)-1 && ws[idx].lower; idx++ {
	}
	return bibtex.Author{
		First:  join(first),
		Prefix: join(ws[von:idx]),
		Last:   join(ws[idx:]),
	}
}

// splitVonLast splits "von Last": leading lowercase words are the prefix; the
// last word always belongs to the last name.
func splitVonLast(ws []word) (prefix, last string) {
	idx := 0
	for ; idx < len(ws)-1 && ws[idx].lower; idx++ {
	}
	return join(ws[:idx]), join(ws[idx:])
}
