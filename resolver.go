package bibtex

import (
	"fmt"
	"strings"
)

// Resolver is an in-place mutation of an Entry, typically simplifying field
// content for consumers that do not care about the bibtex source form.
type Resolver interface {
	Resolve(e *Entry) error
}

type ResolverFunc func(e *Entry) error

func (r ResolverFunc) Resolve(e *Entry) error {
	return r(e)
}

// ResolveAll applies the resolvers in order to every entry of db.
func ResolveAll(db *Database, rs ...Resolver) error {
	for _, e := range db.Entries {
		for _, r := range rs {
			if err := r.Resolve(e); err != nil {
				return fmt.Errorf("resolve entry %q: %w", e.Key, err)
			}
		}
	}
	return nil
}

var months = map[string]string{
	"jan": "January",
	"feb": "February",
	"mar": "March",
	"apr": "April",
	"may": "May",
	"jun": "June",
	"jul": "July",
	"aug": "August",
	"sep": "September",
	"oct": "October",
	"nov": "November",
	"dec": "December",
}

// resolveAbbrevs replaces each #name# in s by the content of the abbreviation
// name, resolved recursively. used holds the names being resolved further up
// the stack; a reference back to one of them resolves to its bare name.
func resolveAbbrevs(t *AbbrevTable, s string, used map[string]bool) string {
	if !strings.Contains(s, "#") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	piv := 0
	for piv < len(s) {
		open := strings.IndexByte(s[piv:], '#')
		if open < 0 {
			break
		}
		open += piv
		end := strings.IndexByte(s[open+1:], '#')
		if end < 0 {
			break
		}
		end += open + 1
		sb.WriteString(s[piv:open])
		name := s[open+1 : end]
		if resolved, ok := resolveAbbrev(t, name, used); ok {
			sb.WriteString(resolved)
		} else {
			sb.WriteString(s[open : end+1])
		}
		piv = end + 1
	}
	if piv < len(s) {
		sb.WriteString(s[piv:])
	}
	return sb.String()
}

func resolveAbbrev(t *AbbrevTable, name string, used map[string]bool) (string, bool) {
	key := strings.ToLower(name)
	if a := t.Lookup(name); a != nil {
		if used[key] {
			return name, true
		}
		used[key] = true
		defer delete(used, key)
		return resolveAbbrevs(t, a.Content, used), true
	}
	if m, ok := months[key]; ok {
		return m, true
	}
	return "", false
}

// AbbrevResolver replaces abbreviation references in all fields of an entry
// by their content.
type AbbrevResolver struct {
	db *Database
}

func NewAbbrevResolver(db *Database) AbbrevResolver {
	return AbbrevResolver{db: db}
}

func (a AbbrevResolver) Resolve(e *Entry) error {
	for f, v := range e.Fields {
		if r := a.db.Resolve(v); r != v {
			e.SetField(f, r)
		}
	}
	return nil
}

// ResolveAbbrevs replaces the abbreviation references in every entry of db.
func ResolveAbbrevs(db *Database) error {
	return ResolveAll(db, NewAbbrevResolver(db))
}

var escapes = strings.NewReplacer(
	`\&`, "&",
	`\%`, "%",
	`\$`, "$",
	`\#`, "#",
	`\_`, "_",
	`\{`, "{",
	`\}`, "}",
)

// SimplifyEscapedTextResolver replaces escaped special characters with the
// character itself. Meaning, `\&` is converted to `&`.
func SimplifyEscapedTextResolver(e *Entry) error {
	for f, v := range e.Fields {
		if r := escapes.Replace(v); r != v {
			e.SetField(f, r)
		}
	}
	return nil
}

// TrimBracesResolver removes one pair of braces enclosing a whole field
// value, as in title = {{Case Preserved}}.
func TrimBracesResolver(e *Entry) error {
	for f, v := range e.Fields {
		if r, ok := trimOuterBraces(v); ok {
			e.SetField(f, r)
		}
	}
	return nil
}

func trimOuterBraces(s string) (string, bool) {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return s, false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 && i < len(s)-1 {
				// {a} and {b}: the first brace closes early.
				return s, false
			}
		}
	}
	if depth != 0 {
		return s, false
	}
	return s[1 : len(s)-1], true
}
