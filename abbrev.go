package bibtex

import (
	"bytes"
	"fmt"
	"strings"
)

// An Abbrev is a string definition, @string{name = content}.
type Abbrev struct {
	Name    string
	Content string // may hold #name# references to other abbreviations
	// ParsedSerialization is the definition text exactly as read.
	ParsedSerialization string
}

// An AbbrevTable maintains the string definitions of a database. Names are
// case-insensitive. The zero value is not usable; use NewAbbrevTable.
type AbbrevTable struct {
	objects map[string]*Abbrev
	order   []string
}

// NewAbbrevTable creates an empty table.
func NewAbbrevTable() *AbbrevTable {
	const n = 8 // initial capacity
	return &AbbrevTable{objects: make(map[string]*Abbrev, n)}
}

// Lookup returns the abbreviation with the given name, or nil.
func (t *AbbrevTable) Lookup(name string) *Abbrev {
	return t.objects[strings.ToLower(name)]
}

// Insert attempts to insert a into the table. If the table already contains
// an abbreviation alt with the same name, Insert leaves the table unchanged
// and returns alt. Otherwise it inserts a and returns nil.
func (t *AbbrevTable) Insert(a *Abbrev) (alt *Abbrev) {
	name := strings.ToLower(a.Name)
	if alt = t.objects[name]; alt == nil {
		t.objects[name] = a
		t.order = append(t.order, name)
	}
	return
}

// Len returns the number of abbreviations.
func (t *AbbrevTable) Len() int { return len(t.objects) }

// All returns the abbreviations in insertion order.
func (t *AbbrevTable) All() []*Abbrev {
	as := make([]*Abbrev, 0, len(t.order))
	for _, name := range t.order {
		as = append(as, t.objects[name])
	}
	return as
}

// Debugging support
func (t *AbbrevTable) String() string {
	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "abbrevs %p {", t)
	if t != nil && len(t.order) > 0 {
		_, _ = fmt.Fprintln(&buf)
		for _, name := range t.order {
			_, _ = fmt.Fprintf(&buf, "\t%s = %q\n", t.objects[name].Name, t.objects[name].Content)
		}
	}
	_, _ = fmt.Fprintf(&buf, "}\n")
	return buf.String()
}
