package bibtex

import (
	"slices"
	"strings"
)

// Entry is a single bibliographic record such as @article{key, ...}.
type Entry struct {
	Type   string // lower-cased entry type name, like "article"
	Key    CiteKey
	Fields map[Field]string // lower-cased field names to raw content

	// CommentsBefore is the text between the previous block and this entry.
	CommentsBefore string
	// ParsedSerialization is CommentsBefore followed by the entry text up to
	// and including its closing delimiter, exactly as read.
	ParsedSerialization string

	// Declared is the schema from a custom entry type declaration in the same
	// database, or nil.
	Declared *EntryType

	// Changed is set by the mutating methods. A writer re-emits
	// ParsedSerialization for unchanged entries. Callers that mutate Fields
	// directly must set it themselves.
	Changed bool
}

// NewEntry returns an entry of the given type with no fields.
func NewEntry(typ string) *Entry {
	return &Entry{
		Type:   strings.ToLower(typ),
		Fields: make(map[Field]string, 8),
	}
}

// Field returns the content of field f.
func (e *Entry) Field(f Field) (string, bool) {
	v, ok := e.Fields[strings.ToLower(f)]
	return v, ok
}

// SetField sets field f to content.
func (e *Entry) SetField(f Field, content string) {
	if e.Fields == nil {
		e.Fields = make(map[Field]string, 8)
	}
	e.Fields[strings.ToLower(f)] = content
	e.Changed = true
}

// ClearField removes field f.
func (e *Entry) ClearField(f Field) {
	f = strings.ToLower(f)
	if _, ok := e.Fields[f]; ok {
		delete(e.Fields, f)
		e.Changed = true
	}
}

// SetKey sets the citation key.
func (e *Entry) SetKey(key CiteKey) {
	e.Key = key
	e.Changed = true
}

// HasKey reports whether the entry has a non-empty citation key.
func (e *Entry) HasKey() bool { return e.Key != "" }

// FieldNames returns the field names in sorted order.
func (e *Entry) FieldNames() []Field {
	names := make([]Field, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// AddKeywords merges the sep-separated keywords in content into the keywords
// field, skipping keywords that are already present.
func (e *Entry) AddKeywords(content string, sep rune) {
	existing := ParseKeywords(e.Fields[FieldKeywords], sep)
	merged := existing.Add(ParseKeywords(content, sep)...)
	if len(merged) == 0 {
		return
	}
	e.SetField(FieldKeywords, merged.Join(sep))
}

// Keywords returns the keywords field split on sep.
func (e *Entry) Keywords(sep rune) KeywordList {
	return ParseKeywords(e.Fields[FieldKeywords], sep)
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Fields = make(map[Field]string, len(e.Fields))
	for k, v := range e.Fields {
		c.Fields[k] = v
	}
	return &c
}
