package bibtex

import (
	"errors"
	"fmt"
	"strings"
)

// EntryTypePrefix starts the text of a comment block that declares a custom
// entry type.
const EntryTypePrefix = "jabref-entrytype: "

// ErrMalformedEntryType is returned by ParseEntryType for declarations that do
// not follow "Name: req[a;b/c] opt[d;e]".
var ErrMalformedEntryType = errors.New("malformed entry type declaration")

// OrFields is a requirement satisfied by any one of its fields, written
// "a/b" in declarations.
type OrFields []Field

func (o OrFields) String() string { return strings.Join(o, "/") }

// EntryType is the field schema of an entry type.
type EntryType struct {
	Name     string // lower-cased
	Required []OrFields
	Optional []Field
}

// Missing returns the requirements of t that e does not satisfy.
func (t *EntryType) Missing(e *Entry) []OrFields {
	var missing []OrFields
	for _, r := range t.Required {
		ok := false
		for _, f := range r {
			if v, has := e.Field(f); has && v != "" {
				ok = true
				break
			}
		}
		if !ok {
			missing = append(missing, r)
		}
	}
	return missing
}

// String returns t in declaration form, without EntryTypePrefix.
func (t *EntryType) String() string {
	parts := make([]string, len(t.Required))
	for i, r := range t.Required {
		parts[i] = r.String()
	}
	return fmt.Sprintf("%s: req[%s] opt[%s]", t.Name, strings.Join(parts, ";"), strings.Join(t.Optional, ";"))
}

// ParseEntryType parses a custom entry type declaration such as
//
//	jabref-entrytype: Lecturenotes: req[author;title] opt[language;url]
//
// The EntryTypePrefix is optional.
func ParseEntryType(s string) (*EntryType, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), strings.TrimSpace(EntryTypePrefix))
	colon := strings.IndexByte(s, ':')
	if colon <= 0 {
		return nil, fmt.Errorf("%w: missing type name in %q", ErrMalformedEntryType, s)
	}
	name := strings.ToLower(strings.TrimSpace(s[:colon]))
	rest := s[colon+1:]
	reqs, ok := bracketed(rest, "req[")
	if !ok {
		return nil, fmt.Errorf("%w: missing req[...] in %q", ErrMalformedEntryType, s)
	}
	opts, ok := bracketed(rest, "opt[")
	if !ok {
		return nil, fmt.Errorf("%w: missing opt[...] in %q", ErrMalformedEntryType, s)
	}
	t := &EntryType{Name: name}
	for _, r := range splitFields(reqs, ";") {
		t.Required = append(t.Required, OrFields(splitFields(r, "/")))
	}
	t.Optional = splitFields(opts, ";")
	return t, nil
}

func bracketed(s, open string) (string, bool) {
	i := strings.Index(s, open)
	if i < 0 {
		return "", false
	}
	s = s[i+len(open):]
	j := strings.IndexByte(s, ']')
	if j < 0 {
		return "", false
	}
	return s[:j], true
}

func splitFields(s, sep string) []Field {
	var fs []Field
	for _, f := range strings.Split(s, sep) {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			fs = append(fs, f)
		}
	}
	return fs
}

func req(fs ...string) []OrFields {
	rs := make([]OrFields, len(fs))
	for i, f := range fs {
		rs[i] = OrFields(strings.Split(f, "/"))
	}
	return rs
}

var standardTypes = map[string]*EntryType{
	"article": {
		Name:     "article",
		Required: req(FieldAuthor, FieldTitle, FieldJournal, FieldYear),
		Optional: []Field{FieldVolume, FieldNumber, FieldPages, FieldMonth, FieldNote},
	},
	"book": {
		Name:     "book",
		Required: req("author/editor", FieldTitle, FieldPublisher, FieldYear),
		Optional: []Field{FieldVolume, FieldNumber, FieldSeries, FieldAddress, FieldEdition, FieldMonth, FieldNote},
	},
	"booklet": {
		Name:     "booklet",
		Required: req(FieldTitle),
		Optional: []Field{FieldAuthor, FieldHowPub, FieldAddress, FieldMonth, FieldYear, FieldNote},
	},
	"conference": {
		Name:     "conference",
		Required: req(FieldAuthor, FieldTitle, FieldBookTitle, FieldYear),
		Optional: []Field{FieldEditor, FieldVolume, FieldNumber, FieldSeries, FieldPages, FieldAddress, FieldMonth, FieldOrg, FieldPublisher, FieldNote},
	},
	"inbook": {
		Name:     "inbook",
		Required: req("author/editor", FieldTitle, "chapter/pages", FieldPublisher, FieldYear),
		Optional: []Field{FieldVolume, FieldNumber, FieldSeries, FieldType, FieldAddress, FieldEdition, FieldMonth, FieldNote},
	},
	"incollection": {
		Name:     "incollection",
		Required: req(FieldAuthor, FieldTitle, FieldBookTitle, FieldPublisher, FieldYear),
		Optional: []Field{FieldEditor, FieldVolume, FieldNumber, FieldSeries, FieldType, FieldChapter, FieldPages, FieldAddress, FieldEdition, FieldMonth, FieldNote},
	},
	"inproceedings": {
		Name:     "inproceedings",
		Required: req(FieldAuthor, FieldTitle, FieldBookTitle, FieldYear),
		Optional: []Field{FieldEditor, FieldVolume, FieldNumber, FieldSeries, FieldPages, FieldAddress, FieldMonth, FieldOrg, FieldPublisher, FieldNote},
	},
	"manual": {
		Name:     "manual",
		Required: req(FieldTitle),
		Optional: []Field{FieldAuthor, FieldOrg, FieldAddress, FieldEdition, FieldMonth, FieldYear, FieldNote},
	},
	"mastersthesis": {
		Name:     "mastersthesis",
		Required: req(FieldAuthor, FieldTitle, FieldSchool, FieldYear),
		Optional: []Field{FieldType, FieldAddress, FieldMonth, FieldNote},
	},
	"misc": {
		Name:     "misc",
		Optional: []Field{FieldAuthor, FieldTitle, FieldHowPub, FieldMonth, FieldYear, FieldNote},
	},
	"phdthesis": {
		Name:     "phdthesis",
		Required: req(FieldAuthor, FieldTitle, FieldSchool, FieldYear),
		Optional: []Field{FieldType, FieldAddress, FieldMonth, FieldNote},
	},
	"proceedings": {
		Name:     "proceedings",
		Required: req(FieldTitle, FieldYear),
		Optional: []Field{FieldEditor, FieldVolume, FieldNumber, FieldSeries, FieldAddress, FieldMonth, FieldOrg, FieldPublisher, FieldNote},
	},
	"techreport": {
		Name:     "techreport",
		Required: req(FieldAuthor, FieldTitle, FieldInstitute, FieldYear),
		Optional: []Field{FieldType, FieldNumber, FieldAddress, FieldMonth, FieldNote},
	},
	"unpublished": {
		Name:     "unpublished",
		Required: req(FieldAuthor, FieldTitle, FieldNote),
		Optional: []Field{FieldMonth, FieldYear},
	},
}

// StandardType returns the schema of a standard bibtex entry type.
func StandardType(name string) (*EntryType, bool) {
	t, ok := standardTypes[strings.ToLower(name)]
	return t, ok
}

// LookupType returns the schema for name, preferring a custom declaration
// over the standard type of the same name.
func LookupType(name string, custom map[string]*EntryType) (*EntryType, bool) {
	if t, ok := custom[strings.ToLower(name)]; ok {
		return t, true
	}
	return StandardType(name)
}
