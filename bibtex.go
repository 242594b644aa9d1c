// Package bibtex holds the data model of a parsed bibtex database: entries,
// string abbreviations, entry type schemas and the resolution of abbreviation
// references in field values.
package bibtex

import "strings"

type CiteKey = string

type Field = string

const (
	FieldAddress   Field = "address"
	FieldAuthor    Field = "author"
	FieldBookTitle Field = "booktitle"
	FieldChapter   Field = "chapter"
	FieldCrossref  Field = "crossref"
	FieldDate      Field = "date"
	FieldDOI       Field = "doi"
	FieldEdition   Field = "edition"
	FieldEditor    Field = "editor"
	FieldHowPub    Field = "howpublished"
	FieldInstitute Field = "institution"
	FieldJournal   Field = "journal"
	FieldKeywords  Field = "keywords"
	FieldMonth     Field = "month"
	FieldNote      Field = "note"
	FieldNumber    Field = "number"
	FieldOrg       Field = "organization"
	FieldPages     Field = "pages"
	FieldPublisher Field = "publisher"
	FieldSchool    Field = "school"
	FieldSeries    Field = "series"
	FieldTitle     Field = "title"
	FieldType      Field = "type"
	FieldURL       Field = "url"
	FieldVolume    Field = "volume"
	FieldYear      Field = "year"
)

// personNameFields hold lists of person names joined with "and". Repeated
// occurrences of such a field in one entry are concatenated.
var personNameFields = map[Field]struct{}{
	FieldAuthor:    {},
	FieldEditor:    {},
	"editora":      {},
	"editorb":      {},
	"editorc":      {},
	"translator":   {},
	"annotator":    {},
	"commentator":  {},
	"introduction": {},
	"foreword":     {},
	"afterword":    {},
	"bookauthor":   {},
	"holder":       {},
	"shortauthor":  {},
	"shorteditor":  {},
	"sortname":     {},
}

// IsPersonNameField reports whether f holds an "and" separated list of names.
func IsPersonNameField(f Field) bool {
	_, ok := personNameFields[strings.ToLower(f)]
	return ok
}

// PersonNameFields returns the names of all person name fields.
func PersonNameFields() []Field {
	fs := make([]Field, 0, len(personNameFields))
	for f := range personNameFields {
		fs = append(fs, f)
	}
	return fs
}

// Author represents a person who contributed to an entry.
//
// Bibtex recognizes three structures for authors:
// 1. First von Last - no commas
// 2. First Last - no commas and no lowercase strings
// 3. von Last, First - single comma
// 4. von Last, Jr ,First - two commas
//
// Other parsing libraries:
// - https://metacpan.org/pod/distribution/Text-BibTeX/btparse/doc/bt_split_names.pod
// - https://nzhagen.github.io/bibulous/developer_guide.html#name-formatting
type Author struct {
	First  string // aka given name
	Prefix string // often called the 'von' part
	Last   string // aka family name
	Suffix string // often called the 'jr' part
}

// IsOthers reports whether a is the "others" placeholder of a truncated
// name list.
func (a Author) IsOthers() bool {
	return a == Author{Last: "others"}
}

func (a Author) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.First, a.Prefix, a.Last} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	s := strings.Join(parts, " ")
	if a.Suffix != "" {
		s += ", " + a.Suffix
	}
	return s
}
