package namelist

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	bibtex "github.com/jschaf/bibparse"
)

// newAuthor creates a new author using the number of strings to infer
// the name structure as follows:
//
//	1 strings: Last
//	2 strings: First, Last
//	3 strings: First, Prefix, Last
//	4 strings: First, Prefix, Last, Suffix
func newAuthor(names ...string) bibtex.Author {
	switch len(names) {
	case 0:
		panic("need at least 1 name")
	case 1:
		return bibtex.Author{Last: names[0]}
	case 2:
		return bibtex.Author{First: names[0], Last: names[1]}
	case 3:
		return bibtex.Author{First: names[0], Prefix: names[1], Last: names[2]}
	case 4:
		return bibtex.Author{First: names[0], Prefix: names[1], Last: names[2], Suffix: names[3]}
	default:
		panic("too many names")
	}
}

func newAuthors(as ...bibtex.Author) []bibtex.Author { return as }

func TestParseAuthors_single(t *testing.T) {
	tests := []struct {
		authors string
		want    bibtex.Author
	}{
		{"Last", newAuthor("Last")},
		{"First Last", newAuthor("First", "Last")},
		{"First last", newAuthor("First", "last")},
		{"last", newAuthor("last")},
		{"First von Last", newAuthor("First", "von", "Last")},
		{"von Beethoven, Ludwig", newAuthor("Ludwig", "von", "Beethoven")},
		{"{von Beethoven}, Ludwig", newAuthor("Ludwig", "von Beethoven")},
		{"Jean-Paul Sartre", newAuthor("Jean-Paul", "Sartre")},
		{"Fran{\\c{c}}oise Chollet", newAuthor("Fran{\\c{c}}oise", "Chollet")},
		{"{Barnes and Noble}", newAuthor("Barnes and Noble")},
		{"King, Jr., Martin Luther", newAuthor("Martin Luther", "", "King", "Jr.")},
		{"  Knuth,  Donald E. ", newAuthor("Donald E.", "Knuth")},
		{
			"Charles Louis Xavier Joseph de la Vallee Poussin",
			newAuthor("Charles Louis Xavier Joseph", "de la", "Vallee Poussin"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.authors, func(t *testing.T) {
			got, err := ParseAuthors(tt.authors)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(newAuthors(tt.want), got); diff != "" {
				t.Errorf("ParseAuthors() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseAuthors_multiple(t *testing.T) {
	tests := []struct {
		authors string
		want    []bibtex.Author
		wantErr error
	}{
		{"Last and Last2", newAuthors(newAuthor("Last"), newAuthor("Last2")), nil},
		{"Last3 and and Last4", nil, ErrEmptyName},
		{"F1 L1 and F2 L2", newAuthors(newAuthor("F1", "L1"), newAuthor("F2", "L2")), nil},
		{"F1 L1 and L2, F2", newAuthors(newAuthor("F1", "L1"), newAuthor("F2", "L2")), nil},
		{"F1 L1 AND others", newAuthors(newAuthor("F1", "L1"), newAuthor("others")), nil},
	}
	for _, tt := range tests {
		t.Run(tt.authors, func(t *testing.T) {
			got, err := ParseAuthors(tt.authors)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseAuthors() error = %v; want %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseAuthors() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseAuthors_tooManyCommas(t *testing.T) {
	if _, err := ParseAuthors("a, b, c, d"); err == nil {
		t.Error("ParseAuthors() error = nil for three commas")
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		list string
		want []string
	}{
		{"", []string{}},
		{"Ed von Test", []string{"Ed von Test"}},
		{
			"Ed von Test and Second Author and Third Author",
			[]string{"Ed von Test", "Second Author", "Third Author"},
		},
		{"{Barnes and Noble} and Smith, J.", []string{"{Barnes and Noble}", "Smith, J."}},
		{"A\nand\tB", []string{"A", "B"}},
		{"Alexander and Sandra", []string{"Alexander", "Sandra"}},
		{"A and and B", []string{"A", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.list, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Split(tt.list)); diff != "" {
				t.Errorf("Split() mismatch (-want +got):\n%s", diff)
			}
		})
	}
	if got := Join([]string{"A", "B"}); got != "A and B" {
		t.Errorf("Join() = %q", got)
	}
}
