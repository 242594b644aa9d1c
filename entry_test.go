package bibtex

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEntry_Fields(t *testing.T) {
	e := NewEntry("Article")
	if e.Type != "article" {
		t.Errorf("Type = %q; want article", e.Type)
	}
	if e.Changed {
		t.Error("new entry is changed")
	}
	e.SetField("Title", "A Title")
	e.SetField(FieldYear, "2020")
	if v, ok := e.Field("TITLE"); !ok || v != "A Title" {
		t.Errorf("Field(TITLE) = %q, %t", v, ok)
	}
	if !e.Changed {
		t.Error("Changed = false after SetField")
	}
	if diff := cmp.Diff([]Field{"title", "year"}, e.FieldNames()); diff != "" {
		t.Errorf("FieldNames() mismatch (-want +got):\n%s", diff)
	}
	e.ClearField("year")
	if _, ok := e.Field("year"); ok {
		t.Error("year still set after ClearField")
	}
}

func TestEntry_AddKeywords(t *testing.T) {
	e := NewEntry("article")
	e.AddKeywords("Test", ',')
	e.AddKeywords("Second Keyword", ',')
	e.AddKeywords("Third Keyword, Test", ',')
	if got := e.Fields[FieldKeywords]; got != "Test, Second Keyword, Third Keyword" {
		t.Errorf("keywords = %q", got)
	}
	if diff := cmp.Diff(KeywordList{"Test", "Second Keyword", "Third Keyword"}, e.Keywords(',')); diff != "" {
		t.Errorf("Keywords() mismatch (-want +got):\n%s", diff)
	}

	e = NewEntry("article")
	e.AddKeywords(" ; ", ';')
	if _, ok := e.Field(FieldKeywords); ok {
		t.Error("empty keywords created a field")
	}
}

func TestKeywordList(t *testing.T) {
	tests := []struct {
		src  string
		sep  rune
		want KeywordList
	}{
		{"a, b,c", ',', KeywordList{"a", "b", "c"}},
		{"a;;b ;", ';', KeywordList{"a", "b"}},
		{"", ',', nil},
		{"single", ',', KeywordList{"single"}},
	}
	for _, tt := range tests {
		got := ParseKeywords(tt.src, tt.sep)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseKeywords(%q) mismatch (-want +got):\n%s", tt.src, diff)
		}
	}
	if got := (KeywordList{"a", "b"}).Join(';'); got != "a; b" {
		t.Errorf("Join() = %q; want %q", got, "a; b")
	}
}

func TestEntry_Clone(t *testing.T) {
	e := NewEntry("book")
	e.Key = "k"
	e.SetField("title", "T")
	c := e.Clone()
	c.SetField("title", "U")
	if e.Fields["title"] != "T" {
		t.Errorf("Clone shares fields: title = %q", e.Fields["title"])
	}
	if c.Key != "k" {
		t.Errorf("Clone Key = %q", c.Key)
	}
}

func TestDatabase_Insert(t *testing.T) {
	db := NewDatabase()
	a := &Entry{Type: "article", Key: "a"}
	b := &Entry{Type: "article", Key: "b"}
	a2 := &Entry{Type: "book", Key: "a"}
	noKey := &Entry{Type: "misc"}
	for _, tt := range []struct {
		e    *Entry
		want bool
	}{{a, false}, {b, false}, {a2, true}, {noKey, false}, {&Entry{Type: "misc"}, false}} {
		if got := db.Insert(tt.e); got != tt.want {
			t.Errorf("Insert(%q) = %t; want %t", tt.e.Key, got, tt.want)
		}
	}
	if len(db.Entries) != 5 {
		t.Errorf("len(Entries) = %d; want 5", len(db.Entries))
	}
	if diff := cmp.Diff([]CiteKey{"a"}, db.DuplicateKeys()); diff != "" {
		t.Errorf("DuplicateKeys() mismatch (-want +got):\n%s", diff)
	}
	if got, ok := db.EntryByKey("a"); !ok || got != a {
		t.Errorf("EntryByKey(a) = %v, %t; want first entry", got, ok)
	}
}

func TestDatabase_AddPreamble(t *testing.T) {
	db := NewDatabase()
	db.AddPreamble(`\newcommand{\a}{A}`)
	db.AddPreamble(`\newcommand{\b}{B}`)
	if want := "\\newcommand{\\a}{A}\n\\newcommand{\\b}{B}"; db.Preamble != want {
		t.Errorf("Preamble = %q; want %q", db.Preamble, want)
	}
}
