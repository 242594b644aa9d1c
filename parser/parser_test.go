package parser

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	bibtex "github.com/jschaf/bibparse"
	"github.com/jschaf/bibparse/scanner"
)

func parse(t *testing.T, src string) *Result {
	t.Helper()
	res, err := ParseString(src)
	if err != nil {
		t.Fatalf("ParseString(%q): %v", src, err)
	}
	return res
}

func parseOpts(t *testing.T, opts Options, src string) *Result {
	t.Helper()
	res, err := New(opts).Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return res
}

func warningStrings(res *Result) []string {
	var ws []string
	for _, w := range res.Warnings {
		ws = append(ws, w.String())
	}
	return ws
}

// entrySummary is the structural part of an entry, without raw text.
type entrySummary struct {
	Type   string
	Key    string
	Fields map[string]string
}

func summarize(es []*bibtex.Entry) []entrySummary {
	var ss []entrySummary
	for _, e := range es {
		ss = append(ss, entrySummary{e.Type, e.Key, e.Fields})
	}
	return ss
}

func entry(typ, key string, kvs ...string) entrySummary {
	if len(kvs)%2 != 0 {
		panic("entry: odd number of field arguments")
	}
	fs := make(map[string]string, len(kvs)/2)
	for i := 0; i < len(kvs); i += 2 {
		fs[kvs[i]] = kvs[i+1]
	}
	return entrySummary{typ, key, fs}
}

func TestParse_Entries(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []entrySummary
	}{
		{
			"simple",
			"@article{test,author={Ed von Test}}",
			[]entrySummary{entry("article", "test", "author", "Ed von Test")},
		},
		{
			"type and field names fold case",
			"@ARTICLE{test,TITLE = {T}}",
			[]entrySummary{entry("article", "test", "title", "T")},
		},
		{
			"parentheses",
			"@article(test, title = {Parens})",
			[]entrySummary{entry("article", "test", "title", "Parens")},
		},
		{
			"trailing comma",
			"@article{test,author = {A},}",
			[]entrySummary{entry("article", "test", "author", "A")},
		},
		{
			"empty value ignored",
			"@article{test,title = {}, note = {N}}",
			[]entrySummary{entry("article", "test", "note", "N")},
		},
		{
			"multiple author fields",
			"@article{test,author={Ed von Test},author={Second Author},author={Third Author}}",
			[]entrySummary{entry("article", "test", "author", "Ed von Test and Second Author and Third Author")},
		},
		{
			"multiple editor fields",
			"@article{test,editor={Ed von Test},editor={Second Author},editor={Third Author}}",
			[]entrySummary{entry("article", "test", "editor", "Ed von Test and Second Author and Third Author")},
		},
		{
			"multiple keywords fields",
			"@article{test,Keywords={Test},Keywords={Second Keyword},Keywords={Third Keyword}}",
			[]entrySummary{entry("article", "test", "keywords", "Test, Second Keyword, Third Keyword")},
		},
		{
			"keywords merge skips duplicates",
			"@article{test,keywords={a, b},keywords={b, c}}",
			[]entrySummary{entry("article", "test", "keywords", "a, b, c")},
		},
		{
			"repeated plain field keeps first",
			"@article{test,title={First},title={Second}}",
			[]entrySummary{entry("article", "test", "title", "First")},
		},
		{
			"concatenation with month",
			"@article{test,date = {1-4~} # nov}",
			[]entrySummary{entry("article", "test", "date", "1-4~#nov#")},
		},
		{
			"bare abbreviation",
			"@article{test,Author = bourdieu}",
			[]entrySummary{entry("article", "test", "author", "#bourdieu#")},
		},
		{
			"bare number",
			"@book{test, Isbn = 2707318256, Year = 2002}",
			[]entrySummary{entry("book", "test", "isbn", "2707318256", "year", "2002")},
		},
		{
			"unmatched content without comma",
			"@article{test,author={author bracket } too much}",
			[]entrySummary{entry("article", "test", "author", "author bracket #too##much#")},
		},
		{
			"braced value containing comma",
			"@article{test,author={Ed von Test},month={8,}},",
			[]entrySummary{entry("article", "test", "author", "Ed von Test", "month", "8,")},
		},
		{
			"accents",
			"@article{test,author = {H'{e}lne Fiaux}}",
			[]entrySummary{entry("article", "test", "author", "H'{e}lne Fiaux")},
		},
		{
			"at symbol in braces",
			"@article{test,author={author @ good}}",
			[]entrySummary{entry("article", "test", "author", "author @ good")},
		},
		{
			"quoted with braced quote",
			`@article{test,title = "A {"}Quoted{"} Title"}`,
			[]entrySummary{entry("article", "test", "title", `A {"}Quoted{"} Title`)},
		},
		{
			"quoted and braced concatenation",
			`@article{test,author = "Ed" # { von Test}}`,
			[]entrySummary{entry("article", "test", "author", "Ed von Test")},
		},
		{
			"windows path ending in backslash",
			"@article{test,file = {C:\\bcde\\},\n}",
			[]entrySummary{entry("article", "test", "file", `C:\bcde\`)},
		},
		{
			"multiple entries on one line",
			"@article{a,title={A}}@book{b,title={B}}",
			[]entrySummary{entry("article", "a", "title", "A"), entry("book", "b", "title", "B")},
		},
		{
			"unknown type",
			"@ReallyUnknownType{test,\n Comment = {testentry}\n}",
			[]entrySummary{entry("reallyunknowntype", "test", "comment", "testentry")},
		},
		{
			"missing key",
			"@article{,title={T}}",
			[]entrySummary{entry("article", "", "title", "T")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parse(t, tt.src)
			if diff := cmp.Diff(tt.want, summarize(res.Database.Entries)); diff != "" {
				t.Errorf("entries mismatch (-want +got):\n%s", diff)
			}
			if res.HasWarnings() {
				t.Errorf("unexpected warnings: %v", warningStrings(res))
			}
		})
	}
}

func TestParse_QuotedEqualsBraced(t *testing.T) {
	quoted := parse(t, `@article{k, title = "Some {T}itle"}`)
	braced := parse(t, `@article{k, title = {Some {T}itle}}`)
	if diff := cmp.Diff(summarize(braced.Database.Entries), summarize(quoted.Database.Entries)); diff != "" {
		t.Errorf("quoted and braced mismatch (-braced +quoted):\n%s", diff)
	}
}

func TestParse_RawText(t *testing.T) {
	first := "@article{canh05,  author = {Crowston, K. and Annabi, H.},\n  title = {Title A}}"
	second := "@inProceedings{foo,  author={Norton Bar}}"
	res := parse(t, first+"\n"+second)
	es := res.Database.Entries
	if len(es) != 2 {
		t.Fatalf("got %d entries; want 2", len(es))
	}
	if es[0].ParsedSerialization != first {
		t.Errorf("first ParsedSerialization = %q; want %q", es[0].ParsedSerialization, first)
	}
	if es[1].ParsedSerialization != second {
		t.Errorf("second ParsedSerialization = %q; want %q", es[1].ParsedSerialization, second)
	}
	for _, e := range es {
		if e.Changed {
			t.Errorf("entry %s: Changed = true after parsing", e.Key)
		}
	}
}

func TestParse_CommentsBefore(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		comments []string
		raw      []string
	}{
		{
			"leading comment",
			"% some comment\n@article{test,author={Ed von Test}}",
			[]string{"% some comment\n"},
			[]string{"% some comment\n@article{test,author={Ed von Test}}"},
		},
		{
			"blank line stripped once",
			"@article{a,title={A}}\n\n% c\n@article{b,title={B}}",
			[]string{"", "% c\n"},
			[]string{"@article{a,title={A}}", "\n% c\n@article{b,title={B}}"},
		},
		{
			"unbracketed comment is text",
			"@comment some text\n@article{k, title={T}}",
			[]string{"@comment some text\n"},
			[]string{"@comment some text\n@article{k, title={T}}"},
		},
		{
			"inert comment is text",
			"@comment{plain}\n@article{k, title={T}}",
			[]string{"@comment{plain}\n"},
			[]string{"@comment{plain}\n@article{k, title={T}}"},
		},
		{
			"encoding header purged",
			"% Encoding: UTF-8\n\n@Article{a}",
			[]string{""},
			[]string{"\n@Article{a}"},
		},
		{
			"database id header purged",
			"\\% Encoding: UTF-8\n\\% DBID: q1w2e3r4t5z6\n@Article{a}",
			[]string{""},
			[]string{"@Article{a}"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parse(t, tt.src)
			var comments, raw []string
			for _, e := range res.Database.Entries {
				comments = append(comments, e.CommentsBefore)
				raw = append(raw, e.ParsedSerialization)
			}
			if diff := cmp.Diff(tt.comments, comments); diff != "" {
				t.Errorf("CommentsBefore mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.raw, raw); diff != "" {
				t.Errorf("ParsedSerialization mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Preamble(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"@preamble{some text and \\latex}", "some text and \\latex"},
		{"@PREAMBLE{some text and \\latex}", "some text and \\latex"},
		{"@preamble {some text and \\latex}", "some text and \\latex"},
		{"@preamble(some text and \\latex)", "some text and \\latex"},
		{"@preamble{\"some text\" # \"and \\latex\"}", "\"some text\" # \"and \\latex\""},
		{"@preamble{a}\n@preamble{b}", "a\nb"},
		{"@preamble{a\tb}", "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			res := parse(t, tt.src)
			if got := res.Database.Preamble; got != tt.want {
				t.Errorf("Preamble = %q; want %q", got, tt.want)
			}
			if res.Database.Epilog != "" {
				t.Errorf("Epilog = %q; want empty", res.Database.Epilog)
			}
		})
	}
}

func TestParse_PreambleAndEntryWithoutNewline(t *testing.T) {
	res := parse(t, "@preamble{some text and \\latex}@article{test,author = {H'{e}lne Fiaux}}")
	if res.HasWarnings() {
		t.Errorf("unexpected warnings: %v", warningStrings(res))
	}
	if got, want := res.Database.Preamble, "some text and \\latex"; got != want {
		t.Errorf("Preamble = %q; want %q", got, want)
	}
	want := []entrySummary{entry("article", "test", "author", "H'{e}lne Fiaux")}
	if diff := cmp.Diff(want, summarize(res.Database.Entries)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Strings(t *testing.T) {
	res := parse(t, "@string{bourdieu = {Bourdieu, Pierre}}"+
		"@book{bourdieu-2002-questions-sociologie, Address = {Paris}, Author = bourdieu, Year = 2002}")
	db := res.Database
	if db.Abbrevs.Len() != 1 {
		t.Fatalf("got %d strings; want 1", db.Abbrevs.Len())
	}
	a := db.Abbrevs.Lookup("bourdieu")
	if a == nil || a.Content != "Bourdieu, Pierre" {
		t.Fatalf("Lookup(bourdieu) = %+v", a)
	}
	if a.ParsedSerialization != "@string{bourdieu = {Bourdieu, Pierre}}" {
		t.Errorf("ParsedSerialization = %q", a.ParsedSerialization)
	}
	e := db.ResolveEntry(db.Entries[0])
	if got := e.Fields["author"]; got != "Bourdieu, Pierre" {
		t.Errorf("resolved author = %q", got)
	}
}

func TestParse_StringVariants(t *testing.T) {
	tests := []struct {
		src  string
		name string
		want string
	}{
		{`@string{bourdieu = "Bourdieu, Pierre"}`, "bourdieu", "Bourdieu, Pierre"},
		{`@string(ieee = "IEEE")`, "ieee", "IEEE"},
		{`@STRING{ x = {a} # "b" }`, "x", "ab"},
		{`@string{ref = other}`, "ref", "#other#"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			res := parse(t, tt.src)
			a := res.Database.Abbrevs.Lookup(tt.name)
			if a == nil {
				t.Fatalf("Lookup(%q) = nil", tt.name)
			}
			if a.Content != tt.want {
				t.Errorf("Content = %q; want %q", a.Content, tt.want)
			}
		})
	}
}

func TestParse_MacroResolution(t *testing.T) {
	res := parse(t, "@string{ieee = {IEEE}}\n@article{k, publisher = ieee # \" Press\", month = may}")
	db := res.Database
	e := db.ResolveEntry(db.Entries[0])
	if got := e.Fields["publisher"]; got != "IEEE Press" {
		t.Errorf("publisher = %q; want %q", got, "IEEE Press")
	}
	if got := e.Fields["month"]; got != "May" {
		t.Errorf("month = %q; want %q", got, "May")
	}
	if got := db.Entries[0].Fields["publisher"]; got != "#ieee# Press" {
		t.Errorf("unresolved publisher = %q", got)
	}
}

func TestParse_DuplicateString(t *testing.T) {
	res := parse(t, "@string{a = {x}}\n@string{A = {y}}")
	want := []string{"line 2: duplicate string name: A"}
	if diff := cmp.Diff(want, warningStrings(res)); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
	a := res.Database.Abbrevs.Lookup("a")
	if a == nil || a.Content != "x" {
		t.Errorf("Lookup(a) = %+v; want the first definition", a)
	}
	if a != nil && a.ParsedSerialization != "@string{a = {x}}\n" {
		t.Errorf("ParsedSerialization = %q", a.ParsedSerialization)
	}
}

func TestParse_MalformedString(t *testing.T) {
	res := parse(t, "@string{a {x}}\n@article{k, title = {T}}")
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %v; want 1", warningStrings(res))
	}
	if msg := res.Warnings[0].Msg; !strings.HasPrefix(msg, "error occurred when parsing string: ") {
		t.Errorf("warning = %q", msg)
	}
	if res.Database.Abbrevs.Len() != 0 {
		t.Errorf("got %d strings; want 0", res.Database.Abbrevs.Len())
	}
	want := []entrySummary{entry("article", "k", "title", "T")}
	if diff := cmp.Diff(want, summarize(res.Database.Entries)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_KeyRecovery(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		want     []entrySummary
		warnings []string
	}{
		{
			"whitespace in key",
			"@article{my key,author={A}}",
			[]entrySummary{entry("article", "mykey", "author", "A")},
			[]string{"line 1: found corrupted citation key (contains whitespace)"},
		},
		{
			"comma missing before field",
			"@article{keyNoComma\n  title = {X}}",
			[]entrySummary{entry("article", "keyNoComma", "title", "X")},
			[]string{"line 2: found corrupted citation key"},
		},
		{
			"comma missing at line end",
			"@article{key \nauthor = {A}}",
			[]entrySummary{entry("article", "key", "author", "A")},
			[]string{"line 1: found corrupted citation key (comma missing)"},
		},
		{
			"field on same line",
			"@article{key title = {X}}",
			[]entrySummary{entry("article", "key", "title", "X")},
			[]string{"line 1: found corrupted citation key"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parse(t, tt.src)
			if diff := cmp.Diff(tt.want, summarize(res.Database.Entries)); diff != "" {
				t.Errorf("entries mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.warnings, warningStrings(res)); diff != "" {
				t.Errorf("warnings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Lookahead(t *testing.T) {
	opts := DefaultOptions()
	opts.Lookahead = 3
	res := parseOpts(t, opts, "@article{a bcdefgh = {X}}")
	want := []entrySummary{entry("article", "a", "bcdefgh", "X")}
	if diff := cmp.Diff(want, summarize(res.Database.Entries)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if res.HasWarnings() {
		t.Errorf("unexpected warnings: %v", warningStrings(res))
	}
}

func TestParse_LookaheadCappedAtPushback(t *testing.T) {
	res, err := New(Options{Lookahead: 100, PushbackSize: 8}).Parse(strings.NewReader("@article{my key is far too long}"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(res.Database.Entries) != 0 {
		t.Errorf("entries = %v; want none", summarize(res.Database.Entries))
	}
	want := []string{"line 1: error occurred when parsing entry: 'expected '=' but received 'i''. Skipped entry."}
	if diff := cmp.Diff(want, warningStrings(res)); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_SkippedEntries(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		want     []entrySummary
		warnings []string
	}{
		{
			"double equals",
			"@article{a, title == {X}}\n@article{b, title = {Y}}",
			[]entrySummary{entry("article", "b", "title", "Y")},
			[]string{"line 1: error occurred when parsing entry: " +
				"'empty text token; possibly a missing comma between two fields'. Skipped entry."},
		},
		{
			"unmatched content after comma",
			"@article{test,author={author bracket }, too much}",
			nil,
			[]string{"line 1: error occurred when parsing entry: " +
				"'expected '=' but received 'm''. Skipped entry."},
		},
		{
			"unterminated value",
			"@article{a, title = {X",
			nil,
			[]string{"line 1: error occurred when parsing entry: 'EOF in mid-string'. Skipped entry."},
		},
		{
			"trailing comma before next entry",
			"@article{a, title = {X},\n@article{b, title = {Y}}\n",
			[]entrySummary{entry("article", "b", "title", "Y")},
			[]string{"line 2: error occurred when parsing entry: " +
				"'expected '=' but received '@''. Skipped entry."},
		},
		{
			"missing close before next entry",
			"@article{a, title = {X}\n@misc{b, note = {Y}}\n",
			[]entrySummary{entry("misc", "b", "note", "Y")},
			[]string{"line 2: error occurred when parsing entry: " +
				"'empty text token; possibly a missing comma between two fields'. Skipped entry."},
		},
		{
			"missing open before next entry",
			"@article\n@misc{b, note = {Y}}\n",
			[]entrySummary{entry("misc", "b", "note", "Y")},
			[]string{"line 2: error occurred when parsing entry: " +
				"'expected '{' or '(' but received '@''. Skipped entry."},
		},
		{
			"unterminated brace swallows next entry",
			"@article{a, title = {X\n\n@article{b, title = {Y}}\n",
			nil,
			[]string{"line 4: error occurred when parsing entry: 'EOF in mid-string'. Skipped entry."},
		},
		{
			"illegal key character",
			"@article{a#b, title={T}}\n@book{c}",
			[]entrySummary{entry("book", "c")},
			[]string{"line 1: error occurred when parsing entry: " +
				"'character '#' is not allowed in citation keys'. Skipped entry."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parse(t, tt.src)
			if diff := cmp.Diff(tt.want, summarize(res.Database.Entries)); diff != "" {
				t.Errorf("entries mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.warnings, warningStrings(res)); diff != "" {
				t.Errorf("warnings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Comments(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		res := parse(t, "@article{test,author={Ed von Test}}@comment{some text and \\latex}")
		if got, want := res.Database.Epilog, "@comment{some text and \\latex}"; got != want {
			t.Errorf("Epilog = %q; want %q", got, want)
		}
		if res.HasWarnings() {
			t.Errorf("unexpected warnings: %v", warningStrings(res))
		}
	})

	t.Run("meta", func(t *testing.T) {
		res := parse(t, "@comment{jabref-meta: databaseType:biblatex;}\n"+
			"@Comment{jabref-meta: saveActions:enabled;\nmonth[normalize_month]\n;}")
		want := map[string]string{
			"databaseType": "biblatex;",
			"saveActions":  "enabled;month[normalize_month];",
		}
		if diff := cmp.Diff(want, res.Meta); diff != "" {
			t.Errorf("Meta mismatch (-want +got):\n%s", diff)
		}
		if res.Database.Epilog != "" {
			t.Errorf("Epilog = %q; want empty", res.Database.Epilog)
		}
	})

	t.Run("entry type", func(t *testing.T) {
		res := parse(t, "@comment{jabref-entrytype: Lecturenotes: req[author;title] opt[language;url]}\n"+
			"@Lecturenotes{n, author = {A}}")
		want := &bibtex.EntryType{
			Name:     "lecturenotes",
			Required: []bibtex.OrFields{{"author"}, {"title"}},
			Optional: []bibtex.Field{"language", "url"},
		}
		got := res.EntryTypes["lecturenotes"]
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("EntryTypes mismatch (-want +got):\n%s", diff)
		}
		if e := res.Database.Entries[0]; e.Declared != got {
			t.Errorf("Declared = %v; want %v", e.Declared, got)
		}
	})

	t.Run("ill-formed entry type", func(t *testing.T) {
		res := parse(t, "@comment{jabref-entrytype: broken}")
		want := []string{"line 1: ill-formed entrytype comment: jabref-entrytype: broken"}
		if diff := cmp.Diff(want, warningStrings(res)); diff != "" {
			t.Errorf("warnings mismatch (-want +got):\n%s", diff)
		}
		if len(res.EntryTypes) != 0 {
			t.Errorf("EntryTypes = %v; want none", res.EntryTypes)
		}
	})
}

func TestParse_DatabaseID(t *testing.T) {
	res := parse(t, "\\% DBID: q1w2e3r4t5z6\n@Article{a}")
	if got, want := res.Database.SharedID, "q1w2e3r4t5z6"; got != want {
		t.Errorf("SharedID = %q; want %q", got, want)
	}
	if len(res.Database.Entries) != 1 {
		t.Errorf("got %d entries; want 1", len(res.Database.Entries))
	}
}

func TestParse_NewLine(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"@InProceedings{6055279,\r\n  Title = {Educational session 1},\r\n  Year = {2011}\r\n}\r\n", "\r\n"},
		{"@article{a,\n title = {T}\n}\n", "\n"},
		{"@article{a}", "\n"},
	}
	for _, tt := range tests {
		res := parse(t, tt.src)
		if got := res.Database.NewLine; got != tt.want {
			t.Errorf("NewLine for %q = %q; want %q", tt.src, got, tt.want)
		}
		if res.HasWarnings() {
			t.Errorf("unexpected warnings for %q: %v", tt.src, warningStrings(res))
		}
	}
}

func TestParse_Epilog(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		epilog   string
		warnings []string
	}{
		{"empty", "", "", nil},
		{"trailing text", "@article{a, title={T}}\n\n  trailing text  \n", "trailing text", nil},
		{
			"looks like a field",
			"@article{a, title={T}}\nyear = {2000},\n",
			"year = {2000},",
			[]string{"line 3: unparsed content in epilog, entries may have been dropped"},
		},
		{"closing brace", "@article{test,author={author bracket } too much}", "}", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parse(t, tt.src)
			if res.Database.Epilog != tt.epilog {
				t.Errorf("Epilog = %q; want %q", res.Database.Epilog, tt.epilog)
			}
			if diff := cmp.Diff(tt.warnings, warningStrings(res)); diff != "" {
				t.Errorf("warnings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_NoEntryRecognized(t *testing.T) {
	res := parse(t, `  author = {Crowston, K. and Annabi, H.},
  title = {Effective work practices for floss development},
  year = {2005},
}))`)
	if !res.HasWarnings() {
		t.Error("expected a warning about unparsed content")
	}
	if len(res.Database.Entries) != 0 {
		t.Errorf("got %d entries; want 0", len(res.Database.Entries))
	}
}

func TestParse_DuplicateKeys(t *testing.T) {
	res := parse(t, "@article{a,title={1}}\n@article{a,title={2}}\n@article{a,title={3}}\n@book{b}")
	if diff := cmp.Diff([]string{"a"}, res.DuplicateKeys); diff != "" {
		t.Errorf("DuplicateKeys mismatch (-want +got):\n%s", diff)
	}
	if len(res.Database.Entries) != 4 {
		t.Errorf("got %d entries; want 4", len(res.Database.Entries))
	}
}

func TestParse_Options(t *testing.T) {
	t.Run("warn duplicate fields", func(t *testing.T) {
		const src = "@article{a,title={1},title={2}}"
		res := parseOpts(t, Options{Mode: WarnDuplicateFields}, src)
		want := []string{"line 1: duplicate field title in entry a; keeping the first value"}
		if diff := cmp.Diff(want, warningStrings(res)); diff != "" {
			t.Errorf("warnings mismatch (-want +got):\n%s", diff)
		}
		if got := res.Database.Entries[0].Fields["title"]; got != "1" {
			t.Errorf("title = %q; want first value", got)
		}
	})

	t.Run("person name fields", func(t *testing.T) {
		res := parseOpts(t, Options{PersonNameFields: []string{"Reviewer"}}, "@article{a,reviewer={A},reviewer={B}}")
		if got := res.Database.Entries[0].Fields["reviewer"]; got != "A and B" {
			t.Errorf("reviewer = %q; want %q", got, "A and B")
		}
	})

	t.Run("keyword separator", func(t *testing.T) {
		res := parseOpts(t, Options{KeywordSeparator: ';'}, "@article{a,keywords={a;b},keywords={b;c}}")
		if got := res.Database.Entries[0].Fields["keywords"]; got != "a; b; c" {
			t.Errorf("keywords = %q; want %q", got, "a; b; c")
		}
	})

	t.Run("field formatter", func(t *testing.T) {
		upper := func(_ bibtex.Field, s string) string { return strings.ToUpper(s) }
		res := parseOpts(t, Options{FieldFormatter: upper}, "@article{a,title={x} # y # \"z\"}")
		if got := res.Database.Entries[0].Fields["title"]; got != "X#y#Z" {
			t.Errorf("title = %q; want %q", got, "X#y#Z")
		}
	})

	t.Run("trace", func(t *testing.T) {
		res := parseOpts(t, Options{Mode: Trace}, "@string{s={S}}@preamble{p}@comment{c}@article{a,title={T}}")
		want := []entrySummary{entry("article", "a", "title", "T")}
		if diff := cmp.Diff(want, summarize(res.Database.Entries)); diff != "" {
			t.Errorf("entries mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestParse_Fatal(t *testing.T) {
	t.Run("pushback overflow", func(t *testing.T) {
		opts := DefaultOptions()
		opts.PushbackSize = 1
		res, err := New(opts).Parse(strings.NewReader("@article{a, title = {X\\},\n}}"))
		if !errors.Is(err, scanner.ErrPushbackOverflow) {
			t.Fatalf("Parse() error = %v; want ErrPushbackOverflow", err)
		}
		if res == nil || res.Err != err {
			t.Errorf("Result.Err = %v; want %v", res.Err, err)
		}
	})

	t.Run("read error keeps parsed entries", func(t *testing.T) {
		boom := errors.New("boom")
		r := io.MultiReader(strings.NewReader("@article{a, title={T}}\n"), iotest.ErrReader(boom))
		res, err := New(DefaultOptions()).Parse(r)
		if !errors.Is(err, boom) {
			t.Fatalf("Parse() error = %v; want %v", err, boom)
		}
		want := []entrySummary{entry("article", "a", "title", "T")}
		if diff := cmp.Diff(want, summarize(res.Database.Entries)); diff != "" {
			t.Errorf("entries mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("reused", func(t *testing.T) {
		p := New(DefaultOptions())
		if _, err := p.Parse(strings.NewReader("")); err != nil {
			t.Fatal(err)
		}
		if _, err := p.Parse(strings.NewReader("")); !errors.Is(err, ErrReused) {
			t.Errorf("second Parse() error = %v; want ErrReused", err)
		}
	})
}

func TestParseSingleEntry(t *testing.T) {
	e, err := ParseSingleEntry("@article{a,title={T}}@book{b}")
	if err != nil {
		t.Fatal(err)
	}
	if e == nil || e.Key != "a" {
		t.Errorf("ParseSingleEntry() = %+v; want entry a", e)
	}
	e, err = ParseSingleEntry("no entries")
	if err != nil || e != nil {
		t.Errorf("ParseSingleEntry(no entries) = %v, %v; want nil, nil", e, err)
	}
}

func TestIsRecognizedFormat(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"% comment\n  @article{a,", true},
		{"@Book (b,", true},
		{"no entries here", false},
		{"mail me @ home{", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := IsRecognizedFormat(strings.NewReader(tt.src))
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("IsRecognizedFormat(%q) = %t; want %t", tt.src, got, tt.want)
		}
	}
}

func TestParseFile(t *testing.T) {
	res, err := ParseFile("testdata/sample.bib", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.HasWarnings() {
		t.Errorf("unexpected warnings: %v", warningStrings(res))
	}
	db := res.Database
	var keys []string
	for _, e := range db.Entries {
		keys = append(keys, e.Key)
	}
	if diff := cmp.Diff([]string{"knuth1984", "lamport1986", "notes2020"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if db.Abbrevs.Len() != 2 {
		t.Errorf("got %d strings; want 2", db.Abbrevs.Len())
	}
	if db.Epilog != "" {
		t.Errorf("Epilog = %q; want empty", db.Epilog)
	}

	knuth := db.ResolveEntry(db.Entries[0])
	wantKnuth := map[string]string{
		"author":    "Donald E. Knuth",
		"title":     "Literate Programming",
		"journal":   "The Computer Journal",
		"year":      "1984",
		"volume":    "27",
		"number":    "2",
		"pages":     "97--111",
		"month":     "May",
		"publisher": "ACM Press",
	}
	if diff := cmp.Diff(wantKnuth, knuth.Fields); diff != "" {
		t.Errorf("knuth1984 fields mismatch (-want +got):\n%s", diff)
	}

	lamport := db.Entries[1]
	if got, want := lamport.CommentsBefore, "% A note about the next entry.\n"; got != want {
		t.Errorf("CommentsBefore = %q; want %q", got, want)
	}
	if got := db.Resolve(lamport.Fields["booktitle"]); got != "IEEE Workshop" {
		t.Errorf("booktitle = %q; want %q", got, "IEEE Workshop")
	}
	if diff := cmp.Diff(bibtex.KeywordList{"typesetting", "tex"}, lamport.Keywords(',')); diff != "" {
		t.Errorf("keywords mismatch (-want +got):\n%s", diff)
	}

	notes := db.Entries[2]
	if notes.Declared == nil || notes.Declared.Name != "lecturenotes" {
		t.Errorf("Declared = %v; want lecturenotes", notes.Declared)
	}
	if diff := cmp.Diff(map[string]string{"databaseType": "bibtex;"}, res.Meta); diff != "" {
		t.Errorf("Meta mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFile_missing(t *testing.T) {
	_, err := ParseFile("testdata/does-not-exist.bib", DefaultOptions())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ParseFile() error = %v; want not exist", err)
	}
}

func TestWarning_String(t *testing.T) {
	ws := []Warning{{Line: 3, Msg: "x"}, {Msg: "y"}}
	var got []string
	for _, w := range ws {
		got = append(got, w.String())
	}
	if diff := cmp.Diff([]string{"line 3: x", "y"}, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("String() mismatch (-want +got):\n%s", diff)
	}
}

func BenchmarkParseFile_sample(b *testing.B) {
	src, err := os.ReadFile("testdata/sample.bib")
	if err != nil {
		b.Fatalf("read file: %s", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := New(DefaultOptions()).Parse(strings.NewReader(string(src))); err != nil {
			b.Fatal(err)
		}
	}
}
