package bibtex

// Database is the in-memory result of parsing a bibtex file.
type Database struct {
	Entries  []*Entry
	Abbrevs  *AbbrevTable
	Preamble string // concatenated @preamble contents
	Epilog   string // trailing text after the last block, trimmed
	NewLine  string // line terminator detected in the source
	SharedID string // from a "% DBID:" header line

	keys map[CiteKey]int
}

// NewDatabase returns an empty database using "\n" line terminators.
func NewDatabase() *Database {
	return &Database{
		Abbrevs: NewAbbrevTable(),
		NewLine: "\n",
		keys:    make(map[CiteKey]int),
	}
}

// Insert appends e. It reports whether another entry already uses the same
// non-empty citation key; duplicates are kept.
func (db *Database) Insert(e *Entry) (duplicate bool) {
	if db.keys == nil {
		db.keys = make(map[CiteKey]int)
	}
	db.Entries = append(db.Entries, e)
	if e.Key == "" {
		return false
	}
	db.keys[e.Key]++
	return db.keys[e.Key] > 1
}

// AddPreamble appends the content of a @preamble block.
func (db *Database) AddPreamble(s string) {
	if db.Preamble == "" {
		db.Preamble = s
		return
	}
	db.Preamble += "\n" + s
}

// EntryByKey returns the first entry with the citation key.
func (db *Database) EntryByKey(key CiteKey) (*Entry, bool) {
	for _, e := range db.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return nil, false
}

// DuplicateKeys returns the citation keys used by more than one entry, in
// order of first use.
func (db *Database) DuplicateKeys() []CiteKey {
	var dups []CiteKey
	seen := make(map[CiteKey]bool)
	for _, e := range db.Entries {
		if e.Key == "" || seen[e.Key] {
			continue
		}
		seen[e.Key] = true
		if db.keys[e.Key] > 1 {
			dups = append(dups, e.Key)
		}
	}
	return dups
}

// Resolve replaces the #name# abbreviation references in content.
func (db *Database) Resolve(content string) string {
	return resolveAbbrevs(db.Abbrevs, content, make(map[string]bool))
}

// ResolveEntry returns a copy of e with all field references resolved.
func (db *Database) ResolveEntry(e *Entry) *Entry {
	c := e.Clone()
	for f, v := range c.Fields {
		c.Fields[f] = db.Resolve(v)
	}
	return c
}
