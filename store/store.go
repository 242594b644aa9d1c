// Package store indexes parsed bibtex databases in SQLite.
//
// The parser keeps entries with duplicate citation keys; the index is the
// layer that reports them, across all loaded files.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	bibtex "github.com/jschaf/bibparse"
	"github.com/jschaf/bibparse/namelist"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

// LogName is the name of the store logger.
const LogName = "bibparse.store"

// ErrNotFound is returned by lookups for an unknown citation key.
var ErrNotFound = errors.New("entry not found")

// Store wraps a SQLite database connection.
type Store struct {
	db  *sql.DB
	log commonlog.Logger
}

// Open opens or creates the index at path. Use ":memory:" for a transient
// index.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, log: commonlog.GetLogger(LogName)}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			key TEXT NOT NULL,
			type TEXT NOT NULL,
			fields_json TEXT NOT NULL,
			raw TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_key ON entries(key) WHERE key != '';

		CREATE TABLE IF NOT EXISTS abbrevs (
			source TEXT NOT NULL,
			name TEXT NOT NULL,
			content TEXT NOT NULL,
			PRIMARY KEY (source, name)
		);

		-- One row per name of a person name field.
		CREATE TABLE IF NOT EXISTS authors (
			entry_id INTEGER NOT NULL REFERENCES entries(id),
			field TEXT NOT NULL,
			position INTEGER NOT NULL,
			first TEXT NOT NULL,
			prefix TEXT NOT NULL,
			last TEXT NOT NULL,
			suffix TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_authors_entry ON authors(entry_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Load replaces the rows of source with the contents of db and returns the
// number of entries indexed. Macro references in person name fields are
// resolved before the names are split.
func (s *Store) Load(source string, db *bibtex.Database) (n int, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err := clearSource(tx, source); err != nil {
		return 0, err
	}

	abbrevStmt, err := tx.Prepare(`INSERT INTO abbrevs (source, name, content) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing abbrev insert: %w", err)
	}
	defer abbrevStmt.Close()
	for _, a := range db.Abbrevs.All() {
		if _, err := abbrevStmt.Exec(source, a.Name, a.Content); err != nil {
			return 0, fmt.Errorf("inserting abbrev %s: %w", a.Name, err)
		}
	}

	entryStmt, err := tx.Prepare(`
		INSERT INTO entries (source, key, type, fields_json, raw)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing entry insert: %w", err)
	}
	defer entryStmt.Close()

	authorStmt, err := tx.Prepare(`
		INSERT INTO authors (entry_id, field, position, first, prefix, last, suffix)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing author insert: %w", err)
	}
	defer authorStmt.Close()

	for _, e := range db.Entries {
		fieldsJSON, err := json.Marshal(e.Fields)
		if err != nil {
			return 0, fmt.Errorf("marshaling fields for %s: %w", e.Key, err)
		}
		res, err := entryStmt.Exec(source, e.Key, e.Type, string(fieldsJSON), e.ParsedSerialization)
		if err != nil {
			return 0, fmt.Errorf("inserting entry %s: %w", e.Key, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading id of entry %s: %w", e.Key, err)
		}
		for _, f := range e.FieldNames() {
			if !bibtex.IsPersonNameField(f) {
				continue
			}
			for i, a := range s.authors(db.Resolve(e.Fields[f]), e.Key) {
				if _, err := authorStmt.Exec(id, f, i, a.First, a.Prefix, a.Last, a.Suffix); err != nil {
					return 0, fmt.Errorf("inserting %s of %s: %w", f, e.Key, err)
				}
			}
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	s.log.Infof("indexed %d entries from %s", n, source)
	return n, nil
}

// authors splits a person name list. Lists the name parser rejects are kept
// as whole names in the last name.
func (s *Store) authors(list string, key bibtex.CiteKey) []bibtex.Author {
	as, err := namelist.ParseAuthors(list)
	if err == nil {
		return as
	}
	s.log.Debugf("keeping unparsed names of %s: %s", key, err)
	names := namelist.Split(list)
	as = make([]bibtex.Author, len(names))
	for i, name := range names {
		as[i] = bibtex.Author{Last: name}
	}
	return as
}

func clearSource(tx *sql.Tx, source string) error {
	stmts := []string{
		`DELETE FROM authors WHERE entry_id IN (SELECT id FROM entries WHERE source = ?)`,
		`DELETE FROM entries WHERE source = ?`,
		`DELETE FROM abbrevs WHERE source = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, source); err != nil {
			return fmt.Errorf("clearing %s: %w", source, err)
		}
	}
	return nil
}

// Count returns the number of indexed entries.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// DuplicateKeys returns the citation keys used by more than one indexed
// entry, in order of first use.
func (s *Store) DuplicateKeys() ([]bibtex.CiteKey, error) {
	rows, err := s.db.Query(`
		SELECT key FROM entries
		WHERE key != ''
		GROUP BY key
		HAVING COUNT(*) > 1
		ORDER BY MIN(id)
	`)
	if err != nil {
		return nil, fmt.Errorf("querying duplicate keys: %w", err)
	}
	defer rows.Close()

	var keys []bibtex.CiteKey
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Lookup returns the first indexed entry with the citation key. The entry
// holds the fields and the text it was parsed from.
func (s *Store) Lookup(key bibtex.CiteKey) (*bibtex.Entry, error) {
	var typ, fieldsJSON, raw string
	err := s.db.QueryRow(`
		SELECT type, fields_json, raw FROM entries
		WHERE key = ?
		ORDER BY id LIMIT 1
	`, key).Scan(&typ, &fieldsJSON, &raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("looking up %s: %w", key, err)
	}
	e := bibtex.NewEntry(typ)
	e.Key = key
	e.ParsedSerialization = raw
	if err := json.Unmarshal([]byte(fieldsJSON), &e.Fields); err != nil {
		return nil, fmt.Errorf("unmarshaling fields of %s: %w", key, err)
	}
	return e, nil
}

// AuthorsOf returns the names of the person name fields of the first entry
// with the citation key, author names first.
func (s *Store) AuthorsOf(key bibtex.CiteKey) ([]bibtex.Author, error) {
	rows, err := s.db.Query(`
		SELECT a.first, a.prefix, a.last, a.suffix
		FROM authors a
		WHERE a.entry_id = (SELECT id FROM entries WHERE key = ? ORDER BY id LIMIT 1)
		ORDER BY a.field != 'author', a.field, a.position
	`, key)
	if err != nil {
		return nil, fmt.Errorf("querying authors of %s: %w", key, err)
	}
	defer rows.Close()

	var as []bibtex.Author
	for rows.Next() {
		var a bibtex.Author
		if err := rows.Scan(&a.First, &a.Prefix, &a.Last, &a.Suffix); err != nil {
			return nil, fmt.Errorf("scanning author: %w", err)
		}
		as = append(as, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if as == nil {
		if _, err := s.Lookup(key); err != nil {
			return nil, err
		}
	}
	return as, nil
}

// Abbrev returns the content of the first string definition with the name.
func (s *Store) Abbrev(name string) (string, error) {
	var content string
	err := s.db.QueryRow(`SELECT content FROM abbrevs WHERE name = ? COLLATE NOCASE ORDER BY rowid LIMIT 1`, name).Scan(&content)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("%w: @string %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("looking up @string %s: %w", name, err)
	}
	return content, nil
}
