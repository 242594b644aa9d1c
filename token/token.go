// Package token defines constants representing the block kinds of the bibtex
// database language and basic operations on them (printing, predicates).
package token

import (
	"strconv"
	"strings"
)

// References
// - http://www.bibtex.org/Format/
// - http://mirror.utexas.edu/ctan/biblio/bibtex/base/btxdoc.pdf
// - http://ctan.math.illinois.edu/info/bibtex/tamethebeast/ttb_en.pdf

// Token is the set of block kinds introduced by an '@' command.
type Token int

const (
	Illegal Token = iota
	EOF

	commandBegin
	Abbrev   // @STRING, @string
	Comment  // @COMMENT, @comment
	Preamble // @PREAMBLE, @pReAmble
	Entry    // @article, @book, etc
	commandEnd
)

var tokens = [...]string{
	Illegal:  "Illegal",
	EOF:      "EOF",
	Abbrev:   "Abbrev",
	Comment:  "Comment",
	Preamble: "Preamble",
	Entry:    "Entry",
}

func (tok Token) String() string {
	s := ""
	if 0 <= tok && tok < Token(len(tokens)) {
		s = tokens[tok]
	}
	if s == "" {
		s = "token(" + strconv.Itoa(int(tok)) + ")"
	}
	return s
}

// IsCommand returns true for tokens corresponding to commands. It returns false
// otherwise.
func (tok Token) IsCommand() bool {
	return commandBegin < tok && tok < commandEnd
}

var commands = map[string]Token{
	"string":   Abbrev,
	"comment":  Comment,
	"preamble": Preamble,
}

// Lookup maps a block name, without the leading '@', to its token. Names are
// case-insensitive. Every name that is not a reserved command is an entry
// type; the empty name is Illegal.
func Lookup(name string) Token {
	name = strings.TrimSpace(name)
	if name == "" {
		return Illegal
	}
	if tok, ok := commands[strings.ToLower(name)]; ok {
		return tok
	}
	return Entry
}
