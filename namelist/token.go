package namelist

import "strconv"

// Part is the kind of a lexical part of a person name list.
type Part int

const (
	Illegal     Part = iota
	EOF              // end of the list
	Whitespace       // any whitespace
	String           // Foo
	BraceString      // {Foo bar}, "and" inside is not a separator
	NameSep          // "and" between two names
	Others           // "others" standing for unlisted names
	Comma            // separates von Last, Jr and First
)

var partNames = map[Part]string{
	Illegal:     "Illegal",
	EOF:         "EOF",
	Whitespace:  "Whitespace",
	String:      "String",
	BraceString: "BraceString",
	NameSep:     "NameSep",
	Others:      "Others",
	Comma:       "Comma",
}

func (p Part) String() string {
	if s, ok := partNames[p]; ok {
		return s
	}
	return "Part(" + strconv.Itoa(int(p)) + ")"
}
