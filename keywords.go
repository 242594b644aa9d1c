package bibtex

import "strings"

// KeywordList is an ordered set of keywords.
type KeywordList []string

// ParseKeywords splits s on sep and drops empty keywords.
func ParseKeywords(s string, sep rune) KeywordList {
	var ks KeywordList
	for _, k := range strings.Split(s, string(sep)) {
		if k = strings.TrimSpace(k); k != "" {
			ks = append(ks, k)
		}
	}
	return ks
}

// Contains reports whether k holds keyword w.
func (k KeywordList) Contains(w string) bool {
	for _, x := range k {
		if x == w {
			return true
		}
	}
	return false
}

// Add appends the words not yet in k.
func (k KeywordList) Add(words ...string) KeywordList {
	for _, w := range words {
		if !k.Contains(w) {
			k = append(k, w)
		}
	}
	return k
}

// Join returns the keywords separated by sep and a space.
func (k KeywordList) Join(sep rune) string {
	return strings.Join(k, string(sep)+" ")
}
