package bibtex

import "strings"

// Mapping of accent command and base character to the accented character.
var accentMap = map[string]rune{
	// grave (`)
	"`a": 'à', "`e": 'è', "`i": 'ì', "`o": 'ò', "`u": 'ù',
	"`A": 'À', "`E": 'È', "`I": 'Ì', "`O": 'Ò', "`U": 'Ù',

	// acute (')
	"'a": 'á', "'e": 'é', "'i": 'í', "'o": 'ó', "'u": 'ú', "'y": 'ý',
	"'A": 'Á', "'E": 'É', "'I": 'Í', "'O": 'Ó', "'U": 'Ú', "'Y": 'Ý',
	"'c": 'ć', "'n": 'ń', "'s": 'ś', "'z": 'ź',

	// circumflex (^)
	"^a": 'â', "^e": 'ê', "^i": 'î', "^o": 'ô', "^u": 'û',
	"^A": 'Â', "^E": 'Ê', "^I": 'Î', "^O": 'Ô', "^U": 'Û',

	// umlaut (")
	`"a`: 'ä', `"e`: 'ë', `"i`: 'ï', `"o`: 'ö', `"u`: 'ü', `"y`: 'ÿ',
	`"A`: 'Ä', `"E`: 'Ë', `"I`: 'Ï', `"O`: 'Ö', `"U`: 'Ü',

	// tilde (~)
	"~a": 'ã', "~n": 'ñ', "~o": 'õ',
	"~A": 'Ã', "~N": 'Ñ', "~O": 'Õ',

	// cedilla (\c)
	"cc": 'ç', "cC": 'Ç', "cs": 'ş', "cS": 'Ş',

	// dot (.)
	".c": 'ċ', ".e": 'ė', ".g": 'ġ', ".z": 'ż',
	".C": 'Ċ', ".E": 'Ė', ".G": 'Ġ', ".I": 'İ', ".Z": 'Ż',

	// caron (\v)
	"vc": 'č', "vs": 'š', "vz": 'ž', "vr": 'ř', "ve": 'ě',
	"vC": 'Č', "vS": 'Š', "vZ": 'Ž', "vR": 'Ř', "vE": 'Ě',
}

// Accent commands without an argument.
var symbolMap = map[string]string{
	"ss": "ß", "o": "ø", "O": "Ø", "aa": "å", "AA": "Å",
	"ae": "æ", "AE": "Æ", "oe": "œ", "OE": "Œ", "l": "ł", "L": "Ł", "i": "ı",
}

func isAccent(ch byte) bool {
	return strings.IndexByte("`'^\"~.cv", ch) >= 0
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

// LatexToUnicode replaces the accent commands in s, like {\'e}, \"{o} or
// \c c, and a few letter commands like {\ss}, with Unicode characters. Commands
// it does not know are kept.
func LatexToUnicode(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '{' {
			// {\'e} and {\ss}: drop the group braces around one command.
			if j := strings.IndexByte(s[i:], '}'); j > 0 {
				if r, ok := convertCommand(s[i+1 : i+j]); ok {
					sb.WriteString(r)
					i += j + 1
					continue
				}
			}
		}
		if s[i] == '\\' {
			if r, n := convertPrefix(s[i:]); n > 0 {
				sb.WriteString(r)
				i += n
				continue
			}
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}

// convertCommand converts cmd if all of it is a single command.
func convertCommand(cmd string) (string, bool) {
	if !strings.HasPrefix(cmd, `\`) {
		return "", false
	}
	r, n := convertPrefix(cmd)
	return r, n > 0 && n == len(cmd)
}

// convertPrefix converts the command at the start of s and returns the
// replacement and the number of bytes consumed, or 0 if s does not start with
// a known command.
func convertPrefix(s string) (string, int) {
	if len(s) < 2 || s[0] != '\\' {
		return "", 0
	}
	// Letter commands: \ss, \o, \aa ...
	n := 1
	for n < len(s) && isLetter(s[n]) {
		n++
	}
	if sym, ok := symbolMap[s[1:n]]; ok {
		if n < len(s) && s[n] == ' ' {
			n++
		}
		return sym, n
	}
	if !isAccent(s[1]) {
		return "", 0
	}
	accent := s[1]
	rest := s[2:]
	consumed := 2
	switch {
	case len(rest) >= 3 && rest[0] == '{' && rest[2] == '}':
		rest = rest[1:2]
		consumed += 3
	case len(rest) >= 2 && rest[0] == ' ' && isLetter(accent) && isLetter(rest[1]):
		rest = rest[1:2]
		consumed += 2
	case len(rest) >= 1 && !isLetter(accent):
		rest = rest[:1]
		consumed++
	default:
		return "", 0
	}
	if r, ok := accentMap[string(accent)+rest]; ok {
		return string(r), consumed
	}
	return "", 0
}

// LatexToUnicodeResolver replaces accent commands in all field values.
func LatexToUnicodeResolver(e *Entry) error {
	for f, v := range e.Fields {
		if u := LatexToUnicode(v); u != v {
			e.Fields[f] = u
			e.Changed = true
		}
	}
	return nil
}
