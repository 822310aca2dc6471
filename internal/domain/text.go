package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// noiseTerms are header/footer words that table engines pick up as data rows.
var noiseTerms = []string{"nome", "status", "trecho", "ponto", "boletim", "semace"}

// CollapseWhitespace replaces every whitespace run, newlines included, with a
// single space and trims both ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripAccents decomposes s and drops combining marks ("Caça" -> "Caca").
// Used for matching only, never for display.
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CleanStatusToken upper-cases and trims tok, returning it only when it is a
// valid status code.
func CleanStatusToken(tok string) string {
	tok = strings.ToUpper(strings.TrimSpace(tok))
	if tok == StatusFit || tok == StatusUnfit {
		return tok
	}
	return ""
}

// IsNoiseRow reports whether a (name, status) candidate is a parsing artifact:
// too short to be real, or containing a header/footer keyword.
func IsNoiseRow(name, status string) bool {
	txt := strings.ToLower(name + " " + status)
	if len([]rune(strings.TrimSpace(txt))) < 3 {
		return true
	}
	for _, term := range noiseTerms {
		if strings.Contains(txt, term) {
			return true
		}
	}
	return false
}
