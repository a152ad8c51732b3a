package classify

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s, strips diacritics and trims it.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

// FoldJoin folds every non-empty part and joins them with " | ".
func FoldJoin(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if f := Fold(p); f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " | ")
}
