package reports

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CleanText folds s to plain ASCII: accents are decomposed and dropped, and
// anything else outside ASCII is removed. The PDF core fonts cannot render more.
func CleanText(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return asciiOnly(s)
	}
	return strings.TrimSpace(out)
}

func asciiOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
