package drtc

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lleva un texto a su forma comparable: sin tildes, en mayúsculas, con '_' y '-' como
// espacio y espacios colapsados. "Años_Vigencia" y "ANOS VIGENCIA" producen lo mismo.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '\u00a0':
			return ' '
		}
		return r
	}, out)
	return strings.Join(strings.Fields(strings.ToUpper(out)), " ")
}
