package markov

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizeRune folds a single character to its canonical form: the first code
// point of its compatibility decomposition (NFKD), lowercased. Every rune has a
// defined result, so visually equivalent characters such as 'É', 'é' and the
// full-width 'Ｅ' all collapse to 'e'.
func NormalizeRune(r rune) rune {
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)

	decomposed := norm.NFKD.Append(nil, buf[:n]...)
	first, _ := utf8.DecodeRune(decomposed)
	return unicode.ToLower(first)
}

// Normalize applies NormalizeRune to every rune of s. It must be used on every
// token before it is counted or looked up, including walk seeds.
func Normalize(s string) string {
	return strings.Map(NormalizeRune, s)
}
