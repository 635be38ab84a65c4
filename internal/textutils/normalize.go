// Package textutils provides the text normalization shared by header
// detection, column mapping and PDF description comparison.
package textutils

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks: "Crédito" becomes "Credito".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize lower-cases s, strips diacritics, turns every non alphanumeric
// rune into a space and collapses whitespace. "Data/Hora (BRT)" becomes
// "data hora brt".
func Normalize(s string) string {
	s = strings.ToLower(StripDiacritics(s))
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// ContainsWord reports whether the normalized keyword appears in the
// normalized text as a whole word sequence.
func ContainsWord(text, keyword string) bool {
	text, keyword = Normalize(text), Normalize(keyword)
	if keyword == "" || text == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+keyword+" ")
}

// ContainsAnyWord reports whether any keyword appears in text.
func ContainsAnyWord(text string, keywords []string) bool {
	for _, kw := range keywords {
		if ContainsWord(text, kw) {
			return true
		}
	}
	return false
}

// HasAnyPrefix reports whether the normalized text starts with one of the
// normalized prefixes.
func HasAnyPrefix(text string, prefixes []string) bool {
	text = Normalize(text)
	for _, p := range prefixes {
		p = Normalize(p)
		if p != "" && (text == p || strings.HasPrefix(text, p+" ")) {
			return true
		}
	}
	return false
}

// minFuzzyLength keeps short tokens ("doc", "dt") out of typo matching.
const minFuzzyLength = 5

// FuzzyContainsWord matches a single-word keyword against the words of text
// allowing one edit, so a misspelt header such as "Historco" still maps.
func FuzzyContainsWord(text, keyword string) bool {
	keyword = Normalize(keyword)
	if len(keyword) < minFuzzyLength || strings.Contains(keyword, " ") {
		return false
	}
	for _, word := range strings.Fields(Normalize(text)) {
		if len(word) < minFuzzyLength {
			continue
		}
		if fuzzy.LevenshteinDistance(word, keyword) <= 1 {
			return true
		}
	}
	return false
}

// PunctuationCount counts punctuation and symbol runes in s.
func PunctuationCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			n++
		}
	}
	return n
}

// similarityRatio is the minimum length ratio for a substring match to count.
const similarityRatio = 0.8

// SimilarDescriptions reports whether two descriptions denote the same
// transaction text: identical once normalized, or one contained in the other
// with a length ratio of at least 0.8.
func SimilarDescriptions(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	short, long := na, nb
	if len(short) > len(long) {
		short, long = long, short
	}
	if !strings.Contains(long, short) {
		return false
	}
	return float64(len(short))/float64(len(long)) >= similarityRatio
}

// CollapseSpaces trims s and reduces inner whitespace runs to one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u00a0", " ")), " ")
}
