package pdfparser

import (
	"errors"
	"regexp"
	"sort"
	"unicode"
	"unicode/utf8"

	"fjacquet/statement-import/internal/parsererror"
	"fjacquet/statement-import/internal/textutils"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoiseLine marks a candidate whose description is a header, a total or a balance.
	ErrNoiseLine = errors.New("description matches a noise pattern")
	// ErrAmountOutOfRange marks a candidate whose magnitude is implausible.
	ErrAmountOutOfRange = errors.New("amount outside the accepted range")
)

// dedupTolerance is the largest magnitude difference between duplicates.
var dedupTolerance = decimal.New(1, -2)

// Descriptions are matched after textutils.Normalize.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(data|date)( |$)`),
	regexp.MustCompile(`^(descricao|historico|lancamentos?|transacoes|description)( |$)`),
	regexp.MustCompile(`\b(sub)?total\b`),
	regexp.MustCompile(`\bsaldo\b`),
	regexp.MustCompile(`\b(balance|statement total)\b`),
	regexp.MustCompile(`\bpagamento minimo\b`),
	regexp.MustCompile(`\bminimum payment\b`),
	regexp.MustCompile(`\blimite\b`),
	regexp.MustCompile(`\bvencimento\b`),
	regexp.MustCompile(`^\d{2} \d{2}( \d{4})?$`),
	regexp.MustCompile(`^(r|us)?\s*(brl|usd|eur)?$`),
}

// isDuplicate reports whether two candidates denote the same transaction.
func isDuplicate(a, b Candidate) bool {
	if a.Date != b.Date {
		return false
	}
	if a.Amount.Abs().Sub(b.Amount.Abs()).Abs().GreaterThanOrEqual(dedupTolerance) {
		return false
	}
	return textutils.SimilarDescriptions(a.Description, b.Description)
}

// better reports whether c captured more of the line than kept: a longer
// description first, then more punctuation.
func better(c, kept Candidate) bool {
	lc, lk := utf8.RuneCountInString(c.Description), utf8.RuneCountInString(kept.Description)
	if lc != lk {
		return lc > lk
	}
	return textutils.PunctuationCount(c.Description) > textutils.PunctuationCount(kept.Description)
}

// Merge pools the candidates of every strategy and collapses duplicates,
// keeping the best captured description of each group. The result is
// ordered by line. Merge does not modify its input.
func Merge(pools ...[]Candidate) []Candidate {
	var merged []Candidate
	for _, pool := range pools {
		for _, c := range pool {
			dup := -1
			for i := range merged {
				if isDuplicate(merged[i], c) {
					dup = i
					break
				}
			}
			switch {
			case dup < 0:
				merged = append(merged, c)
			case better(c, merged[dup]):
				merged[dup] = c
			}
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Line < merged[j].Line })
	return merged
}

// Filter drops candidates whose description is noise or whose magnitude falls
// outside [lo, hi]. Every dropped candidate yields a RowError.
func Filter(candidates []Candidate, lo, hi decimal.Decimal) ([]Candidate, []error) {
	kept := make([]Candidate, 0, len(candidates))
	var rejected []error
	for _, c := range candidates {
		if isNoise(c.Description) {
			rejected = append(rejected, &parsererror.RowError{
				Row: c.Line + 1, Field: "description", Value: c.Description, Err: ErrNoiseLine,
			})
			continue
		}
		magnitude := c.Amount.Abs()
		if magnitude.LessThan(lo) || magnitude.GreaterThan(hi) {
			rejected = append(rejected, &parsererror.RowError{
				Row: c.Line + 1, Field: "value", Value: c.Amount.String(), Err: ErrAmountOutOfRange,
			})
			continue
		}
		kept = append(kept, c)
	}
	return kept, rejected
}

func isNoise(desc string) bool {
	n := textutils.Normalize(desc)
	if countLetters(n) < 2 {
		return true
	}
	for _, re := range noisePatterns {
		if re.MatchString(n) {
			return true
		}
	}
	return false
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
