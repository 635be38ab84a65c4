package pdfparser

import (
	"regexp"
	"strings"

	"fjacquet/statement-import/internal/textutils"

	"github.com/cloudflare/ahocorasick"
)

// Layout is the statement shape recognised in a PDF text blob.
type Layout string

const (
	// LayoutIssuer is a card issuer's monthly statement.
	LayoutIssuer Layout = "issuer-statement"
	// LayoutCard lists charges as date, masked card number, merchant and amount.
	LayoutCard Layout = "card-charges"
	// LayoutCategorized prints a spending category on every charge line.
	LayoutCategorized Layout = "categorized"
	// LayoutTabular is a bank statement with an amount and a running balance.
	LayoutTabular Layout = "tabular"
	// LayoutGeneric is the linear date, description, amount fallback.
	LayoutGeneric Layout = "generic"
)

// scoredLayouts are the layouts competing in Detect.
var scoredLayouts = []Layout{LayoutIssuer, LayoutCard, LayoutCategorized, LayoutTabular}

const (
	weightIssuerToken = 5
	weightCardLine    = 2
	weightCategory    = 2
	weightTabular     = 1
)

const (
	dateToken = `\d{2}/\d{2}(?:/\d{4})?`
	// timeToken is the optional clock time printed after a full date.
	timeToken   = `(?:[ \t]+\d{1,2}:\d{2}(?::\d{2})?)?`
	amountToken = `-?[ \t]?(?:R\$|US\$|\$)?[ \t]?(?:\d{1,3}(?:[.,]\d{3})*|\d+)[.,]\d{2}-?`
)

var (
	leadingDate = regexp.MustCompile(`^(` + dateToken + `)\b`)
	anyDate     = regexp.MustCompile(`(?:^|\s)(` + dateToken + `)(?:\s|$)`)
	fullDate    = regexp.MustCompile(`\b(\d{2}/\d{2}/\d{4})\b`)
	clockField  = regexp.MustCompile(`^\d{1,2}:\d{2}(?::\d{2})?$`)
	amountField = regexp.MustCompile(`^(?:R\$|US\$|\$)?-?(?:\d{1,3}(?:[.,]\d{3})*|\d+)[.,]\d{2}-?$`)

	cardLine = regexp.MustCompile(`^(` + dateToken + `)` + timeToken + `\s+((?:\d{4}[ \t]?)?[*Xx]{2,}[ *Xx]*\d{4})\s+(.+?)\s+(` + amountToken + `)\s*$`)
)

// DefaultCategories are the spending categories printed by categorized exports.
var DefaultCategories = []string{
	"alimentacao", "restaurante", "supermercado", "transporte", "saude", "educacao",
	"lazer", "servicos", "vestuario", "viagem", "casa", "compras", "outros",
}

// Detection is the outcome of layout scoring.
type Detection struct {
	Layout   Layout
	Scores   map[Layout]int
	Fallback bool
}

// scorer holds the immutable token tables used to score a blob.
type scorer struct {
	issuer     *ahocorasick.Matcher
	categories []string
}

func newScorer(issuerTokens, categories []string) *scorer {
	return &scorer{issuer: newMatcher(issuerTokens), categories: categories}
}

// newMatcher builds a case and accent insensitive matcher, or nil when there
// is nothing to match.
func newMatcher(tokens []string) *ahocorasick.Matcher {
	var patterns [][]byte
	for _, t := range tokens {
		if t = foldToken(t); t != "" {
			patterns = append(patterns, []byte(t))
		}
	}
	if len(patterns) == 0 {
		return nil
	}
	return ahocorasick.NewMatcher(patterns)
}

func foldToken(s string) string {
	return strings.ToUpper(textutils.CollapseSpaces(textutils.StripDiacritics(s)))
}

// Detect scores every line of text and picks the highest scoring layout. A
// tie at the top, or no hit at all, falls back to LayoutGeneric.
func (s *scorer) Detect(lines []string) Detection {
	scores := make(map[Layout]int, len(scoredLayouts))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if s.issuer != nil && len(s.issuer.Match([]byte(foldToken(line)))) > 0 {
			scores[LayoutIssuer] += weightIssuerToken
		}
		if !leadingDate.MatchString(line) {
			continue
		}
		amounts := countAmounts(line)
		if amounts == 0 {
			continue
		}
		switch {
		case cardLine.MatchString(line):
			scores[LayoutCard] += weightCardLine
		case textutils.ContainsAnyWord(line, s.categories):
			scores[LayoutCategorized] += weightCategory
		case amounts >= 2:
			scores[LayoutTabular] += weightTabular
		}
	}

	best, bestScore, tie := LayoutGeneric, 0, false
	for _, l := range scoredLayouts {
		switch {
		case scores[l] > bestScore:
			best, bestScore, tie = l, scores[l], false
		case scores[l] == bestScore && bestScore > 0:
			tie = true
		}
	}
	if bestScore == 0 || tie {
		return Detection{Layout: LayoutGeneric, Scores: scores, Fallback: true}
	}
	return Detection{Layout: best, Scores: scores}
}

// hasDatedLine reports whether any line starts with a date token.
func hasDatedLine(lines []string) bool {
	return countDatedLines(lines) > 0
}

// countDatedLines counts the lines starting with a date token, the rows a
// PDF statement offers for parsing.
func countDatedLines(lines []string) int {
	n := 0
	for _, line := range lines {
		if leadingDate.MatchString(strings.TrimSpace(line)) {
			n++
		}
	}
	return n
}

// countAmounts counts the whitespace separated fields shaped like an amount.
func countAmounts(line string) int {
	n := 0
	for _, f := range strings.Fields(line) {
		if amountField.MatchString(f) {
			n++
		}
	}
	return n
}
