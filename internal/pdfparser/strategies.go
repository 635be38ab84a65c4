package pdfparser

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"fjacquet/statement-import/internal/currencyutils"
	"fjacquet/statement-import/internal/dateutils"
	"fjacquet/statement-import/internal/textutils"

	"github.com/cloudflare/ahocorasick"
	"github.com/shopspring/decimal"
)

// Candidate is one transaction line proposed by an extraction strategy.
type Candidate struct {
	Date        dateutils.Date
	Description string
	// Amount is signed as printed on the statement.
	Amount   decimal.Decimal
	Notes    string
	Line     int
	Raw      string
	Strategy string
}

// Strategy names, recorded on every candidate.
const (
	StrategyStrict      = "strict"
	StrategyLoose       = "loose"
	StrategyMerchant    = "merchant"
	StrategyCard        = "card"
	StrategyCategorized = "categorized"
	StrategyTabular     = "tabular"
)

// maxYearLag is how far past the statement reference a DD/MM date may fall
// before it is read as belonging to the previous year.
const maxYearLag = 31 * 24 * time.Hour

var (
	strictLine   = regexp.MustCompile(`^(` + dateToken + `)` + timeToken + `\s+(.+?)\s+(` + amountToken + `)\s*$`)
	tabularLine  = regexp.MustCompile(`^(` + dateToken + `)` + timeToken + `\s+(.+?)\s+(` + amountToken + `)(?:\s+(` + amountToken + `))?\s*$`)
	columnGap    = regexp.MustCompile(`\s{2,}`)
	currencyOnly = regexp.MustCompile(`^(?:R\$|US\$|\$|-)$`)

	looseSweeps = []*regexp.Regexp{
		// date, description and amount on one line, trailing text allowed;
		// a match followed by another amount on its line is discarded
		regexp.MustCompile(`(?m)(` + dateToken + `)` + timeToken + `[ \t]+([^\n]*?\pL[^\n]*?)[ \t]+(` + amountToken + `)`),
		// amount pushed to the next line
		regexp.MustCompile(`(?m)^[ \t]*(` + dateToken + `)` + timeToken + `[ \t]+([^\n]*?\pL[^\n]*?)[ \t]*\n[ \t]*(` + amountToken + `)[ \t]*$`),
		// date, description and amount on three lines
		regexp.MustCompile(`(?m)^[ \t]*(` + dateToken + `)` + timeToken + `[ \t]*\n[ \t]*([^\n]*?\pL[^\n]*?)[ \t]*\n[ \t]*(` + amountToken + `)[ \t]*$`),
	}
)

// dateResolver turns date tokens into calendar days. Tokens without a year
// take the year of the statement reference date.
type dateResolver struct {
	ref dateutils.Date
}

// newDateResolver uses the latest full date printed in text as reference,
// usually the statement closing or due date, and falls back to today.
func newDateResolver(text string, today dateutils.Date) dateResolver {
	var ref dateutils.Date
	for _, m := range fullDate.FindAllStringSubmatch(text, -1) {
		d, err := dateutils.ParseDateString(m[1])
		if err != nil {
			continue
		}
		if ref.IsZero() || d.After(ref) {
			ref = d
		}
	}
	if ref.IsZero() {
		ref = today
	}
	return dateResolver{ref: ref}
}

func (r dateResolver) resolve(token string) (dateutils.Date, bool) {
	if d, err := dateutils.ParseDateString(token); err == nil {
		return d, true
	}
	d, err := dateutils.ParseDayMonth(token, r.ref.Year())
	if err != nil {
		return dateutils.Date{}, false
	}
	if d.Time().Sub(r.ref.Time()) > maxYearLag {
		prev, err := dateutils.ParseDayMonth(token, r.ref.Year()-1)
		if err != nil {
			return dateutils.Date{}, false
		}
		d = prev
	}
	return d, true
}

// candidate builds a Candidate from matched tokens, or reports false when a
// token does not parse.
func (r dateResolver) candidate(dateTok, desc, amountTok string, line int, raw, strategy string) (Candidate, bool) {
	date, ok := r.resolve(dateTok)
	if !ok {
		return Candidate{}, false
	}
	amount, err := currencyutils.ParseValue(amountTok)
	if err != nil {
		return Candidate{}, false
	}
	desc = descriptionOf(desc)
	if desc == "" {
		return Candidate{}, false
	}
	return Candidate{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Line:        line,
		Raw:         textutils.CollapseSpaces(raw),
		Strategy:    strategy,
	}, true
}

// strictScan matches every line against the canonical row pattern.
func strictScan(lines []string, r dateResolver) []Candidate {
	var out []Candidate
	for i, line := range lines {
		line = strings.TrimSpace(line)
		m := strictLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if c, ok := r.candidate(m[1], m[2], m[3], i, line, StrategyStrict); ok {
			out = append(out, c)
		}
	}
	return out
}

// looseSweep runs the global patterns over the whole blob, catching rows the
// strict pattern misses when extraction splits or pads them.
func looseSweep(text string, r dateResolver) []Candidate {
	starts := lineStarts(text)
	var out []Candidate
	for _, re := range looseSweeps {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			dateTok := text[idx[2]:idx[3]]
			desc := text[idx[4]:idx[5]]
			amountTok := text[idx[6]:idx[7]]
			if countAmounts(restOfLine(text, idx[1])) > 0 {
				continue
			}
			line := lineOf(starts, idx[0])
			if c, ok := r.candidate(dateTok, desc, amountTok, line, text[idx[0]:idx[1]], StrategyLoose); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// merchantSearch looks for known recurring merchants on dated lines.
func merchantSearch(lines []string, merchants *ahocorasick.Matcher, r dateResolver) []Candidate {
	if merchants == nil {
		return nil
	}
	var out []Candidate
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if len(merchants.Match([]byte(foldToken(line)))) == 0 {
			continue
		}
		dm := anyDate.FindStringSubmatchIndex(line)
		if dm == nil {
			continue
		}
		rest := line[dm[3]:]
		fields := strings.Fields(rest)
		amountAt := -1
		for j := len(fields) - 1; j >= 0; j-- {
			if amountField.MatchString(fields[j]) {
				amountAt = j
				break
			}
		}
		if amountAt <= 0 {
			continue
		}
		descFields := fields[:amountAt]
		for len(descFields) > 0 && currencyOnly.MatchString(descFields[len(descFields)-1]) {
			descFields = descFields[:len(descFields)-1]
		}
		desc := strings.Join(descFields, " ")
		if c, ok := r.candidate(line[dm[2]:dm[3]], desc, fields[amountAt], i, line, StrategyMerchant); ok {
			out = append(out, c)
		}
	}
	return out
}

// cardScan reads date, masked card, merchant and amount lines.
func cardScan(lines []string, r dateResolver) []Candidate {
	var out []Candidate
	for i, line := range lines {
		line = strings.TrimSpace(line)
		m := cardLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		c, ok := r.candidate(m[1], m[3], m[4], i, line, StrategyCard)
		if !ok {
			continue
		}
		c.Notes = "card: " + textutils.CollapseSpaces(m[2])
		out = append(out, c)
	}
	return out
}

// categorizedScan splits the category out of the description.
func categorizedScan(lines []string, categories []string, r dateResolver) []Candidate {
	var out []Candidate
	for i, line := range lines {
		line = strings.TrimSpace(line)
		m := strictLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		desc, category := splitCategory(m[2], categories)
		c, ok := r.candidate(m[1], desc, m[3], i, line, StrategyCategorized)
		if !ok {
			continue
		}
		if category != "" {
			c.Notes = "category: " + category
		}
		out = append(out, c)
	}
	return out
}

// splitCategory removes the first column or word naming a category.
func splitCategory(desc string, categories []string) (string, string) {
	columns := columnGap.Split(strings.TrimSpace(desc), -1)
	if len(columns) > 1 {
		for i, col := range columns {
			if isCategory(col, categories) {
				rest := append(append([]string{}, columns[:i]...), columns[i+1:]...)
				return strings.Join(rest, " "), col
			}
		}
	}
	words := strings.Fields(desc)
	for i, w := range words {
		if isCategory(w, categories) && len(words) > 1 {
			rest := append(append([]string{}, words[:i]...), words[i+1:]...)
			return strings.Join(rest, " "), w
		}
	}
	return desc, ""
}

func isCategory(s string, categories []string) bool {
	n := textutils.Normalize(s)
	for _, c := range categories {
		if n == textutils.Normalize(c) {
			return true
		}
	}
	return false
}

// tabularScan reads date, description, amount and optional balance lines.
func tabularScan(lines []string, r dateResolver) []Candidate {
	var out []Candidate
	for i, line := range lines {
		line = strings.TrimSpace(line)
		m := tabularLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		c, ok := r.candidate(m[1], m[2], m[3], i, line, StrategyTabular)
		if !ok {
			continue
		}
		if m[4] != "" {
			c.Notes = "balance: " + strings.TrimSpace(m[4])
		}
		out = append(out, c)
	}
	return out
}

// descriptionOf collapses whitespace and drops a leading clock time and any
// trailing amount or currency fields, such as the original-currency column
// printed before the charged amount of a foreign purchase.
func descriptionOf(desc string) string {
	fields := strings.Fields(desc)
	for len(fields) > 0 && clockField.MatchString(fields[0]) {
		fields = fields[1:]
	}
	for len(fields) > 0 {
		last := fields[len(fields)-1]
		if !amountField.MatchString(last) && !currencyOnly.MatchString(last) {
			break
		}
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// restOfLine returns text from offset up to the end of its line.
func restOfLine(text string, offset int) string {
	rest := text[offset:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		return rest[:i]
	}
	return rest
}

func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineOf maps a byte offset to its zero-based line number.
func lineOf(starts []int, offset int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
}
