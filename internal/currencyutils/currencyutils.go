// Package currencyutils turns the numeric tokens of bank exports into signed
// decimal values, resolving Brazilian and US separator conventions.
package currencyutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ErrInvalidValue means the token matched none of the supported number shapes.
var ErrInvalidValue = errors.New("unrecognized numeric value")

var (
	currencyTokens = regexp.MustCompile(`(?i)(R\$|US\$|\$|€|£|\bBRL\b|\bUSD\b|\bEUR\b|\bCHF\b)`)

	brazilDecimal = regexp.MustCompile(`^(?:\d{1,3}(?:\.\d{3})+|\d+),\d{1,2}$`)
	usDecimal     = regexp.MustCompile(`^(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{1,2}$`)
	swissGrouped  = regexp.MustCompile(`^\d{1,3}(?:'\d{3})+(?:\.\d{1,2})?$`)
	brazilGrouped = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	usGrouped     = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
	bareInteger   = regexp.MustCompile(`^\d+$`)
)

// ParseValue parses a monetary token into a signed decimal.
//
// Currency symbols and whitespace are ignored. A leading or trailing minus
// sign, or surrounding parentheses, make the value negative. A trailing ",DD"
// is read as Brazilian notation, a trailing ".DD" as US notation, and a bare
// integer is taken as the magnitude itself (so "1000" is 1000.00, not 10.00).
func ParseValue(token string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(token, "\u00a0", " ")
	s = currencyTokens.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty token", ErrInvalidValue)
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	switch {
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = !negative
		s = s[:len(s)-1]
	}

	normalized, err := normalizeDigits(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", err, token)
	}
	value, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidValue, token)
	}
	if negative {
		value = value.Neg()
	}
	return value, nil
}

func normalizeDigits(s string) (string, error) {
	switch {
	case brazilDecimal.MatchString(s):
		return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", "."), nil
	case usDecimal.MatchString(s):
		return strings.ReplaceAll(s, ",", ""), nil
	case swissGrouped.MatchString(s):
		return strings.ReplaceAll(s, "'", ""), nil
	case brazilGrouped.MatchString(s):
		return strings.ReplaceAll(s, ".", ""), nil
	case usGrouped.MatchString(s):
		return strings.ReplaceAll(s, ",", ""), nil
	case bareInteger.MatchString(s):
		return s, nil
	}
	return "", ErrInvalidValue
}

// IsNonZeroValue reports whether token parses to a value different from zero.
func IsNonZeroValue(token string) bool {
	v, err := ParseValue(token)
	return err == nil && !v.IsZero()
}

// ParseOptionalValue treats a blank token as zero, as ledger layouts leave the
// unused credit or debit cell empty.
func ParseOptionalValue(token string) (decimal.Decimal, error) {
	if strings.TrimSpace(strings.ReplaceAll(token, "\u00a0", " ")) == "" {
		return decimal.Zero, nil
	}
	return ParseValue(token)
}

// Display renders amount in the given ISO currency with its local symbol and
// separators, e.g. "R$1.234,56".
func Display(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = "BRL"
	}
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, strings.ToUpper(currency)).Display()
}
