// Package dateutils parses the date tokens found in bank and card exports.
//
// Parsing is strict: a token is accepted only when the captured day, month
// and year describe a real calendar day, so "31/02/2024" is rejected instead
// of rolling over into March.
package dateutils

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutBrazil   = "02/01/2006"
	DateLayoutDash     = "02-01-2006"
	DateLayoutDotted   = "02.01.2006"
	DateLayoutDateTime = "02/01/2006 15:04"
)

var (
	// ErrUnrecognizedDate means no supported pattern matched the token.
	ErrUnrecognizedDate = errors.New("unrecognized date format")
	// ErrInvalidCalendarDate means a pattern matched but the day does not exist.
	ErrInvalidCalendarDate = errors.New("invalid calendar date")
)

type dateOrder int

const (
	dayMonthYear dateOrder = iota
	yearMonthDay
)

type datePattern struct {
	name  string
	re    *regexp.Regexp
	order dateOrder
}

// Tried in order; the first pattern that matches decides the outcome.
var datePatterns = []datePattern{
	{DateLayoutBrazil, regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`), dayMonthYear},
	{DateLayoutISO, regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`), yearMonthDay},
	{DateLayoutDash, regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`), dayMonthYear},
	{DateLayoutDotted, regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`), dayMonthYear},
	{DateLayoutDateTime, regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})\s+\d{1,2}:\d{2}(?::\d{2})?$`), dayMonthYear},
	{"2006-01-02 15:04:05", regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})[ T]\d{1,2}:\d{2}(?::\d{2})?(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?$`), yearMonthDay},
}

var dayMonthPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)

// ParseDate parses token against the supported patterns and returns the
// calendar day together with the layout name that matched.
func ParseDate(token string) (Date, string, error) {
	s := CleanDateString(token)
	if s == "" {
		return Date{}, "", fmt.Errorf("%w: empty token", ErrUnrecognizedDate)
	}
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		var y, mo, d string
		switch p.order {
		case yearMonthDay:
			y, mo, d = m[1], m[2], m[3]
		default:
			d, mo, y = m[1], m[2], m[3]
		}
		date, err := buildDate(y, mo, d)
		if err != nil {
			return Date{}, p.name, fmt.Errorf("%w: %q", err, token)
		}
		return date, p.name, nil
	}
	return Date{}, "", fmt.Errorf("%w: %q", ErrUnrecognizedDate, token)
}

// ParseDateString is ParseDate without the matched layout.
func ParseDateString(token string) (Date, error) {
	d, _, err := ParseDate(token)
	return d, err
}

// IsDate reports whether token parses as a valid calendar day.
func IsDate(token string) bool {
	_, _, err := ParseDate(token)
	return err == nil
}

// ParseDayMonth parses a "DD/MM" token, as printed on card statements, using
// the given statement year.
func ParseDayMonth(token string, year int) (Date, error) {
	m := dayMonthPattern.FindStringSubmatch(CleanDateString(token))
	if m == nil {
		return Date{}, fmt.Errorf("%w: %q", ErrUnrecognizedDate, token)
	}
	date, err := buildDate(strconv.Itoa(year), m[2], m[1])
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", err, token)
	}
	return date, nil
}

func buildDate(ys, ms, ds string) (Date, error) {
	y, errY := strconv.Atoi(ys)
	m, errM := strconv.Atoi(ms)
	d, errD := strconv.Atoi(ds)
	if errY != nil || errM != nil || errD != nil {
		return Date{}, ErrUnrecognizedDate
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return Date{}, ErrInvalidCalendarDate
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return Date{}, ErrInvalidCalendarDate
	}
	return Date{y, time.Month(m), d}, nil
}

// CleanDateString trims the token and collapses inner whitespace, including
// the non-breaking spaces common in spreadsheet exports.
func CleanDateString(token string) string {
	token = strings.ReplaceAll(token, "\u00a0", " ")
	return strings.Join(strings.Fields(token), " ")
}
