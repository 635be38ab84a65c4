package batch

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"fjacquet/statement-import/internal/dateutils"
	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"
)

// DateRange represents a date range with start and end dates
type DateRange struct {
	Start dateutils.Date
	End   dateutils.Date
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s", dr.Start, dr.End)
}

// Merge combines this date range with another, returning the overall range
func (dr DateRange) Merge(other DateRange) DateRange {
	start, end := dr.Start, dr.End
	if start.IsZero() || (!other.Start.IsZero() && other.Start.Before(start)) {
		start = other.Start
	}
	if end.IsZero() || (!other.End.IsZero() && other.End.After(end)) {
		end = other.End
	}
	return DateRange{Start: start, End: end}
}

// Group is the consolidated output of every job with the same destination.
type Group struct {
	// Key is the account id, or the card id and billing cycle.
	Key          string
	Files        []string
	DateRange    DateRange
	Transactions []models.CanonicalTransaction
	Duplicates   int
}

// Aggregator consolidates job results per destination.
type Aggregator struct {
	logger logging.Logger
}

// NewAggregator creates a new Aggregator instance
func NewAggregator(logger logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Aggregator{logger: logger}
}

// DestinationKey names the group a job belongs to.
func DestinationKey(ictx models.ImportContext) string {
	if ictx.IsCard() {
		return ictx.DestinationID + "_" + ictx.BillingCycleKey
	}
	return ictx.DestinationID
}

// Aggregate groups successful results by destination. Within a group,
// transactions are sorted chronologically and renumbered; failed jobs are
// left out. Groups are sorted by key.
func (a *Aggregator) Aggregate(results []JobResult) []Group {
	groups := make(map[string]*Group)
	for _, res := range results {
		if res.Err != nil || res.Result == nil {
			continue
		}
		key := DestinationKey(res.Job.Context())
		g, ok := groups[key]
		if !ok {
			g = &Group{Key: key}
			groups[key] = g
		}
		g.Files = append(g.Files, filepath.Base(res.Job.File))
		g.Transactions = append(g.Transactions, res.Result.Transactions...)
	}

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		sortChronologically(g.Transactions)
		for i := range g.Transactions {
			g.Transactions[i].Position = i
		}
		g.DateRange = dateRangeOf(g.Transactions)
		g.Duplicates = a.detectAndLogDuplicates(g.Transactions, g.Key)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	a.logger.Info("Grouped results by destination",
		logging.Field{Key: logging.FieldCount, Value: len(results)},
		logging.Field{Key: "groups", Value: len(out)})
	return out
}

func sortChronologically(txs []models.CanonicalTransaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
}

// detectAndLogDuplicates counts transactions repeated across overlapping
// statements. Duplicates are reported, never removed.
func (a *Aggregator) detectAndLogDuplicates(txs []models.CanonicalTransaction, key string) int {
	count := 0
	for i := 0; i < len(txs)-1; i++ {
		for j := i + 1; j < len(txs) && txs[j].Date == txs[i].Date; j++ {
			if arePotentialDuplicates(txs[i], txs[j]) {
				count++
				a.logger.Warn("Potential duplicate transaction",
					logging.Field{Key: "destination", Value: key},
					logging.Field{Key: "date", Value: txs[i].Date.String()},
					logging.Field{Key: "amount", Value: txs[i].Magnitude.String()},
					logging.Field{Key: "description", Value: txs[i].Description})
				break
			}
		}
	}
	return count
}

func arePotentialDuplicates(a, b models.CanonicalTransaction) bool {
	return a.Date == b.Date &&
		a.Kind == b.Kind &&
		a.Magnitude.Equal(b.Magnitude) &&
		strings.EqualFold(a.Description, b.Description)
}

func dateRangeOf(txs []models.CanonicalTransaction) DateRange {
	var dr DateRange
	for _, tx := range txs {
		dr = dr.Merge(DateRange{Start: tx.Date, End: tx.Date})
	}
	return dr
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// OutputFilename creates a filename for a group's consolidated output:
// {key}_{start}_{end}.{ext}, or {key}.{ext} without transactions.
func OutputFilename(g Group, ext string) string {
	key := unsafeFilenameChars.ReplaceAllString(g.Key, "_")
	if key == "" {
		key = "unknown"
	}
	if r := g.DateRange.String(); r != "" {
		return fmt.Sprintf("%s_%s.%s", key, r, ext)
	}
	return fmt.Sprintf("%s.%s", key, ext)
}
