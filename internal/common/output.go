// Package common provides the output side shared by the commands: writing
// import results as JSON, YAML or CSV and summarising them.
package common

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"fjacquet/statement-import/internal/currencyutils"
	"fjacquet/statement-import/internal/fileutils"
	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// WriteOptions selects how a result is rendered.
type WriteOptions struct {
	Format    string
	Delimiter rune
}

// WriteResult renders result to w. JSON and YAML carry the whole result;
// CSV carries the transactions only, one per line, with a header.
func WriteResult(w io.Writer, result *models.Result, opts WriteOptions) error {
	if result == nil {
		return fmt.Errorf("cannot write nil result")
	}
	switch strings.ToLower(opts.Format) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("error writing JSON data: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("error writing YAML data: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("error writing YAML data: %w", err)
		}
	case FormatCSV:
		return WriteTransactionsCSV(w, result.Transactions, opts.Delimiter)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
	return nil
}

// WriteTransactionsCSV writes transactions with gocsv using the given
// delimiter; zero means a comma.
func WriteTransactionsCSV(w io.Writer, transactions []models.CanonicalTransaction, delimiter rune) error {
	if transactions == nil {
		transactions = []models.CanonicalTransaction{}
	}
	if delimiter == 0 {
		delimiter = ','
	}
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter

	if err := gocsv.MarshalCSV(transactions, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteResultToFile writes result to outputPath, creating parent
// directories. An empty path or "-" writes to stdout.
func WriteResultToFile(outputPath string, stdout io.Writer, result *models.Result, opts WriteOptions, logger logging.Logger) error {
	if outputPath == "" || outputPath == "-" {
		return WriteResult(stdout, result, opts)
	}

	file, err := fileutils.CreateFile(outputPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := file.Close(); err != nil && logger != nil {
			logger.WithError(err).Warn("Failed to close output file")
		}
	}()

	if err := WriteResult(file, result, opts); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("Wrote import result",
			logging.Field{Key: logging.FieldOutputFile, Value: outputPath},
			logging.Field{Key: logging.FieldCount, Value: len(result.Transactions)})
	}
	return nil
}

// Totals sums the transactions of a result per kind.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Net is income minus expense.
func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// ComputeTotals adds up the magnitudes of every transaction by kind.
func ComputeTotals(transactions []models.CanonicalTransaction) Totals {
	totals := Totals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, tx := range transactions {
		switch tx.Kind {
		case models.KindIncome:
			totals.Income = totals.Income.Add(tx.Magnitude)
		case models.KindExpense:
			totals.Expense = totals.Expense.Add(tx.Magnitude)
		}
	}
	return totals
}

// Summary renders a one-paragraph human summary of result in currency.
func Summary(result *models.Result, currency string) string {
	totals := ComputeTotals(result.Transactions)
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d transactions from %d rows via %s (%s), %d skipped\n",
		result.File, len(result.Transactions), result.RowsRead, result.Source, result.Layout, result.RowsSkipped)
	fmt.Fprintf(&b, "  income %s, expense %s, net %s\n",
		currencyutils.Display(totals.Income, currency),
		currencyutils.Display(totals.Expense, currency),
		currencyutils.Display(totals.Net(), currency))
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "  warning: %s\n", w)
	}
	return b.String()
}
