package analyze

import (
	"context"
	"sort"

	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/parser"
	"fjacquet/statement-import/internal/parsererror"
	"fjacquet/statement-import/internal/pdfparser"
	"fjacquet/statement-import/internal/structure"
)

// Finding severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Finding represents a single issue found during analysis.
type Finding struct {
	Severity string `json:"severity" yaml:"severity"`
	Summary  string `json:"summary" yaml:"summary"`
}

// Report represents the full analysis of one statement file.
type Report struct {
	File      string           `json:"file" yaml:"file"`
	Extractor string           `json:"extractor" yaml:"extractor"`
	Encoding  string           `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Sheet     string           `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Structure *StructureReport `json:"structure,omitempty" yaml:"structure,omitempty"`
	PDF       *PDFReport       `json:"pdf,omitempty" yaml:"pdf,omitempty"`
	Findings  []Finding        `json:"findings" yaml:"findings"`
	Metrics   map[string]int   `json:"metrics" yaml:"metrics"`
}

// StructureReport describes a tabular statement and its column mapping.
type StructureReport struct {
	Separator        string         `json:"separator,omitempty" yaml:"separator,omitempty"`
	HeaderFound      bool           `json:"headerFound" yaml:"header_found"`
	HeaderIndex      int            `json:"headerIndex" yaml:"header_index"`
	DataStart        int            `json:"dataStart" yaml:"data_start"`
	ColumnCount      int            `json:"columnCount" yaml:"column_count"`
	FormatType       string         `json:"formatType" yaml:"format_type"`
	MatchedRule      string         `json:"matchedRule,omitempty" yaml:"matched_rule,omitempty"`
	Headers          []string       `json:"headers,omitempty" yaml:"headers,omitempty"`
	InconsistentRows int            `json:"inconsistentRows" yaml:"inconsistent_rows"`
	Mapping          map[string]int `json:"mapping" yaml:"mapping"`
	Positional       []string       `json:"positional,omitempty" yaml:"positional,omitempty"`
}

// PDFReport describes the detected layout and the surviving candidates.
type PDFReport struct {
	Layout     string            `json:"layout" yaml:"layout"`
	Fallback   bool              `json:"fallback" yaml:"fallback"`
	Scores     map[string]int    `json:"scores" yaml:"scores"`
	Candidates []CandidateReport `json:"candidates" yaml:"candidates"`
	Rejected   int               `json:"rejected" yaml:"rejected"`
}

// CandidateReport is one merged PDF candidate.
type CandidateReport struct {
	Line        int    `json:"line" yaml:"line"`
	Date        string `json:"date" yaml:"date"`
	Description string `json:"description" yaml:"description"`
	Amount      string `json:"amount" yaml:"amount"`
	Strategy    string `json:"strategy" yaml:"strategy"`
}

type tabularAnalyzer interface {
	Analyze(raw models.RawStatement) (*structure.Table, models.ColumnMapping, []parsererror.ValidationWarning, error)
}

type pdfAnalyzer interface {
	Candidates(lines []string) (pdfparser.Detection, []pdfparser.Candidate, []error)
}

// Analyze extracts and validates a statement with ext and describes what the
// parser would see, without producing transactions.
func Analyze(ctx context.Context, ext parser.FullParser, name string, data []byte) (*Report, error) {
	raw, err := ext.Extract(ctx, name, data)
	if err != nil {
		return nil, err
	}

	report := &Report{
		File:      name,
		Extractor: ext.Name(),
		Encoding:  raw.Encoding,
		Sheet:     raw.Sheet,
		Findings:  []Finding{},
		Metrics:   map[string]int{"Lines": len(raw.Lines)},
	}

	warnings, verr := ext.Validate(raw)
	if verr != nil {
		report.Findings = append(report.Findings, Finding{Severity: SeverityError, Summary: verr.Error()})
	}
	for _, w := range warnings {
		report.Findings = append(report.Findings, Finding{Severity: SeverityWarning, Summary: w.String()})
	}
	report.Metrics["Warnings"] = len(warnings)
	if verr != nil {
		return report, nil
	}

	switch a := ext.(type) {
	case tabularAnalyzer:
		table, mapping, _, err := a.Analyze(raw)
		if err != nil {
			return nil, err
		}
		report.Structure = structureReport(table.Analysis, mapping)
		report.Metrics["Data Rows"] = len(table.DataRows())
	case pdfAnalyzer:
		detection, kept, rejected := a.Candidates(raw.Lines)
		report.PDF = pdfReport(detection, kept, len(rejected))
		report.Metrics["Candidates"] = len(kept)
		report.Metrics["Rejected"] = len(rejected)
	}
	return report, nil
}

func structureReport(a models.StructureAnalysis, mapping models.ColumnMapping) *StructureReport {
	r := &StructureReport{
		HeaderFound:      a.HeaderFound,
		HeaderIndex:      a.HeaderIndex,
		DataStart:        a.DataStart,
		ColumnCount:      a.ColumnCount,
		FormatType:       string(a.FormatType),
		MatchedRule:      a.MatchedRule,
		Headers:          a.Headers,
		InconsistentRows: a.InconsistentRows,
		Mapping:          make(map[string]int, len(mapping.Columns)),
	}
	if a.Separator != 0 {
		r.Separator = string(a.Separator)
	}
	for field, idx := range mapping.Columns {
		r.Mapping[string(field)] = idx
	}
	for _, field := range mapping.Positional {
		r.Positional = append(r.Positional, string(field))
	}
	sort.Strings(r.Positional)
	return r
}

func pdfReport(d pdfparser.Detection, kept []pdfparser.Candidate, rejected int) *PDFReport {
	r := &PDFReport{
		Layout:     string(d.Layout),
		Fallback:   d.Fallback,
		Scores:     make(map[string]int, len(d.Scores)),
		Candidates: make([]CandidateReport, 0, len(kept)),
		Rejected:   rejected,
	}
	for layout, score := range d.Scores {
		r.Scores[string(layout)] = score
	}
	for _, c := range kept {
		r.Candidates = append(r.Candidates, CandidateReport{
			Line:        c.Line + 1,
			Date:        c.Date.String(),
			Description: c.Description,
			Amount:      c.Amount.StringFixed(2),
			Strategy:    c.Strategy,
		})
	}
	return r
}
