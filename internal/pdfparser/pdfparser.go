// Package pdfparser extracts card and bank statements rendered as PDF.
//
// Only reading-order text survives extraction, so parsing is heuristic: the
// text is scored against known statement layouts, the matching strategies run
// over the same text, and their candidates are merged and filtered before the
// import context is applied.
package pdfparser

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"fjacquet/statement-import/internal/contextapplier"
	"fjacquet/statement-import/internal/dateutils"
	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/parser"
	"fjacquet/statement-import/internal/parsererror"

	"github.com/cloudflare/ahocorasick"
	"github.com/shopspring/decimal"
)

var pdfSignature = []byte("%PDF-")

// Default amount bounds for a plausible statement line.
var (
	DefaultMinAmount = decimal.New(1, -2)
	DefaultMaxAmount = decimal.NewFromInt(50000)
)

// Options tunes the heuristics of a PDFParser.
type Options struct {
	MinAmount    decimal.Decimal
	MaxAmount    decimal.Decimal
	Merchants    []string
	IssuerTokens []string
	Categories   []string
	// Now is the clock used when the text carries no full date.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if !o.MinAmount.IsPositive() {
		o.MinAmount = DefaultMinAmount
	}
	if !o.MaxAmount.GreaterThan(o.MinAmount) {
		o.MaxAmount = DefaultMaxAmount
	}
	if o.Categories == nil {
		o.Categories = DefaultCategories
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// PDFParser implements parser.FullParser for PDF statements.
type PDFParser struct {
	parser.BaseParser
	handle    *Handle
	applier   *contextapplier.Applier
	scorer    *scorer
	merchants *ahocorasick.Matcher
	opts      Options
}

// NewPDFParser creates a PDF extractor reading text through handle.
func NewPDFParser(logger logging.Logger, handle *Handle, applier *contextapplier.Applier, opts Options) *PDFParser {
	opts = opts.withDefaults()
	if applier == nil {
		applier = contextapplier.New(opts.Now)
	}
	return &PDFParser{
		BaseParser: parser.NewBaseParser(logger),
		handle:     handle,
		applier:    applier,
		scorer:     newScorer(opts.IssuerTokens, opts.Categories),
		merchants:  newMatcher(opts.Merchants),
		opts:       opts,
	}
}

// Name implements parser.FullParser.
func (p *PDFParser) Name() string { return string(models.SourcePDF) }

// Accepts takes .pdf files and anything starting with the PDF signature.
func (p *PDFParser) Accepts(name string, head []byte) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf") || bytes.HasPrefix(head, pdfSignature)
}

// Extract loads the text backend on first use and returns the text lines.
func (p *PDFParser) Extract(ctx context.Context, name string, data []byte) (models.RawStatement, error) {
	if p.handle == nil {
		return models.RawStatement{}, parsererror.NewFatal(name, "pdf text backend unavailable", ErrBackendUnavailable)
	}
	extractor, err := p.handle.Get(ctx)
	if err != nil {
		return models.RawStatement{}, parsererror.NewFatal(name, "pdf text backend unavailable", err)
	}
	text, err := extractor.ExtractText(ctx, data)
	if err != nil {
		return models.RawStatement{}, parsererror.NewFatal(name, "failed to extract PDF text", err)
	}

	lines := splitLines(text)
	p.GetLogger().Debug("Extracted PDF text",
		logging.Field{Key: logging.FieldFile, Value: name},
		logging.Field{Key: logging.FieldCount, Value: len(lines)})

	return models.RawStatement{
		Name:     name,
		Size:     int64(len(data)),
		Encoding: "utf-8",
		Kind:     models.SourcePDF,
		Lines:    lines,
	}, nil
}

func splitLines(text string) []string {
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n").Replace(text)
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Validate rejects text without any dated line and warns when no layout
// could be recognised.
func (p *PDFParser) Validate(raw models.RawStatement) ([]parsererror.ValidationWarning, error) {
	if !hasDatedLine(raw.Lines) {
		return nil, &parsererror.ValidationError{FilePath: raw.Name, Reason: "no dated lines found in PDF text"}
	}
	detection := p.scorer.Detect(raw.Lines)
	if detection.Fallback {
		return []parsererror.ValidationWarning{
			parsererror.Warn(parsererror.WarnLayoutFallback,
				"PDF layout not recognised, using a generic date/description/amount scan"),
		}, nil
	}
	return nil, nil
}

// Candidates runs the strategies of the detected layout over the lines and
// returns the merged candidates that pass the filter, with one error per
// rejected candidate.
func (p *PDFParser) Candidates(lines []string) (Detection, []Candidate, []error) {
	detection := p.scorer.Detect(lines)
	text := strings.Join(lines, "\n")
	dates := newDateResolver(text, dateutils.FromTime(p.opts.Now()))

	var pools [][]Candidate
	switch detection.Layout {
	case LayoutIssuer:
		pools = [][]Candidate{
			strictScan(lines, dates),
			looseSweep(text, dates),
			merchantSearch(lines, p.merchants, dates),
		}
	case LayoutCard:
		pools = [][]Candidate{cardScan(lines, dates)}
	case LayoutCategorized:
		pools = [][]Candidate{categorizedScan(lines, p.opts.Categories, dates)}
	case LayoutTabular:
		pools = [][]Candidate{tabularScan(lines, dates)}
	default:
		pools = [][]Candidate{strictScan(lines, dates)}
	}

	merged := Merge(pools...)
	kept, rejected := Filter(merged, p.opts.MinAmount, p.opts.MaxAmount)

	p.GetLogger().Debug("Merged PDF candidates",
		logging.Field{Key: logging.FieldLayout, Value: detection.Layout},
		logging.Field{Key: logging.FieldCount, Value: len(merged)},
		logging.Field{Key: logging.FieldSkipped, Value: len(rejected)})
	return detection, kept, rejected
}

// Parse implements parser.Parser.
func (p *PDFParser) Parse(ctx context.Context, raw models.RawStatement, ictx models.ImportContext) (parser.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return parser.Outcome{}, err
	}
	detection, kept, rejected := p.Candidates(raw.Lines)

	source := fmt.Sprintf("%s/%s", models.SourcePDF, detection.Layout)
	drafts := make([]models.Draft, 0, len(kept))
	for _, c := range kept {
		drafts = append(drafts, models.Draft{
			Date:        c.Date,
			Description: c.Description,
			Magnitude:   c.Amount.Abs(),
			Kind:        kindOf(detection.Layout, c.Amount),
			Notes:       c.Notes,
			Source:      source,
			SourceLine:  c.Raw,
			Row:         c.Line,
		})
	}

	txs, invalid, err := p.applier.Apply(drafts, ictx)
	if err != nil {
		return parser.Outcome{}, err
	}
	return parser.Outcome{
		Transactions: txs,
		Layout:       string(detection.Layout),
		RowsRead:     rowsRead(raw.Lines, len(kept)+len(rejected)),
		Skipped:      append(rejected, invalid...),
	}, nil
}

// rowsRead counts the dated lines of the statement. Rows recovered from
// undated lines by the loose strategies never make it lower than the
// candidates seen.
func rowsRead(lines []string, candidates int) int {
	if n := countDatedLines(lines); n > candidates {
		return n
	}
	return candidates
}

// kindOf reads the sign of a printed amount. Card statements print charges
// as positive amounts and credits as negative ones; bank statements do the
// opposite.
func kindOf(layout Layout, amount decimal.Decimal) models.TransactionKind {
	switch layout {
	case LayoutIssuer, LayoutCard, LayoutCategorized:
		return models.KindFromSign(amount.Neg())
	}
	return models.KindFromSign(amount)
}
