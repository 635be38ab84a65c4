package structure

import (
	"fmt"

	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/parsererror"
	"fjacquet/statement-import/internal/textutils"
)

// mappingOrder is the order fields claim header columns. A column is claimed
// at most once, so specific fields go before the broad description keywords.
var mappingOrder = []models.Field{
	models.FieldDate,
	models.FieldCredit,
	models.FieldDebit,
	models.FieldBalance,
	models.FieldCategory,
	models.FieldLabel,
	models.FieldValue,
	models.FieldDocumentRef,
	models.FieldDescription,
}

// layout lists, per FormatType, the fields its row parser reads, the ones it
// cannot do without, and their positional defaults.
type layout struct {
	fields     []models.Field
	required   []models.Field
	positional map[models.Field]int
}

var layouts = map[models.FormatType]layout{
	models.FormatGeneric: {
		fields:   []models.Field{models.FieldDate, models.FieldDescription, models.FieldValue, models.FieldBalance, models.FieldCategory, models.FieldDocumentRef},
		required: []models.Field{models.FieldDate, models.FieldDescription, models.FieldValue},
		positional: map[models.Field]int{
			models.FieldDate:        0,
			models.FieldDescription: 1,
			models.FieldValue:       2,
		},
	},
	models.FormatLedgerCreditDebit: {
		fields:   []models.Field{models.FieldDate, models.FieldDescription, models.FieldDocumentRef, models.FieldCredit, models.FieldDebit, models.FieldBalance},
		required: []models.Field{models.FieldDate, models.FieldDescription, models.FieldCredit, models.FieldDebit},
		positional: map[models.Field]int{
			models.FieldDate:        0,
			models.FieldDescription: 1,
			models.FieldDocumentRef: 2,
			models.FieldCredit:      3,
			models.FieldDebit:       4,
			models.FieldBalance:     5,
		},
	},
	models.FormatStatementExport: {
		fields:   []models.Field{models.FieldDate, models.FieldCategory, models.FieldLabel, models.FieldDescription, models.FieldValue},
		required: []models.Field{models.FieldDate, models.FieldDescription, models.FieldValue},
		positional: map[models.Field]int{
			models.FieldDate:        0,
			models.FieldCategory:    1,
			models.FieldLabel:       2,
			models.FieldDescription: 3,
			models.FieldValue:       4,
		},
	},
}

// BuildMapping resolves the logical fields of analysis.FormatType to column
// indices. Header cells are matched by keyword first, then with one typo
// allowed. Without a header every field takes its positional default; with a
// header only unmatched required fields do, and a warning is returned. A
// required field that still has no column is a ValidationError.
func BuildMapping(filePath string, analysis models.StructureAnalysis) (models.ColumnMapping, []parsererror.ValidationWarning, error) {
	lay, ok := layouts[analysis.FormatType]
	if !ok {
		return models.ColumnMapping{}, nil, &parsererror.ValidationError{
			FilePath: filePath,
			Reason:   fmt.Sprintf("unknown format type %q", analysis.FormatType),
		}
	}

	mapping := models.NewColumnMapping()
	taken := make(map[int]bool)

	if analysis.HeaderFound {
		wanted := make(map[models.Field]bool, len(lay.fields))
		for _, f := range lay.fields {
			wanted[f] = true
		}
		for _, matcher := range []func(string, []string) bool{textutils.ContainsAnyWord, fuzzyContainsAny} {
			for _, field := range mappingOrder {
				if !wanted[field] || mapping.Has(field) {
					continue
				}
				if idx, found := findColumn(analysis.Headers, fieldKeywords[field], taken, matcher); found {
					mapping.Columns[field] = idx
					taken[idx] = true
				}
			}
		}
	}

	var warnings []parsererror.ValidationWarning
	fallback := lay.required
	if !analysis.HeaderFound {
		fallback = lay.fields
	}
	for _, field := range fallback {
		if mapping.Has(field) {
			continue
		}
		idx, hasDefault := lay.positional[field]
		if !hasDefault || taken[idx] || (analysis.ColumnCount > 0 && idx >= analysis.ColumnCount) {
			continue
		}
		mapping.Columns[field] = idx
		mapping.Positional = append(mapping.Positional, field)
		taken[idx] = true
		if analysis.HeaderFound {
			warnings = append(warnings, parsererror.Warn(parsererror.WarnPositionalMapping,
				"column %q not found in header, using position %d", field, idx))
		}
	}

	for _, field := range lay.required {
		if !mapping.Has(field) {
			return models.ColumnMapping{}, warnings, &parsererror.ValidationError{
				FilePath: filePath,
				Reason:   fmt.Sprintf("required column %q is missing", field),
			}
		}
	}
	return mapping, warnings, nil
}

func findColumn(headers []string, keywords []string, taken map[int]bool, match func(string, []string) bool) (int, bool) {
	for i, header := range headers {
		if taken[i] {
			continue
		}
		if match(header, keywords) {
			return i, true
		}
	}
	return -1, false
}

func fuzzyContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if textutils.FuzzyContainsWord(text, kw) {
			return true
		}
	}
	return false
}
