package structure

import (
	"testing"

	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headerAnalysis(format models.FormatType, headers ...string) models.StructureAnalysis {
	return models.StructureAnalysis{
		HeaderFound: true,
		HeaderIndex: 0,
		DataStart:   1,
		ColumnCount: len(headers),
		FormatType:  format,
		Headers:     headers,
	}
}

func TestBuildMapping_KeywordMatch(t *testing.T) {
	tests := []struct {
		name     string
		analysis models.StructureAnalysis
		want     map[models.Field]int
	}{
		{
			name:     "ledger",
			analysis: headerAnalysis(models.FormatLedgerCreditDebit, "Data", "Histórico", "Docto", "Crédito", "Débito", "Saldo"),
			want: map[models.Field]int{
				models.FieldDate: 0, models.FieldDescription: 1, models.FieldDocumentRef: 2,
				models.FieldCredit: 3, models.FieldDebit: 4, models.FieldBalance: 5,
			},
		},
		{
			name:     "ledger with reordered columns",
			analysis: headerAnalysis(models.FormatLedgerCreditDebit, "Débito", "Crédito", "Lançamento", "Data"),
			want: map[models.Field]int{
				models.FieldDebit: 0, models.FieldCredit: 1, models.FieldDescription: 2, models.FieldDate: 3,
			},
		},
		{
			name:     "statement export",
			analysis: headerAnalysis(models.FormatStatementExport, "Data e hora", "Categoria", "Transação", "Descrição", "Valor"),
			want: map[models.Field]int{
				models.FieldDate: 0, models.FieldCategory: 1, models.FieldLabel: 2,
				models.FieldDescription: 3, models.FieldValue: 4,
			},
		},
		{
			name:     "generic english",
			analysis: headerAnalysis(models.FormatGeneric, "Date", "Memo", "Amount"),
			want:     map[models.Field]int{models.FieldDate: 0, models.FieldDescription: 1, models.FieldValue: 2},
		},
		{
			name:     "misspelt header matched with one edit",
			analysis: headerAnalysis(models.FormatGeneric, "Data", "Historco", "Valor"),
			want:     map[models.Field]int{models.FieldDate: 0, models.FieldDescription: 1, models.FieldValue: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapping, warnings, err := BuildMapping("in.csv", tt.analysis)
			require.NoError(t, err)
			assert.Empty(t, warnings)
			assert.Equal(t, tt.want, mapping.Columns)
			assert.Empty(t, mapping.Positional)
		})
	}
}

func TestBuildMapping_PositionalFallbackForMissingRequiredField(t *testing.T) {
	analysis := headerAnalysis(models.FormatGeneric, "Data", "Texto", "Valor")

	mapping, warnings, err := BuildMapping("in.csv", analysis)
	require.NoError(t, err)
	assert.Equal(t, 1, mapping.Columns[models.FieldDescription])
	assert.Equal(t, []models.Field{models.FieldDescription}, mapping.Positional)
	require.Len(t, warnings, 1)
	assert.Equal(t, parsererror.WarnPositionalMapping, warnings[0].Code)
}

func TestBuildMapping_NoHeaderUsesPositionalDefaults(t *testing.T) {
	analysis := models.StructureAnalysis{HeaderIndex: -1, ColumnCount: 5, FormatType: models.FormatLedgerCreditDebit}

	mapping, warnings, err := BuildMapping("in.csv", analysis)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, map[models.Field]int{
		models.FieldDate: 0, models.FieldDescription: 1, models.FieldDocumentRef: 2,
		models.FieldCredit: 3, models.FieldDebit: 4,
	}, mapping.Columns)
	assert.False(t, mapping.Has(models.FieldBalance))
}

func TestBuildMapping_RequiredColumnMissing(t *testing.T) {
	// The only free slot for description is taken by the value column.
	analysis := headerAnalysis(models.FormatGeneric, "Data", "Valor")

	_, _, err := BuildMapping("in.csv", analysis)
	require.Error(t, err)
	assert.True(t, parsererror.IsValidation(err))
	assert.Contains(t, err.Error(), `required column "description" is missing`)
}

func TestBuildMapping_UnknownFormat(t *testing.T) {
	_, _, err := BuildMapping("in.csv", models.StructureAnalysis{FormatType: "mystery"})
	assert.True(t, parsererror.IsValidation(err))
}
