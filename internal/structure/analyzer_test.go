package structure

import (
	"testing"

	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultHeaderScanLines, logging.NewMockLogger())
}

func TestDetectSeparator(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  rune
		ok    bool
	}{
		{"semicolon header", []string{"Data;Historico;Docto;Credito;Debito"}, ';', true},
		{"semicolon beats decimal comma", []string{"01/05/2024;Salario;000;5000,00;0,00"}, ';', true},
		{"comma", []string{"Date,Description,Amount"}, ',', true},
		{"tab", []string{"Date\tDescription\tAmount"}, '\t', true},
		{"pipe", []string{"Date|Description|Amount"}, '|', true},
		{"tie goes to first candidate", []string{"a;b,c"}, ';', true},
		{"quoted comma is not a separator", []string{`"Pagamento; boleto",10`}, ',', true},
		{"title line skipped", []string{"", "Extrato de conta", "Data;Valor"}, ';', true},
		{"single column everywhere", []string{"hello", "world"}, 0, false},
		{"no lines", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectSeparator(tt.lines, DefaultHeaderScanLines)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectSeparator_RespectsScanLimit(t *testing.T) {
	lines := []string{"title", "subtitle", "Data;Valor"}
	_, ok := DetectSeparator(lines, 2)
	assert.False(t, ok)
}

func TestAnalyze_DetectsFormatType(t *testing.T) {
	tests := []struct {
		name       string
		lines      []string
		wantFormat models.FormatType
		wantHeader int
		wantRule   string
	}{
		{
			name:       "ledger",
			lines:      []string{"Data;Historico;Docto;Credito;Debito", "01/05/2024;Salario;000;5000,00;0,00"},
			wantFormat: models.FormatLedgerCreditDebit,
			wantHeader: 0,
			wantRule:   "ledger-credit-debit",
		},
		{
			name:       "statement export is not claimed by the generic rule",
			lines:      []string{"Data e hora;Categoria;Transação;Descrição;Valor", "01/05/2024 10:00;Compras;Pix enviado;Mercado;-50,00"},
			wantFormat: models.FormatStatementExport,
			wantHeader: 0,
			wantRule:   "statement-export",
		},
		{
			name:       "generic after title lines",
			lines:      []string{"Banco Exemplo", "Conta: 1234", "Date,Description,Amount", "2024-05-01,Coffee,-3.50"},
			wantFormat: models.FormatGeneric,
			wantHeader: 2,
			wantRule:   "generic-date-value",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := newTestAnalyzer().Analyze(models.RawStatement{Name: "in.csv", Kind: models.SourceCSV, Lines: tt.lines})
			require.NoError(t, err)
			assert.True(t, table.Analysis.HeaderFound)
			assert.Equal(t, tt.wantFormat, table.Analysis.FormatType)
			assert.Equal(t, tt.wantHeader, table.Analysis.HeaderIndex)
			assert.Equal(t, tt.wantHeader+1, table.Analysis.DataStart)
			assert.Equal(t, tt.wantRule, table.Analysis.MatchedRule)
			assert.Empty(t, table.Warnings)
		})
	}
}

func TestAnalyze_IsDeterministic(t *testing.T) {
	raw := models.RawStatement{Name: "in.csv", Lines: []string{"Data;Historico;Valor", "01/05/2024;Padaria;-12,50"}}
	first, err := newTestAnalyzer().Analyze(raw)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := newTestAnalyzer().Analyze(raw)
		require.NoError(t, err)
		assert.Equal(t, first.Analysis, again.Analysis)
	}
}

func TestAnalyze_HeaderlessFallback(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  models.FormatType
	}{
		{"three columns", []string{"01/05/2024;Padaria;-12,50"}, models.FormatGeneric},
		{"credit and debit columns", []string{"01/05/2024;Salario;000;5000,00;0,00"}, models.FormatLedgerCreditDebit},
		{"export columns", []string{"01/05/2024;Compras;Pix;Mercado;-50,00"}, models.FormatStatementExport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := newTestAnalyzer().Analyze(models.RawStatement{Name: "in.csv", Lines: tt.lines})
			require.NoError(t, err)
			assert.False(t, table.Analysis.HeaderFound)
			assert.Equal(t, -1, table.Analysis.HeaderIndex)
			assert.Equal(t, 0, table.Analysis.DataStart)
			assert.Equal(t, tt.want, table.Analysis.FormatType)
			require.Len(t, table.Warnings, 1)
			assert.Equal(t, parsererror.WarnHeaderNotDetected, table.Warnings[0].Code)
		})
	}
}

func TestAnalyze_UndetectableSeparator(t *testing.T) {
	_, err := newTestAnalyzer().Analyze(models.RawStatement{Name: "notes.txt", Lines: []string{"just text", "more text"}})
	require.Error(t, err)
	assert.True(t, parsererror.IsValidation(err))
}

func TestAnalyze_InconsistentColumnsWarning(t *testing.T) {
	lines := []string{
		"Data;Historico;Valor",
		"01/05/2024;Padaria;-12,50",
		"02/05/2024;Mercado;-80,00;extra",
	}
	table, err := newTestAnalyzer().Analyze(models.RawStatement{Name: "in.csv", Lines: lines})
	require.NoError(t, err)
	assert.Equal(t, 1, table.Analysis.InconsistentRows)
	require.Len(t, table.Warnings, 1)
	assert.Equal(t, parsererror.WarnInconsistentColumns, table.Warnings[0].Code)
}

func TestAnalyze_ExcelDataStartSkipsMetadata(t *testing.T) {
	rows := [][]string{
		{"Extrato de conta corrente"},
		{"Cliente: Maria Souza"},
		{"Periodo: 01/05/2024 a 31/05/2024"},
		{"Saldo anterior", "01/05/2024", "1.000,00"},
		{"Data", "Descricao", "Valor"},
		{"02/05/2024", "Padaria", "-12,50"},
		{"03/05/2024", "Mercado", "-80,00"},
	}
	table, err := newTestAnalyzer().Analyze(models.RawStatement{Name: "in.xlsx", Kind: models.SourceExcel, Rows: rows})
	require.NoError(t, err)
	assert.Equal(t, 4, table.Analysis.HeaderIndex)
	assert.Equal(t, 5, table.Analysis.DataStart)
	assert.Equal(t, models.FormatGeneric, table.Analysis.FormatType)
	assert.Len(t, table.DataRows(), 2)
}

func TestDetectDataStart(t *testing.T) {
	rows := [][]string{
		{"Relatorio"},
		{"Saldo do dia", "01/05/2024", "250,00"},
		{"Data", "Valor"},
		{"", ""},
		{"02/05/2024", "Padaria", "0,00"},
		{"03/05/2024", "Mercado", "-80,00"},
	}
	start, ok := DetectDataStart(rows, 0)
	require.True(t, ok)
	assert.Equal(t, 5, start)

	_, ok = DetectDataStart(rows[:4], 0)
	assert.False(t, ok)
}

func TestIsNoiseRow(t *testing.T) {
	tests := []struct {
		row  []string
		want bool
	}{
		{[]string{"Saldo anterior", "100,00"}, true},
		{[]string{"", "Daily balance", "100.00"}, true},
		{[]string{"Agência: 0001"}, true},
		{[]string{"Account holder: John"}, true},
		{[]string{"01/05/2024", "Saldo", "10,00"}, false},
		{[]string{"Balancete mensal"}, false},
		{[]string{"", ""}, false},
	}
	for _, tt := range tests {
		t.Run(tt.row[0], func(t *testing.T) {
			assert.Equal(t, tt.want, IsNoiseRow(tt.row))
		})
	}
}
