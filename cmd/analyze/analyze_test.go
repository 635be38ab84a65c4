package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/statement-import/cmd/root"
	"fjacquet/statement-import/internal/config"
	"fjacquet/statement-import/internal/container"
	"fjacquet/statement-import/internal/factory"
	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/pdfparser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const ledgerCSV = "Data;Histórico;Crédito;Débito;Saldo\n" +
	"01/05/2024;PIX RECEBIDO;100,00;;1.100,00\n" +
	"02/05/2024;TARIFA;;5,00;1.095,00\n"

func TestAnalyze_CSV(t *testing.T) {
	ext, err := factory.GetExtractor(factory.CSV, factory.Deps{})
	require.NoError(t, err)

	report, err := Analyze(context.Background(), ext, "extrato.csv", []byte(ledgerCSV))
	require.NoError(t, err)

	assert.Equal(t, "csv", report.Extractor)
	require.NotNil(t, report.Structure)
	assert.Nil(t, report.PDF)
	assert.Equal(t, ";", report.Structure.Separator)
	assert.True(t, report.Structure.HeaderFound)
	assert.Equal(t, string(models.FormatLedgerCreditDebit), report.Structure.FormatType)
	assert.Contains(t, report.Structure.Mapping, string(models.FieldDate))
	assert.Equal(t, 2, report.Metrics["Data Rows"])
}

func TestAnalyze_PDF(t *testing.T) {
	text := "NUBANK\nResumo da fatura\nVencimento 15/03/2024\n" +
		"05/03 UBER* TRIP 25,90\n" +
		"05/03 UBER TRIP 25,90\n" +
		"07/03 PADARIA CENTRAL 12,50"
	handle := pdfparser.StaticHandle(pdfparser.NewMockExtractor(text, nil))
	ext, err := factory.GetExtractor(factory.PDF, factory.Deps{
		PDFHandle: handle,
		PDFOptions: pdfparser.Options{
			Merchants:    []string{"UBER"},
			IssuerTokens: []string{"nubank", "resumo da fatura", "vencimento"},
			Now:          func() time.Time { return time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC) },
		},
	})
	require.NoError(t, err)

	report, err := Analyze(context.Background(), ext, "fatura.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	require.NotNil(t, report.PDF)
	assert.Nil(t, report.Structure)
	assert.Equal(t, string(pdfparser.LayoutIssuer), report.PDF.Layout)
	require.Len(t, report.PDF.Candidates, 2)
	assert.Equal(t, "UBER* TRIP", report.PDF.Candidates[0].Description)
	assert.Equal(t, "25.90", report.PDF.Candidates[0].Amount)
	assert.Equal(t, 2, report.Metrics["Candidates"])
}

func TestAnalyze_ValidationFailureIsAFinding(t *testing.T) {
	handle := pdfparser.StaticHandle(pdfparser.NewMockExtractor("no transactions here\njust words", nil))
	ext, err := factory.GetExtractor(factory.PDF, factory.Deps{PDFHandle: handle})
	require.NoError(t, err)

	report, err := Analyze(context.Background(), ext, "empty.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	require.NotEmpty(t, report.Findings)
	assert.Equal(t, SeverityError, report.Findings[0].Severity)
	assert.Nil(t, report.PDF)
}

func TestRender(t *testing.T) {
	report := &Report{File: "a.csv", Extractor: "csv", Findings: []Finding{}, Metrics: map[string]int{"Lines": 3}}

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, report, ""))
		var got map[string]interface{}
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "a.csv", got["file"])
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, report, "json"))
		var got Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, 3, got.Metrics["Lines"])
	})
}

func TestAnalyzeCommand(t *testing.T) {
	c, err := container.NewContainer(config.DefaultConfig())
	require.NoError(t, err)
	original := root.AppContainer
	root.AppContainer = c
	t.Cleanup(func() { root.AppContainer = original })

	path := filepath.Join(t.TempDir(), "extrato.csv")
	require.NoError(t, os.WriteFile(path, []byte(ledgerCSV), 0600))

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&bytes.Buffer{})
	Cmd.SetArgs([]string{path})
	require.NoError(t, Cmd.Execute())

	assert.Contains(t, out.String(), "format_type: "+string(models.FormatLedgerCreditDebit))
}
