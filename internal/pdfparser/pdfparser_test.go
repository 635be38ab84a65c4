package pdfparser

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fjacquet/statement-import/internal/dateutils"
	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/parser"
	"fjacquet/statement-import/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = func() time.Time { return time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC) }

const issuerStatement = `NUBANK
Resumo da fatura
Vencimento 15/03/2024
05/03 UBER* TRIP 25,90
05/03 UBER TRIP 25,90
07/03 PADARIA CENTRAL 12,50`

func newTestParser(text string) *PDFParser {
	return NewPDFParser(logging.NewMockLogger(), StaticHandle(NewMockExtractor(text, nil)), nil, Options{
		Merchants:    []string{"UBER", "IFOOD"},
		IssuerTokens: []string{"nubank", "resumo da fatura", "vencimento"},
		Now:          testNow,
	})
}

func lines(text string) []string {
	return strings.Split(text, "\n")
}

func TestPDFParser_Accepts(t *testing.T) {
	p := newTestParser("")
	tests := []struct {
		name string
		file string
		head []byte
		want bool
	}{
		{"extension", "fatura.pdf", nil, true},
		{"upper case extension", "FATURA.PDF", nil, true},
		{"signature", "download", []byte("%PDF-1.7\n"), true},
		{"csv", "extrato.csv", []byte("Data;Valor"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Accepts(tt.file, tt.head))
		})
	}
}

func TestDetect(t *testing.T) {
	s := newScorer([]string{"nubank", "vencimento"}, DefaultCategories)
	tests := []struct {
		name     string
		text     string
		want     Layout
		fallback bool
	}{
		{"issuer tokens", issuerStatement, LayoutIssuer, false},
		{"masked card lines", "05/03 **** 1234 POSTO SHELL 150,00\n06/03 XXXX XXXX 1234 FARMACIA 20,00", LayoutCard, false},
		{"category keywords", "05/03/2024 MERCADO EXTRA Supermercado 89,90\n06/03/2024 CINEMA Lazer 40,00", LayoutCategorized, false},
		{"amount and balance", "05/03/2024 PIX RECEBIDO 100,00 1.100,00\n06/03/2024 TARIFA -5,00 1.095,00", LayoutTabular, false},
		{"nothing recognised", "05/03/2024 PADARIA 10,00", LayoutGeneric, true},
		{"tie", "05/03 **** 1234 POSTO SHELL 150,00\n05/03/2024 CINEMA Lazer 40,00", LayoutGeneric, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := s.Detect(lines(tt.text))
			assert.Equal(t, tt.want, d.Layout)
			assert.Equal(t, tt.fallback, d.Fallback)
		})
	}
}

func TestCandidates_DuplicateChargeKeepsLongerDescription(t *testing.T) {
	p := newTestParser(issuerStatement)

	detection, kept, rejected := p.Candidates(lines(issuerStatement))

	assert.Equal(t, LayoutIssuer, detection.Layout)
	assert.Empty(t, rejected)
	require.Len(t, kept, 2)
	assert.Equal(t, "UBER* TRIP", kept[0].Description)
	assert.Equal(t, dateutils.NewDate(2024, time.March, 5), kept[0].Date)
	assert.True(t, decimal.RequireFromString("25.90").Equal(kept[0].Amount))
	assert.Equal(t, "PADARIA CENTRAL", kept[1].Description)
}

func TestCandidates_Idempotent(t *testing.T) {
	p := newTestParser(issuerStatement)

	_, first, _ := p.Candidates(lines(issuerStatement))
	_, second, _ := p.Candidates(lines(issuerStatement))

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Date, second[i].Date)
		assert.Equal(t, first[i].Description, second[i].Description)
		assert.True(t, first[i].Amount.Equal(second[i].Amount))
	}
	assert.Len(t, Merge(first), len(first))
}

func TestCandidates_LooseStrategiesRecoverSplitRows(t *testing.T) {
	text := "NUBANK\nVencimento 15/03/2024\n08/03 NETFLIX.COM\n39,90\n09/03\nLIVRARIA CULTURA\n89,00"
	p := newTestParser(text)

	_, kept, _ := p.Candidates(lines(text))

	require.Len(t, kept, 2)
	assert.Equal(t, "NETFLIX.COM", kept[0].Description)
	assert.Equal(t, StrategyLoose, kept[0].Strategy)
	assert.Equal(t, "LIVRARIA CULTURA", kept[1].Description)
	assert.Equal(t, dateutils.NewDate(2024, time.March, 9), kept[1].Date)
}

func TestCandidates_ForeignChargeKeepsChargedAmount(t *testing.T) {
	text := "NUBANK\nResumo da fatura\nVencimento 15/03/2024\n" +
		"05/03 AMAZON US 10,00 52,30\n" +
		"06/03 SPOTIFY US$ 5,99 R$ 31,20\n" +
		"07/03 PADARIA CENTRAL 12,50"
	p := newTestParser(text)

	detection, kept, _ := p.Candidates(lines(text))

	assert.Equal(t, LayoutIssuer, detection.Layout)
	require.Len(t, kept, 3)
	assert.Equal(t, "AMAZON US", kept[0].Description)
	assert.True(t, decimal.RequireFromString("52.30").Equal(kept[0].Amount))
	assert.Equal(t, "SPOTIFY", kept[1].Description)
	assert.True(t, decimal.RequireFromString("31.20").Equal(kept[1].Amount))
	assert.Equal(t, "PADARIA CENTRAL", kept[2].Description)
}

func TestLooseSweep_SkipsMatchFollowedByAmount(t *testing.T) {
	dates := dateResolver{ref: dateutils.NewDate(2024, time.March, 15)}

	got := looseSweep("05/03 AMAZON US 10,00 52,30\n06/03 UBER TRIP 18,40 pagina", dates)

	require.Len(t, got, 1)
	assert.Equal(t, "UBER TRIP", got[0].Description)
	assert.Equal(t, 1, got[0].Line)
}

func TestCandidates_DateWithClockTime(t *testing.T) {
	text := "Extrato\n05/03/2024 14:32 UBER TRIP 10,00\n06/03/2024 09:05:11 PADARIA 7,50"
	p := newTestParser(text)

	_, kept, _ := p.Candidates(lines(text))

	require.Len(t, kept, 2)
	assert.Equal(t, "UBER TRIP", kept[0].Description)
	assert.Equal(t, dateutils.NewDate(2024, time.March, 5), kept[0].Date)
	assert.Equal(t, "PADARIA", kept[1].Description)
}

func TestDescriptionOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AMAZON  US", "AMAZON US"},
		{"AMAZON US 10,00", "AMAZON US"},
		{"NETFLIX US$ 5,99 R$", "NETFLIX"},
		{"14:32 UBER", "UBER"},
		{"PARCELA 02/10", "PARCELA 02/10"},
		{"10,00", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, descriptionOf(tt.in))
		})
	}
}

func TestMerchantSearch(t *testing.T) {
	text := "pagina 1 - 10/03 IFOOD *RESTAURANTE R$ 45,00 parcela"
	matcher := newMatcher([]string{"ifood"})
	dates := dateResolver{ref: dateutils.NewDate(2024, time.March, 15)}

	got := merchantSearch(lines(text), matcher, dates)

	require.Len(t, got, 1)
	assert.Equal(t, "IFOOD *RESTAURANTE", got[0].Description)
	assert.True(t, decimal.RequireFromString("45").Equal(got[0].Amount))
	assert.Nil(t, merchantSearch(lines(text), nil, dates))
}

func TestDateResolver_YearInference(t *testing.T) {
	r := newDateResolver("Fechamento 10/01/2024\nEmissao 02/01/2024", dateutils.NewDate(2030, time.June, 1))
	require.Equal(t, dateutils.NewDate(2024, time.January, 10), r.ref)

	tests := []struct {
		token string
		want  dateutils.Date
	}{
		{"05/01", dateutils.NewDate(2024, time.January, 5)},
		{"28/12", dateutils.NewDate(2023, time.December, 28)},
		{"20/01", dateutils.NewDate(2024, time.January, 20)},
		{"15/11/2022", dateutils.NewDate(2022, time.November, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := r.resolve(tt.token)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := r.resolve("31/02")
	assert.False(t, ok)
}

func TestDateResolver_FallsBackToToday(t *testing.T) {
	r := newDateResolver("no full dates here", dateutils.NewDate(2024, time.February, 10))
	got, ok := r.resolve("28/12")
	require.True(t, ok)
	assert.Equal(t, dateutils.NewDate(2023, time.December, 28), got)
}

func TestMerge(t *testing.T) {
	day := dateutils.NewDate(2024, time.March, 5)
	amount := decimal.RequireFromString("25.90")
	tests := []struct {
		name  string
		pools [][]Candidate
		want  []string
	}{
		{
			name: "punctuation breaks length ties",
			pools: [][]Candidate{
				{{Date: day, Description: "UBER TRIPS", Amount: amount, Line: 1}},
				{{Date: day, Description: "UBER*TRIPS", Amount: amount, Line: 1}},
			},
			want: []string{"UBER*TRIPS"},
		},
		{
			name: "amounts a cent apart are distinct",
			pools: [][]Candidate{
				{{Date: day, Description: "UBER TRIP", Amount: amount, Line: 1}},
				{{Date: day, Description: "UBER TRIP", Amount: amount.Add(decimal.New(1, -2)), Line: 2}},
			},
			want: []string{"UBER TRIP", "UBER TRIP"},
		},
		{
			name: "sign does not matter",
			pools: [][]Candidate{
				{{Date: day, Description: "ESTORNO LOJA", Amount: amount.Neg(), Line: 3}},
				{{Date: day, Description: "ESTORNO LOJA X", Amount: amount, Line: 3}},
			},
			want: []string{"ESTORNO LOJA X"},
		},
		{
			name: "different days are distinct and ordered by line",
			pools: [][]Candidate{
				{
					{Date: dateutils.NewDate(2024, time.March, 6), Description: "PADARIA", Amount: amount, Line: 4},
					{Date: day, Description: "PADARIA", Amount: amount, Line: 2},
				},
			},
			want: []string{"PADARIA", "PADARIA"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.pools...)
			descs := make([]string, 0, len(got))
			for _, c := range got {
				descs = append(descs, c.Description)
			}
			assert.Equal(t, tt.want, descs)
			for i := 1; i < len(got); i++ {
				assert.LessOrEqual(t, got[i-1].Line, got[i].Line)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	day := dateutils.NewDate(2024, time.March, 5)
	candidate := func(desc, amount string) Candidate {
		return Candidate{Date: day, Description: desc, Amount: decimal.RequireFromString(amount)}
	}
	in := []Candidate{
		candidate("PADARIA CENTRAL", "12.50"),
		candidate("SALDO ANTERIOR", "100.00"),
		candidate("TOTAL DA FATURA", "500.00"),
		candidate("Pagamento mínimo", "50.00"),
		candidate("05/03", "10.00"),
		candidate("R$", "10.00"),
		candidate("LOJA CARA", "60000.00"),
		candidate("ARREDONDAMENTO", "0.001"),
		candidate("ESTORNO", "-20.00"),
	}

	kept, rejected := Filter(in, DefaultMinAmount, DefaultMaxAmount)

	require.Len(t, kept, 2)
	assert.Equal(t, "PADARIA CENTRAL", kept[0].Description)
	assert.Equal(t, "ESTORNO", kept[1].Description)
	require.Len(t, rejected, 7)
	assert.ErrorIs(t, rejected[0], ErrNoiseLine)
	assert.ErrorIs(t, rejected[5], ErrAmountOutOfRange)
	assert.ErrorIs(t, rejected[6], ErrAmountOutOfRange)
}

func TestPDFParser_Validate(t *testing.T) {
	p := newTestParser("")

	warnings, err := p.Validate(models.RawStatement{Name: "a.pdf", Lines: lines(issuerStatement)})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	warnings, err = p.Validate(models.RawStatement{Name: "b.pdf", Lines: []string{"05/03/2024 PADARIA 10,00"}})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, parsererror.WarnLayoutFallback, warnings[0].Code)

	_, err = p.Validate(models.RawStatement{Name: "c.pdf", Lines: []string{"Extrato", "Sem movimento"}})
	assert.True(t, parsererror.IsValidation(err))
}

func TestPDFParser_ImportCardStatement(t *testing.T) {
	p := newTestParser(issuerStatement + "\n10/03 ESTORNO LOJA -15,00")
	d := parser.NewDispatcher(parser.DefaultLowYieldRatio, logging.NewMockLogger())
	d.Register(p)

	result, err := d.Import(context.Background(), "fatura.pdf", bytes.NewReader([]byte("%PDF-1.4")),
		models.CardContext("card-1", "2024-03"))

	require.NoError(t, err)
	assert.Equal(t, "pdf", result.Source)
	assert.Equal(t, string(LayoutIssuer), result.Layout)
	require.Len(t, result.Transactions, 3)
	for i, tx := range result.Transactions {
		assert.Equal(t, i, tx.Position)
		assert.Equal(t, models.KindExpense, tx.Kind)
		assert.Equal(t, "card-1", tx.CardID)
		assert.Equal(t, "2024-03", tx.BillingCycleKey)
		assert.False(t, tx.Settled)
		assert.Equal(t, "pdf/issuer-statement", tx.Source)
	}
	assert.Equal(t, "UBER* TRIP", result.Transactions[0].Description)
}

func TestPDFParser_ImportBankStatement(t *testing.T) {
	text := "Extrato de conta\n05/03/2024 PIX RECEBIDO 100,00 1.100,00\n06/03/2024 TARIFA PACOTE -5,00 1.095,00\n25/03/2024 AGENDADO BOLETO -30,00 1.065,00"
	p := newTestParser(text)

	raw, err := p.Extract(context.Background(), "extrato.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, models.SourcePDF, raw.Kind)

	outcome, err := p.Parse(context.Background(), raw, models.AccountContext("acc-1"))
	require.NoError(t, err)
	assert.Equal(t, string(LayoutTabular), outcome.Layout)
	assert.Equal(t, 3, outcome.RowsRead)
	require.Len(t, outcome.Transactions, 3)

	first := outcome.Transactions[0]
	assert.Equal(t, models.KindIncome, first.Kind)
	assert.Equal(t, "PIX RECEBIDO", first.Description)
	assert.Equal(t, "balance: 1.100,00", first.Notes)
	assert.True(t, first.Settled)

	assert.Equal(t, models.KindExpense, outcome.Transactions[1].Kind)
	assert.True(t, decimal.RequireFromString("5").Equal(outcome.Transactions[1].Magnitude))
	assert.False(t, outcome.Transactions[2].Settled)
}

func TestPDFParser_RowsReadCountsDatedLines(t *testing.T) {
	text := "Extrato\n01/03/2024 SALDO ANTERIOR\n02/03/2024 TED ENVIADA\n" +
		"03/03/2024 DOC BANCO\n04/03/2024 PIX RECEBIDO 50,00"
	p := newTestParser(text)
	d := parser.NewDispatcher(parser.DefaultLowYieldRatio, logging.NewMockLogger())
	d.Register(p)

	result, err := d.Import(context.Background(), "extrato.pdf", bytes.NewReader([]byte("%PDF-1.4")),
		models.AccountContext("acc-1"))

	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, 4, result.RowsRead)
	assert.Contains(t, strings.Join(result.Warnings, "\n"), "only 1 transactions from 4 data rows")
}

func TestRowsRead(t *testing.T) {
	assert.Equal(t, 3, rowsRead([]string{"01/03 A", "02/03 B", "x", "03/03 C"}, 2))
	assert.Equal(t, 2, rowsRead([]string{"01/03 A", "no date"}, 2))
}

func TestPDFParser_ExtractFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		handle *Handle
	}{
		{"no handle", nil},
		{"backend fails to load", NewHandleWithLoader(func() (TextExtractor, error) { return nil, boom }, time.Second, nil)},
		{"extraction fails", StaticHandle(NewMockExtractor("", boom))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPDFParser(logging.NewMockLogger(), tt.handle, nil, Options{Now: testNow})
			_, err := p.Extract(context.Background(), "x.pdf", []byte("%PDF-1.4"))
			require.Error(t, err)
			assert.True(t, parsererror.IsFatal(err))
		})
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines("a\r\nb\fc\rd\n\n  \n")
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}
