package contextapplier

import (
	"testing"
	"time"

	"fjacquet/statement-import/internal/dateutils"
	"fjacquet/statement-import/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.Local) }
}

func salaryDraft(date dateutils.Date) models.Draft {
	return models.Draft{
		Date:        date,
		Description: "Salario",
		Magnitude:   decimal.RequireFromString("5000.00"),
		Kind:        models.KindIncome,
		Source:      "csv/ledger-credit-debit",
		SourceLine:  "01/05/2024;Salario;000;5000,00;0,00",
	}
}

func TestApply_AccountContext(t *testing.T) {
	draft := salaryDraft(dateutils.NewDate(2024, time.May, 1))
	tests := []struct {
		name    string
		today   func() time.Time
		settled bool
	}{
		{"date in the past", fixedClock(2024, time.June, 1), true},
		{"date is today", fixedClock(2024, time.May, 1), true},
		{"date in the future", fixedClock(2024, time.April, 30), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, rejected, err := New(tt.today).Apply([]models.Draft{draft}, models.AccountContext("acc-1"))
			require.NoError(t, err)
			assert.Empty(t, rejected)
			require.Len(t, txs, 1)

			tx := txs[0]
			assert.Equal(t, "2024-05-01", tx.Date.String())
			assert.Equal(t, models.KindIncome, tx.Kind)
			assert.Equal(t, "5000", tx.Magnitude.String())
			assert.Equal(t, "acc-1", tx.AccountID)
			assert.Empty(t, tx.CardID)
			assert.Empty(t, tx.BillingCycleKey)
			assert.Equal(t, tt.settled, tx.Settled)
		})
	}
}

func TestApply_CardContextForcesExpense(t *testing.T) {
	drafts := []models.Draft{
		salaryDraft(dateutils.NewDate(2024, time.May, 1)),
		{
			Date:        dateutils.NewDate(2024, time.May, 2),
			Description: "Restaurante",
			Magnitude:   decimal.RequireFromString("80"),
			Kind:        models.KindExpense,
		},
	}

	txs, rejected, err := New(fixedClock(2024, time.June, 1)).Apply(drafts, models.CardContext("card-9", "2024-06-10"))
	require.NoError(t, err)
	assert.Empty(t, rejected)
	require.Len(t, txs, 2)
	for i, tx := range txs {
		assert.Equal(t, models.KindExpense, tx.Kind)
		assert.False(t, tx.Settled)
		assert.Equal(t, "card-9", tx.CardID)
		assert.Equal(t, "2024-06-10", tx.BillingCycleKey)
		assert.Empty(t, tx.AccountID)
		assert.Equal(t, i, tx.Position)
	}
	assert.Equal(t, "5000", txs[0].Magnitude.String())
}

func TestApply_RejectsInvalidDrafts(t *testing.T) {
	drafts := []models.Draft{
		{Date: dateutils.NewDate(2024, time.May, 1), Description: "Zero", Magnitude: decimal.Zero, Kind: models.KindIncome, Row: 3},
		salaryDraft(dateutils.NewDate(2024, time.May, 1)),
	}

	txs, rejected, err := New(nil).Apply(drafts, models.AccountContext("acc-1"))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, 0, txs[0].Position)
	require.Len(t, rejected, 1)
	assert.Contains(t, rejected[0].Error(), "row 4: magnitude must be greater than zero")
}

func TestApply_InvalidContext(t *testing.T) {
	_, _, err := New(nil).Apply(nil, models.CardContext("card-9", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "billing cycle key is required")
}
