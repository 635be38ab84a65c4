package container

import (
	"bytes"
	"context"
	"testing"
	"time"

	"fjacquet/statement-import/internal/config"
	"fjacquet/statement-import/internal/factory"
	"fjacquet/statement-import/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContainer(t *testing.T) {
	tests := []struct {
		name        string
		config      func() *config.Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "nil config",
			config:      func() *config.Config { return nil },
			expectError: true,
			errorMsg:    "configuration cannot be nil",
		},
		{
			name:   "default config",
			config: config.DefaultConfig,
		},
		{
			name: "json logging with native backend",
			config: func() *config.Config {
				cfg := config.DefaultConfig()
				cfg.Log.Level = "debug"
				cfg.Log.Format = "json"
				cfg.PDF.Backend = config.BackendNative
				return cfg
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewContainer(tt.config())

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, c)

			assert.NotNil(t, c.GetLogger())
			assert.NotNil(t, c.GetConfig())
			assert.NotNil(t, c.GetApplier())
			assert.NotNil(t, c.GetPDFHandle())
			assert.Len(t, c.GetExtractors(), len(factory.Kinds))
			assert.Len(t, c.GetDispatcher().Extractors(), len(factory.Kinds))
		})
	}
}

func TestContainer_GetExtractor(t *testing.T) {
	c, err := NewContainer(config.DefaultConfig())
	require.NoError(t, err)

	tests := []struct {
		name        string
		kind        factory.ExtractorKind
		expectError bool
	}{
		{name: "csv", kind: factory.CSV},
		{name: "excel", kind: factory.Excel},
		{name: "pdf", kind: factory.PDF},
		{name: "invalid kind", kind: factory.ExtractorKind("camt"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := c.GetExtractor(tt.kind)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, ext)
				assert.Contains(t, err.Error(), "unknown extractor kind")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, string(tt.kind), ext.Name())
		})
	}
}

func TestContainer_GetExtractorsReturnsCopy(t *testing.T) {
	c, err := NewContainer(config.DefaultConfig())
	require.NoError(t, err)

	extractors := c.GetExtractors()
	delete(extractors, factory.CSV)

	_, err = c.GetExtractor(factory.CSV)
	assert.NoError(t, err)
}

func TestContainer_DispatcherImportsCSV(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) }
	c, err := NewContainerWithClock(config.DefaultConfig(), clock)
	require.NoError(t, err)

	data := "Data;Histórico;Crédito;Débito;Saldo\n" +
		"01/05/2024;PIX RECEBIDO;100,00;;1.100,00\n" +
		"02/05/2024;TARIFA;;5,00;1.095,00\n"

	result, err := c.GetDispatcher().Import(context.Background(), "extrato.csv",
		bytes.NewReader([]byte(data)), models.AccountContext("acc-1"))
	require.NoError(t, err)

	assert.Equal(t, "csv", result.Source)
	assert.Equal(t, string(models.FormatLedgerCreditDebit), result.Layout)
	require.Len(t, result.Transactions, 2)
	assert.Equal(t, models.KindIncome, result.Transactions[0].Kind)
	assert.Equal(t, models.KindExpense, result.Transactions[1].Kind)
	assert.True(t, result.Transactions[1].Settled)
}

func TestContainer_Close(t *testing.T) {
	c, err := NewContainer(config.DefaultConfig())
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}
