package structure

import (
	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/textutils"
)

// Keyword sets per logical field. Matching is done on normalized text, so
// entries are lower-case and free of diacritics.
var fieldKeywords = map[models.Field][]string{
	models.FieldDate:        {"data", "date", "dt", "data lancamento", "data hora"},
	models.FieldDescription: {"historico", "descricao", "description", "lancamento", "detalhe", "memo", "estabelecimento"},
	models.FieldValue:       {"valor", "value", "amount", "quantia", "montante"},
	models.FieldCredit:      {"credito", "credit", "entrada"},
	models.FieldDebit:       {"debito", "debit", "saida"},
	models.FieldBalance:     {"saldo", "balance"},
	models.FieldCategory:    {"categoria", "category"},
	models.FieldLabel:       {"tipo", "transacao", "type", "transaction"},
	models.FieldDocumentRef: {"docto", "documento", "doc", "ref", "referencia"},
}

// headerRule recognises a header line: every group must be matched by at
// least one cell.
type headerRule struct {
	name   string
	format models.FormatType
	groups []models.Field
}

// headerRules are tried in order for every candidate line. Richer layouts come
// first so the generic date-and-value rule cannot claim them.
var headerRules = []headerRule{
	{
		name:   "statement-export",
		format: models.FormatStatementExport,
		groups: []models.Field{models.FieldDate, models.FieldCategory, models.FieldLabel, models.FieldValue},
	},
	{
		name:   "ledger-credit-debit",
		format: models.FormatLedgerCreditDebit,
		groups: []models.Field{models.FieldDate, models.FieldCredit, models.FieldDebit},
	},
	{
		name:   "generic-date-value",
		format: models.FormatGeneric,
		groups: []models.Field{models.FieldDate, models.FieldValue},
	},
}

func (r headerRule) matches(cells []string) bool {
	for _, field := range r.groups {
		if !anyCellMatches(cells, fieldKeywords[field]) {
			return false
		}
	}
	return true
}

func anyCellMatches(cells []string, keywords []string) bool {
	for _, cell := range cells {
		if textutils.ContainsAnyWord(cell, keywords) {
			return true
		}
	}
	return false
}

// noisePrefixes mark summary and metadata rows that exports interleave with
// transactions: balances, account holder blocks, statement titles.
var noisePrefixes = []string{
	"saldo", "daily balance", "balance", "agencia", "conta", "conta corrente",
	"cliente", "customer", "titular", "account holder", "periodo", "statement period", "extrato",
}

// IsNoiseRow reports whether the first non-empty cell of row starts with a
// blacklisted metadata or balance prefix.
func IsNoiseRow(row []string) bool {
	for _, cell := range row {
		if textutils.CollapseSpaces(cell) == "" {
			continue
		}
		return textutils.HasAnyPrefix(cell, noisePrefixes)
	}
	return false
}
