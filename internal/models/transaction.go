package models

import (
	"fjacquet/statement-import/internal/dateutils"

	"github.com/shopspring/decimal"
)

// TransactionKind is the direction of a canonical transaction.
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// CanonicalTransaction is the only record that leaves the pipeline.
//
// Magnitude is always positive, exactly one of AccountID and CardID is set,
// and Settled is always false when CardID is set. Category is left empty for
// downstream assignment.
type CanonicalTransaction struct {
	Date            dateutils.Date  `json:"date" yaml:"date" csv:"date"`
	Description     string          `json:"description" yaml:"description" csv:"description"`
	Magnitude       decimal.Decimal `json:"magnitude" yaml:"magnitude" csv:"magnitude"`
	Kind            TransactionKind `json:"kind" yaml:"kind" csv:"kind"`
	AccountID       string          `json:"accountId,omitempty" yaml:"account_id,omitempty" csv:"account_id"`
	CardID          string          `json:"cardId,omitempty" yaml:"card_id,omitempty" csv:"card_id"`
	BillingCycleKey string          `json:"billingCycleKey,omitempty" yaml:"billing_cycle_key,omitempty" csv:"billing_cycle_key"`
	Settled         bool            `json:"settled" yaml:"settled" csv:"settled"`
	Category        string          `json:"category" yaml:"category" csv:"category"`
	Notes           string          `json:"notes,omitempty" yaml:"notes,omitempty" csv:"notes"`
	Source          string          `json:"source" yaml:"source" csv:"source"`
	SourceLine      string          `json:"sourceLine,omitempty" yaml:"source_line,omitempty" csv:"source_line"`
	Position        int             `json:"position" yaml:"position" csv:"position"`
}

// Draft is a row parser's output before the import context is applied.
type Draft struct {
	Date        dateutils.Date
	Description string
	Magnitude   decimal.Decimal
	Kind        TransactionKind
	Notes       string
	Source      string
	SourceLine  string
	Row         int
}

// KindFromSign maps a signed source value onto a kind: negative values are
// expenses, everything else is income.
func KindFromSign(v decimal.Decimal) TransactionKind {
	if v.IsNegative() {
		return KindExpense
	}
	return KindIncome
}
