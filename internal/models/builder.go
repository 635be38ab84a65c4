package models

import (
	"errors"
	"strings"

	"fjacquet/statement-import/internal/dateutils"

	"github.com/shopspring/decimal"
)

// TransactionBuilder provides a fluent API for constructing canonical
// transactions. The first error sticks and is returned by Build.
type TransactionBuilder struct {
	tx  CanonicalTransaction
	err error
}

// NewTransactionBuilder creates an empty builder.
func NewTransactionBuilder() *TransactionBuilder {
	return &TransactionBuilder{tx: CanonicalTransaction{Magnitude: decimal.Zero}}
}

// FromDraft seeds the builder with a row parser's draft.
func (b *TransactionBuilder) FromDraft(d Draft) *TransactionBuilder {
	return b.WithDate(d.Date).
		WithDescription(d.Description).
		WithMagnitude(d.Magnitude).
		WithKind(d.Kind).
		WithNotes(d.Notes).
		WithSource(d.Source, d.SourceLine)
}

// WithDate sets the calendar day.
func (b *TransactionBuilder) WithDate(date dateutils.Date) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	if date.IsZero() {
		b.err = errors.New("date cannot be empty")
		return b
	}
	b.tx.Date = date
	return b
}

// WithDescription sets the description, collapsing whitespace.
func (b *TransactionBuilder) WithDescription(desc string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	desc = strings.Join(strings.Fields(desc), " ")
	if desc == "" {
		b.err = errors.New("description cannot be empty")
		return b
	}
	b.tx.Description = desc
	return b
}

// WithMagnitude stores the absolute value of amount.
func (b *TransactionBuilder) WithMagnitude(amount decimal.Decimal) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Magnitude = amount.Abs()
	return b
}

// WithKind sets the transaction direction.
func (b *TransactionBuilder) WithKind(kind TransactionKind) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	if kind != KindIncome && kind != KindExpense {
		b.err = errors.New("kind must be income or expense")
		return b
	}
	b.tx.Kind = kind
	return b
}

// AsIncome marks the transaction as income.
func (b *TransactionBuilder) AsIncome() *TransactionBuilder { return b.WithKind(KindIncome) }

// AsExpense marks the transaction as an expense.
func (b *TransactionBuilder) AsExpense() *TransactionBuilder { return b.WithKind(KindExpense) }

// ForAccount routes the transaction to an account. It clears any card routing.
func (b *TransactionBuilder) ForAccount(accountID string, settled bool) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.AccountID = accountID
	b.tx.CardID = ""
	b.tx.BillingCycleKey = ""
	b.tx.Settled = settled
	return b
}

// ForCard routes the transaction to a card billing cycle. Card charges are
// never settled at import time.
func (b *TransactionBuilder) ForCard(cardID, billingCycleKey string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.CardID = cardID
	b.tx.BillingCycleKey = billingCycleKey
	b.tx.AccountID = ""
	b.tx.Settled = false
	return b
}

// WithNotes appends free-text notes.
func (b *TransactionBuilder) WithNotes(notes string) *TransactionBuilder {
	if b.err != nil || notes == "" {
		return b
	}
	if b.tx.Notes != "" {
		b.tx.Notes += "; "
	}
	b.tx.Notes += notes
	return b
}

// WithSource records the provenance tag and the original line.
func (b *TransactionBuilder) WithSource(source, line string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Source = source
	b.tx.SourceLine = line
	return b
}

// WithPosition sets the ordinal position in the output.
func (b *TransactionBuilder) WithPosition(pos int) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Position = pos
	return b
}

// Build validates the canonical invariants and returns the transaction.
func (b *TransactionBuilder) Build() (CanonicalTransaction, error) {
	if b.err != nil {
		return CanonicalTransaction{}, b.err
	}
	if b.tx.Date.IsZero() {
		return CanonicalTransaction{}, errors.New("date is required")
	}
	if b.tx.Description == "" {
		return CanonicalTransaction{}, errors.New("description is required")
	}
	if !b.tx.Magnitude.IsPositive() {
		return CanonicalTransaction{}, errors.New("magnitude must be greater than zero")
	}
	if b.tx.Kind == "" {
		return CanonicalTransaction{}, errors.New("kind is required")
	}
	hasAccount, hasCard := b.tx.AccountID != "", b.tx.CardID != ""
	if hasAccount == hasCard {
		return CanonicalTransaction{}, errors.New("exactly one of account id and card id must be set")
	}
	if hasCard && b.tx.Settled {
		return CanonicalTransaction{}, errors.New("card transactions cannot be settled")
	}
	return b.tx, nil
}

// Clone copies the current builder state.
func (b *TransactionBuilder) Clone() *TransactionBuilder {
	return &TransactionBuilder{tx: b.tx, err: b.err}
}
