// Package contextapplier routes drafts to their destination and fixes their
// kind and settlement according to the caller's import context.
package contextapplier

import (
	"fmt"
	"time"

	"fjacquet/statement-import/internal/dateutils"
	"fjacquet/statement-import/internal/models"
)

// Applier turns drafts into canonical transactions for one import context.
type Applier struct {
	now func() time.Time
}

// New creates an Applier. A nil clock means time.Now.
func New(now func() time.Time) *Applier {
	if now == nil {
		now = time.Now
	}
	return &Applier{now: now}
}

// Apply builds one canonical transaction per draft, in input order.
//
// Account imports keep the draft's kind and are settled when the date is not
// after today. Card imports are always expenses, carry the billing-cycle key
// and are never settled. Drafts that fail validation are returned as errors
// and leave no gap in the positions.
func (a *Applier) Apply(drafts []models.Draft, ictx models.ImportContext) ([]models.CanonicalTransaction, []error, error) {
	if err := ictx.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid import context: %w", err)
	}

	today := dateutils.FromTime(a.now())
	txs := make([]models.CanonicalTransaction, 0, len(drafts))
	var rejected []error
	for _, d := range drafts {
		b := models.NewTransactionBuilder().FromDraft(d).WithPosition(len(txs))
		if ictx.IsCard() {
			b.AsExpense().ForCard(ictx.DestinationID, ictx.BillingCycleKey)
		} else {
			b.ForAccount(ictx.DestinationID, !d.Date.After(today))
		}
		tx, err := b.Build()
		if err != nil {
			rejected = append(rejected, fmt.Errorf("row %d: %w", d.Row+1, err))
			continue
		}
		txs = append(txs, tx)
	}
	return txs, rejected, nil
}
