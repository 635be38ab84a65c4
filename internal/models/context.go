package models

import (
	"errors"
	"fmt"
)

// TargetKind is the destination type of an import.
type TargetKind string

const (
	TargetAccount TargetKind = "account"
	TargetCard    TargetKind = "card"
)

// ImportContext is supplied by the caller and fixed for a whole import run.
type ImportContext struct {
	Target          TargetKind `json:"target" yaml:"target"`
	DestinationID   string     `json:"destinationId" yaml:"destination_id"`
	BillingCycleKey string     `json:"billingCycleKey,omitempty" yaml:"billing_cycle_key,omitempty"`
}

// AccountContext builds a context importing into an account.
func AccountContext(accountID string) ImportContext {
	return ImportContext{Target: TargetAccount, DestinationID: accountID}
}

// CardContext builds a context importing card charges into one billing cycle.
func CardContext(cardID, billingCycleKey string) ImportContext {
	return ImportContext{Target: TargetCard, DestinationID: cardID, BillingCycleKey: billingCycleKey}
}

// IsCard reports whether the import targets a card.
func (c ImportContext) IsCard() bool {
	return c.Target == TargetCard
}

// Validate checks the context before any file is touched.
func (c ImportContext) Validate() error {
	switch c.Target {
	case TargetAccount, TargetCard:
	default:
		return fmt.Errorf("invalid import target %q: must be %q or %q", c.Target, TargetAccount, TargetCard)
	}
	if c.DestinationID == "" {
		return errors.New("destination id is required")
	}
	if c.IsCard() && c.BillingCycleKey == "" {
		return errors.New("billing cycle key is required for card imports")
	}
	return nil
}
