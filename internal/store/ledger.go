package store

import (
	"context"
	"errors"

	"github.com/kindnessforautism/donations-api/internal/domain"
)

var ErrInvalidOffset = errors.New("offset amount and donor count must be non-negative")

// AppendParams carries everything needed to record one completed donation.
// PayPalOrderID doubles as the idempotency key: appending the same order
// twice returns the already-stored record instead of double-counting.
type AppendParams struct {
	AmountCents   int64
	Currency      string
	PayPalOrderID string
	PayerName     string
	PayerEmail    string
}

// Ledger is the single source of truth for how much has been raised.
// Implementations must keep records append-only and keep the exposed totals
// in lockstep with the record set.
type Ledger interface {
	// AppendDonation stores a new completed record with a fresh ID and
	// timestamp, or returns the existing record when PayPalOrderID has been
	// seen before.
	AppendDonation(ctx context.Context, p AppendParams) (domain.DonationRecord, error)

	// SetGoFundMeOffset overwrites the manual offset wholesale. Callers
	// supply the full current value of the external source, never a delta.
	SetGoFundMeOffset(ctx context.Context, amountCents int64, donorCount int) (domain.GoFundMeOffset, error)

	// Totals computes the aggregate view. It is a pure read.
	Totals(ctx context.Context) (domain.Totals, error)
}
