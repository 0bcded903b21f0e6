package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Donation statuses. The capture flow only ever inserts completed records;
// the other values exist for audit imports.
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
	StatusFailed    = "failed"
)

// DonationRecord is one completed payment. Records are append-only: once
// stored they are never edited or deleted.
type DonationRecord struct {
	ID            string    `json:"id"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	PayPalOrderID string    `json:"paypal_order_id"`
	PayerName     string    `json:"payer_name,omitempty"`
	PayerEmail    string    `json:"payer_email,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// GoFundMeOffset is the manually administered total for the channel that has
// no read API. It is overwritten whole by an admin, never incremented.
type GoFundMeOffset struct {
	AmountCents int64      `json:"amount_cents"`
	DonorCount  int        `json:"donor_count"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// Totals is the aggregate view served to the progress bar.
// TotalRaisedCents = PayPalTotalCents + GoFundMeTotalCents and
// DonationCount = PayPalDonorCount + GoFundMeDonorCount, always.
type Totals struct {
	TotalRaisedCents    int64
	PayPalTotalCents    int64
	GoFundMeTotalCents  int64
	DonationCount       int
	PayPalDonorCount    int
	GoFundMeDonorCount  int
	GoalCents           int64
	GoFundMeLastUpdated *time.Time
}

// Money is held as integer cents everywhere inside the service. Dollars only
// exist at the JSON boundary and in PayPal's wire format.

// CentsToDollars converts minor units to a decimal dollar amount.
func CentsToDollars(cents int64) float64 {
	return float64(cents) / 100
}

// DollarsToCents converts a decimal dollar amount to minor units, rounding
// half away from zero.
func DollarsToCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

// FormatDollars renders cents as a two-decimal string, the format PayPal's
// orders API expects for amount values.
func FormatDollars(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}

// ParseDollars parses a decimal dollar string (e.g. "25.00") into cents.
func ParseDollars(s string) (int64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return DollarsToCents(v), nil
}
