package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kindnessforautism/donations-api/internal/domain"
)

// MemoryLedger keeps the donation ledger in process memory. It backs tests
// and database-less deployments; state does not survive a restart.
type MemoryLedger struct {
	mu sync.Mutex

	records   []domain.DonationRecord
	byOrderID map[string]int // index into records

	totalCents int64
	goalCents  int64

	offset domain.GoFundMeOffset
}

var _ Ledger = (*MemoryLedger)(nil)

func NewMemoryLedger(goalCents int64) *MemoryLedger {
	return &MemoryLedger{
		byOrderID: make(map[string]int),
		goalCents: goalCents,
	}
}

func (m *MemoryLedger) AppendDonation(_ context.Context, p AppendParams) (domain.DonationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i, ok := m.byOrderID[p.PayPalOrderID]; ok {
		return m.records[i], nil
	}

	rec := domain.DonationRecord{
		ID:            uuid.NewString(),
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		PayPalOrderID: p.PayPalOrderID,
		PayerName:     p.PayerName,
		PayerEmail:    p.PayerEmail,
		Status:        domain.StatusCompleted,
		CreatedAt:     time.Now().UTC(),
	}

	m.byOrderID[p.PayPalOrderID] = len(m.records)
	m.records = append(m.records, rec)
	m.totalCents += rec.AmountCents
	return rec, nil
}

func (m *MemoryLedger) SetGoFundMeOffset(_ context.Context, amountCents int64, donorCount int) (domain.GoFundMeOffset, error) {
	if amountCents < 0 || donorCount < 0 {
		return domain.GoFundMeOffset{}, ErrInvalidOffset
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	m.offset = domain.GoFundMeOffset{
		AmountCents: amountCents,
		DonorCount:  donorCount,
		UpdatedAt:   &now,
	}
	return m.offset, nil
}

func (m *MemoryLedger) Totals(_ context.Context) (domain.Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return domain.Totals{
		TotalRaisedCents:    m.totalCents + m.offset.AmountCents,
		PayPalTotalCents:    m.totalCents,
		GoFundMeTotalCents:  m.offset.AmountCents,
		DonationCount:       len(m.records) + m.offset.DonorCount,
		PayPalDonorCount:    len(m.records),
		GoFundMeDonorCount:  m.offset.DonorCount,
		GoalCents:           m.goalCents,
		GoFundMeLastUpdated: m.offset.UpdatedAt,
	}, nil
}
