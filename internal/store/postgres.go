package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kindnessforautism/donations-api/internal/domain"
)

// PostgresLedger is the durable ledger backing production deployments.
// Appends run inside a transaction with a unique index on the PayPal order
// ID, so concurrent instances cannot double-count a retried capture and
// totals never drift from the record set.
type PostgresLedger struct {
	db        *pgxpool.Pool
	goalCents int64
}

var _ Ledger = (*PostgresLedger)(nil)

func NewPostgresLedger(connString string, goalCents int64) (*PostgresLedger, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PostgresLedger{db: pool, goalCents: goalCents}, nil
}

func (s *PostgresLedger) Close() {
	s.db.Close()
}

func (s *PostgresLedger) AppendDonation(ctx context.Context, p AppendParams) (domain.DonationRecord, error) {
	var rec domain.DonationRecord

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return rec, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO donations (id, amount_cents, currency, paypal_order_id, payer_name, payer_email, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (paypal_order_id) DO NOTHING
		 RETURNING id, amount_cents, currency, paypal_order_id, payer_name, payer_email, status, created_at`,
		uuid.NewString(), p.AmountCents, p.Currency, p.PayPalOrderID, p.PayerName, p.PayerEmail,
		domain.StatusCompleted, time.Now().UTC(),
	).Scan(&rec.ID, &rec.AmountCents, &rec.Currency, &rec.PayPalOrderID,
		&rec.PayerName, &rec.PayerEmail, &rec.Status, &rec.CreatedAt)

	if err == pgx.ErrNoRows {
		// Conflict path: the order was already recorded. Return what we have.
		err = tx.QueryRow(ctx,
			`SELECT id, amount_cents, currency, paypal_order_id, payer_name, payer_email, status, created_at
			 FROM donations WHERE paypal_order_id = $1`,
			p.PayPalOrderID,
		).Scan(&rec.ID, &rec.AmountCents, &rec.Currency, &rec.PayPalOrderID,
			&rec.PayerName, &rec.PayerEmail, &rec.Status, &rec.CreatedAt)
	}
	if err != nil {
		return domain.DonationRecord{}, fmt.Errorf("donation insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.DonationRecord{}, fmt.Errorf("tx commit failed: %w", err)
	}
	return rec, nil
}

func (s *PostgresLedger) SetGoFundMeOffset(ctx context.Context, amountCents int64, donorCount int) (domain.GoFundMeOffset, error) {
	if amountCents < 0 || donorCount < 0 {
		return domain.GoFundMeOffset{}, ErrInvalidOffset
	}

	var offset domain.GoFundMeOffset
	var updatedAt time.Time
	err := s.db.QueryRow(ctx,
		`INSERT INTO gofundme_offset (id, amount_cents, donor_count, updated_at)
		 VALUES (1, $1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET amount_cents = $1, donor_count = $2, updated_at = $3
		 RETURNING amount_cents, donor_count, updated_at`,
		amountCents, donorCount, time.Now().UTC(),
	).Scan(&offset.AmountCents, &offset.DonorCount, &updatedAt)
	if err != nil {
		return domain.GoFundMeOffset{}, fmt.Errorf("offset update failed: %w", err)
	}
	offset.UpdatedAt = &updatedAt
	return offset, nil
}

func (s *PostgresLedger) Totals(ctx context.Context) (domain.Totals, error) {
	var t domain.Totals

	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0), COUNT(*) FROM donations WHERE status = $1`,
		domain.StatusCompleted,
	).Scan(&t.PayPalTotalCents, &t.PayPalDonorCount)
	if err != nil {
		return domain.Totals{}, fmt.Errorf("totals query failed: %w", err)
	}

	var updatedAt *time.Time
	err = s.db.QueryRow(ctx,
		`SELECT amount_cents, donor_count, updated_at FROM gofundme_offset WHERE id = 1`,
	).Scan(&t.GoFundMeTotalCents, &t.GoFundMeDonorCount, &updatedAt)
	if err != nil && err != pgx.ErrNoRows {
		return domain.Totals{}, fmt.Errorf("offset query failed: %w", err)
	}
	t.GoFundMeLastUpdated = updatedAt

	t.TotalRaisedCents = t.PayPalTotalCents + t.GoFundMeTotalCents
	t.DonationCount = t.PayPalDonorCount + t.GoFundMeDonorCount
	t.GoalCents = s.goalCents
	return t, nil
}
