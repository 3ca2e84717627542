package booking

import (
	"context"
	"database/sql"
	"fmt"

	"voice-booking-platform/pkg/utils"
)

// Repository runs booking writes atomically: nothing staged inside Transact
// becomes visible unless fn returns nil.
type Repository interface {
	Transact(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the unit-of-work surface the booking transaction writes through.
type Tx interface {
	UpsertCustomer(ctx context.Context, name, phone, email, address string) (string, error)
	InsertJob(ctx context.Context, j Job) (Job, error)
}

// PostgresRepository backs Repository with the customers and jobs tables.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transact(ctx context.Context, fn func(tx Tx) error) error {
	return utils.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(postgresTx{tx: tx})
	})
}

type postgresTx struct {
	tx *sql.Tx
}

func (p postgresTx) UpsertCustomer(ctx context.Context, name, phone, email, address string) (string, error) {
	const q = `
INSERT INTO customers (id, name, phone_e164, email, address_json, created_at)
VALUES (gen_random_uuid(), $1, $2, NULLIF($3, ''), jsonb_build_object('full_address', $4::text), now())
ON CONFLICT (phone_e164) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, updated_at = now()
RETURNING id
`
	var id string
	if err := p.tx.QueryRowContext(ctx, q, name, phone, email, address).Scan(&id); err != nil {
		return "", fmt.Errorf("upsert customer: %w", err)
	}
	return id, nil
}

func (p postgresTx) InsertJob(ctx context.Context, j Job) (Job, error) {
	const q = `
INSERT INTO jobs (id, customer_id, svc_type, category, description, urgency,
                  window_start, window_end, status, priority, source, booking_channel,
                  estimated_cost, lead_time_hours, is_after_hours, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
        NULLIF($12, 0), $13, $14, now())
RETURNING id, job_number
`
	err := p.tx.QueryRowContext(ctx, q,
		j.CustomerID, j.ServiceType, j.Category, j.Description, j.Urgency,
		j.WindowStart, j.WindowEnd, j.Status, j.Priority, j.Source, j.BookingChannel,
		j.EstimatedCost, j.LeadTimeHours, j.IsAfterHours,
	).Scan(&j.ID, &j.JobNumber)
	if err != nil {
		return Job{}, fmt.Errorf("insert job: %w", err)
	}
	return j, nil
}

// MarkDepositPaid flips the deposit flag and confirms the job. Called from
// the payment webhook path, outside any booking transaction.
func MarkDepositPaid(ctx context.Context, db *sql.DB, jobID string) error {
	const q = `UPDATE jobs SET deposit_paid = true, status = $2 WHERE id = $1`
	if _, err := db.ExecContext(ctx, q, jobID, JobStatusConfirmed); err != nil {
		return fmt.Errorf("mark deposit paid: %w", err)
	}
	return nil
}

// DepositMarker adapts the deposit update for the payment webhook, which
// only sees an interface.
type DepositMarker struct {
	db *sql.DB
}

func NewDepositMarker(db *sql.DB) *DepositMarker { return &DepositMarker{db: db} }

func (m *DepositMarker) MarkDepositPaid(ctx context.Context, jobID string) error {
	return MarkDepositPaid(ctx, m.db, jobID)
}
