package consent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"voice-booking-platform/pkg/utils"
)

var ErrInvalidEvent = errors.New("consent: invalid event")

// Recorder persists consent decisions.
//
// RecordConsent MUST append the event and, in the same transaction, refresh
// the derived consent flags on the call row. MarketingAllowed answers from
// the call row cache.
type Recorder interface {
	RecordConsent(ctx context.Context, e Event) error
	MarketingAllowed(ctx context.Context, callSID string) (bool, error)
}

// PostgresRecorder stores consent events in consent_events and caches the
// flags on calls.
type PostgresRecorder struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRecorder(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db, clock: time.Now}
}

func (r *PostgresRecorder) RecordConsent(ctx context.Context, e Event) error {
	if e.CallSID == "" || e.Type == "" || e.Channel == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.clock().UTC()
	}

	return utils.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const ins = `
INSERT INTO consent_events (id, call_sid, customer_id, channel, consent_type, proof, created_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
`
		if _, err := tx.ExecContext(ctx, ins, e.ID, e.CallSID, e.CustomerID, e.Channel, e.Type, e.Proof, e.CreatedAt); err != nil {
			return fmt.Errorf("insert consent event: %w", err)
		}

		granted := e.Proof == ProofCallerYes
		var upd string
		switch e.Type {
		case TypeRecording:
			upd = `UPDATE calls SET recording_consent = $2 WHERE call_sid = $1`
		case TypeMarketing:
			upd = `UPDATE calls SET marketing_consent = $2 WHERE call_sid = $1`
		default:
			return nil
		}
		if _, err := tx.ExecContext(ctx, upd, e.CallSID, granted); err != nil {
			return fmt.Errorf("update call consent flag: %w", err)
		}
		return nil
	})
}

func (r *PostgresRecorder) MarketingAllowed(ctx context.Context, callSID string) (bool, error) {
	const q = `SELECT marketing_consent FROM calls WHERE call_sid = $1`
	var allowed bool
	if err := r.db.QueryRowContext(ctx, q, callSID).Scan(&allowed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return allowed, nil
}
