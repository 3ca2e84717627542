package scheduling

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"voice-booking-platform/pkg/utils"
)

// HoldManager is the Postgres Holds implementation.
//
// Acquisition is compare-and-insert: a single INSERT guarded by the
// UNIQUE (resource_id, slot_start, slot_end) constraint with
// ON CONFLICT DO NOTHING. Zero rows inserted means another caller holds the
// window. Expired rows are deleted inside the same transaction first, so a
// stale hold never blocks a new caller.
type HoldManager struct {
	db    *sql.DB
	ttl   time.Duration
	clock func() time.Time
}

func NewHoldManager(db *sql.DB, ttl time.Duration) *HoldManager {
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}
	return &HoldManager{db: db, ttl: ttl, clock: time.Now}
}

func (m *HoldManager) Acquire(ctx context.Context, h Hold) (bool, error) {
	if h.ResourceID == "" || h.SlotStart.IsZero() || h.SlotEnd.IsZero() || !h.SlotEnd.After(h.SlotStart) {
		return false, ErrInvalidHold
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	now := m.clock().UTC()
	if h.ExpiresAt.IsZero() {
		h.ExpiresAt = now.Add(m.ttl)
	}

	won := false
	err := utils.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		const sweep = `
DELETE FROM booking_holds
WHERE resource_id = $1 AND slot_start = $2 AND slot_end = $3 AND expires_at <= $4
`
		if _, err := tx.ExecContext(ctx, sweep, h.ResourceID, h.SlotStart, h.SlotEnd, now); err != nil {
			return fmt.Errorf("sweep expired hold: %w", err)
		}

		const ins = `
INSERT INTO booking_holds (id, resource_id, slot_start, slot_end, customer_phone, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (resource_id, slot_start, slot_end) DO NOTHING
`
		res, err := tx.ExecContext(ctx, ins, h.ID, h.ResourceID, h.SlotStart, h.SlotEnd, h.CustomerPhone, h.ExpiresAt)
		if err != nil {
			return fmt.Errorf("insert hold: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		won = n == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return won, nil
}

func (m *HoldManager) Release(ctx context.Context, resourceID string, start, end time.Time) error {
	if resourceID == "" || start.IsZero() || end.IsZero() {
		return ErrInvalidHold
	}
	const q = `DELETE FROM booking_holds WHERE resource_id = $1 AND slot_start = $2 AND slot_end = $3`
	if _, err := m.db.ExecContext(ctx, q, resourceID, start, end); err != nil {
		return fmt.Errorf("release hold: %w", err)
	}
	return nil
}

// Convert retires a hold whose job row now exists. The job insert and the
// hold delete belong to different transactions on purpose: once the job is
// committed the hold is only garbage, and the reaper covers a crash between
// the two.
func (m *HoldManager) Convert(ctx context.Context, resourceID string, start, end time.Time) error {
	return m.Release(ctx, resourceID, start, end)
}

func (m *HoldManager) PurgeExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM booking_holds WHERE expires_at <= $1`
	res, err := m.db.ExecContext(ctx, q, m.clock().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge holds: %w", err)
	}
	return res.RowsAffected()
}
