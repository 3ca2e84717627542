package scheduling

import (
	"context"
	"errors"
	"time"
)

// SlotDuration is the length of every bookable appointment window.
const SlotDuration = 2 * time.Hour

// DefaultHoldTTL bounds how long a caller can keep a slot reserved while the
// booking conversation finishes.
const DefaultHoldTTL = 5 * time.Minute

var (
	ErrInvalidHold  = errors.New("scheduling: invalid hold")
	ErrInvalidQuery = errors.New("scheduling: invalid availability query")
)

// Hold is a short-lived reservation on a slot. At most one unexpired hold
// exists per (resource, window); acquisition races are settled by the
// database uniqueness constraint, never by in-process locking.
type Hold struct {
	ID            string    `json:"id" db:"id"`
	ResourceID    string    `json:"resource_id" db:"resource_id"`
	SlotStart     time.Time `json:"slot_start" db:"slot_start"`
	SlotEnd       time.Time `json:"slot_end" db:"slot_end"`
	CustomerPhone string    `json:"customer_phone" db:"customer_phone"`
	ExpiresAt     time.Time `json:"expires_at" db:"expires_at"`
}

// Holds is the slot reservation contract.
//
// Acquire returns (false, nil) when another live hold owns the window; that
// is contention, not an error. Convert removes the hold once the job row
// exists; Release abandons it early.
type Holds interface {
	Acquire(ctx context.Context, h Hold) (bool, error)
	Release(ctx context.Context, resourceID string, start, end time.Time) error
	Convert(ctx context.Context, resourceID string, start, end time.Time) error
	PurgeExpired(ctx context.Context) (int64, error)
}
