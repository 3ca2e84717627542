package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidEntry = errors.New("payments: invalid ledger entry")

type EntryStatus string

const (
	StatusSucceeded EntryStatus = "succeeded"
	StatusFailed    EntryStatus = "failed"
	StatusExpired   EntryStatus = "expired"
)

// LedgerEntry is an immutable record of one payment-provider event.
//
// Invariants:
// - Entries are never updated or deleted.
// - ProviderEventID is unique; webhook redelivery must not produce a second
//   row or a second side effect.
type LedgerEntry struct {
	ID              string      `json:"id" db:"id"`
	Provider        string      `json:"provider" db:"provider"`
	ProviderEventID string      `json:"provider_event_id" db:"provider_event_id"`
	EventType       string      `json:"event_type" db:"event_type"`
	JobID           string      `json:"job_id,omitempty" db:"job_id"`
	CustomerID      string      `json:"customer_id,omitempty" db:"customer_id"`
	AmountMinor     int64       `json:"amount_minor" db:"amount_minor"`
	Currency        string      `json:"currency" db:"currency"`
	Status          EntryStatus `json:"status" db:"status"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// Ledger is the append-only persistence contract. Record returns false when
// the provider event was already recorded.
type Ledger interface {
	Record(ctx context.Context, e LedgerEntry) (bool, error)
}

// PostgresLedger stores entries in payment_events with a uniqueness
// constraint on provider_event_id.
type PostgresLedger struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db, clock: time.Now}
}

func (l *PostgresLedger) Record(ctx context.Context, e LedgerEntry) (bool, error) {
	if e.Provider == "" || e.ProviderEventID == "" || e.EventType == "" || e.Status == "" {
		return false, ErrInvalidEntry
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.clock().UTC()
	}

	const q = `
INSERT INTO payment_events (id, provider, provider_event_id, event_type, job_id, customer_id, amount_minor, currency, status, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10)
ON CONFLICT (provider_event_id) DO NOTHING
`
	res, err := l.db.ExecContext(ctx, q,
		e.ID, e.Provider, e.ProviderEventID, e.EventType, e.JobID, e.CustomerID,
		e.AmountMinor, e.Currency, e.Status, e.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("record payment event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MemoryLedger is an in-memory Ledger for tests.
type MemoryLedger struct {
	mu      sync.Mutex
	entries []LedgerEntry
	seen    map[string]bool
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[string]bool)}
}

func (l *MemoryLedger) Record(ctx context.Context, e LedgerEntry) (bool, error) {
	if e.Provider == "" || e.ProviderEventID == "" || e.EventType == "" || e.Status == "" {
		return false, ErrInvalidEntry
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen[e.ProviderEventID] {
		return false, nil
	}
	l.seen[e.ProviderEventID] = true
	l.entries = append(l.entries, e)
	return true, nil
}

func (l *MemoryLedger) Entries() []LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
