package scheduling

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryHolds is an in-memory Holds for tests. It mirrors the database
// semantics: one live hold per window, expired holds do not block.

type holdKey struct {
	resourceID string
	start      time.Time
	end        time.Time
}

type MemoryHolds struct {
	mu    sync.Mutex
	ttl   time.Duration
	clock func() time.Time
	held  map[holdKey]Hold
}

func NewMemoryHolds(ttl time.Duration) *MemoryHolds {
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}
	return &MemoryHolds{ttl: ttl, clock: time.Now, held: make(map[holdKey]Hold)}
}

// SetClock overrides the time source. Test helper.
func (m *MemoryHolds) SetClock(clock func() time.Time) { m.clock = clock }

func (m *MemoryHolds) Acquire(ctx context.Context, h Hold) (bool, error) {
	if h.ResourceID == "" || h.SlotStart.IsZero() || h.SlotEnd.IsZero() || !h.SlotEnd.After(h.SlotStart) {
		return false, ErrInvalidHold
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock().UTC()
	key := holdKey{h.ResourceID, h.SlotStart, h.SlotEnd}
	if existing, ok := m.held[key]; ok {
		if existing.ExpiresAt.After(now) {
			return false, nil
		}
		delete(m.held, key)
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.ExpiresAt.IsZero() {
		h.ExpiresAt = now.Add(m.ttl)
	}
	m.held[key] = h
	return true, nil
}

func (m *MemoryHolds) Release(ctx context.Context, resourceID string, start, end time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, holdKey{resourceID, start, end})
	return nil
}

func (m *MemoryHolds) Convert(ctx context.Context, resourceID string, start, end time.Time) error {
	return m.Release(ctx, resourceID, start, end)
}

func (m *MemoryHolds) PurgeExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock().UTC()
	var n int64
	for k, h := range m.held {
		if !h.ExpiresAt.After(now) {
			delete(m.held, k)
			n++
		}
	}
	return n, nil
}

// Len reports live plus expired holds currently stored.
func (m *MemoryHolds) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.held)
}
