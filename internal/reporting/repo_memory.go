package reporting

import (
	"context"
	"sync"
	"time"

	"voice-booking-platform/internal/calls"
)

// MemoryRepo is a simple in-memory reporting repository for tests and early
// development.

type MemoryRepo struct {
	mu sync.Mutex

	Sessions []calls.Session

	JobsBooked   int
	DepositsPaid int
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListSessions(ctx context.Context, from, to time.Time) ([]calls.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]calls.Session, 0)
	for _, c := range r.Sessions {
		if c.StartedAt.Before(from) || !c.StartedAt.Before(to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *MemoryRepo) CountJobs(ctx context.Context, from, to time.Time) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.JobsBooked, r.DepositsPaid, nil
}
