package consent

import (
	"context"
	"sync"
)

// MemoryRecorder is an in-memory Recorder for tests.

type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRecorder() *MemoryRecorder { return &MemoryRecorder{} }

func (r *MemoryRecorder) RecordConsent(ctx context.Context, e Event) error {
	if e.CallSID == "" || e.Type == "" || e.Channel == "" {
		return ErrInvalidEvent
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *MemoryRecorder) MarketingAllowed(ctx context.Context, callSID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	allowed := false
	for _, e := range r.events {
		if e.CallSID == callSID && e.Type == TypeMarketing {
			allowed = e.Proof == ProofCallerYes
		}
	}
	return allowed, nil
}

// Events returns a copy of the appended events.
func (r *MemoryRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
