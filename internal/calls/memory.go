package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory SessionStore for tests.

type turnKey struct {
	callSID string
	number  int
}

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	turns    map[turnKey]Turn
	clock    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		turns:    make(map[turnKey]Turn),
		clock:    time.Now,
	}
}

func (m *MemoryStore) CreateSession(ctx context.Context, s Session) error {
	if s.CallSID == "" {
		return ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.CallSID]; ok {
		return nil
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = m.clock().UTC()
	}
	if s.Channel == "" {
		s.Channel = "PSTN"
	}
	m.sessions[s.CallSID] = &s
	return nil
}

func (m *MemoryStore) CloseSession(ctx context.Context, callSID string, outcome Outcome) error {
	if callSID == "" || outcome == "" {
		return ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[callSID]
	if !ok || s.EndedAt != nil {
		return nil
	}
	now := m.clock().UTC()
	s.EndedAt = &now
	s.Outcome = outcome
	return nil
}

func (m *MemoryStore) UpdateState(ctx context.Context, callSID, state string) error {
	if callSID == "" {
		return ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[callSID]; ok {
		s.State = state
	}
	return nil
}

func (m *MemoryStore) SetRetention(ctx context.Context, callSID string, until time.Time) error {
	if callSID == "" || until.IsZero() {
		return ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[callSID]; ok {
		s.RetentionUntil = &until
	}
	return nil
}

// SetConsent mirrors the consent flag cache refresh the Postgres recorder
// performs. Test helper.
func (m *MemoryStore) SetConsent(callSID string, recording, marketing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[callSID]; ok {
		s.RecordingConsent = recording
		s.MarketingConsent = marketing
	}
}

func (m *MemoryStore) AppendTurn(ctx context.Context, t Turn) (bool, error) {
	if t.CallSID == "" || t.TurnNumber <= 0 || t.Role == "" {
		return false, ErrInvalidTurn
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := turnKey{t.CallSID, t.TurnNumber}
	if _, ok := m.turns[k]; ok {
		return false, nil
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = m.clock().UTC()
	}
	m.turns[k] = t
	return true, nil
}

func (m *MemoryStore) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Session returns a snapshot of one session. Test helper.
func (m *MemoryStore) Session(callSID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[callSID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Turns returns the stored turns for a call ordered by turn number. Test helper.
func (m *MemoryStore) Turns(callSID string) []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Turn
	for k, t := range m.turns {
		if k.callSID == callSID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TurnNumber < out[j].TurnNumber })
	return out
}
