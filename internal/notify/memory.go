package notify

import (
	"context"
	"sync"
)

// MemorySender records messages instead of delivering them. Test double.

type MemorySender struct {
	mu   sync.Mutex
	sent []Message

	// Err, when set, is returned from every send.
	Err error
}

func NewMemorySender() *MemorySender { return &MemorySender{} }

func (s *MemorySender) SendSMS(ctx context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, m)
	return nil
}

func (s *MemorySender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
