package telephony

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InboundSMS is one text received on the business line.
type InboundSMS struct {
	ID         string    `json:"id" db:"id"`
	MessageSID string    `json:"message_sid" db:"message_sid"`
	From       string    `json:"from_e164" db:"from_e164"`
	To         string    `json:"to_e164" db:"to_e164"`
	Body       string    `json:"body" db:"body"`
	ReceivedAt time.Time `json:"received_at" db:"received_at"`
}

// SMSStore persists inbound texts. SaveInbound is idempotent on the
// provider message SID; webhook retries are normal.
type SMSStore interface {
	SaveInbound(ctx context.Context, m InboundSMS) error
}

type PostgresSMSStore struct {
	db *sql.DB
}

func NewPostgresSMSStore(db *sql.DB) *PostgresSMSStore {
	return &PostgresSMSStore{db: db}
}

func (s *PostgresSMSStore) SaveInbound(ctx context.Context, m InboundSMS) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	const q = `
INSERT INTO sms_messages (id, message_sid, from_e164, to_e164, body, received_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (message_sid) DO NOTHING
`
	if _, err := s.db.ExecContext(ctx, q, m.ID, m.MessageSID, m.From, m.To, m.Body, m.ReceivedAt); err != nil {
		return fmt.Errorf("save inbound sms: %w", err)
	}
	return nil
}

// MemorySMSStore is an in-memory SMSStore for tests.
type MemorySMSStore struct {
	mu       sync.Mutex
	messages []InboundSMS
	seen     map[string]bool
}

func NewMemorySMSStore() *MemorySMSStore {
	return &MemorySMSStore{seen: make(map[string]bool)}
}

func (s *MemorySMSStore) SaveInbound(ctx context.Context, m InboundSMS) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[m.MessageSID] {
		return nil
	}
	s.seen[m.MessageSID] = true
	s.messages = append(s.messages, m)
	return nil
}

func (s *MemorySMSStore) Messages() []InboundSMS {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]InboundSMS, len(s.messages))
	copy(out, s.messages)
	return out
}
