package calls

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"voice-booking-platform/pkg/utils"
)

// SessionStore is the persistence contract for call sessions and turns.
//
// CreateSession and AppendTurn are idempotent: media-layer reconnects and
// event redelivery are normal, not exceptional.
type SessionStore interface {
	CreateSession(ctx context.Context, s Session) error
	CloseSession(ctx context.Context, callSID string, outcome Outcome) error
	UpdateState(ctx context.Context, callSID, state string) error
	SetRetention(ctx context.Context, callSID string, until time.Time) error
	AppendTurn(ctx context.Context, t Turn) (bool, error)
	ListSessions(ctx context.Context, limit int) ([]Session, error)
}

// PostgresStore backs SessionStore with the calls and agent_turns tables.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

func (s *PostgresStore) CreateSession(ctx context.Context, sess Session) error {
	if sess.CallSID == "" {
		return ErrInvalidSession
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = s.clock().UTC()
	}
	if sess.Channel == "" {
		sess.Channel = "PSTN"
	}
	const q = `
INSERT INTO calls (call_sid, channel, started_at, business_hours)
VALUES ($1, $2, $3, $4)
ON CONFLICT (call_sid) DO NOTHING
`
	if _, err := s.db.ExecContext(ctx, q, sess.CallSID, sess.Channel, sess.StartedAt, sess.BusinessHours); err != nil {
		return fmt.Errorf("create call session: %w", err)
	}
	return nil
}

// CloseSession stamps ended_at exactly once; a second close (reconnect race)
// keeps the first outcome.
func (s *PostgresStore) CloseSession(ctx context.Context, callSID string, outcome Outcome) error {
	if callSID == "" || outcome == "" {
		return ErrInvalidSession
	}
	const q = `
UPDATE calls SET ended_at = $3, outcome = $2
WHERE call_sid = $1 AND ended_at IS NULL
`
	if _, err := s.db.ExecContext(ctx, q, callSID, outcome, s.clock().UTC()); err != nil {
		return fmt.Errorf("close call session: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateState(ctx context.Context, callSID, state string) error {
	if callSID == "" {
		return ErrInvalidSession
	}
	const q = `UPDATE calls SET state = $2 WHERE call_sid = $1`
	if _, err := s.db.ExecContext(ctx, q, callSID, state); err != nil {
		return fmt.Errorf("update call state: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetRetention(ctx context.Context, callSID string, until time.Time) error {
	if callSID == "" || until.IsZero() {
		return ErrInvalidSession
	}
	const q = `UPDATE calls SET retention_until = $2 WHERE call_sid = $1`
	if _, err := s.db.ExecContext(ctx, q, callSID, until); err != nil {
		return fmt.Errorf("set retention: %w", err)
	}
	return nil
}

// AppendTurn inserts one turn; returns false when (call_sid, turn_number)
// already exists.
func (s *PostgresStore) AppendTurn(ctx context.Context, t Turn) (bool, error) {
	if t.CallSID == "" || t.TurnNumber <= 0 || t.Role == "" {
		return false, ErrInvalidTurn
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.clock().UTC()
	}
	const q = `
INSERT INTO agent_turns (call_sid, turn_number, role, message_text, latency_ms, tool_calls_json, tool_success, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, 0), NULLIF($6, '')::jsonb, $7, $8)
ON CONFLICT (call_sid, turn_number) DO NOTHING
`
	res, err := s.db.ExecContext(ctx, q,
		t.CallSID, t.TurnNumber, t.Role, t.MessageText, t.LatencyMS, t.ToolCalls, t.ToolSuccess, t.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("append turn: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `
SELECT call_sid, channel, started_at, ended_at, COALESCE(state, ''),
       recording_consent, marketing_consent, COALESCE(outcome, ''),
       business_hours, retention_until
FROM calls
ORDER BY started_at DESC
LIMIT $1
`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(
			&sess.CallSID, &sess.Channel, &sess.StartedAt, &sess.EndedAt, &sess.State,
			&sess.RecordingConsent, &sess.MarketingConsent, &sess.Outcome,
			&sess.BusinessHours, &sess.RetentionUntil,
		); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// PurgeExpiredRetention deletes call data past its retention horizon. Turn
// and consent rows go first so the call row's foreign keys never dangle.
func (s *PostgresStore) PurgeExpiredRetention(ctx context.Context) (int64, error) {
	now := s.clock().UTC()
	var purged int64
	err := utils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		const turns = `
DELETE FROM agent_turns
WHERE call_sid IN (SELECT call_sid FROM calls WHERE retention_until <= $1)
`
		if _, err := tx.ExecContext(ctx, turns, now); err != nil {
			return fmt.Errorf("purge turns: %w", err)
		}
		const consents = `
DELETE FROM consent_events
WHERE call_sid IN (SELECT call_sid FROM calls WHERE retention_until <= $1)
`
		if _, err := tx.ExecContext(ctx, consents, now); err != nil {
			return fmt.Errorf("purge consent events: %w", err)
		}
		const sessions = `DELETE FROM calls WHERE retention_until <= $1`
		res, err := tx.ExecContext(ctx, sessions, now)
		if err != nil {
			return fmt.Errorf("purge calls: %w", err)
		}
		purged, err = res.RowsAffected()
		return err
	})
	return purged, err
}
