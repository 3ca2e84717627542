package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"voice-booking-platform/internal/calls"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) ListSessions(ctx context.Context, from, to time.Time) ([]calls.Session, error) {
	const q = `
SELECT call_sid, channel, started_at, ended_at, state,
       recording_consent, marketing_consent, outcome, business_hours, retention_until
FROM calls
WHERE started_at >= $1 AND started_at < $2
ORDER BY started_at
`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("reporting list sessions: %w", err)
	}
	defer rows.Close()

	var out []calls.Session
	for rows.Next() {
		var c calls.Session
		var endedAt, retention sql.NullTime
		var state, outcome sql.NullString
		if err := rows.Scan(&c.CallSID, &c.Channel, &c.StartedAt, &endedAt, &state,
			&c.RecordingConsent, &c.MarketingConsent, &outcome, &c.BusinessHours, &retention); err != nil {
			return nil, fmt.Errorf("reporting scan session: %w", err)
		}
		if endedAt.Valid {
			c.EndedAt = &endedAt.Time
		}
		if retention.Valid {
			c.RetentionUntil = &retention.Time
		}
		c.State = state.String
		c.Outcome = calls.Outcome(outcome.String)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountJobs(ctx context.Context, from, to time.Time) (int, int, error) {
	const q = `
SELECT COUNT(*), COUNT(*) FILTER (WHERE deposit_paid)
FROM jobs
WHERE created_at >= $1 AND created_at < $2
`
	var booked, paid int
	if err := r.db.QueryRowContext(ctx, q, from, to).Scan(&booked, &paid); err != nil {
		return 0, 0, fmt.Errorf("reporting count jobs: %w", err)
	}
	return booked, paid, nil
}
