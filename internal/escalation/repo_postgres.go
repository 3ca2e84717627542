package escalation

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepo stores escalation events in call_escalations.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO call_escalations (id, call_sid, reason, customer_info, created_at)
VALUES ($1, $2, $3, NULLIF($4, '')::jsonb, $5)
`
	if _, err := r.db.ExecContext(ctx, q, e.ID, e.CallSID, e.Reason, e.CustomerInfo, e.CreatedAt); err != nil {
		return fmt.Errorf("append escalation: %w", err)
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Event, error) {
	const q = `
SELECT id, call_sid, reason, COALESCE(customer_info::text, ''), created_at
FROM call_escalations
ORDER BY created_at DESC
LIMIT $1
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list escalations: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.CallSID, &e.Reason, &e.CustomerInfo, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
