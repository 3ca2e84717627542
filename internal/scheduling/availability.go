package scheduling

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AvailabilityRequest narrows the slot search. Emergency requests start two
// hours out; everything else starts the next calendar day unless the caller
// named a date.
type AvailabilityRequest struct {
	ServiceType   string
	Emergency     bool
	PreferredDate *time.Time
}

// Availability lists open appointment windows.
type Availability struct {
	db *sql.DB
}

func NewAvailability(db *sql.DB) *Availability {
	return &Availability{db: db}
}

// AvailableSlots returns up to 12 open 2-hour windows, earliest first. A
// window is open when no active job occupies it and no live hold reserves it.
//
// A preferred date pins both ends of the series, so the caller is offered at
// most one window: the date's midnight slot.
func (a *Availability) AvailableSlots(ctx context.Context, req AvailabilityRequest) ([]time.Time, error) {
	if req.PreferredDate != nil && req.PreferredDate.IsZero() {
		return nil, ErrInvalidQuery
	}

	const q = `
WITH series AS (
	SELECT generate_series(
		CASE WHEN $1 THEN now() + interval '2 hours'
		     ELSE COALESCE($2::date, current_date + interval '1 day')
		END,
		COALESCE($2::date, current_date + interval '7 days'),
		interval '2 hours'
	) AS slot
)
SELECT s.slot
FROM series s
WHERE NOT EXISTS (
	SELECT 1 FROM jobs j
	WHERE j.status IN ('scheduled', 'in_progress', 'confirmed')
	  AND j.window_start = s.slot
)
AND NOT EXISTS (
	SELECT 1 FROM booking_holds h
	WHERE h.slot_start = s.slot AND h.expires_at > now()
)
ORDER BY s.slot
LIMIT 12
`
	var preferred sql.NullTime
	if req.PreferredDate != nil {
		preferred = sql.NullTime{Time: *req.PreferredDate, Valid: true}
	}

	rows, err := a.db.QueryContext(ctx, q, req.Emergency, preferred)
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}
	defer rows.Close()

	var slots []time.Time
	for rows.Next() {
		var s time.Time
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
