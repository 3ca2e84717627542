package calls

import (
	"errors"
	"time"
)

var (
	ErrInvalidSession = errors.New("calls: invalid session")
	ErrInvalidTurn    = errors.New("calls: invalid turn")
)

// Outcome is the terminal disposition of a call session.
type Outcome string

const (
	OutcomeCompleted       Outcome = "completed"
	OutcomeEscalated       Outcome = "escalated"
	OutcomeDeclinedConsent Outcome = "declined_consent"
	OutcomeFailed          Outcome = "failed"
)

// Session is one phone call, keyed by the provider call SID. Created when
// the media stream connects, closed with an outcome when it drops.
//
// RecordingConsent and MarketingConsent are derived caches; consent_events
// rows are the source of truth.
type Session struct {
	CallSID   string     `json:"call_sid" db:"call_sid"`
	Channel   string     `json:"channel" db:"channel"`
	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	// State is the last observed conversation stage, for dashboards only.
	State string `json:"state,omitempty" db:"state"`

	RecordingConsent bool    `json:"recording_consent" db:"recording_consent"`
	MarketingConsent bool    `json:"marketing_consent" db:"marketing_consent"`
	Outcome          Outcome `json:"outcome,omitempty" db:"outcome"`

	// BusinessHours records whether the call arrived inside the 08:00-18:00
	// service day.
	BusinessHours bool `json:"business_hours" db:"business_hours"`

	// RetentionUntil is when this call's data becomes purgeable.
	RetentionUntil *time.Time `json:"retention_until,omitempty" db:"retention_until"`
}

// Turn is one conversational exchange. Append-only; redelivered turn events
// must not produce duplicate rows.
type Turn struct {
	CallSID     string    `json:"call_sid" db:"call_sid"`
	TurnNumber  int       `json:"turn_number" db:"turn_number"`
	Role        string    `json:"role" db:"role"`
	MessageText string    `json:"message_text,omitempty" db:"message_text"`
	LatencyMS   int       `json:"latency_ms,omitempty" db:"latency_ms"`
	ToolCalls   string    `json:"tool_calls_json,omitempty" db:"tool_calls_json"`
	ToolSuccess bool      `json:"tool_success" db:"tool_success"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
