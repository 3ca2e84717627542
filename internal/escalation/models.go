package escalation

import "time"

// Event is an immutable, append-only record of a handoff to a human.
//
// Invariants:
// - Events are never updated or deleted.
// - Recording an escalation is best-effort; the handoff itself must never
//   block on persistence.

type Event struct {
	ID      string `json:"id" db:"id"`
	CallSID string `json:"call_sid" db:"call_sid"`

	// Reason is a short machine-friendly cause: "caller_request",
	// "booking_failed", "payment_failed", "consent_unknown".
	Reason string `json:"reason" db:"reason"`

	// CustomerInfo is optional JSON captured from the conversation so the
	// operator has context before picking up.
	CustomerInfo string `json:"customer_info,omitempty" db:"customer_info"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HandoffMessage is spoken to the caller while the transfer happens.
const HandoffMessage = "Let me connect you with a specialist. One moment please."
