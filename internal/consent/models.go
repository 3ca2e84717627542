package consent

import "time"

// Event is an immutable, append-only consent record. The boolean consent
// flags on the call row are a derived cache; these rows are the source of
// truth and are never updated or deleted.

type Event struct {
	ID         string  `json:"id" db:"id"`
	CallSID    string  `json:"call_sid" db:"call_sid"`
	CustomerID string  `json:"customer_id,omitempty" db:"customer_id"`
	Channel    Channel `json:"channel" db:"channel"`
	Type       Type    `json:"consent_type" db:"consent_type"`

	// Proof records how consent was established: "caller:yes", "caller:no",
	// or "no-input" when the caller said nothing classifiable.
	Proof string `json:"proof" db:"proof"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Channel string

const (
	ChannelVoice Channel = "voice"
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

type Type string

const (
	TypeRecording Type = "recording"
	TypeMarketing Type = "marketing"
)

const (
	ProofCallerYes = "caller:yes"
	ProofCallerNo  = "caller:no"
	ProofNoInput   = "no-input"
)
