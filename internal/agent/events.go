package agent

import (
	"context"
	"time"

	"voice-booking-platform/internal/booking"
	"voice-booking-platform/internal/pricing"
	"voice-booking-platform/internal/scheduling"
)

// EventType enumerates everything the media transport can report to a
// session. Events arrive on a channel and are consumed strictly in order by
// the session goroutine; nothing else mutates session state.
type EventType string

const (
	// EventTurnCompleted carries one finished conversational exchange.
	EventTurnCompleted EventType = "turn_completed"

	// Tool invocation events, parsed from the model's tool calls.
	EventToolQuote        EventType = "tool_quote"
	EventToolAvailability EventType = "tool_availability"
	EventToolBook         EventType = "tool_book"
	EventToolEscalate     EventType = "tool_escalate"

	// EventPaymentResult is injected by the payment webhook via the registry.
	EventPaymentResult EventType = "payment_result"

	// EventSilence fires when the caller exceeds the max-silence window.
	EventSilence EventType = "silence"

	EventHangup EventType = "hangup"
	EventError  EventType = "error"
)

// TurnInfo describes a completed turn for the recorder.
type TurnInfo struct {
	Role       string
	Transcript string
	Latency    time.Duration
	ToolCalls  string
	ToolErr    bool
}

// QuoteCall is a get_pricing_quote invocation.
type QuoteCall struct {
	ServiceType pricing.ServiceType
	Description string
	AfterHours  bool
}

// AvailabilityCall is a check_availability invocation.
type AvailabilityCall struct {
	ServiceType   string
	Emergency     bool
	PreferredDate *time.Time
}

// BookCall is a book_appointment invocation. ResourceID names the crew or
// technician whose window gets held.
type BookCall struct {
	booking.Request
	ResourceID string
}

// EscalateCall is an escalate_to_human invocation.
type EscalateCall struct {
	Reason       string
	CustomerInfo string
}

// Event is one unit of session input.
type Event struct {
	Type EventType

	Turn         *TurnInfo
	Quote        *QuoteCall
	Availability *AvailabilityCall
	Book         *BookCall
	Escalate     *EscalateCall

	PaymentOK bool
	Err       error
}

// SlotSource lists open appointment windows.
type SlotSource interface {
	AvailableSlots(ctx context.Context, req scheduling.AvailabilityRequest) ([]time.Time, error)
}
