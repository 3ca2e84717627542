package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"voice-booking-platform/internal/booking"
	"voice-booking-platform/internal/callflow"
	"voice-booking-platform/internal/escalation"
	"voice-booking-platform/internal/notify"
	"voice-booking-platform/internal/pricing"
	"voice-booking-platform/internal/scheduling"
)

// ErrToolNotAllowed means a tool fired in a conversation stage where it
// makes no sense. The check is advisory: the model is steered, not trusted.
var ErrToolNotAllowed = errors.New("agent: tool not allowed in current state")

const (
	quoteReadyMessage     = "Here's your pricing estimate. Would you like to schedule an appointment?"
	quoteEmergencyMessage = "This appears to be an emergency. We can have a technician out within 2 hours."

	slotsMessage          = "Here are our next available appointments. Which time works best?"
	slotsEmergencyMessage = "For emergency service, I can get you on today's schedule."

	slotContendedMessage = "That time was just taken. Can I offer you the next available slot?"
)

// Booker books an appointment transactionally.
type Booker interface {
	Book(ctx context.Context, req booking.Request) (booking.Result, error)
}

// Dispatcher executes the agent's four tools against the domain services.
// It is stateless; per-call state lives in the Session that owns it.
type Dispatcher struct {
	pricing *pricing.Engine
	slots   SlotSource
	holds   scheduling.Holds
	booker  Booker
	sms     notify.Sender
	esc     *escalation.Service
	log     *slog.Logger
}

func NewDispatcher(
	pr *pricing.Engine,
	slots SlotSource,
	holds scheduling.Holds,
	booker Booker,
	sms notify.Sender,
	esc *escalation.Service,
	log *slog.Logger,
) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{pricing: pr, slots: slots, holds: holds, booker: booker, sms: sms, esc: esc, log: log}
}

var toolStates = map[EventType]map[callflow.State]bool{
	EventToolQuote: {
		callflow.StateQualify: true,
		callflow.StateQuote:   true,
	},
	EventToolAvailability: {
		callflow.StateQualify: true,
		callflow.StateQuote:   true,
		callflow.StateBook:    true,
	},
	EventToolBook: {
		callflow.StateBook: true,
	},
}

func (d *Dispatcher) allowed(tool EventType, state callflow.State) error {
	if tool == EventToolEscalate {
		return nil
	}
	if states, ok := toolStates[tool]; !ok || !states[state] {
		return fmt.Errorf("%w: %s in %s", ErrToolNotAllowed, tool, state)
	}
	return nil
}

// QuoteResult is the spoken pricing answer.
type QuoteResult struct {
	pricing.Quote
	Message string `json:"message"`
}

func (d *Dispatcher) GetPricingQuote(ctx context.Context, state callflow.State, call QuoteCall) (QuoteResult, error) {
	if err := d.allowed(EventToolQuote, state); err != nil {
		return QuoteResult{}, err
	}
	q := d.pricing.CalculateQuote(call.ServiceType, call.Description, call.AfterHours)
	msg := quoteReadyMessage
	if d.pricing.HasEmergencyKeywords(call.Description) {
		msg = quoteEmergencyMessage
	}
	return QuoteResult{Quote: q, Message: msg}, nil
}

// AvailabilityResult lists offered windows.
type AvailabilityResult struct {
	Slots   []time.Time `json:"available_slots"`
	Message string      `json:"message"`
}

func (d *Dispatcher) CheckAvailability(ctx context.Context, state callflow.State, call AvailabilityCall) (AvailabilityResult, error) {
	if err := d.allowed(EventToolAvailability, state); err != nil {
		return AvailabilityResult{}, err
	}
	slots, err := d.slots.AvailableSlots(ctx, scheduling.AvailabilityRequest{
		ServiceType:   call.ServiceType,
		Emergency:     call.Emergency,
		PreferredDate: call.PreferredDate,
	})
	if err != nil {
		return AvailabilityResult{}, fmt.Errorf("check availability: %w", err)
	}
	msg := slotsMessage
	if call.Emergency {
		msg = slotsEmergencyMessage
	}
	return AvailabilityResult{Slots: slots, Message: msg}, nil
}

// BookResult is what the agent speaks after a booking attempt. Contended is
// the losing side of a slot race; it is not a failure.
type BookResult struct {
	booking.Result
	Contended bool   `json:"contended,omitempty"`
	Message   string `json:"message"`
}

// BookAppointment holds the slot, books inside one transaction, then retires
// the hold. A lost hold race returns Contended without touching the booking
// service. A failed transaction releases the hold and surfaces only the
// caller-safe message; the cause goes to the log.
func (d *Dispatcher) BookAppointment(ctx context.Context, state callflow.State, callSID string, call BookCall) (BookResult, error) {
	if err := d.allowed(EventToolBook, state); err != nil {
		return BookResult{}, err
	}
	if call.ResourceID == "" {
		call.ResourceID = "crew-default"
	}

	start := call.ScheduledAt.UTC()
	end := start.Add(scheduling.SlotDuration)
	won, err := d.holds.Acquire(ctx, scheduling.Hold{
		ResourceID:    call.ResourceID,
		SlotStart:     start,
		SlotEnd:       end,
		CustomerPhone: call.Phone,
	})
	if err != nil {
		d.log.Error("hold acquire failed", "call_sid", callSID, "error", err)
		return BookResult{Message: booking.CallerSafeFailure}, fmt.Errorf("acquire hold: %w", err)
	}
	if !won {
		return BookResult{Contended: true, Message: slotContendedMessage}, nil
	}

	res, err := d.booker.Book(ctx, call.Request)
	if err != nil {
		if relErr := d.holds.Release(ctx, call.ResourceID, start, end); relErr != nil {
			d.log.Error("hold release failed", "call_sid", callSID, "error", relErr)
		}
		d.log.Error("booking failed", "call_sid", callSID, "error", err)
		return BookResult{Message: booking.CallerSafeFailure}, fmt.Errorf("book: %w", err)
	}

	if err := d.holds.Convert(ctx, call.ResourceID, start, end); err != nil {
		// The job row is committed; the reaper will collect the hold.
		d.log.Warn("hold convert failed", "call_sid", callSID, "job_id", res.JobID, "error", err)
	}

	d.sendConfirmation(ctx, callSID, call, res)

	return BookResult{
		Result:  res,
		Message: fmt.Sprintf("Booked for %s. I just texted you a deposit link.", start.Format("Monday, Jan 2 at 3:04 PM")),
	}, nil
}

// Confirmation texts are transactional and best-effort: an SMS outage must
// not unwind a committed booking.
func (d *Dispatcher) sendConfirmation(ctx context.Context, callSID string, call BookCall, res booking.Result) {
	if d.sms == nil || call.Phone == "" {
		return
	}
	body := fmt.Sprintf("Your %s appointment is set for %s. Job #%d. Deposit link: %s",
		call.ServiceType, res.WindowStart.Format("Monday, Jan 2 at 3:04 PM"), res.JobNumber, res.CheckoutURL)
	err := d.sms.SendSMS(ctx, notify.Message{
		To:      call.Phone,
		Body:    body,
		Kind:    notify.KindTransactional,
		CallSID: callSID,
	})
	if err != nil {
		d.log.Warn("confirmation sms failed", "call_sid", callSID, "job_id", res.JobID, "error", err)
	}
}

// EscalateResult always succeeds from the caller's perspective.
type EscalateResult struct {
	Message string `json:"message"`
	Action  string `json:"action"`
}

func (d *Dispatcher) EscalateToHuman(ctx context.Context, callSID string, call EscalateCall) EscalateResult {
	if d.esc != nil {
		info := call.CustomerInfo
		if info != "" && !json.Valid([]byte(info)) {
			raw, _ := json.Marshal(map[string]string{"note": info})
			info = string(raw)
		}
		d.esc.Record(ctx, escalation.Event{
			CallSID:      callSID,
			Reason:       call.Reason,
			CustomerInfo: info,
		})
	}
	return EscalateResult{Message: escalation.HandoffMessage, Action: "transfer"}
}
