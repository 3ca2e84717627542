package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"voice-booking-platform/internal/booking"
	"voice-booking-platform/internal/callflow"
	"voice-booking-platform/internal/escalation"
	"voice-booking-platform/internal/notify"
	"voice-booking-platform/internal/pricing"
	"voice-booking-platform/internal/scheduling"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSlots struct {
	slots []time.Time
	err   error
}

func (f *fakeSlots) AvailableSlots(context.Context, scheduling.AvailabilityRequest) ([]time.Time, error) {
	return f.slots, f.err
}

type fakeBooker struct {
	res   booking.Result
	err   error
	calls int
}

func (f *fakeBooker) Book(context.Context, booking.Request) (booking.Result, error) {
	f.calls++
	if f.err != nil {
		return booking.Result{}, f.err
	}
	return f.res, nil
}

type dispFixture struct {
	disp   *Dispatcher
	holds  *scheduling.MemoryHolds
	booker *fakeBooker
	sms    *notify.MemorySender
	repo   *escalation.MemoryRepo
}

func newDispFixture(t *testing.T) *dispFixture {
	t.Helper()
	holds := scheduling.NewMemoryHolds(5 * time.Minute)
	booker := &fakeBooker{res: booking.Result{
		JobID: "job-1", JobNumber: 1042, CustomerID: "cust-1",
		DepositAmount: 138, CheckoutURL: "https://pay.example/cs_1",
		WindowStart: time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC),
	}}
	sms := notify.NewMemorySender()
	repo := escalation.NewMemoryRepo()
	disp := NewDispatcher(
		pricing.NewEngine(),
		&fakeSlots{slots: []time.Time{time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)}},
		holds,
		booker,
		sms,
		escalation.NewService(repo, quietLogger()),
		quietLogger(),
	)
	return &dispFixture{disp: disp, holds: holds, booker: booker, sms: sms, repo: repo}
}

func validBookCall() BookCall {
	return BookCall{
		Request: booking.Request{
			CustomerName: "Dana Fuller",
			Phone:        "+15550001111",
			Address:      "12 Oak St",
			ServiceType:  "repair",
			Description:  "compressor noise",
			ScheduledAt:  time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC),
		},
		ResourceID: "crew-1",
	}
}

func TestGetPricingQuote_StateGate(t *testing.T) {
	f := newDispFixture(t)
	ctx := context.Background()

	if _, err := f.disp.GetPricingQuote(ctx, callflow.StateGreeting, QuoteCall{ServiceType: pricing.ServiceRepair}); !errors.Is(err, ErrToolNotAllowed) {
		t.Fatalf("expected ErrToolNotAllowed in Greeting, got %v", err)
	}
	res, err := f.disp.GetPricingQuote(ctx, callflow.StateQualify, QuoteCall{
		ServiceType: pricing.ServiceRepair, Description: "no heat upstairs",
	})
	if err != nil {
		t.Fatalf("quote in Qualify: %v", err)
	}
	if res.Message != quoteEmergencyMessage {
		t.Fatalf("expected emergency message for no-heat description, got %q", res.Message)
	}
	if res.TotalEstimate != 825 {
		t.Fatalf("total = %d, want 825", res.TotalEstimate)
	}
}

func TestCheckAvailability_EmergencyMessage(t *testing.T) {
	f := newDispFixture(t)
	res, err := f.disp.CheckAvailability(context.Background(), callflow.StateQuote, AvailabilityCall{
		ServiceType: "repair", Emergency: true,
	})
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if len(res.Slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(res.Slots))
	}
	if res.Message != slotsEmergencyMessage {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestBookAppointment_Success(t *testing.T) {
	f := newDispFixture(t)
	res, err := f.disp.BookAppointment(context.Background(), callflow.StateBook, "CA1", validBookCall())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if res.Contended {
		t.Fatalf("unexpected contention")
	}
	if res.JobID != "job-1" || res.CheckoutURL == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	// Hold converted away, so the window is bookable again after the job exists.
	if f.holds.Len() != 0 {
		t.Fatalf("expected hold converted, %d remain", f.holds.Len())
	}
	sent := f.sms.Sent()
	if len(sent) != 1 || sent[0].Kind != notify.KindTransactional {
		t.Fatalf("expected one transactional sms, got %+v", sent)
	}
}

func TestBookAppointment_ContentionLosesGracefully(t *testing.T) {
	f := newDispFixture(t)
	ctx := context.Background()
	call := validBookCall()

	start := call.ScheduledAt.UTC()
	won, err := f.holds.Acquire(ctx, scheduling.Hold{
		ResourceID: call.ResourceID, SlotStart: start, SlotEnd: start.Add(scheduling.SlotDuration),
	})
	if err != nil || !won {
		t.Fatalf("seed hold: won=%v err=%v", won, err)
	}

	res, err := f.disp.BookAppointment(ctx, callflow.StateBook, "CA2", call)
	if err != nil {
		t.Fatalf("contended booking must not error: %v", err)
	}
	if !res.Contended {
		t.Fatalf("expected contention")
	}
	if res.Message != slotContendedMessage {
		t.Fatalf("message = %q", res.Message)
	}
	if f.booker.calls != 0 {
		t.Fatalf("losing caller must not reach the booking service")
	}
}

func TestBookAppointment_FailureReleasesHoldAndStaysCallerSafe(t *testing.T) {
	f := newDispFixture(t)
	f.booker.err = errors.New("pq: deadlock detected")

	res, err := f.disp.BookAppointment(context.Background(), callflow.StateBook, "CA3", validBookCall())
	if err == nil {
		t.Fatalf("expected error")
	}
	if res.Message != booking.CallerSafeFailure {
		t.Fatalf("caller message = %q, want caller-safe text", res.Message)
	}
	if f.holds.Len() != 0 {
		t.Fatalf("failed booking must release its hold")
	}
	if len(f.sms.Sent()) != 0 {
		t.Fatalf("failed booking must not text the caller")
	}
}

func TestBookAppointment_StateGate(t *testing.T) {
	f := newDispFixture(t)
	if _, err := f.disp.BookAppointment(context.Background(), callflow.StateGreeting, "CA4", validBookCall()); !errors.Is(err, ErrToolNotAllowed) {
		t.Fatalf("expected ErrToolNotAllowed, got %v", err)
	}
	if f.holds.Len() != 0 {
		t.Fatalf("gated call must not take a hold")
	}
}

func TestEscalateToHuman_AlwaysSucceeds(t *testing.T) {
	f := newDispFixture(t)
	res := f.disp.EscalateToHuman(context.Background(), "CA5", EscalateCall{
		Reason: "caller_request", CustomerInfo: "wants a supervisor",
	})
	if res.Action != "transfer" || res.Message == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	evs := f.repo.Events()
	if len(evs) != 1 || evs[0].Reason != "caller_request" {
		t.Fatalf("expected recorded escalation, got %+v", evs)
	}
}

func TestEscalateToHuman_StorageFailureStillSucceeds(t *testing.T) {
	f := newDispFixture(t)
	f.repo.Err = errors.New("storage down")
	res := f.disp.EscalateToHuman(context.Background(), "CA6", EscalateCall{Reason: "caller_request"})
	if res.Action != "transfer" {
		t.Fatalf("escalation must succeed despite storage failure: %+v", res)
	}
}
