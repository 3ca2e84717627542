package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"voice-booking-platform/internal/booking"
	"voice-booking-platform/internal/callflow"
	"voice-booking-platform/internal/calls"
	"voice-booking-platform/internal/consent"
)

const paymentConfirmedMessage = "Your deposit is confirmed and your appointment is all set. Anything else I can help with?"

// Config carries per-session policy.
type Config struct {
	FSM           callflow.Config
	RetentionDays int
}

// Session orchestrates one call: consent first, then the event loop that
// drives the state machine, records turns, and runs tools. One goroutine per
// call; all session state is confined to it.
type Session struct {
	callSID string
	cfg     Config
	fsm     *callflow.Machine
	store   calls.SessionStore
	gate    *consent.Gate
	disp    *Dispatcher
	reg     *Registry
	say     consent.SayFunc
	listen  consent.ListenFunc
	log     *slog.Logger
	clock   func() time.Time

	events chan Event
	turn   int

	// curState mirrors the machine for cross-goroutine readers; the
	// machine itself is confined to the Run goroutine.
	curState atomic.Value
}

func NewSession(
	callSID string,
	cfg Config,
	store calls.SessionStore,
	gate *consent.Gate,
	disp *Dispatcher,
	reg *Registry,
	say consent.SayFunc,
	listen consent.ListenFunc,
	log *slog.Logger,
) *Session {
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		callSID: callSID,
		cfg:     cfg,
		fsm:     callflow.New(cfg.FSM),
		store:   store,
		gate:    gate,
		disp:    disp,
		reg:     reg,
		say:     say,
		listen:  listen,
		log:     log.With("call_sid", callSID),
		clock:   time.Now,
		events:  make(chan Event, 16),
	}
	s.curState.Store(s.fsm.State())
	return s
}

// next advances the machine and refreshes the published state snapshot.
func (s *Session) next(ev callflow.Event) callflow.State {
	st := s.fsm.Next(ev)
	s.curState.Store(st)
	return st
}

// Events is where the media transport delivers session input.
func (s *Session) Events() chan<- Event { return s.events }

// State exposes the current conversation stage for tool gating at the
// transport layer. Safe to call from any goroutine.
func (s *Session) State() callflow.State {
	return s.curState.Load().(callflow.State)
}

// Run drives the session to completion. It returns when the call ends;
// close-out writes survive transport cancellation.
func (s *Session) Run(ctx context.Context) error {
	now := s.clock().UTC()
	err := s.store.CreateSession(ctx, calls.Session{
		CallSID:       s.callSID,
		BusinessHours: !booking.IsAfterHours(now),
		StartedAt:     now,
	})
	if err != nil {
		// A recorder outage must not drop the call.
		s.log.Error("create call session failed", "error", err)
	}

	s.reg.Register(s.callSID, s.events)
	defer s.reg.Unregister(s.callSID)

	ok, err := s.gate.EnsureRecordingConsent(ctx, s.callSID, s.say, s.listen, func(ctx context.Context) error {
		return s.say(ctx, consent.DeclineMessage)
	})
	if err != nil {
		s.close(ctx, calls.OutcomeFailed)
		return err
	}
	if !ok {
		s.close(ctx, calls.OutcomeDeclinedConsent)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			s.close(ctx, calls.OutcomeFailed)
			return ctx.Err()
		case ev := <-s.events:
			outcome, done := s.handle(ctx, ev)
			if done {
				s.close(ctx, outcome)
				return nil
			}
		}
	}
}

func (s *Session) handle(ctx context.Context, ev Event) (calls.Outcome, bool) {
	switch ev.Type {
	case EventTurnCompleted:
		s.recordTurn(ctx, ev.Turn)
		s.advanceOnSpeech(ev.Turn)
		if s.fsm.Terminal() {
			return calls.OutcomeCompleted, true
		}

	case EventToolQuote:
		res, err := s.disp.GetPricingQuote(ctx, s.fsm.State(), *ev.Quote)
		if err != nil {
			s.log.Warn("quote tool rejected", "state", s.fsm.State(), "error", err)
			return "", false
		}
		s.speak(ctx, res.Message)

	case EventToolAvailability:
		res, err := s.disp.CheckAvailability(ctx, s.fsm.State(), *ev.Availability)
		if err != nil {
			s.log.Warn("availability tool failed", "state", s.fsm.State(), "error", err)
			return "", false
		}
		s.speak(ctx, res.Message)

	case EventToolBook:
		return s.handleBook(ctx, *ev.Book)

	case EventToolEscalate:
		res := s.disp.EscalateToHuman(ctx, s.callSID, *ev.Escalate)
		s.speak(ctx, res.Message)
		return s.finishEscalation(), true

	case EventPaymentResult:
		if ev.PaymentOK {
			s.next(callflow.Event{Type: callflow.EventPaymentOK})
			s.speak(ctx, paymentConfirmedMessage)
			s.syncState(ctx)
			return "", false
		}
		s.next(callflow.Event{Type: callflow.EventPaymentFail})
		res := s.disp.EscalateToHuman(ctx, s.callSID, EscalateCall{Reason: "payment_failed"})
		s.speak(ctx, res.Message)
		return s.finishEscalation(), true

	case EventSilence:
		s.next(callflow.Event{Type: callflow.EventTimeout})
		s.syncState(ctx)
		if s.fsm.Terminal() {
			return calls.OutcomeCompleted, true
		}

	case EventHangup:
		if s.fsm.State() == callflow.StateEscalate {
			return calls.OutcomeEscalated, true
		}
		return calls.OutcomeCompleted, true

	case EventError:
		s.log.Error("session transport error", "error", ev.Err)
		res := s.disp.EscalateToHuman(ctx, s.callSID, EscalateCall{Reason: "agent_error"})
		s.speak(ctx, res.Message)
		return s.finishEscalation(), true
	}
	return "", false
}

func (s *Session) handleBook(ctx context.Context, call BookCall) (calls.Outcome, bool) {
	res, err := s.disp.BookAppointment(ctx, s.fsm.State(), s.callSID, call)
	if err != nil {
		if errors.Is(err, ErrToolNotAllowed) {
			s.log.Warn("book tool rejected", "state", s.fsm.State(), "error", err)
			return "", false
		}
		s.next(callflow.Event{Type: callflow.EventBookFail})
		s.speak(ctx, res.Message)
		s.disp.EscalateToHuman(ctx, s.callSID, EscalateCall{Reason: "booking_failed"})
		return s.finishEscalation(), true
	}
	if res.Contended {
		s.speak(ctx, res.Message)
		return "", false
	}

	s.reg.BindJob(res.JobID, s.callSID)
	s.next(callflow.Event{Type: callflow.EventBookOK})
	s.speak(ctx, res.Message)
	s.syncState(ctx)
	return "", false
}

// finishEscalation walks the machine into End through the escalation lane
// and reports the call outcome.
func (s *Session) finishEscalation() calls.Outcome {
	s.next(callflow.Event{Type: callflow.EventHandoff})
	if s.fsm.State() == callflow.StateEscalate {
		s.next(callflow.Event{Type: callflow.EventHandoff})
	}
	return calls.OutcomeEscalated
}

func (s *Session) recordTurn(ctx context.Context, t *TurnInfo) {
	if t == nil {
		return
	}
	s.turn++
	_, err := s.store.AppendTurn(ctx, calls.Turn{
		CallSID:     s.callSID,
		TurnNumber:  s.turn,
		Role:        t.Role,
		MessageText: t.Transcript,
		LatencyMS:   int(t.Latency.Milliseconds()),
		ToolCalls:   t.ToolCalls,
		ToolSuccess: !t.ToolErr,
	})
	if err != nil {
		// Analytics must not crash the call.
		s.log.Warn("append turn failed", "turn", s.turn, "error", err)
	}
}

func (s *Session) advanceOnSpeech(t *TurnInfo) {
	if t == nil || (t.Role != "user" && t.Role != "caller") {
		return
	}
	if s.fsm.State() == callflow.StateConfirm && isFarewell(t.Transcript) {
		s.next(callflow.Event{Type: callflow.EventGoodbye})
		return
	}
	s.next(callflow.Event{Type: callflow.EventUserSpeaks, Intent: DetectIntent(t.Transcript)})
}

func (s *Session) speak(ctx context.Context, text string) {
	if text == "" {
		return
	}
	if err := s.say(ctx, text); err != nil {
		s.log.Warn("say failed", "error", err)
	}
}

// syncState mirrors the stage onto the call row for dashboards. Best-effort.
func (s *Session) syncState(ctx context.Context) {
	if err := s.store.UpdateState(ctx, s.callSID, string(s.fsm.State())); err != nil {
		s.log.Warn("state sync failed", "error", err)
	}
}

// close finalizes the call row. It runs on a detached context so a dropped
// WebSocket cannot cancel the close-out writes.
func (s *Session) close(ctx context.Context, outcome calls.Outcome) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.store.CloseSession(dctx, s.callSID, outcome); err != nil {
		s.log.Error("close call session failed", "outcome", outcome, "error", err)
	}
	if s.cfg.RetentionDays > 0 {
		until := s.clock().UTC().AddDate(0, 0, s.cfg.RetentionDays)
		if err := s.store.SetRetention(dctx, s.callSID, until); err != nil {
			s.log.Warn("set retention failed", "error", err)
		}
	}
	s.syncState(dctx)
}

// DetectIntent is a lexical fallback classifier for conversation routing.
// The model's own tool choice is the primary signal; this only nudges the
// state machine when the caller states a goal in plain words.
func DetectIntent(transcript string) callflow.Intent {
	t := strings.ToLower(transcript)
	for _, kw := range []string{"book", "schedule", "appointment", "come out", "send someone"} {
		if strings.Contains(t, kw) {
			return callflow.IntentBook
		}
	}
	for _, kw := range []string{"quote", "price", "cost", "how much", "estimate"} {
		if strings.Contains(t, kw) {
			return callflow.IntentQuote
		}
	}
	return callflow.IntentUnknown
}

func isFarewell(transcript string) bool {
	t := strings.ToLower(transcript)
	for _, kw := range []string{"bye", "goodbye", "that's all", "that is all", "no thanks", "nothing else"} {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}
