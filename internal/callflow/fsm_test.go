package callflow

import (
	"testing"
	"time"
)

func newTestMachine() *Machine {
	return New(Config{BargeInThreshold: 200 * time.Millisecond, MaxSilence: 6 * time.Second})
}

func TestNew_StartsAtGreeting(t *testing.T) {
	m := newTestMachine()
	if m.State() != StateGreeting {
		t.Fatalf("expected Greeting, got %s", m.State())
	}
	if m.Terminal() {
		t.Fatalf("fresh machine must not be terminal")
	}
}

func TestNext_HappyPathBookingFlow(t *testing.T) {
	m := newTestMachine()
	steps := []struct {
		ev   Event
		want State
	}{
		{Event{Type: EventUserSpeaks}, StateQualify},
		{Event{Type: EventUserSpeaks, Intent: IntentBook}, StateBook},
		{Event{Type: EventBookOK}, StatePayment},
		{Event{Type: EventPaymentOK}, StateConfirm},
		{Event{Type: EventGoodbye}, StateEnd},
	}
	for i, s := range steps {
		if got := m.Next(s.ev); got != s.want {
			t.Fatalf("step %d: got %s, want %s", i, got, s.want)
		}
	}
	if !m.Terminal() {
		t.Fatalf("expected terminal state")
	}
}

func TestNext_QuoteThenBookPath(t *testing.T) {
	m := newTestMachine()
	m.Next(Event{Type: EventUserSpeaks})
	if got := m.Next(Event{Type: EventUserSpeaks, Intent: IntentQuote}); got != StateQuote {
		t.Fatalf("expected Quote, got %s", got)
	}
	if got := m.Next(Event{Type: EventUserSpeaks, Intent: IntentBook}); got != StateBook {
		t.Fatalf("expected Book, got %s", got)
	}
}

func TestNext_FailurePathsLeadToEscalate(t *testing.T) {
	tests := []struct {
		name string
		from State
		ev   Event
	}{
		{"booking failure", StateBook, Event{Type: EventBookFail}},
		{"payment failure", StatePayment, Event{Type: EventPaymentFail}},
		{"qualify handoff", StateQualify, Event{Type: EventHandoff}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestMachine()
			m.state = tc.from
			if got := m.Next(tc.ev); got != StateEscalate {
				t.Fatalf("got %s, want Escalate", got)
			}
			if got := m.Next(Event{Type: EventHandoff}); got != StateEnd {
				t.Fatalf("handoff from Escalate: got %s, want End", got)
			}
		})
	}
}

func TestNext_SilenceTimeouts(t *testing.T) {
	m := newTestMachine()
	if got := m.Next(Event{Type: EventTimeout}); got != StateEnd {
		t.Fatalf("Greeting timeout: got %s, want End", got)
	}

	m = newTestMachine()
	m.state = StateQuote
	if got := m.Next(Event{Type: EventTimeout}); got != StateEnd {
		t.Fatalf("Quote timeout: got %s, want End", got)
	}
}

func TestNext_UnknownIntentInQualifyIsNoOp(t *testing.T) {
	m := newTestMachine()
	m.Next(Event{Type: EventUserSpeaks})
	if got := m.Next(Event{Type: EventUserSpeaks, Intent: IntentUnknown}); got != StateQualify {
		t.Fatalf("expected Qualify to hold on unknown intent, got %s", got)
	}
}

func TestNext_EndIsAbsorbing(t *testing.T) {
	m := newTestMachine()
	m.state = StateEnd
	for _, et := range EventTypes {
		for _, in := range []Intent{IntentUnknown, IntentQuote, IntentBook} {
			if got := m.Next(Event{Type: et, Intent: in}); got != StateEnd {
				t.Fatalf("End absorbed %s/%s into %s", et, in, got)
			}
		}
	}
}

// Every state must handle every event without leaving the known state set.
func TestNext_TotalOverAllPairs(t *testing.T) {
	known := make(map[State]bool, len(States))
	for _, s := range States {
		known[s] = true
	}
	for _, from := range States {
		for _, et := range EventTypes {
			for _, in := range []Intent{IntentUnknown, IntentQuote, IntentBook} {
				m := newTestMachine()
				m.state = from
				got := m.Next(Event{Type: et, Intent: in})
				if !known[got] {
					t.Fatalf("transition %s + %s/%s produced unknown state %q", from, et, in, got)
				}
			}
		}
	}
}
