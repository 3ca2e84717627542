package callflow

import "time"

// State is a stage of the call-progress state machine.
type State string

const (
	StateGreeting State = "Greeting"
	StateQualify  State = "Qualify"
	StateQuote    State = "Quote"
	StateBook     State = "Book"
	StatePayment  State = "Payment"
	StateConfirm  State = "Confirm"
	StateEscalate State = "Escalate"
	StateEnd      State = "End"
)

// States lists every machine state. Useful for exhaustive tests.
var States = []State{
	StateGreeting, StateQualify, StateQuote, StateBook,
	StatePayment, StateConfirm, StateEscalate, StateEnd,
}

type EventType string

const (
	EventUserSpeaks  EventType = "user_speaks"
	EventTimeout     EventType = "timeout"
	EventAgentError  EventType = "agent_error"
	EventPaymentOK   EventType = "payment_ok"
	EventPaymentFail EventType = "payment_fail"
	EventBookOK      EventType = "book_ok"
	EventBookFail    EventType = "book_fail"
	EventHandoff     EventType = "handoff"
	EventGoodbye     EventType = "goodbye"
)

// EventTypes lists every event the machine understands.
var EventTypes = []EventType{
	EventUserSpeaks, EventTimeout, EventAgentError, EventPaymentOK,
	EventPaymentFail, EventBookOK, EventBookFail, EventHandoff, EventGoodbye,
}

// Intent qualifies a user_speaks event.
type Intent string

const (
	IntentQuote   Intent = "quote"
	IntentBook    Intent = "book"
	IntentUnknown Intent = ""
)

type Event struct {
	Type   EventType
	Intent Intent
}

// Config carries the machine's timing parameters. They are configuration,
// not state: the transport synthesizes timeout events from MaxSilence and
// uses BargeInThreshold to decide when caller speech interrupts playback.
type Config struct {
	BargeInThreshold time.Duration
	MaxSilence       time.Duration
}

// Machine is the deterministic call-progress state machine.
//
// Unmatched (state, event) pairs leave the state unchanged: an unexpected
// conversational event must never crash a live call.
//
// Machine is not safe for concurrent use; each call session owns exactly one
// and drives it from a single goroutine.
type Machine struct {
	state State
	cfg   Config
}

func New(cfg Config) *Machine {
	return &Machine{state: StateGreeting, cfg: cfg}
}

func (m *Machine) State() State   { return m.state }
func (m *Machine) Config() Config { return m.cfg }

// Terminal reports whether the machine reached End.
func (m *Machine) Terminal() bool { return m.state == StateEnd }

// Next applies ev and returns the resulting state.
func (m *Machine) Next(ev Event) State {
	switch m.state {
	case StateGreeting:
		switch ev.Type {
		case EventUserSpeaks:
			m.state = StateQualify
		case EventTimeout:
			m.state = StateEnd
		}

	case StateQualify:
		switch {
		case ev.Type == EventUserSpeaks && ev.Intent == IntentQuote:
			m.state = StateQuote
		case ev.Type == EventUserSpeaks && ev.Intent == IntentBook:
			m.state = StateBook
		case ev.Type == EventHandoff:
			m.state = StateEscalate
		}

	case StateQuote:
		switch {
		case ev.Type == EventUserSpeaks && ev.Intent == IntentBook:
			m.state = StateBook
		case ev.Type == EventTimeout:
			m.state = StateEnd
		}

	case StateBook:
		switch ev.Type {
		case EventBookOK:
			m.state = StatePayment
		case EventBookFail:
			m.state = StateEscalate
		}

	case StatePayment:
		switch ev.Type {
		case EventPaymentOK:
			m.state = StateConfirm
		case EventPaymentFail:
			m.state = StateEscalate
		}

	case StateConfirm:
		if ev.Type == EventGoodbye {
			m.state = StateEnd
		}

	case StateEscalate:
		if ev.Type == EventHandoff {
			m.state = StateEnd
		}

	case StateEnd:
		// terminal
	}
	return m.state
}
