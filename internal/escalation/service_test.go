package escalation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecord_AppendsEvent(t *testing.T) {
	repo := NewMemoryRepo()
	s := NewService(repo, quietLogger())

	s.Record(context.Background(), Event{CallSID: "CA1", Reason: "booking_failed"})

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected ID and timestamp filled, got %+v", evs[0])
	}
}

func TestRecord_StorageFailureIsSwallowed(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Err = errors.New("connection refused")
	s := NewService(repo, quietLogger())

	// Must not panic or propagate; the handoff continues regardless.
	s.Record(context.Background(), Event{CallSID: "CA1", Reason: "caller_request"})

	if len(repo.Events()) != 0 {
		t.Fatalf("expected no events recorded")
	}
}

func TestRecord_InvalidEventIgnored(t *testing.T) {
	repo := NewMemoryRepo()
	s := NewService(repo, quietLogger())

	s.Record(context.Background(), Event{Reason: "missing_call"})
	s.Record(context.Background(), Event{CallSID: "CA1"})

	if len(repo.Events()) != 0 {
		t.Fatalf("invalid events must not be stored")
	}
}

func TestList_NewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	s := NewService(repo, quietLogger())

	s.Record(context.Background(), Event{CallSID: "CA1", Reason: "first"})
	s.Record(context.Background(), Event{CallSID: "CA2", Reason: "second"})

	evs, err := s.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(evs) != 2 || evs[0].Reason != "second" {
		t.Fatalf("expected newest first, got %+v", evs)
	}
}
