package escalation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for escalation events.
//
// It MUST be append-only. No Update/Delete methods are provided.
type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, limit int) ([]Event, error)
}

var ErrInvalidEvent = errors.New("escalation: invalid event")

// Service records operator handoffs.
type Service struct {
	repo  Repository
	log   *slog.Logger
	clock func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log, clock: time.Now}
}

// Record persists the escalation best-effort: failures are logged and
// swallowed so the transfer always proceeds.
func (s *Service) Record(ctx context.Context, e Event) {
	if err := s.append(ctx, e); err != nil {
		s.log.Error("escalation record failed", "call_sid", e.CallSID, "reason", e.Reason, "error", err)
	}
}

func (s *Service) append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("escalation: repository not configured")
	}
	if e.CallSID == "" || e.Reason == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) List(ctx context.Context, limit int) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("escalation: repository not configured")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, limit)
}
