package reporting

import (
	"context"
	"errors"
	"time"

	"voice-booking-platform/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting. Implementations should
// query immutable sources where possible (call records, the payment ledger).

type Repository interface {
	ListSessions(ctx context.Context, from, to time.Time) ([]calls.Session, error)
	CountJobs(ctx context.Context, from, to time.Time) (booked, depositsPaid int, err error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func validRange(r TimeRange) bool {
	return !r.From.IsZero() && !r.To.IsZero() && r.To.After(r.From)
}

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if !validRange(req.Range) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return CallsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListSessions(ctx, req.Range.From, req.Range.To)
	if err != nil {
		return CallsSummary{}, err
	}

	var out CallsSummary
	for _, c := range rows {
		out.TotalCalls++
		if !c.BusinessHours {
			out.AfterHoursCalls++
		}
		if c.RecordingConsent {
			out.RecordingConsentGranted++
		}
		if c.MarketingConsent {
			out.MarketingConsentGranted++
		}
		if c.EndedAt != nil {
			out.TotalDurationSeconds += int(c.EndedAt.Sub(c.StartedAt) / time.Second)
		}
		switch c.Outcome {
		case calls.OutcomeCompleted:
			out.CompletedCalls++
		case calls.OutcomeEscalated:
			out.EscalatedCalls++
		case calls.OutcomeDeclinedConsent:
			out.ConsentDeclinedCalls++
		case calls.OutcomeFailed:
			out.FailedCalls++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out, nil
}

func (s *Service) BookingFunnel(ctx context.Context, req BookingFunnelRequest) (BookingFunnel, error) {
	if !validRange(req.Range) {
		return BookingFunnel{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return BookingFunnel{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListSessions(ctx, req.Range.From, req.Range.To)
	if err != nil {
		return BookingFunnel{}, err
	}
	booked, paid, err := s.repo.CountJobs(ctx, req.Range.From, req.Range.To)
	if err != nil {
		return BookingFunnel{}, err
	}

	out := BookingFunnel{TotalCalls: len(rows), JobsBooked: booked, DepositsPaid: paid}
	if out.TotalCalls > 0 {
		out.BookingRate = float64(out.JobsBooked) / float64(out.TotalCalls)
	}
	if out.JobsBooked > 0 {
		out.DepositRate = float64(out.DepositsPaid) / float64(out.JobsBooked)
	}
	return out, nil
}
