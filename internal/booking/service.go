package booking

import (
	"context"
	"fmt"
	"math"
	"time"
)

// DefaultEstimate is assumed when the caller never got a quote.
const DefaultEstimate int64 = 200

// CheckoutProvider supplies a hosted payment link for the deposit. The
// production implementation talks to Stripe Checkout.
type CheckoutProvider interface {
	CreateDepositCheckout(ctx context.Context, jobID, customerID string, amountDollars int64) (string, error)
}

// Service books appointments.
//
// Book runs as one database transaction: customer upsert, job insert, and
// the checkout-link call all succeed together or not at all. Obtaining the
// link inside the transaction means a payment-provider outage rolls the job
// back instead of stranding an unpayable appointment.
type Service struct {
	repo     Repository
	checkout CheckoutProvider
	clock    func() time.Time
}

func NewService(repo Repository, checkout CheckoutProvider) *Service {
	return &Service{repo: repo, checkout: checkout, clock: time.Now}
}

// Deposit is max($50, 25% of the estimate), rounded to whole dollars.
// A missing estimate falls back to DefaultEstimate.
func Deposit(estimate int64) int64 {
	if estimate <= 0 {
		estimate = DefaultEstimate
	}
	d := int64(math.Round(float64(estimate) * 0.25))
	if d < 50 {
		d = 50
	}
	return d
}

// IsAfterHours reports whether t falls outside the 08:00-18:00 service day.
func IsAfterHours(t time.Time) bool {
	h := t.Hour()
	return h < 8 || h > 18
}

// LeadTimeHours is the whole hours between now and the window start,
// floored at zero.
func LeadTimeHours(now, start time.Time) int {
	h := int(math.Round(start.Sub(now).Hours()))
	if h < 0 {
		return 0
	}
	return h
}

func (s *Service) Book(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}

	now := s.clock().UTC()
	start := req.ScheduledAt.UTC()
	end := start.Add(2 * time.Hour)

	urgency, priority, category := "routine", "normal", "repair"
	if req.Emergency {
		urgency, priority, category = "emergency", "emergency", "emergency"
	}

	job := Job{
		ServiceType:    req.ServiceType,
		Category:       category,
		Description:    req.Description,
		Urgency:        urgency,
		WindowStart:    start,
		WindowEnd:      end,
		Status:         JobStatusScheduled,
		Priority:       priority,
		Source:         "voice_agent",
		BookingChannel: "voice",
		EstimatedCost:  req.EstimatedCost,
		LeadTimeHours:  LeadTimeHours(now, start),
		IsAfterHours:   IsAfterHours(start),
	}

	deposit := Deposit(req.EstimatedCost)

	var res Result
	err := s.repo.Transact(ctx, func(tx Tx) error {
		customerID, err := tx.UpsertCustomer(ctx, req.CustomerName, req.Phone, req.Email, req.Address)
		if err != nil {
			return err
		}
		job.CustomerID = customerID

		job, err = tx.InsertJob(ctx, job)
		if err != nil {
			return err
		}

		url, err := s.checkout.CreateDepositCheckout(ctx, job.ID, customerID, deposit)
		if err != nil {
			return fmt.Errorf("create deposit checkout: %w", err)
		}

		res = Result{
			JobID:         job.ID,
			JobNumber:     job.JobNumber,
			CustomerID:    customerID,
			DepositAmount: deposit,
			CheckoutURL:   url,
			WindowStart:   start,
			WindowEnd:     end,
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}
