package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/client"
)

var ErrInvalidCheckout = errors.New("payments: invalid checkout request")

// CheckoutConfig carries the redirect URLs for hosted checkout.
type CheckoutConfig struct {
	SuccessURL string
	CancelURL  string
}

// StripeCheckout creates hosted Checkout Sessions for job deposits. It
// implements booking.CheckoutProvider.
type StripeCheckout struct {
	api *client.API
	cfg CheckoutConfig
}

func NewStripeCheckout(secretKey string, cfg CheckoutConfig) *StripeCheckout {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeCheckout{api: api, cfg: cfg}
}

// CreateDepositCheckout returns a payment link for the deposit. Amount is
// whole dollars; Stripe wants cents.
func (s *StripeCheckout) CreateDepositCheckout(ctx context.Context, jobID, customerID string, amountDollars int64) (string, error) {
	if jobID == "" || customerID == "" || amountDollars <= 0 {
		return "", ErrInvalidCheckout
	}

	shortJob := jobID
	if len(shortJob) > 8 {
		shortJob = shortJob[:8]
	}

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(amountDollars * 100),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String("Service Deposit"),
					Description: stripe.String(fmt.Sprintf("Deposit for Job %s", shortJob)),
				},
			},
		}},
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
	}
	params.AddMetadata("job_id", jobID)
	params.AddMetadata("customer_id", customerID)
	params.AddMetadata("type", "deposit")

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}
