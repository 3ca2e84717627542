package payments

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"voice-booking-platform/pkg/logger"
)

const maxWebhookBody = 64 << 10

// JobMarker flips the deposit flag on a booked job.
type JobMarker interface {
	MarkDepositPaid(ctx context.Context, jobID string) error
}

// Notifier delivers the payment outcome to a live call session, if one is
// still on the line. Delivery is best-effort; the ledger row is the record.
type Notifier interface {
	NotifyPayment(jobID string, ok bool)
}

// WebhookHandler verifies and applies Stripe webhook events.
//
// Processing order: verify signature, append to the ledger, then side
// effects. A replayed event ID short-circuits after the ledger check, so
// redelivery never double-applies.
type WebhookHandler struct {
	secret string
	ledger Ledger
	jobs   JobMarker
	notify Notifier

	verify func(payload []byte, header, secret string) (stripe.Event, error)
}

func NewWebhookHandler(secret string, ledger Ledger, jobs JobMarker, notify Notifier) *WebhookHandler {
	return &WebhookHandler{
		secret: secret,
		ledger: ledger,
		jobs:   jobs,
		notify: notify,
		verify: webhook.ConstructEvent,
	}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	log := logger.FromGin(c)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	event, err := h.verify(payload, c.GetHeader("Stripe-Signature"), h.secret)
	if err != nil {
		log.Warn("stripe signature rejected", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var status EntryStatus
	switch string(event.Type) {
	case "checkout.session.completed":
		status = StatusSucceeded
	case "checkout.session.expired":
		status = StatusExpired
	case "checkout.session.async_payment_failed":
		status = StatusFailed
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		log.Error("stripe event payload unreadable", "event_id", event.ID, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad payload"})
		return
	}

	entry := LedgerEntry{
		Provider:        "stripe",
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		JobID:           sess.Metadata["job_id"],
		CustomerID:      sess.Metadata["customer_id"],
		AmountMinor:     sess.AmountTotal,
		Currency:        string(sess.Currency),
		Status:          status,
	}

	inserted, err := h.ledger.Record(c.Request.Context(), entry)
	if err != nil {
		log.Error("payment ledger append failed", "event_id", event.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger failure"})
		return
	}
	if !inserted {
		// Redelivery. Already applied.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if entry.JobID != "" {
		h.apply(c.Request.Context(), log, entry)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) apply(ctx context.Context, log *slog.Logger, e LedgerEntry) {
	ok := e.Status == StatusSucceeded
	if ok && h.jobs != nil {
		if err := h.jobs.MarkDepositPaid(ctx, e.JobID); err != nil {
			log.Error("mark deposit paid failed", "job_id", e.JobID, "error", err)
		}
	}
	if h.notify != nil {
		h.notify.NotifyPayment(e.JobID, ok)
	}
}
