package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v84"
)

type fakeJobs struct {
	mu   sync.Mutex
	paid []string
}

func (f *fakeJobs) MarkDepositPaid(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paid = append(f.paid, jobID)
	return nil
}

type notifyCall struct {
	jobID string
	ok    bool
}

type fakeNotify struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (f *fakeNotify) NotifyPayment(jobID string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{jobID, ok})
}

func checkoutEvent(id, eventType, jobID string) stripe.Event {
	raw, _ := json.Marshal(map[string]any{
		"id":           "cs_test_1",
		"amount_total": 7500,
		"currency":     "usd",
		"metadata":     map[string]string{"job_id": jobID, "customer_id": "cust-1", "type": "deposit"},
	})
	return stripe.Event{
		ID:   id,
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func postWebhook(t *testing.T, h *WebhookHandler) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader("{}"))
	c.Request.Header.Set("Stripe-Signature", "t=1,v1=sig")
	h.Handle(c)
	return w
}

func TestWebhook_CompletedMarksJobAndNotifies(t *testing.T) {
	ledger := NewMemoryLedger()
	jobs := &fakeJobs{}
	notify := &fakeNotify{}
	h := NewWebhookHandler("whsec", ledger, jobs, notify)
	h.verify = func([]byte, string, string) (stripe.Event, error) {
		return checkoutEvent("evt_1", "checkout.session.completed", "job-1"), nil
	}

	w := postWebhook(t, h)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(jobs.paid) != 1 || jobs.paid[0] != "job-1" {
		t.Fatalf("expected job-1 marked paid, got %v", jobs.paid)
	}
	if len(notify.calls) != 1 || !notify.calls[0].ok {
		t.Fatalf("expected success notification, got %v", notify.calls)
	}
	entries := ledger.Entries()
	if len(entries) != 1 || entries[0].Status != StatusSucceeded || entries[0].AmountMinor != 7500 {
		t.Fatalf("unexpected ledger entries: %+v", entries)
	}
}

func TestWebhook_RedeliveryAppliesOnce(t *testing.T) {
	ledger := NewMemoryLedger()
	jobs := &fakeJobs{}
	notify := &fakeNotify{}
	h := NewWebhookHandler("whsec", ledger, jobs, notify)
	h.verify = func([]byte, string, string) (stripe.Event, error) {
		return checkoutEvent("evt_dup", "checkout.session.completed", "job-2"), nil
	}

	for i := 0; i < 3; i++ {
		if w := postWebhook(t, h); w.Code != http.StatusOK {
			t.Fatalf("delivery %d: status %d", i, w.Code)
		}
	}
	if len(ledger.Entries()) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(ledger.Entries()))
	}
	if len(jobs.paid) != 1 {
		t.Fatalf("expected 1 deposit mark, got %d", len(jobs.paid))
	}
	if len(notify.calls) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notify.calls))
	}
}

func TestWebhook_FailureEventNotifiesFailure(t *testing.T) {
	ledger := NewMemoryLedger()
	notify := &fakeNotify{}
	h := NewWebhookHandler("whsec", ledger, &fakeJobs{}, notify)
	h.verify = func([]byte, string, string) (stripe.Event, error) {
		return checkoutEvent("evt_2", "checkout.session.expired", "job-3"), nil
	}

	postWebhook(t, h)
	if len(notify.calls) != 1 || notify.calls[0].ok {
		t.Fatalf("expected failure notification, got %v", notify.calls)
	}
	if entries := ledger.Entries(); len(entries) != 1 || entries[0].Status != StatusExpired {
		t.Fatalf("unexpected ledger entries: %+v", entries)
	}
}

func TestWebhook_BadSignatureRejected(t *testing.T) {
	ledger := NewMemoryLedger()
	h := NewWebhookHandler("whsec", ledger, &fakeJobs{}, &fakeNotify{})
	h.verify = func([]byte, string, string) (stripe.Event, error) {
		return stripe.Event{}, errors.New("signature mismatch")
	}

	w := postWebhook(t, h)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(ledger.Entries()) != 0 {
		t.Fatalf("rejected event must not reach the ledger")
	}
}

func TestWebhook_UnhandledEventTypeIgnored(t *testing.T) {
	ledger := NewMemoryLedger()
	h := NewWebhookHandler("whsec", ledger, &fakeJobs{}, &fakeNotify{})
	h.verify = func([]byte, string, string) (stripe.Event, error) {
		return checkoutEvent("evt_3", "invoice.paid", "job-4"), nil
	}

	w := postWebhook(t, h)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(ledger.Entries()) != 0 {
		t.Fatalf("unhandled event types must not be recorded")
	}
}
