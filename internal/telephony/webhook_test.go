package telephony

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func webhookFixture(inbox SMSStore) (*WebhookHandlers, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandlers("wss://hvac.example.com/media", "+15555550100", inbox)
	h.clock = func() time.Time { return time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC) }

	r := gin.New()
	r.POST("/webhooks/twilio/voice", h.Voice)
	r.POST("/webhooks/twilio/sms", h.SMS)
	r.POST("/voice/escalation-twiml", h.Escalation)
	return h, r
}

func postWebhookForm(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVoiceWebhook(t *testing.T) {
	_, r := webhookFixture(nil)

	form := url.Values{
		"CallSid": {"CA100"},
		"From":    {"+15555550142"},
		"To":      {"+15555550100"},
	}
	w := postWebhookForm(r, "/webhooks/twilio/voice", form)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/xml") {
		t.Errorf("content type = %q, want text/xml", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, RecordingDisclosure) {
		t.Errorf("missing disclosure in %q", body)
	}
	if !strings.Contains(body, "CallSid=CA100") {
		t.Errorf("stream URL missing call sid in %q", body)
	}
	// 14:00 UTC is inside business hours.
	if !strings.Contains(body, "after_hours=false") {
		t.Errorf("stream URL missing hours flag in %q", body)
	}
}

func TestVoiceWebhook_MissingCallSID(t *testing.T) {
	_, r := webhookFixture(nil)
	w := postWebhookForm(r, "/webhooks/twilio/voice", url.Values{"From": {"+15555550142"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestEscalationWebhook(t *testing.T) {
	_, r := webhookFixture(nil)
	w := postWebhookForm(r, "/voice/escalation-twiml", url.Values{})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<Number>+15555550100</Number>") {
		t.Errorf("missing operator number in %q", w.Body.String())
	}
}

func TestSMSWebhook_StoresAndAcks(t *testing.T) {
	inbox := NewMemorySMSStore()
	_, r := webhookFixture(inbox)

	form := url.Values{
		"MessageSid": {"SM200"},
		"From":       {"+15555550142"},
		"To":         {"+15555550100"},
		"Body":       {"Can someone look at my furnace?"},
	}
	w := postWebhookForm(r, "/webhooks/twilio/sms", form)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), smsAckBody) {
		t.Errorf("missing ack body in %q", w.Body.String())
	}

	msgs := inbox.Messages()
	if len(msgs) != 1 {
		t.Fatalf("stored %d messages, want 1", len(msgs))
	}
	if msgs[0].MessageSID != "SM200" || msgs[0].Body != "Can someone look at my furnace?" {
		t.Errorf("stored message = %+v", msgs[0])
	}
}

func TestSMSWebhook_Idempotent(t *testing.T) {
	inbox := NewMemorySMSStore()
	_, r := webhookFixture(inbox)

	form := url.Values{"MessageSid": {"SM201"}, "From": {"+15555550142"}, "Body": {"hi"}}
	for i := 0; i < 3; i++ {
		if w := postWebhookForm(r, "/webhooks/twilio/sms", form); w.Code != http.StatusOK {
			t.Fatalf("retry %d status = %d", i, w.Code)
		}
	}
	if got := len(inbox.Messages()); got != 1 {
		t.Errorf("stored %d messages after retries, want 1", got)
	}
}

func TestSMSWebhook_MissingFields(t *testing.T) {
	_, r := webhookFixture(NewMemorySMSStore())
	w := postWebhookForm(r, "/webhooks/twilio/sms", url.Values{"Body": {"hi"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
