package telephony

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"voice-booking-platform/internal/booking"
	"voice-booking-platform/pkg/logger"
)

// VoiceForm captures the subset of voice webhook fields we care about.
// Twilio sends application/x-www-form-urlencoded by default.
//
// Keep it minimal and provider-adapter-only. Conversation logic does not
// live here.
type VoiceForm struct {
	CallSID    string
	AccountSID string
	From       string
	To         string
	Direction  string
	CallStatus string
}

func ParseVoiceForm(r *http.Request) (VoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceForm{}, err
	}
	f := VoiceForm{
		CallSID:    r.PostFormValue("CallSid"),
		AccountSID: r.PostFormValue("AccountSid"),
		From:       strings.TrimSpace(r.PostFormValue("From")),
		To:         strings.TrimSpace(r.PostFormValue("To")),
		Direction:  r.PostFormValue("Direction"),
		CallStatus: r.PostFormValue("CallStatus"),
	}
	if f.CallSID == "" {
		return VoiceForm{}, fmt.Errorf("telephony: CallSid missing")
	}
	return f, nil
}

// SMSForm is the inbound message webhook payload subset.
type SMSForm struct {
	MessageSID string
	From       string
	To         string
	Body       string
}

func ParseSMSForm(r *http.Request) (SMSForm, error) {
	if err := r.ParseForm(); err != nil {
		return SMSForm{}, err
	}
	f := SMSForm{
		MessageSID: r.PostFormValue("MessageSid"),
		From:       strings.TrimSpace(r.PostFormValue("From")),
		To:         strings.TrimSpace(r.PostFormValue("To")),
		Body:       r.PostFormValue("Body"),
	}
	if f.MessageSID == "" || f.From == "" {
		return SMSForm{}, fmt.Errorf("telephony: MessageSid and From required")
	}
	return f, nil
}

const smsAckBody = "Thanks! A scheduler will text you shortly. Reply BOOK to reserve a slot."

// WebhookHandlers answers provider callbacks with TwiML.
type WebhookHandlers struct {
	mediaStreamURL string
	operatorNumber string
	inbox          SMSStore
	clock          func() time.Time
}

func NewWebhookHandlers(mediaStreamURL, operatorNumber string, inbox SMSStore) *WebhookHandlers {
	return &WebhookHandlers{
		mediaStreamURL: mediaStreamURL,
		operatorNumber: operatorNumber,
		inbox:          inbox,
		clock:          time.Now,
	}
}

// Voice answers the inbound-call webhook: recording disclosure, then bridge
// audio to the media WebSocket. Heavy work happens on the WS side; this
// handler stays fast.
func (h *WebhookHandlers) Voice(c *gin.Context) {
	f, err := ParseVoiceForm(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad voice webhook"})
		return
	}

	afterHours := booking.IsAfterHours(h.clock())
	streamURL := fmt.Sprintf("%s?CallSid=%s&after_hours=%t", h.mediaStreamURL, f.CallSID, afterHours)
	twiml, err := VoiceAnswer(streamURL)
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "call_sid", f.CallSID, "error", err)
		c.String(http.StatusInternalServerError, "")
		return
	}
	c.Data(http.StatusOK, "text/xml", []byte(twiml))
}

// Escalation serves the redirect target used when a live call transfers to
// an operator.
func (h *WebhookHandlers) Escalation(c *gin.Context) {
	twiml, err := EscalationAnswer(h.operatorNumber)
	if err != nil {
		logger.FromGin(c).Error("escalation twiml failed", "error", err)
		c.String(http.StatusInternalServerError, "")
		return
	}
	c.Data(http.StatusOK, "text/xml", []byte(twiml))
}

// SMS stores the inbound text and acknowledges. Storage failure still acks:
// losing one text is better than the provider retry storm.
func (h *WebhookHandlers) SMS(c *gin.Context) {
	f, err := ParseSMSForm(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad sms webhook"})
		return
	}

	if h.inbox != nil {
		err := h.inbox.SaveInbound(c.Request.Context(), InboundSMS{
			MessageSID: f.MessageSID,
			From:       f.From,
			To:         f.To,
			Body:       f.Body,
			ReceivedAt: h.clock().UTC(),
		})
		if err != nil {
			logger.FromGin(c).Error("inbound sms store failed", "message_sid", f.MessageSID, "error", err)
		}
	}

	twiml, err := SMSReply(smsAckBody)
	if err != nil {
		c.String(http.StatusInternalServerError, "")
		return
	}
	c.Data(http.StatusOK, "text/xml", []byte(twiml))
}
