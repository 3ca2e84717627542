package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Kind separates messages the caller asked for from promotional ones.
type Kind string

const (
	KindTransactional Kind = "transactional"
	KindMarketing     Kind = "marketing"
)

var (
	ErrInvalidMessage = errors.New("notify: invalid message")

	// ErrConsentRequired means a marketing send was attempted without a
	// recorded marketing opt-in for the call.
	ErrConsentRequired = errors.New("notify: marketing consent not granted")
)

// Message is one outbound SMS. CallSID ties marketing sends back to the call
// where consent was (or was not) collected.
type Message struct {
	To      string
	Body    string
	Kind    Kind
	CallSID string
}

func (m Message) validate() error {
	if m.To == "" || m.Body == "" {
		return ErrInvalidMessage
	}
	if m.Kind == "" {
		return ErrInvalidMessage
	}
	return nil
}

// Sender delivers SMS messages.
type Sender interface {
	SendSMS(ctx context.Context, m Message) error
}

// TwilioSender posts to the Twilio Messages REST endpoint. No provider SDK;
// the API surface we need is one form POST.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    "https://api.twilio.com",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *TwilioSender) SendSMS(ctx context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("To", m.To)
	form.Set("From", s.from)
	form.Set("Body", m.Body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("twilio send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// ConsentChecker answers whether the caller opted into marketing during the
// given call.
type ConsentChecker interface {
	MarketingAllowed(ctx context.Context, callSID string) (bool, error)
}

// ConsentGuard wraps a Sender and blocks marketing sends without a recorded
// opt-in. Transactional messages pass through untouched.
type ConsentGuard struct {
	next    Sender
	consent ConsentChecker
}

func WithConsentGuard(next Sender, consent ConsentChecker) *ConsentGuard {
	return &ConsentGuard{next: next, consent: consent}
}

func (g *ConsentGuard) SendSMS(ctx context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	if m.Kind == KindMarketing {
		if m.CallSID == "" {
			return ErrConsentRequired
		}
		ok, err := g.consent.MarketingAllowed(ctx, m.CallSID)
		if err != nil {
			return fmt.Errorf("consent lookup: %w", err)
		}
		if !ok {
			return ErrConsentRequired
		}
	}
	return g.next.SendSMS(ctx, m)
}
