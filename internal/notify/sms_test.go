package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticConsent map[string]bool

func (c staticConsent) MarketingAllowed(_ context.Context, callSID string) (bool, error) {
	return c[callSID], nil
}

func TestConsentGuard_TransactionalPassesThrough(t *testing.T) {
	inner := NewMemorySender()
	g := WithConsentGuard(inner, staticConsent{})

	err := g.SendSMS(context.Background(), Message{
		To: "+15550001111", Body: "Your appointment is confirmed.", Kind: KindTransactional,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.Sent()) != 1 {
		t.Fatalf("expected delivery, got %d", len(inner.Sent()))
	}
}

func TestConsentGuard_MarketingWithoutConsentBlocked(t *testing.T) {
	inner := NewMemorySender()
	g := WithConsentGuard(inner, staticConsent{"CA1": false})

	err := g.SendSMS(context.Background(), Message{
		To: "+15550001111", Body: "Spring tune-up special!", Kind: KindMarketing, CallSID: "CA1",
	})
	if !errors.Is(err, ErrConsentRequired) {
		t.Fatalf("expected ErrConsentRequired, got %v", err)
	}
	if len(inner.Sent()) != 0 {
		t.Fatalf("blocked message must not be delivered")
	}
}

func TestConsentGuard_MarketingWithoutCallSIDBlocked(t *testing.T) {
	g := WithConsentGuard(NewMemorySender(), staticConsent{})
	err := g.SendSMS(context.Background(), Message{
		To: "+15550001111", Body: "Offer", Kind: KindMarketing,
	})
	if !errors.Is(err, ErrConsentRequired) {
		t.Fatalf("expected ErrConsentRequired, got %v", err)
	}
}

func TestConsentGuard_MarketingWithConsentDelivered(t *testing.T) {
	inner := NewMemorySender()
	g := WithConsentGuard(inner, staticConsent{"CA2": true})

	err := g.SendSMS(context.Background(), Message{
		To: "+15550001111", Body: "Offer", Kind: KindMarketing, CallSID: "CA2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.Sent()) != 1 {
		t.Fatalf("expected delivery")
	}
}

func TestSendSMS_Validation(t *testing.T) {
	s := NewMemorySender()
	tests := []Message{
		{Body: "hi", Kind: KindTransactional},
		{To: "+15550001111", Kind: KindTransactional},
		{To: "+15550001111", Body: "hi"},
	}
	for _, m := range tests {
		if err := s.SendSMS(context.Background(), m); !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("SendSMS(%+v): expected ErrInvalidMessage, got %v", m, err)
		}
	}
}

func TestTwilioSender_PostsForm(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotBody string
	var gotAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		gotBody = r.PostFormValue("Body")
		user, pass, ok := r.BasicAuth()
		gotAuth = ok && user == "AC123" && pass == "token"
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewTwilioSender("AC123", "token", "+15559990000")
	s.baseURL = srv.URL

	err := s.SendSMS(context.Background(), Message{
		To: "+15550001111", Body: "hello", Kind: KindTransactional,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotTo != "+15550001111" || gotFrom != "+15559990000" || gotBody != "hello" {
		t.Fatalf("form = to %q from %q body %q", gotTo, gotFrom, gotBody)
	}
	if !gotAuth {
		t.Fatalf("expected basic auth with account credentials")
	}
}

func TestTwilioSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"code": 21211}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewTwilioSender("AC123", "token", "+15559990000")
	s.baseURL = srv.URL

	err := s.SendSMS(context.Background(), Message{
		To: "+15550001111", Body: "hello", Kind: KindTransactional,
	})
	if err == nil {
		t.Fatalf("expected error on 400 response")
	}
}
