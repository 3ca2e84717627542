package config

import (
	"testing"
	"time"
)

func validLocal() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 5050},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "voicebooking"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Twilio: TwilioConfig{
			AccountSID:        "AC123",
			AuthToken:         "token",
			ValidateSignature: true,
		},
		Stripe: StripeConfig{SecretKey: "sk_test", WebhookSecret: "whsec"},
		Agent: AgentConfig{
			BargeInThreshold:   200 * time.Millisecond,
			MaxSilence:         6 * time.Second,
			HoldTTL:            5 * time.Minute,
			RetentionDays:      180,
			MaxConcurrentCalls: 20,
		},
	}
}

func TestValidate_EmptyConfigFails(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.App.PublicBaseURL == "" {
		t.Fatalf("expected local base URL default")
	}
	if c.Stripe.SuccessURL == "" || c.Stripe.CancelURL == "" {
		t.Fatalf("expected stripe redirect URL defaults")
	}
}

func TestValidate_ProductionRejectsConsentBypass(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.App.PublicBaseURL = "https://voice.example.com"
	c.DB.SSLMode = "require"
	c.Twilio.OperatorNumber = "+15550001111"
	c.Agent.ConsentBypass = true
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for CONSENT_BYPASS in production")
	}
}

func TestValidate_ProductionRequiresSignatureValidation(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.App.PublicBaseURL = "https://voice.example.com"
	c.DB.SSLMode = "require"
	c.Twilio.OperatorNumber = "+15550001111"
	c.Twilio.ValidateSignature = false
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for disabled signature validation in production")
	}
}

func TestMediaStreamURL(t *testing.T) {
	c := validLocal()
	c.App.PublicBaseURL = "https://voice.example.com"
	if got := c.MediaStreamURL(); got != "wss://voice.example.com/media" {
		t.Fatalf("unexpected media URL: %q", got)
	}
}
