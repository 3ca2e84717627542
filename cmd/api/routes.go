package main

import (
	"voice-booking-platform/internal/auth"
	"voice-booking-platform/internal/calls"
	"voice-booking-platform/internal/config"
	"voice-booking-platform/internal/escalation"
	"voice-booking-platform/internal/httpapi"
	"voice-booking-platform/internal/payments"
	"voice-booking-platform/internal/rbac"
	"voice-booking-platform/internal/reporting"
	"voice-booking-platform/internal/scheduling"
	"voice-booking-platform/internal/telephony"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	cfg         config.Config
	auth        *auth.Manager
	media       *telephony.MediaServer
	twilioHooks *telephony.WebhookHandlers
	stripeHook  *payments.WebhookHandler
	callStore   calls.SessionStore
	escalations *escalation.Service
	reports     *reporting.Service
	holds       scheduling.Holds
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public endpoints, gated by signature validation).
	twilioSig := telephony.RequireSignature(
		d.cfg.Twilio.AuthToken,
		d.cfg.App.PublicBaseURL,
		d.cfg.Twilio.ValidateSignature,
	)
	r.POST("/webhooks/twilio/voice", twilioSig, d.twilioHooks.Voice)
	r.POST("/webhooks/twilio/sms", twilioSig, d.twilioHooks.SMS)
	r.POST("/voice/escalation-twiml", twilioSig, d.twilioHooks.Escalation)

	r.POST("/webhooks/stripe", d.stripeHook.Handle)

	// Media WebSocket; Twilio's <Stream> cannot send custom auth headers, so
	// the unguessable public URL plus the call cap is the boundary here.
	r.GET("/media", d.media.Handle)

	h := httpapi.Handlers{
		Auth:        d.auth,
		Calls:       d.callStore,
		Escalations: d.escalations,
		Reports:     d.reports,
		Holds:       d.holds,
	}

	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(d.auth))
	{
		v1.GET("/calls",
			rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleDispatcher, rbac.RoleAnalyst), h.ListCalls)
		v1.GET("/reports/calls-summary",
			rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAnalyst), h.CallsSummary)
		v1.GET("/reports/booking-funnel",
			rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAnalyst), h.BookingFunnel)
		v1.GET("/escalations",
			rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleDispatcher), h.ListEscalations)
		v1.POST("/holds/release",
			rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleDispatcher), h.ReleaseHold)
	}
}
