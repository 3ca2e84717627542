package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"voice-booking-platform/internal/auth"
	"voice-booking-platform/internal/calls"
	"voice-booking-platform/internal/escalation"
	"voice-booking-platform/internal/reporting"
	"voice-booking-platform/internal/scheduling"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth        *auth.Manager
	Calls       calls.SessionStore
	Escalations *escalation.Service
	Reports     *reporting.Service
	Holds       scheduling.Holds
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Calls ---

func (h Handlers) ListCalls(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call store not configured"})
		return
	}
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be 1-1000"})
			return
		}
		limit = n
	}
	sessions, err := h.Calls.ListSessions(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": sessions})
}

// --- Reporting ---

func parseRange(c *gin.Context) (reporting.TimeRange, bool) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
		return reporting.TimeRange{}, false
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
		return reporting.TimeRange{}, false
	}
	return reporting.TimeRange{From: from, To: to}, true
}

func (h Handlers) CallsSummary(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	r, ok := parseRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{Range: r})
	if err == reporting.ErrInvalidRequest {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) BookingFunnel(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	r, ok := parseRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.BookingFunnel(c.Request.Context(), reporting.BookingFunnelRequest{Range: r})
	if err == reporting.ErrInvalidRequest {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "funnel failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- Escalations ---

func (h Handlers) ListEscalations(c *gin.Context) {
	if h.Escalations == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "escalations not configured"})
		return
	}
	events, err := h.Escalations.List(c.Request.Context(), 100)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "escalation listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"escalations": events})
}

// --- Holds ---

type releaseHoldRequest struct {
	ResourceID string    `json:"resource_id"`
	SlotStart  time.Time `json:"slot_start"`
	SlotEnd    time.Time `json:"slot_end"`
}

// ReleaseHold lets a dispatcher free a slot hold that a dropped call left
// behind, ahead of the reaper.
func (h Handlers) ReleaseHold(c *gin.Context) {
	if h.Holds == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "holds not configured"})
		return
	}
	var req releaseHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.ResourceID == "" || req.SlotStart.IsZero() || req.SlotEnd.IsZero() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "resource_id, slot_start, slot_end required"})
		return
	}
	if err := h.Holds.Release(c.Request.Context(), req.ResourceID, req.SlotStart, req.SlotEnd); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "release failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": true})
}
