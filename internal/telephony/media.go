package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"voice-booking-platform/internal/agent"
	"voice-booking-platform/internal/booking"
	"voice-booking-platform/internal/consent"
	"voice-booking-platform/internal/pricing"
	"voice-booking-platform/pkg/logger"
	"voice-booking-platform/pkg/utils"
)

// SessionFactory builds the per-call agent session bound to this socket's
// say/listen functions.
type SessionFactory func(callSID string, say consent.SayFunc, listen consent.ListenFunc) *agent.Session

// MediaServer terminates the provider's media WebSocket. Each connection
// gets one agent session; the socket's JSON frames become session events.
//
// A Redis counter caps concurrent live sessions per line so a burst of
// calls cannot exhaust the speech backend.
type MediaServer struct {
	rdb        *redis.Client
	maxCalls   int
	maxSilence time.Duration
	factory    SessionFactory
	log        *slog.Logger
	upgrader   websocket.Upgrader
}

func NewMediaServer(rdb *redis.Client, maxCalls int, maxSilence time.Duration, factory SessionFactory, log *slog.Logger) *MediaServer {
	if log == nil {
		log = slog.Default()
	}
	if maxSilence <= 0 {
		maxSilence = 6 * time.Second
	}
	return &MediaServer{
		rdb:        rdb,
		maxCalls:   maxCalls,
		maxSilence: maxSilence,
		factory:    factory,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 << 10,
			WriteBufferSize: 4 << 10,
			// The provider connects server-to-server; there is no browser
			// origin to check.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

const liveCallsKey = "live_calls"

// mediaMessage is the socket wire format from the audio bridge.
type mediaMessage struct {
	Event string `json:"event"`

	Start *struct {
		CallSID string `json:"callSid"`
	} `json:"start,omitempty"`

	Turn *struct {
		Role       string          `json:"role"`
		Transcript string          `json:"transcript"`
		LatencyMS  int             `json:"latency_ms"`
		ToolCalls  json.RawMessage `json:"tool_calls,omitempty"`
		Error      bool            `json:"error"`
	} `json:"turn,omitempty"`

	Tool *struct {
		Name string          `json:"name"`
		Args json.RawMessage `json:"args"`
	} `json:"tool,omitempty"`
}

type sayFrame struct {
	Event string `json:"event"`
	Text  string `json:"text"`
}

func (s *MediaServer) Handle(c *gin.Context) {
	log := logger.FromGin(c)

	callSID := c.Query("CallSid")
	if callSID == "" {
		callSID = fmt.Sprintf("call_%d", time.Now().UnixNano())
	}
	log = log.With("call_sid", callSID)

	if s.rdb != nil && s.maxCalls > 0 {
		ok, err := utils.AcquireConcurrencyCap(c.Request.Context(), s.rdb, liveCallsKey, s.maxCalls, time.Hour)
		if err != nil {
			log.Error("live-call cap check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "capacity check failed"})
			return
		}
		if !ok {
			log.Warn("live-call cap reached", "limit", s.maxCalls)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "at capacity"})
			return
		}
		defer func() {
			if err := utils.ReleaseConcurrencyCap(context.WithoutCancel(c.Request.Context()), s.rdb, liveCallsKey); err != nil {
				log.Warn("live-call cap release failed", "error", err)
			}
		}()
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	say := func(ctx context.Context, text string) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(sayFrame{Event: "say", Text: text})
	}

	transcripts := make(chan string, 4)
	listen := func(ctx context.Context) (string, error) {
		select {
		case t := <-transcripts:
			return t, nil
		case <-time.After(s.maxSilence):
			return "", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	sess := s.factory(callSID, say, listen)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	go s.readLoop(conn, sess, transcripts, log)

	if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("session ended with error", "error", err)
	}
}

// readLoop translates socket frames into session events until the peer
// disconnects. The session channel send is non-blocking once the session is
// gone; a full buffer on a dead session must not wedge the reader.
func (s *MediaServer) readLoop(conn *websocket.Conn, sess *agent.Session, transcripts chan<- string, log *slog.Logger) {
	events := sess.Events()
	deliver := func(ev agent.Event) {
		select {
		case events <- ev:
		case <-time.After(time.Second):
			log.Warn("session event dropped", "type", ev.Type)
		}
	}

	for {
		var msg mediaMessage
		if err := conn.ReadJSON(&msg); err != nil {
			deliver(agent.Event{Type: agent.EventHangup})
			return
		}

		switch msg.Event {
		case "start", "media", "mark":
			// Audio frames and stream bookkeeping are the bridge's problem.

		case "turn":
			if msg.Turn == nil {
				continue
			}
			if msg.Turn.Role == "user" || msg.Turn.Role == "caller" {
				select {
				case transcripts <- msg.Turn.Transcript:
				default:
				}
			}
			deliver(agent.Event{Type: agent.EventTurnCompleted, Turn: &agent.TurnInfo{
				Role:       msg.Turn.Role,
				Transcript: msg.Turn.Transcript,
				Latency:    time.Duration(msg.Turn.LatencyMS) * time.Millisecond,
				ToolCalls:  string(msg.Turn.ToolCalls),
				ToolErr:    msg.Turn.Error,
			}})

		case "tool":
			if msg.Tool == nil {
				continue
			}
			ev, err := toolEvent(msg.Tool.Name, msg.Tool.Args)
			if err != nil {
				log.Warn("tool frame rejected", "tool", msg.Tool.Name, "error", err)
				continue
			}
			deliver(ev)

		case "silence":
			deliver(agent.Event{Type: agent.EventSilence})

		case "error":
			deliver(agent.Event{Type: agent.EventError, Err: fmt.Errorf("bridge error frame")})

		case "stop":
			deliver(agent.Event{Type: agent.EventHangup})
			return
		}
	}
}

func toolEvent(name string, args json.RawMessage) (agent.Event, error) {
	switch name {
	case "get_pricing_quote":
		var a struct {
			ServiceType string `json:"service_type"`
			Description string `json:"description"`
			AfterHours  bool   `json:"is_after_hours"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return agent.Event{}, err
		}
		return agent.Event{Type: agent.EventToolQuote, Quote: &agent.QuoteCall{
			ServiceType: pricingServiceType(a.ServiceType),
			Description: a.Description,
			AfterHours:  a.AfterHours,
		}}, nil

	case "check_availability":
		var a struct {
			ServiceType   string `json:"service_type"`
			Emergency     bool   `json:"is_emergency"`
			PreferredDate string `json:"preferred_date"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return agent.Event{}, err
		}
		call := &agent.AvailabilityCall{ServiceType: a.ServiceType, Emergency: a.Emergency}
		if a.PreferredDate != "" {
			d, err := time.Parse("2006-01-02", a.PreferredDate)
			if err != nil {
				return agent.Event{}, fmt.Errorf("preferred_date: %w", err)
			}
			call.PreferredDate = &d
		}
		return agent.Event{Type: agent.EventToolAvailability, Availability: call}, nil

	case "book_appointment":
		var a struct {
			CustomerName  string  `json:"customer_name"`
			Phone         string  `json:"phone"`
			Email         string  `json:"email"`
			Address       string  `json:"address"`
			ServiceType   string  `json:"service_type"`
			Description   string  `json:"description"`
			ScheduledTime string  `json:"scheduled_time"`
			EstimatedCost float64 `json:"estimated_cost"`
			Emergency     bool    `json:"is_emergency"`
			ResourceID    string  `json:"resource_id"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return agent.Event{}, err
		}
		at, err := time.Parse(time.RFC3339, a.ScheduledTime)
		if err != nil {
			return agent.Event{}, fmt.Errorf("scheduled_time: %w", err)
		}
		return agent.Event{Type: agent.EventToolBook, Book: &agent.BookCall{
			Request: booking.Request{
				CustomerName:  a.CustomerName,
				Phone:         a.Phone,
				Email:         a.Email,
				Address:       a.Address,
				ServiceType:   a.ServiceType,
				Description:   a.Description,
				ScheduledAt:   at,
				EstimatedCost: int64(a.EstimatedCost),
				Emergency:     a.Emergency,
			},
			ResourceID: a.ResourceID,
		}}, nil

	case "escalate_to_human":
		var a struct {
			Reason       string          `json:"reason"`
			CustomerInfo json.RawMessage `json:"customer_info"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return agent.Event{}, err
		}
		return agent.Event{Type: agent.EventToolEscalate, Escalate: &agent.EscalateCall{
			Reason:       a.Reason,
			CustomerInfo: string(a.CustomerInfo),
		}}, nil
	}
	return agent.Event{}, fmt.Errorf("unknown tool %q", name)
}

func pricingServiceType(s string) pricing.ServiceType {
	switch s {
	case "repair":
		return pricing.ServiceRepair
	case "maintenance":
		return pricing.ServiceMaintenance
	default:
		return pricing.ServiceDiagnostic
	}
}
