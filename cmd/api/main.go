package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-booking-platform/internal/agent"
	"voice-booking-platform/internal/auth"
	"voice-booking-platform/internal/booking"
	"voice-booking-platform/internal/callflow"
	"voice-booking-platform/internal/calls"
	"voice-booking-platform/internal/config"
	"voice-booking-platform/internal/consent"
	"voice-booking-platform/internal/escalation"
	"voice-booking-platform/internal/notify"
	"voice-booking-platform/internal/payments"
	"voice-booking-platform/internal/pricing"
	"voice-booking-platform/internal/reporting"
	"voice-booking-platform/internal/scheduling"
	"voice-booking-platform/internal/telephony"
	"voice-booking-platform/migrations"
	"voice-booking-platform/pkg/logger"
	"voice-booking-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.App.Migrate {
		if err := utils.RunMigrations(rootCtx, db, migrations.FS, "."); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Domain services.
	callStore := calls.NewPostgresStore(db)
	consentRec := consent.NewPostgresRecorder(db)
	gate := consent.NewGate(consentRec, consent.Classify, nil, cfg.Agent.ConsentBypass)

	pricingEngine := pricing.NewEngine()
	availability := scheduling.NewAvailability(db)
	holds := scheduling.NewHoldManager(db, cfg.Agent.HoldTTL)

	checkout := payments.NewStripeCheckout(cfg.Stripe.SecretKey, payments.CheckoutConfig{
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
	})
	booker := booking.NewService(booking.NewPostgresRepository(db), checkout)

	sms := notify.WithConsentGuard(
		notify.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber),
		consentRec,
	)
	escalations := escalation.NewService(escalation.NewPostgresRepo(db), log)

	dispatcher := agent.NewDispatcher(pricingEngine, availability, holds, booker, sms, escalations, log)
	registry := agent.NewRegistry()

	sessionCfg := agent.Config{
		FSM: callflow.Config{
			BargeInThreshold: cfg.Agent.BargeInThreshold,
			MaxSilence:       cfg.Agent.MaxSilence,
		},
		RetentionDays: cfg.Agent.RetentionDays,
	}
	sessionFactory := func(callSID string, say consent.SayFunc, listen consent.ListenFunc) *agent.Session {
		return agent.NewSession(callSID, sessionCfg, callStore, gate, dispatcher, registry, say, listen, log)
	}

	media := telephony.NewMediaServer(rdb, cfg.Agent.MaxConcurrentCalls, cfg.Agent.MaxSilence, sessionFactory, log)
	twilioHooks := telephony.NewWebhookHandlers(cfg.MediaStreamURL(), cfg.Twilio.OperatorNumber, telephony.NewPostgresSMSStore(db))

	stripeHook := payments.NewWebhookHandler(
		cfg.Stripe.WebhookSecret,
		payments.NewPostgresLedger(db),
		booking.NewDepositMarker(db),
		registry,
	)

	reports := reporting.NewService(reporting.NewPostgresRepo(db))

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		cfg:         cfg,
		auth:        authManager,
		media:       media,
		twilioHooks: twilioHooks,
		stripeHook:  stripeHook,
		callStore:   callStore,
		escalations: escalations,
		reports:     reports,
		holds:       holds,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
