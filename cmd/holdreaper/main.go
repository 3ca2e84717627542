// Command holdreaper sweeps expired slot holds and retention-expired call
// data. Run it on a schedule; every pass is safe to repeat.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-booking-platform/internal/calls"
	"voice-booking-platform/internal/config"
	"voice-booking-platform/internal/scheduling"
	"voice-booking-platform/pkg/logger"
	"voice-booking-platform/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	holds := scheduling.NewHoldManager(db, cfg.Agent.HoldTTL)
	store := calls.NewPostgresStore(db)

	ctx, cancel := context.WithTimeout(rootCtx, 2*time.Minute)
	defer cancel()

	released, err := holds.PurgeExpired(ctx)
	if err != nil {
		log.Error("hold purge failed", "err", err)
		os.Exit(1)
	}

	purged, err := store.PurgeExpiredRetention(ctx)
	if err != nil {
		log.Error("retention purge failed", "err", err)
		os.Exit(1)
	}

	log.Info("reaper pass complete", "holds_released", released, "calls_purged", purged)
}
