package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/config"
	"github.com/careslot/careslot/internal/db"
	"github.com/careslot/careslot/internal/logging"
	"github.com/careslot/careslot/internal/reconcile"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("dev", "reconciler")
		bootLog.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New(cfg.Env, "reconciler")
	log.Info().Str("env", cfg.Env).Str("schedule", cfg.ReconcileSchedule).Msg("reconciler starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rec := reconcile.NewReconciler(pgPool, log)

	// Run once at startup so a crash recovery does not wait a full tick.
	runOnce(rootCtx, rec, log)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReconcileSchedule, func() {
		runOnce(rootCtx, rec, log)
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.ReconcileSchedule).Msg("invalid reconcile schedule")
	}
	scheduler.Start()

	<-rootCtx.Done()
	log.Info().Msg("shutdown signal received, stopping reconciler")

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(cfg.ShutdownTimeout):
		log.Warn().Msg("reconcile run still in flight at shutdown deadline")
	}
}

func runOnce(ctx context.Context, rec *reconcile.Reconciler, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	report, err := rec.Run(runCtx)
	if err != nil {
		log.Error().Err(err).Msg("reconcile run error")
		return
	}
	log.Info().
		Int64("orphaned_released", report.OrphanedReleased).
		Int64("missing_restored", report.MissingRestored).
		Dur("took", time.Since(start)).
		Msg("reconcile run complete")
}
