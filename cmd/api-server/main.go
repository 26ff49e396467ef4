package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/careslot/careslot/internal/api"
	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/availability"
	"github.com/careslot/careslot/internal/booking"
	"github.com/careslot/careslot/internal/calendar"
	"github.com/careslot/careslot/internal/config"
	"github.com/careslot/careslot/internal/dashboard"
	"github.com/careslot/careslot/internal/db"
	"github.com/careslot/careslot/internal/ledger"
	"github.com/careslot/careslot/internal/logging"
	"github.com/careslot/careslot/internal/notify"
	"github.com/careslot/careslot/internal/practitioner"
	redisclient "github.com/careslot/careslot/internal/redis"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("dev", "api-server")
		bootLog.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New(cfg.Env, "api-server")
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

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

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	directory := practitioner.NewPgRepository(pgPool)
	slots := availability.NewPgStore(pgPool)
	appts := ledger.NewPgLedger(pgPool)
	locker := redisclient.NewRedisPractitionerLocker(rdb, cfg.LockTTL)

	notifier := notify.NewNotifier(directory, notify.LogSender{Log: log}, log)

	policy := calendar.Policy{
		OpenHour:   cfg.OpenHour,
		CloseHour:  cfg.CloseHour,
		SlotLength: time.Duration(cfg.SlotMinutes) * time.Minute,
		WindowDays: cfg.WindowDays,
	}

	svc := booking.NewService(directory, slots, appts, appts, locker, notifier, policy, log)
	agg := dashboard.NewAggregator(appts, directory)

	router := api.NewRouter(api.RouterConfig{
		Booking:       svc,
		Ledger:        appts,
		Directory:     directory,
		Notifier:      notifier,
		Dashboard:     agg,
		Authenticator: auth.NewJWTAuthenticator(cfg.JWTSecret),
		AdminVerifier: auth.NewStaticAdminVerifier(cfg.AdminEmail, cfg.AdminPassword),
		PgPool:        pgPool,
		Redis:         rdb,
		Log:           log,
		Env:           cfg.Env,
		Version:       version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
