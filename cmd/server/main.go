package main

import (
	"StickyBus/internal/adapters/metrics/prometheus"
	"StickyBus/internal/adapters/postgres"
	"StickyBus/internal/adapters/security"
	"StickyBus/internal/adapters/telegram"
	"StickyBus/internal/core/ports"
	"StickyBus/internal/shared/config"
	"StickyBus/internal/shared/logger"
	"StickyBus/internal/statestore"
	"StickyBus/internal/sticky"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// daemonStatus is the daemon's own sticky state. Anything registered on the
// bus that subscribes to it learns whether the daemon is running.
type daemonStatus struct {
	Bus   string    `json:"bus"`
	State string    `json:"state"`
	Since time.Time `json:"since"`
}

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	baseLogger := logger.New(cfg.DevMode(), cfg.LogLevel)
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Str("bus", cfg.BusName).
		Str("duplicate_policy", string(cfg.DuplicatePolicy)).
		Bool("persistence", cfg.PersistenceEnabled()).
		Bool("telegram_relay", cfg.RelayEnabled()).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Metrics and buses
	collector := prometheus.NewCollector(promclient.DefaultRegisterer)
	buses := sticky.NewBusRegistry(sticky.Options{
		Duplicates: cfg.DuplicatePolicy,
		Metrics:    collector,
	}, &baseLogger)
	bus := buses.Get(cfg.BusName)

	// 4. Optional persistence
	var repo ports.StateRepository
	if cfg.PersistenceEnabled() {
		db, err := postgres.NewDB(ctx, cfg.DatabaseURL, cfg.DBMaxConns, &baseLogger)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to prepare database schema")
		}

		var secSvc ports.SecurityPort
		if cfg.EncryptionKey != "" {
			secSvc, err = security.NewAESServiceFromHex(cfg.EncryptionKey, &baseLogger)
			if err != nil {
				baseLogger.Fatal().Err(err).Msg("Failed to initialize security service")
			}
		}
		repo = postgres.NewStateRepository(db, secSvc, &baseLogger)
	}

	// 5. Status holder; restores the last status seen before a restart
	status := statestore.NewHolder[daemonStatus]("stickybus.status."+cfg.BusName, repo, &baseLogger)
	if err := status.Load(ctx); err != nil {
		baseLogger.Error().Err(err).Msg("Failed to restore previous status")
	}
	if prev, ok := status.Current(); ok {
		baseLogger.Info().Str("state", prev.State).Time("since", prev.Since).Msg("Previous daemon status")
	}
	bus.Register(ctx, status)

	// 6. Optional Telegram relay
	if cfg.RelayEnabled() {
		api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to connect to Telegram")
		}
		baseLogger.Info().Str("bot", api.Self.UserName).Msg("Telegram bot authorized")

		relay := telegram.NewRelay(telegram.NewClient(api, &baseLogger), cfg.TelegramChatID, cfg.TelegramSilent, &baseLogger)
		telegram.Watch(relay, func(s daemonStatus) string {
			return fmt.Sprintf("%s on bus %s since %s", s.State, s.Bus, s.Since.Format(time.RFC3339))
		})
		bus.Register(ctx, relay)
		defer bus.Unregister(context.Background(), relay)
	}

	if err := bus.Post(ctx, daemonStatus{Bus: cfg.BusName, State: "running", Since: time.Now().UTC()}); err != nil {
		baseLogger.Error().Err(err).Msg("Failed to post status")
	}

	// 7. HTTP surface
	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           newMux(buses),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		baseLogger.Info().Str("addr", cfg.MetricsAddr).Msg("Serving /metrics and /healthz")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	baseLogger.Info().Msg("Shutting down")
	shutdown(srv, bus, status, cfg.BusName, &baseLogger)
}

// shutdown posts the final status while every participant is still
// registered, then stops the HTTP server.
func shutdown(srv *http.Server, bus *sticky.Dispatcher, status *statestore.Holder[daemonStatus], name string, log *zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := bus.Post(ctx, daemonStatus{Bus: name, State: "stopped", Since: time.Now().UTC()}); err != nil {
		log.Error().Err(err).Msg("Failed to post final status")
	}
	bus.Unregister(ctx, status)

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}
