package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"cradle/internal/api"
	"cradle/internal/config"
	"cradle/internal/db"
	"cradle/internal/google"
	"cradle/internal/metrics"
	"cradle/internal/notify"
	"cradle/internal/reminder"
	"cradle/internal/stats"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("CRADLE_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	database, err := db.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer database.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	}

	gateway := buildGateway(cfg, &logger)

	engine := reminder.NewEngine(gateway, &engineLogger{logger: &logger}, reminder.NewMetrics("cradle"))
	engine.Start()
	defer engine.Stop()

	if err := warmEngine(context.Background(), database, engine); err != nil {
		logger.Fatal().Err(err).Msg("warm reminder engine error")
	}

	statsSvc := stats.NewService(database, &logger)
	if rdb != nil && cfg.CacheTTL() > 0 {
		statsSvc.UseRedisCache(rdb, cfg.CacheTTL())
	}

	var sheetsSvc *google.SheetsService
	if cfg.Google.CredentialsPath != "" && cfg.Google.SpreadsheetID != "" {
		sheetsSvc, err = google.NewSheetsService(context.Background(), cfg.Google.CredentialsPath, cfg.Google.SpreadsheetID)
		if err != nil {
			logger.Fatal().Err(err).Msg("create sheets service error")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backupSvc := db.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
	go backupSvc.Start(ctx)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, database, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	srv := api.NewHTTPServer(database, engine, statsSvc, sheetsSvc, &logger)
	logger.Info().Msg("tracker started")
	if err := srv.Start(ctx, cfg.Server.Port); err != nil {
		logger.Fatal().Err(err).Msg("API server error")
	}
}

// buildGateway picks the notification transport: Telegram when a token
// is configured, otherwise the webhook, otherwise a logging no-op.
func buildGateway(cfg *config.Config, logger *zerolog.Logger) reminder.Notifier {
	if cfg.Notifications.TelegramToken != "" {
		gw, err := notify.NewTelegramGateway(cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("create telegram gateway error")
		}
		return gw
	}
	if cfg.Notifications.WebhookURL != "" {
		return notify.NewWebhookGateway(cfg.Notifications.WebhookURL, logger)
	}
	logger.Warn().Msg("no notification transport configured; reminders will only be logged")
	return noopGateway{logger: logger}
}

// warmEngine replays persisted state into the in-memory engine so
// reminders survive restarts: every profile snapshot, then each
// profile's most recent feeding and pumping events.
func warmEngine(ctx context.Context, database *db.DB, engine *reminder.Engine) error {
	profiles, err := database.ListProfiles(ctx)
	if err != nil {
		return err
	}
	for i := range profiles {
		engine.ProfileUpdated(&profiles[i])

		events, err := database.FindEvents(ctx, db.EventFilter{
			ProfileID: profiles[i].ID,
			Limit:     50,
		})
		if err != nil {
			return err
		}
		// Oldest first, so the registry settles on the latest per family.
		// Replayed as updates: an update never triggers an activity
		// broadcast, a create would.
		for j := len(events) - 1; j >= 0; j-- {
			engine.EventUpdated(events[j])
		}
	}
	return nil
}

type noopGateway struct {
	logger *zerolog.Logger
}

func (g noopGateway) Notify(sender, message string) {
	g.logger.Info().Str("sender", sender).Str("message", message).Msg("notification (no transport)")
}

// engineLogger adapts zerolog to the engine's logger interface.
type engineLogger struct {
	logger *zerolog.Logger
}

func (l *engineLogger) Info(msg string, fields ...interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

func (l *engineLogger) Error(msg string, fields ...interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}

func (l *engineLogger) Debug(msg string, fields ...interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

func startHealthServer(ctx context.Context, port int, database *db.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := database.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
