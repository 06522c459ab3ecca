package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/booking-api/internal/config"
	"github.com/jwalitptl/booking-api/internal/email"
	"github.com/jwalitptl/booking-api/internal/handler/health"
	promhandler "github.com/jwalitptl/booking-api/internal/handler/prometheus"
	"github.com/jwalitptl/booking-api/pkg/logger"
	redisbroker "github.com/jwalitptl/booking-api/pkg/messaging/redis"
	"github.com/jwalitptl/booking-api/pkg/metrics"
	"github.com/jwalitptl/booking-api/pkg/worker"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:          "booking-worker",
		Short:        "Send booking confirmation emails",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config.yml")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	level := logger.ParseLevel(cfg.Log.Level)
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "worker").Logger()
	appLog := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Log.Pretty,
	}).WithFields(map[string]interface{}{"component": "worker"})

	if !cfg.Redis.Enabled {
		return errors.New("worker requires redis.enabled")
	}

	client, err := redisbroker.NewClient(ctx, redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	broker := redisbroker.NewRedisBroker(client, &log.Logger)
	defer broker.Close()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(cfg.Metrics.Namespace, "worker", registry)

	mailer := worker.NewConfirmationMailer(broker, email.NewService(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}), worker.ConfirmationMailerConfig{
		RetryAttempts: cfg.Worker.MaxRetries,
		RetryDelay:    cfg.Worker.RetryBackoff,
	}, appLog, m)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Worker.Port),
		Handler: statusEngine(registry, health.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}}),
	}
	go func() {
		log.Info().Int("port", cfg.Worker.Port).Msg("starting worker status server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("status server failed")
		}
	}()

	err = mailer.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("status server forced to shutdown")
	}
	log.Info().Msg("worker exited")
	return err
}

// statusEngine serves liveness, readiness and metrics for the worker.
func statusEngine(registry *prometheus.Registry, checks ...health.Check) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	metricsHandler := promhandler.New(registry)
	engine.GET("/metrics", metricsHandler.Handler())
	health.NewHandler(checks...).RegisterRoutes(&engine.RouterGroup)
	return engine
}
