package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/cuidapet/clinic-api/internal/config"
	"github.com/cuidapet/clinic-api/internal/email"
	"github.com/cuidapet/clinic-api/internal/worker"
	"github.com/cuidapet/clinic-api/pkg/logger"
	"github.com/cuidapet/clinic-api/pkg/messaging/redis"
	"github.com/cuidapet/clinic-api/pkg/metrics"
)

// healthPort serves liveness and metrics next to the API's port.
const healthPort = 8081

func setupHealthCheck(registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/health/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: fmt.Sprintf(":%d", healthPort), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	base := logger.NewLogger(&logger.Config{
		Level: logger.ParseLevel(cfg.Log.Level),
		JSON:  cfg.Log.JSON,
	})
	base.SetGlobal()
	lg := base.WithFields(map[string]interface{}{"process": "worker"})

	if cfg.Redis.URL == "" {
		lg.Fatal(errors.New("redis.url is empty"), "the worker needs Redis to receive events")
	}
	client, err := redis.NewClient(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		lg.Fatal(err, "failed to configure Redis")
	}
	broker, err := redis.NewRedisBroker(client, *lg.Zerolog())
	if err != nil {
		lg.Fatal(err, "failed to create Redis broker")
	}
	// Closes the shared client as well.
	defer broker.Close()

	var mailer email.Service
	if cfg.SMTP.Host != "" {
		mailer = email.NewSMTPService(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		lg.Warn("smtp.host not set; notifications are only logged")
		mailer = email.NewLogService(*lg.Zerolog())
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(cfg.Server.MetricsPrefix+"_worker", registry)
	health := setupHealthCheck(registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		lg.Info("shutting down...")
		cancel()
	}()

	notifier := worker.NewAppointmentNotifier(broker, mailer, m, *lg.Zerolog(), cfg.Clinic.Name)
	if err := notifier.Start(ctx); err != nil {
		lg.Error(err, "notifier stopped")
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer done()
	_ = health.Shutdown(shutdownCtx)
}
