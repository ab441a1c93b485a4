package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sensorfleet/internal/config"
	"sensorfleet/internal/handlers"
	"sensorfleet/internal/logger"
	"sensorfleet/internal/middleware"
	"sensorfleet/internal/queue"
	"sensorfleet/internal/storage"
	"sensorfleet/internal/worker"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}
	logger.Init(config.LogLevel())
	log := logger.WithComponent("alerts")

	db, err := storage.Connect(config.DatabaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	if err := storage.InitSchema(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("schema init failed")
	}

	broker := queue.NewRedis(queue.RedisOpts{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       config.RedisDB(),
	})
	defer broker.Close()

	alertStore := storage.NewAlertStore(db)

	w := worker.New(worker.Config{
		Broker:         broker,
		Alerts:         alertStore,
		Thresholds:     config.Thresholds(),
		DequeueTimeout: config.DequeueTimeout(),
		RetryAttempts:  config.RetryAttempts(),
		RetryBackoff:   config.RetryBackoff(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("worker exited")
		}
	}()

	alertsAPI := handlers.NewAlertsHandler(alertStore)

	mux := http.NewServeMux()
	mux.Handle("/alerts", middleware.Chain(http.HandlerFunc(alertsAPI.List), middleware.Recovery, middleware.Logging))
	mux.Handle("/alerts/stats", middleware.Chain(http.HandlerFunc(alertsAPI.Stats), middleware.Recovery, middleware.Logging))
	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         config.AlertsAddr(),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("alerts listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exit")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	// Stop the worker; an in-flight message finishes before the loop exits.
	cancel()
	select {
	case <-workerDone:
		log.Info().Msg("worker stopped gracefully")
	case <-time.After(15 * time.Second):
		log.Warn().Msg("worker shutdown timeout - forcing exit")
	}
}
