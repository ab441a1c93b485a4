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
	"sensorfleet/internal/storage"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}
	logger.Init(config.LogLevel())
	log := logger.WithComponent("analytics")

	db, err := storage.Connect(config.DatabaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	api := handlers.NewAnalyticsHandler(storage.NewReadingStore(db))

	wrap := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, middleware.Recovery, middleware.Logging)
	}

	mux := http.NewServeMux()
	mux.Handle("/analytics/average", wrap(api.Average))
	mux.Handle("/analytics/maximum", wrap(api.Maximum))
	mux.Handle("/analytics/top-sensors", wrap(api.TopSensors))
	mux.Handle("/analytics/sensor-stats/", wrap(api.SensorStats))
	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         config.AnalyticsAddr(),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("analytics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exit")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
