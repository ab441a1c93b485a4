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
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}
	logger.Init(config.LogLevel())
	log := logger.WithComponent("sensordata")

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

	readings := storage.NewReadingStore(db)

	ingest := handlers.NewIngestHandler(handlers.IngestConfig{
		Readings: readings,
		Queue:    broker,
	})

	mux := http.NewServeMux()
	mux.Handle("/sensor-data", middleware.Chain(ingest, middleware.Recovery, middleware.Logging))
	mux.Handle("/sensor-data/", middleware.Chain(handlers.NewReadingsHandler(readings), middleware.Recovery, middleware.Logging))
	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         config.SensorDataAddr(),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("sensordata listening")
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
