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
	"sensorfleet/internal/files"
	"sensorfleet/internal/handlers"
	"sensorfleet/internal/logger"
	"sensorfleet/internal/middleware"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}
	logger.Init(config.LogLevel())
	log := logger.WithComponent("files")

	store, err := files.New(files.Opts{
		Endpoint:  config.MinioEndpoint(),
		AccessKey: config.MinioAccessKey(),
		SecretKey: config.MinioSecretKey(),
		UseTLS:    config.MinioUseTLS(),
		Bucket:    config.MinioBucket(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("object store connect failed")
	}
	if err := store.EnsureBucket(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("bucket init failed")
	}

	api := handlers.NewFilesHandler(store)

	wrap := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, middleware.Recovery, middleware.Logging)
	}

	mux := http.NewServeMux()
	mux.Handle("/files/upload/log", wrap(api.UploadLog))
	mux.Handle("/files/upload/graph", wrap(api.UploadGraph))
	mux.Handle("/files/list", wrap(api.List))
	mux.Handle("/files/download/", wrap(api.Download))
	mux.Handle("/files/log/", wrap(api.ReadLog))
	mux.Handle("/files/stats", wrap(api.UsageStats))
	mux.Handle("/files/", wrap(api.Delete))
	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         config.FilesAddr(),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("files listening")
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
