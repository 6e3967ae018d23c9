package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamroom/jamroom/internal/config"
	"github.com/jamroom/jamroom/internal/logging"
	"github.com/jamroom/jamroom/internal/server"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(".env", os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("invalid logging configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := server.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("failed to open store")
	}
	defer stores.Close()

	srv := server.New(ctx, cfg, stores)
	srv.Run(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
