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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"bahikhata/backend/internal/app"
	"bahikhata/backend/internal/config"
	"bahikhata/backend/internal/httpapi"
	"bahikhata/backend/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logCloser, err := logger.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log configuration: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := validateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	application, err := app.Build(ctx, cfg, logger.WithComponent("server"))
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}

	api := httpapi.New(application.Service, cfg.AllowedOrigin, cfg.ImportMaxRows)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Address()).Msg("billing backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	if err := application.Close(); err != nil {
		log.Error().Err(err).Msg("close error")
	}

	log.Info().Msg("server stopped")
}

func validateConfig(cfg config.Config) error {
	if cfg.DefaultBundleRate.IsNegative() {
		return fmt.Errorf("DEFAULT_BUNDLE_RATE must not be negative")
	}
	if cfg.ImportMaxRows < 1 {
		return fmt.Errorf("IMPORT_MAX_ROWS must be at least 1")
	}
	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a known location: %w", cfg.Timezone, err)
	}
	return nil
}
