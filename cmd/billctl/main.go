package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"bahikhata/backend/internal/config"
	"bahikhata/backend/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}

	// Logs go to stderr so report output on stdout stays clean.
	logConfig := logger.DefaultConfig()
	logConfig.Output = "stderr"
	if cfg, err := config.Load(); err == nil {
		logConfig.Level = cfg.Log.Level
		logConfig.Format = cfg.Log.Format
	}
	closer, err := logger.Setup(logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer closer.Close()

	if err := newRootCmd().Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
