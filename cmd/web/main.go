package main

import (
	"fmt"
	"os"

	"github.com/sensorwatch/sensorwatch/internal/config"
	"github.com/sensorwatch/sensorwatch/internal/logger"
	"github.com/sensorwatch/sensorwatch/internal/web"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	logger.Init(level, cfg.Logging.Format, cfg.Logging.File)
	log := logger.Component("web")

	srv, err := web.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create web client")
	}

	log.Info().Str("version", version).Str("api_url", cfg.API.URL).Msg("Starting SensorWatch web client...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Web client failed to start")
	}
}
