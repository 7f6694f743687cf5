package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"emailwriter/internal/config"
	"emailwriter/internal/gemini"
	"emailwriter/internal/generator"
	"emailwriter/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger := cfg.SetupLogger()

	if cfg.FileSearchStoreName == "" {
		logger.Warn().Msg("EMAIL_WRITER_FILE_SEARCH_STORE_NAME is not set; generation requests will fail until a store is configured")
	}

	// Wire the generation pipeline
	client := gemini.NewGenerationClient(cfg, logger)
	gen := generator.New(cfg, client)

	// Create and initialize server
	srv := server.New(cfg, gen, logger)
	srv.Initialize()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server
	if err := srv.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
	logger.Info().Msg("Server stopped")
}
