package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/garyjia/doc-approval/internal/config"
	"github.com/garyjia/doc-approval/internal/container"
	"github.com/garyjia/doc-approval/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting document approval service",
		zap.String("version", "1.0.0"),
		zap.String("address", cfg.Server.Address()),
		zap.String("eligibility_policy", cfg.Workflow.EligibilityPolicy),
		zap.String("gating_policy", cfg.Workflow.GatingPolicy))

	// Wait for interrupt signal to gracefully shutdown the server
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Server exited successfully")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	app, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}

	if err := app.Start(ctx); err != nil {
		_ = app.Close()
		return err
	}

	serveErr := app.Server().Start(ctx)
	if err := app.Close(); err != nil && serveErr == nil {
		return err
	}
	return serveErr
}
