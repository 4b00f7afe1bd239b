package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"jewelcatalog/internal/config"
	"jewelcatalog/internal/logging"

	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.Init(logging.Config{Mode: cfg.LogMode, Filename: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	app, err := NewApp(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	app.StartScheduler()

	// --- Start HTTP Server ---
	logger.Info("starting server",
		zap.String("addr", cfg.AppPort),
		zap.String("products_file", cfg.ProductsFile),
		zap.Bool("sheet_source", cfg.SheetSourceEnabled()),
		zap.Int("sinks", app.Sync.SinkCount()))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Fiber.Listen(cfg.AppPort); err != nil {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	if err := app.Fiber.Shutdown(); err != nil {
		logger.Error("error during fiber shutdown", zap.Error(err))
	}
	if err := app.Close(); err != nil {
		logger.Error("error releasing resources", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
}
