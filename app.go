package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"jewelcatalog/internal/config"
	"jewelcatalog/internal/handlers"
	"jewelcatalog/internal/middleware"
	"jewelcatalog/internal/repositories"
	"jewelcatalog/internal/services"
	"jewelcatalog/internal/sheets"
	"jewelcatalog/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// livenessText is served at GET /.
const livenessText = "Catalog backend is running"

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// App bundles the HTTP server with the background sync scheduler and the
// resources they hold.
type App struct {
	Fiber   *fiber.App
	Catalog *services.CatalogService
	Sync    *services.SyncService

	sched   *cron.Cron
	closers []func() error
	log     *zap.Logger
}

// NewApp wires repositories, services and handlers from cfg.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{log: logger}

	// --- Repositories ---
	productRepo, err := repositories.NewJSONProductRepository(cfg.ProductsFile, logger.Named("store"))
	if err != nil {
		return nil, err
	}
	images, err := repositories.NewDiskImageStore(cfg.UploadsDir)
	if err != nil {
		return nil, err
	}

	var outbox repositories.SyncOutboxRepository
	if cfg.OutboxEnabled() {
		db, err := repositories.OpenOutboxDB(cfg.OutboxDriver, cfg.OutboxDSN)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		outbox = repositories.NewGORMSyncOutboxRepository(db)
	}

	// --- Secondary source and sinks ---
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	var source services.ProductSource
	if cfg.SheetSourceEnabled() {
		sheetSource, err := sheets.NewSource(sheets.Config{
			SheetID:   cfg.SheetID,
			Format:    cfg.SheetFormat,
			ExportURL: cfg.SheetExportURL,
			Client:    httpClient,
		}, logger.Named("sheets"))
		if err != nil {
			return nil, err
		}
		source = sheetSource
	}

	var sinks []services.ProductSink
	if cfg.SyncWebhookURL != "" {
		webapp, err := sheets.NewWebAppSink(cfg.SyncWebhookURL, httpClient)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, webapp)
	}
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger.Named("rabbitmq"))
		if err != nil {
			// The catalog keeps working; products are not announced on the broker.
			logger.Error("rabbitmq sink disabled", zap.Error(err))
		} else {
			sinks = append(sinks, mqClient)
			a.closers = append(a.closers, mqClient.Close)
		}
	}

	// --- Services ---
	a.Sync = services.NewSyncService(sinks, outbox, cfg.SyncMaxAttempts, logger.Named("sync"))
	a.Catalog = services.NewCatalogService(productRepo, images, source, a.Sync, cfg.PublicBaseURL, logger.Named("catalog"))

	// --- Scheduler ---
	a.sched = cron.New(cron.WithParser(cronParser))
	if a.Sync.Enabled() && outbox != nil {
		_, err := a.sched.AddFunc(cfg.SyncRetrySchedule, a.retryPendingSyncs)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("invalid SYNC_RETRY_SCHEDULE %q: %w", cfg.SyncRetrySchedule, err)
		}
	}

	// --- Fiber ---
	a.Fiber = fiber.New(fiber.Config{
		AppName:   "jewelcatalog",
		BodyLimit: cfg.MaxUploadBytes(),
	})
	a.Fiber.Use(fiberrecover.New())
	a.Fiber.Use(requestid.New())
	a.Fiber.Use(cors.New())
	a.Fiber.Use(middleware.RequestLogger(logger.Named("http")))

	a.Fiber.Static("/uploads", cfg.UploadsDir)

	a.Fiber.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(livenessText)
	})
	a.Fiber.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"source": a.Catalog.HasSource(),
			"sinks":  a.Sync.SinkCount(),
		})
	})

	api := a.Fiber.Group("/api")
	handlers.NewProductHandler(a.Catalog, logger.Named("http")).RegisterRoutes(api)
	handlers.NewSyncHandler(a.Sync, logger.Named("http")).RegisterRoutes(api)

	return a, nil
}

func (a *App) retryPendingSyncs() {
	defer func() {
		if err := recover(); err != nil {
			a.log.Error("sync retry job panicked", zap.Any("panic", err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if _, _, err := a.Sync.RetryPending(ctx); err != nil {
		a.log.Error("sync retry job failed", zap.Error(err))
	}
}

// StartScheduler starts the background sync retries.
func (a *App) StartScheduler() {
	a.sched.Start()
}

// Close stops the scheduler, waiting for a running retry, and releases the
// outbox database and broker connection.
func (a *App) Close() error {
	<-a.sched.Stop().Done()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
