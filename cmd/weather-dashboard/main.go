package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/objectstore"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingRequired) {
			log.Printf("ERROR: %v; nothing to do", err)
			return
		}
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	objects, err := objectstore.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to create object store client", zap.Error(err))
	}
	defer func() {
		if err := objects.Close(); err != nil {
			zl.Warn("error closing object store client", zap.Error(err))
		}
	}()

	records := store.NewLocalStore(cfg.OutputDir)
	history := store.NewMemoryStore(cfg.RunHistory)

	service := weather.NewService(
		cfg,
		providers.NewOpenWeatherProvider(httpClient, cfg),
		records,
		objects,
		history,
		zl,
	)

	zl.Info("weather dashboard starting",
		zap.Strings("cities", cfg.Cities),
		zap.String("output_dir", records.Dir()),
		zap.String("bucket", cfg.BucketName),
		zap.String("backend", cfg.StorageBackend),
		zap.Bool("service_mode", cfg.ServiceMode()),
	)

	if !cfg.ServiceMode() {
		report := service.Run(ctx)
		if err := report.Err(); err != nil {
			zl.Warn("run finished with errors", zap.Error(err))
		}
		zl.Info("weather data processing complete",
			zap.String("run_id", report.ID),
			zap.Int("uploaded", report.Uploaded()),
			zap.Int("cities", len(report.Cities)),
		)
		return
	}

	serve(ctx, cfg, service, history, records, zl)
}

// serve runs scheduled uploads and the status API until ctx is cancelled.
func serve(ctx context.Context, cfg *config.AppConfig, service *weather.Service, history *store.MemoryStore, records *store.LocalStore, zl *zap.Logger) {
	sched := scheduler.New(cfg.FetchInterval, service, zl)
	if err := sched.Start(ctx); err != nil {
		zl.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
		})
	})

	httpapi.RegisterRoutes(app, history, records)

	go func() {
		if err := app.Listen(cfg.ServerAddr()); err != nil {
			zl.Error("fiber server stopped", zap.Error(err))
		}
	}()
	zl.Info("status API listening", zap.String("addr", cfg.ServerAddr()))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zl.Error("error during shutdown", zap.Error(err))
	}
}
