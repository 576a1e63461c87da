package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"docsummarizer/docs"
	"docsummarizer/internal/config"
	"docsummarizer/internal/database"
	"docsummarizer/internal/database/migration"
	handlers "docsummarizer/internal/http/handler"
	"docsummarizer/internal/http/middleware"
	"docsummarizer/internal/logging"
	"docsummarizer/internal/otel"
	"docsummarizer/internal/repository/postgres"
	"docsummarizer/internal/service"
	"docsummarizer/internal/storage"
	"docsummarizer/internal/summarizer"
)

// @title Document Summarizer API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.SetupStandard(os.Stdout, cfg.Location())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.WithError(err).Fatal("tracing_init_failed")
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("database_config_invalid")
	}
	defer db.Close()

	// Wait for the database before migrating; the connector owns the retry budget.
	connector := database.NewConnector(db, cfg.Database, log)
	conn, err := connector.Acquire(ctx)
	if err != nil {
		log.WithError(err).Fatal("database_unreachable")
	}
	database.Release(conn, log)

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.WithError(err).Fatal("database_migration_failed")
	}

	objStore, err := storage.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("storage_init_failed")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sumMetrics, err := summarizer.NewMetrics(reg)
	if err != nil {
		log.WithError(err).Fatal("metrics_init_failed")
	}
	sum := summarizer.NewClient(cfg.Summarizer, summarizer.WithMetrics(sumMetrics))

	docSvc := service.NewDocumentService(connector, postgres.Factory(), objStore, sum, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.MaxUploadBytes,
		// Uploads wait for the model.
		ReadTimeout:  cfg.Summarizer.Timeout + 30*time.Second,
		WriteTimeout: cfg.Summarizer.Timeout + 30*time.Second,
	})

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.WithError(err).Fatal("metrics_init_failed")
	}

	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())
	app.Use(cors.New())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, db, docSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	if cfg.WebDir != "" {
		app.Static("/", cfg.WebDir, fiber.Static{Index: "index.html"})
	}

	go func() {
		<-ctx.Done()
		log.Info("shutdown_started")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("http_shutdown_failed")
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.WithError(err).Error("tracing_shutdown_failed")
		}
	}()

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{
		"addr":            addr,
		"storage_backend": cfg.Storage.Backend,
		"ollama_url":      cfg.Summarizer.URL,
		"model":           cfg.Summarizer.Model,
	}).Info("server_starting")

	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}
