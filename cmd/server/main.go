package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/homemetrics/backend/internal/api"
	"github.com/homemetrics/backend/internal/config"
	"github.com/homemetrics/backend/internal/events"
	"github.com/homemetrics/backend/internal/health"
	"github.com/homemetrics/backend/internal/logger"
	"github.com/homemetrics/backend/internal/mailsource"
	"github.com/homemetrics/backend/internal/metrics"
	"github.com/homemetrics/backend/internal/mimeparser"
	"github.com/homemetrics/backend/internal/middleware"
	"github.com/homemetrics/backend/internal/notify"
	"github.com/homemetrics/backend/internal/processor"
	"github.com/homemetrics/backend/internal/repository"
	"github.com/homemetrics/backend/internal/scanner"
	"github.com/homemetrics/backend/internal/storage"
	"github.com/homemetrics/backend/internal/temperature"
)

// Version is set at build time.
var Version = "dev"

func main() {
	cfg := config.Load()
	log := logger.New(logger.DefaultConfig())

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := repository.Connect(ctx, &cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("connected to database",
		"host", cfg.Database.Host,
		"database", cfg.Database.DBName)

	dbStats := metrics.NewDBStatsCollector(db.DB)
	dbStats.Start(15 * time.Second)
	defer dbStats.Stop()

	repo := repository.NewReadingRepository(db)
	bus := events.NewBus()

	var notifier notify.Notifier = notify.NoopNotifier{}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(&cfg.Notify, log)
		log.Info("webhook notifications enabled")
	}
	notify.SubscribeBus(bus, notifier, log)

	var archive processor.Archiver
	if cfg.Storage.Endpoint != "" {
		svc, err := storage.NewArchiveService(&cfg.Storage)
		if err != nil {
			log.Error("failed to configure attachment archive", "error", err)
			os.Exit(1)
		}
		archive = svc
		log.Info("attachment archive enabled", "bucket", cfg.Storage.Bucket)
	}

	parser := mimeparser.New()
	strategies := []processor.LabeledStrategy{
		{
			Label: cfg.Mail.ThermoLabel,
			Strategy: processor.NewThermoStrategy(
				scanner.New(parser, log),
				temperature.NewExtractor(log),
				repo,
				archive,
				log,
			),
		},
		{
			Label:    cfg.Mail.PoolLabel,
			Strategy: processor.NewPoolStrategy(parser, repo, log),
		},
	}

	if cfg.Mail.SpoolDir != "" {
		source, err := mailsource.NewSpoolSource(cfg.Mail.SpoolDir, log)
		if err != nil {
			log.Error("failed to open mail spool", "error", err)
			os.Exit(1)
		}
		runner := processor.NewRunner(source, strategies, bus,
			cfg.Processing.MessageLimit, cfg.Processing.Interval, log)
		go runner.Start(ctx)
		log.Info("ingest runner started",
			"spool_dir", cfg.Mail.SpoolDir,
			"interval", cfg.Processing.Interval)
	} else {
		log.Warn("no mail spool configured, ingest runner disabled")
	}

	healthHandler := health.NewHandler(db, Version)
	readingsHandler := api.NewReadingsHandler(repo, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", healthHandler.Health)
	r.Get("/readyz", healthHandler.Readiness)
	r.Get("/livez", healthHandler.Liveness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		api.RegisterReadingRoutes(r, readingsHandler)
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", "addr", addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	healthHandler.SetReady(false)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server exited")
}
