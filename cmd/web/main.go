package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kyanagi/yamabuki-cup-app/internal/broadcast"
	"github.com/kyanagi/yamabuki-cup-app/internal/config"
	"github.com/kyanagi/yamabuki-cup-app/internal/db"
	"github.com/kyanagi/yamabuki-cup-app/internal/metrics"
	"github.com/kyanagi/yamabuki-cup-app/internal/service"
	"github.com/kyanagi/yamabuki-cup-app/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type application struct {
	cfg        *config.Config
	logger     *slog.Logger
	registry   *prometheus.Registry
	hub        *broadcast.Hub
	matches    *service.MatchService
	operations *service.OperationService
	entries    *service.EntryService
}

func newApplication(cfg *config.Config, logger *slog.Logger, database *sqlx.DB) *application {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	matchStore := store.NewMatchStore(database)
	operationStore := store.NewOperationStore(database)
	entryStore := store.NewEntryStore(database)

	hub := broadcast.NewHub(logger)
	matches := service.NewMatchService(database, matchStore, operationStore)
	notifier := broadcast.NewMatchNotifier(hub, func(ctx context.Context, matchID uuid.UUID) (any, error) {
		return matches.Board(ctx, matchID)
	})

	return &application{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		hub:        hub,
		matches:    matches,
		operations: service.NewOperationService(database, matchStore, operationStore, logger, m, notifier),
		entries:    service.NewEntryService(database, entryStore, matchStore, logger, m),
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB, cfg.Database.Driver); err != nil {
		return err
	}

	app := newApplication(cfg, logger, database)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.hub.Run(ctx)
	})
	g.Go(func() error {
		logger.Info("Server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
