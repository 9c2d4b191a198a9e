package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jask/tariffdesk/internal/config"
	"github.com/jask/tariffdesk/internal/database"
	"github.com/jask/tariffdesk/internal/events"
	"github.com/jask/tariffdesk/internal/log"
	"github.com/jask/tariffdesk/internal/server"
	"github.com/jask/tariffdesk/internal/service"
	"github.com/jask/tariffdesk/internal/testdata"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.New(log.DefaultConfig()).Error("load config", log.FieldError, err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.Server.Addr, "listen address")
	dbPath := flag.String("db", cfg.Database.Path, "sqlite database path")
	seed := flag.Bool("seed", false, "load deterministic sample data")
	seedYear := flag.Int("seed-year", time.Now().Year(), "center year of the sample data")
	reset := flag.Bool("reset", false, "wipe all data before starting")
	flag.Parse()

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = log.DefaultConfig().Level
	}
	logger := log.New(log.Config{Level: level, Component: log.ComponentApp, Output: os.Stdout})
	log.SetDefault(logger)

	if err := run(cfg, logger, *addr, *dbPath, *seed, *seedYear, *reset); err != nil {
		logger.Error("tariffd stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully", log.FieldOperation, log.OpShutdown)
}

func run(cfg config.Config, logger *log.Logger, addr, dbPath string, seed bool, seedYear int, reset bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}
	db, err := database.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	store := logger.WithComponent(log.ComponentStorage)
	if err := database.RunMigrationsWithDB(db); err != nil {
		return err
	}
	store.Info("migrations applied", log.FieldOperation, log.OpMigrate, log.FieldPath, dbPath)

	if reset {
		if err := (&service.MaintenanceService{DB: db}).Reset(ctx); err != nil {
			return err
		}
		store.Warn("database reset", log.FieldPath, dbPath)
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		return err
	}
	if seed {
		if err := testdata.Seed(ctx, testdata.NewRepos(db), seedYear, 42); err != nil {
			return err
		}
		store.Info("sample data loaded", log.FieldOperation, log.OpSeed, log.FieldYear, seedYear)
	}

	publisher, err := events.New(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	srv := &server.Server{
		Tariffs: &service.TariffService{DB: db, Events: publisher, Logger: logger.WithComponent(log.ComponentTariffs)},
		Costs:   &service.CostService{DB: db},
		Token:   cfg.API.Token(),
		Logger:  logger.WithComponent(log.ComponentHTTP),
	}
	httpSrv := &http.Server{
		Addr:           addr,
		Handler:        srv.Router(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting tariffd", log.FieldOperation, log.OpStartup, "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received", log.FieldOperation, log.OpShutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
