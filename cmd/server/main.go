// Package main provides the entry point for the option-chain simulator's
// HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/optionchain/simulator/internal/api"
	"github.com/optionchain/simulator/internal/config"
	"github.com/optionchain/simulator/internal/historical"
	"github.com/optionchain/simulator/internal/identity"
	"github.com/optionchain/simulator/internal/pathcache"
	"github.com/optionchain/simulator/internal/pathgen"
	"github.com/optionchain/simulator/internal/pricing"
	"github.com/optionchain/simulator/internal/sessionmanager"
	"github.com/optionchain/simulator/internal/sessionstore"
)

func main() {
	os.Exit(run())
}

func run() int {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.WithError(err).Error("failed to load config")
		return 1
	}

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})
	if lvl, parseErr := logrus.ParseLevel(cfg.Environment.LogLevel); parseErr == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.WithError(parseErr).Warn("invalid log level; defaulting to info")
	}

	memStore := sessionstore.NewMemoryStore()
	var store sessionstore.Store = memStore
	if cfg.Storage.SnapshotPath != "" {
		rehydrateFromSnapshot(memStore, cfg.Storage.SnapshotPath, logger)
		store = sessionstore.NewFileStore(store, cfg.Storage.SnapshotPath, logger)
	}

	minter := identity.NewMinter()
	cache := pathcache.New()

	source := buildHistoricalSource(cfg, logger)
	generator := pathgen.New(source)
	builder := pricing.NewChainBuilder()

	manager := sessionmanager.New(store, minter, cache, generator, builder, cfg.SessionTTL(), logger)

	server := api.NewServer(api.Config{Addr: cfg.HTTP.Addr}, manager, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutdown signal received, stopping server...")
		cancel()
	}()

	stopSweep := make(chan struct{})
	go runTTLSweeper(ctx, manager, cfg.SweepInterval(), logger, stopSweep)

	go func() {
		logger.WithField("addr", cfg.HTTP.Addr).Info("listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server error")
		}
	}()

	<-ctx.Done()
	close(stopSweep)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("error shutting down server")
		return 1
	}

	logger.Info("server stopped cleanly")
	return 0
}

// rehydrateFromSnapshot best-effort-loads a prior FileStore snapshot into
// store before it starts serving requests. A missing or corrupt snapshot
// never blocks startup — it just means the service starts empty, same as
// if snapshotting had never been enabled.
func rehydrateFromSnapshot(store *sessionstore.MemoryStore, path string, logger *logrus.Logger) {
	sessions, err := sessionstore.LoadSnapshot(path)
	if err != nil {
		logger.WithError(err).Warn("failed to load session snapshot; starting empty")
		return
	}
	for _, s := range sessions {
		if err := store.Save(s); err != nil {
			logger.WithError(err).WithField("session_id", s.ID).Warn("failed to rehydrate session from snapshot")
		}
	}
	if len(sessions) > 0 {
		logger.WithField("count", len(sessions)).Info("rehydrated sessions from snapshot")
	}
}

// buildHistoricalSource wires the configured provider behind the retry and
// circuit-breaker decorators, per SPEC_FULL's HistoricalPriceSource
// expansion. Only "mock" is implemented today — a "tradier"-provider source
// would slot in here behind the same decorators.
func buildHistoricalSource(cfg *config.Config, logger *logrus.Logger) historical.Source {
	var source historical.Source = historical.NewMockSource()

	if cfg.Historical.CircuitBreaker {
		source = historical.NewCircuitBreakerSource(source)
	}
	if cfg.Historical.RetryMaxAttempts > 0 {
		source = historical.NewRetryingSource(source, logger)
	}
	return source
}

// runTTLSweeper reclaims expired sessions on cfg.Session.SweepIntervalSeconds
// cadence until stop is closed or ctx is cancelled — the only other
// suspension point besides HistoricalPriceSource network calls, per spec §5.
func runTTLSweeper(ctx context.Context, manager *sessionmanager.Manager, interval time.Duration, logger *logrus.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			n, err := manager.CleanupSessions()
			if err != nil {
				logger.WithError(err).Warn("session cleanup failed")
				continue
			}
			if n > 0 {
				logger.WithField("reclaimed", n).Info("reclaimed expired sessions")
			}
		}
	}
}
