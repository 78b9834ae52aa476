package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"portfolio-tracker/internal/config"
	"portfolio-tracker/internal/database"
	"portfolio-tracker/internal/pricing"
	"portfolio-tracker/internal/service"
)

const (
	_workers      = 5
	_drainTimeout = 10 * time.Second
)

// Manual bulk price refresh: re-fetches every tracked ticker through a small
// worker pool and persists each position as its price arrives.
func main() {
	logger := logrus.New()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	repo := database.New(db, logger)
	cache := pricing.NewCache()
	fetcher := pricing.NewAlphaVantage(cfg.BaseURL, cfg.APIKey, cfg.HTTPTimeout, cfg.UpstreamPerMin, logger)
	oracle := pricing.NewOracle(cache, fetcher, cfg.ConversionRate, cfg.CacheTTL, logger)
	refresher := service.NewRefresher(repo, oracle, cfg.RefreshInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- refresher.BulkRefresh(ctx, _workers)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Fatalf("bulk refresh failed: %v", err)
		}
		logger.Info("bulk refresh finished")
	case <-ctx.Done():
		logger.Warn("interrupted, draining workers")
		select {
		case <-done:
			logger.Info("workers drained")
		case <-time.After(_drainTimeout):
			logger.Error("drain timed out, exiting")
			os.Exit(1)
		}
	}
}
