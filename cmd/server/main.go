package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"portfolio-tracker/internal/config"
	"portfolio-tracker/internal/database"
	"portfolio-tracker/internal/handlers"
	"portfolio-tracker/internal/pricing"
	"portfolio-tracker/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// Load .env file if it exists, but don't fail if it's missing (e.g. in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	db, err := initDB(cfg.PostgresURL)
	if err != nil {
		logger.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	repo := database.New(db, logger)

	cache := pricing.NewCache()
	fetcher := pricing.NewAlphaVantage(cfg.BaseURL, cfg.APIKey, cfg.HTTPTimeout, cfg.UpstreamPerMin, logger)
	oracle := pricing.NewOracle(cache, fetcher, cfg.ConversionRate, cfg.CacheTTL, logger)

	svc := service.New(repo, oracle, logger)

	refresher := service.NewRefresher(repo, oracle, cfg.RefreshInterval, logger)
	if err := refresher.Start(); err != nil {
		logger.Fatalf("refresher start failed: %v", err)
	}
	defer refresher.Stop()

	h := handlers.NewHandler(svc, logger)

	rg := gin.Default()
	rg.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	rg.POST("/stocks/add", h.AddStock)
	rg.GET("/stocks/all", h.GetAllStocks)
	rg.GET("/stocks/top-performing", h.GetTopPerforming)
	rg.GET("/stocks/distribution", h.GetDistribution)
	rg.GET("/stocks/:id", h.GetStockByID)
	rg.PUT("/stocks/:id", h.UpdateStock)
	rg.DELETE("/stocks/:id", h.DeleteStock)
	rg.GET("/portfolio/value", h.GetPortfolioValue)
	rg.GET("/portfolio/metrics", h.GetPortfolioMetrics)

	logger.Infof("server starting on :%s", cfg.Port)
	rg.Run(fmt.Sprintf(":" + cfg.Port))
}

func initDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}
