package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/portfolio")
	t.Setenv("ALPHAVANTAGE_API_KEY", "demo")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://www.alphavantage.co", cfg.BaseURL)
	assert.Equal(t, 5, cfg.UpstreamPerMin)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.ConversionRate.Equal(decimal.NewFromFloat(85.76)))
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshInterval)
}

func TestLoadRequiresPostgresURL(t *testing.T) {
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("ALPHAVANTAGE_API_KEY", "demo")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/portfolio")
	t.Setenv("ALPHAVANTAGE_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/portfolio")
	t.Setenv("ALPHAVANTAGE_API_KEY", "demo")
	t.Setenv("PORT", "9090")
	t.Setenv("USD_TO_INR", "80.5")
	t.Setenv("PRICE_CACHE_TTL", "1h")
	t.Setenv("PRICE_REFRESH_INTERVAL", "30m")
	t.Setenv("ALPHAVANTAGE_RPM", "75")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.ConversionRate.Equal(decimal.NewFromFloat(80.5)))
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 75, cfg.UpstreamPerMin)
}

func TestLoadRejectsBadOverrides(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/portfolio")
	t.Setenv("ALPHAVANTAGE_API_KEY", "demo")
	t.Setenv("USD_TO_INR", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}
