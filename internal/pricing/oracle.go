package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Oracle composes the cache and the fetcher behind a single entry point.
// All price reads and writes in the process flow through GetPrice; nothing
// else touches the cache or the fetcher directly.
type Oracle struct {
	cache   *Cache
	fetcher Fetcher
	rate    decimal.Decimal // USD -> INR multiplier
	ttl     time.Duration
	now     func() time.Time
	log     *logrus.Logger
}

func NewOracle(cache *Cache, fetcher Fetcher, rate decimal.Decimal, ttl time.Duration, log *logrus.Logger) *Oracle {
	return &Oracle{
		cache:   cache,
		fetcher: fetcher,
		rate:    rate,
		ttl:     ttl,
		now:     time.Now,
		log:     log,
	}
}

// GetPrice returns the INR-converted price for a ticker, or false when
// neither the cache nor the upstream can produce one.
//
// Cache entries within the TTL short-circuit the upstream call. On a failed
// fetch an expired entry is still served, converted, rather than reporting
// absence. Two callers missing the cache for the same ticker at the same
// time may both hit the upstream; last write wins. Serializing that would
// put a lock around blocking network I/O for no correctness gain.
func (o *Oracle) GetPrice(ctx context.Context, ticker string) (decimal.Decimal, bool) {
	now := o.now()

	cached, ok := o.cache.Get(ticker)
	if ok && now.Sub(cached.FetchedAt) <= o.ttl {
		return cached.Price.Mul(o.rate), true
	}

	price, err := o.fetcher.Fetch(ctx, ticker)
	if err != nil {
		if ok {
			o.log.Warnf("fetch for %s failed, serving price cached at %s: %v",
				ticker, cached.FetchedAt.Format(time.RFC3339), err)
			return cached.Price.Mul(o.rate), true
		}
		o.log.Warnf("no price available for %s: %v", ticker, err)
		return decimal.Zero, false
	}

	o.cache.Put(ticker, price, now)
	return price.Mul(o.rate), true
}
