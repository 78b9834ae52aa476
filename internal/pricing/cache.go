package pricing

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one cached quote: the raw USD price and when it was fetched.
type Entry struct {
	Price     decimal.Decimal
	FetchedAt time.Time
}

// Cache holds the last known price per ticker. It is safe for concurrent use.
// Entries are never evicted: an expired price is still wanted as a fallback
// when the upstream is unreachable. Growth is bounded by the number of
// distinct tickers ever tracked.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

func (c *Cache) Get(ticker string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[ticker]
	return e, ok
}

// Put replaces any previous entry for the ticker. Last writer wins on
// concurrent puts for the same ticker.
func (c *Cache) Put(ticker string, price decimal.Decimal, fetchedAt time.Time) {
	c.mu.Lock()
	c.entries[ticker] = Entry{Price: price, FetchedAt: fetchedAt}
	c.mu.Unlock()
}
