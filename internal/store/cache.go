package store

import (
	"context"
	"sync"
	"time"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
)

// ReadCache memoizes the queries the daemon serves between runs (health
// payloads, metrics gauges). The orchestrator flushes it at the end of every
// run so readers observe the fresh state immediately instead of waiting out
// the TTL.
type ReadCache struct {
	db  *DB
	ttl time.Duration

	mu      sync.Mutex
	countAt time.Time
	count   int64
	lastAt  time.Time
	last    *domain.SourceRunStats
}

func NewReadCache(db *DB, ttl time.Duration) *ReadCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ReadCache{db: db, ttl: ttl}
}

// ActiveCount returns the number of ACTIVE postings, refreshing at most once
// per TTL.
func (c *ReadCache) ActiveCount(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.countAt.IsZero() && time.Since(c.countAt) < c.ttl {
		return c.count, nil
	}
	n, err := c.db.CountActivePostings(ctx)
	if err != nil {
		return 0, err
	}
	c.count = n
	c.countAt = time.Now()
	return n, nil
}

// LastRun returns the newest telemetry row, refreshing at most once per TTL.
func (c *ReadCache) LastRun(ctx context.Context) (*domain.SourceRunStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lastAt.IsZero() && time.Since(c.lastAt) < c.ttl {
		return c.last, nil
	}
	rec, err := c.db.LastRun(ctx)
	if err != nil {
		return nil, err
	}
	c.last = rec
	c.lastAt = time.Now()
	return rec, nil
}

// Flush drops everything cached; the next read hits the database.
func (c *ReadCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.countAt = time.Time{}
	c.lastAt = time.Time{}
}
