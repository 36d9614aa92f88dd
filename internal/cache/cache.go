package cache

import (
	"context"
	"sync"
	"time"

	"kasirstok/backend/internal/domain"
)

// ReportCache stores bucketed sales charts per (period, range, anchor). The
// anchor is the start of the period containing "now", so a chart computed
// yesterday is never served for today's window. Charts are only valid until
// the next sale write, which calls Invalidate.
type ReportCache interface {
	Get(ctx context.Context, period domain.Period, rng domain.Range, anchor time.Time) (*domain.SalesChart, bool, error)
	Set(ctx context.Context, chart *domain.SalesChart, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

const reportKeyPrefix = "report:sales:"

func ReportKey(period domain.Period, rng domain.Range, anchor time.Time) string {
	return reportKeyPrefix + string(period) + ":" + string(rng) + ":" + anchor.Format(time.DateOnly)
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ domain.Period, _ domain.Range, _ time.Time) (*domain.SalesChart, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ *domain.SalesChart, _ time.Duration) error {
	return nil
}

func (NoopReportCache) Invalidate(_ context.Context) error {
	return nil
}

// MemoryReportCache is an in-process cache for single-node deployments
// without Redis.
type MemoryReportCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	chart     domain.SalesChart
	expiresAt time.Time
}

func NewMemoryReportCache() *MemoryReportCache {
	return &MemoryReportCache{
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryReportCache) Get(_ context.Context, period domain.Period, rng domain.Range, anchor time.Time) (*domain.SalesChart, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := ReportKey(period, rng, anchor)
	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	chart := entry.chart
	return &chart, true, nil
}

func (c *MemoryReportCache) Set(_ context.Context, chart *domain.SalesChart, ttl time.Duration) error {
	if chart == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{chart: *chart}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries[ReportKey(chart.Period, chart.Range, chart.Anchor)] = entry
	return nil
}

func (c *MemoryReportCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	return nil
}
