package snowflake

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/influencer-analytics/internal/domain"
	"github.com/ignite/influencer-analytics/internal/pkg/logger"
)

// EventSource is the query side of Client.
type EventSource interface {
	TrackingEvents(ctx context.Context, since time.Time) ([]domain.TrackingEvent, error)
}

// Collector keeps a refreshed copy of the warehouse tracking events so that
// request paths never wait on Snowflake.
type Collector struct {
	source          EventSource
	refreshInterval time.Duration

	mu        sync.RWMutex
	events    []domain.TrackingEvent
	lastFetch time.Time
	lastErr   error
}

// NewCollector creates a new Snowflake collector
func NewCollector(source EventSource, refresh time.Duration) *Collector {
	if refresh <= 0 {
		refresh = 5 * time.Minute
	}
	return &Collector{source: source, refreshInterval: refresh}
}

// Start begins the collection loop
func (c *Collector) Start(ctx context.Context) {
	c.fetch(ctx)

	ticker := time.NewTicker(c.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.fetch(ctx)
		}
	}
}

// FetchNow triggers an immediate fetch and reports its error.
func (c *Collector) FetchNow(ctx context.Context) error {
	return c.fetch(ctx)
}

func (c *Collector) fetch(ctx context.Context) error {
	events, err := c.source.TrackingEvents(ctx, time.Time{})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	if err != nil {
		logger.Error("snowflake fetch failed", "error", err)
		return err
	}
	c.events = events
	c.lastFetch = time.Now()
	logger.Info("snowflake tracking events collected", "count", len(events))
	return nil
}

// Events returns a copy of the most recent successful fetch, fetching once
// if nothing has been collected yet.
func (c *Collector) Events(ctx context.Context) ([]domain.TrackingEvent, error) {
	c.mu.RLock()
	fetched := !c.lastFetch.IsZero()
	c.mu.RUnlock()
	if !fetched {
		if err := c.fetch(ctx); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.TrackingEvent, len(c.events))
	copy(out, c.events)
	return out, nil
}

// LastFetch returns the time of the last successful fetch
func (c *Collector) LastFetch() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastFetch
}

// LastError returns the error of the most recent fetch, if any.
func (c *Collector) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}
