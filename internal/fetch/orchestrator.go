// Package fetch decides, per region, whether to answer from cache, go to
// the network, or both, and keeps at most one network fetch in flight per
// region.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/casualty-tracker/internal/cache"
	"github.com/couchcryptid/casualty-tracker/internal/domain"
	"github.com/couchcryptid/casualty-tracker/internal/events"
	"github.com/couchcryptid/casualty-tracker/internal/observability"
	"golang.org/x/sync/singleflight"
)

// Source retrieves the raw upstream records for a region.
type Source interface {
	FetchRegion(ctx context.Context, region domain.Region) ([]domain.RawRecord, error)
}

// Cache is the snapshot store consulted before and after network fetches.
type Cache interface {
	Get(ctx context.Context, region domain.Region) (cache.Entry, bool)
	Set(ctx context.Context, region domain.Region, series domain.Series)
}

// Orchestrator coordinates cache reads, network fetches, and background
// revalidation for every region.
type Orchestrator struct {
	source  Source
	cache   Cache
	updates *events.Broadcaster[events.DataUpdated]
	logger  *slog.Logger
	metrics *observability.Metrics

	// base outlives individual callers so a shared fetch is never cut short
	// by whoever happened to start it.
	base context.Context

	group   singleflight.Group
	mu      sync.Mutex
	waiters map[domain.Region]int
	wg      sync.WaitGroup
}

// New creates an Orchestrator. Shared and background fetches run under base;
// cancelling it aborts them.
func New(base context.Context, source Source, c Cache, updates *events.Broadcaster[events.DataUpdated], logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		source:  source,
		cache:   c,
		updates: updates,
		logger:  logger,
		metrics: metrics,
		base:    base,
		waiters: make(map[domain.Region]int),
	}
}

// Fetch returns the series for region.
//
// A caller arriving while a fetch is in flight joins it. With preferCache,
// any cached snapshot is returned immediately and refreshed in the
// background. Otherwise a fresh snapshot short-circuits the network, and a
// failed network fetch falls back to whatever was cached.
func (o *Orchestrator) Fetch(ctx context.Context, region domain.Region, preferCache bool) (domain.Series, error) {
	if !region.Valid() {
		return nil, fmt.Errorf("fetch %q: %w", region, domain.ErrInvalidRegion)
	}

	// Snapshot the cache before waiting; the entry may expire mid-fetch.
	joining := o.InFlight(region)
	entry, cached := o.cache.Get(ctx, region)
	if joining {
		o.metrics.DedupJoins.WithLabelValues(string(region)).Inc()
	} else {
		if preferCache && cached {
			o.revalidate(region)
			return entry.Data, nil
		}
		if cached && entry.Freshness == cache.Fresh {
			return entry.Data, nil
		}
	}

	series, err := o.shared(ctx, region)
	if err != nil {
		if cached {
			return o.fallback(region, entry, err), nil
		}
		return nil, err
	}
	return series, nil
}

// InFlight reports whether a network fetch for region is pending.
func (o *Orchestrator) InFlight(region domain.Region) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.waiters[region] > 0
}

// Wait blocks until every background revalidation has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) fallback(region domain.Region, entry cache.Entry, err error) domain.Series {
	o.logger.Warn("using cached data after fetch error",
		"region", region,
		"freshness", entry.Freshness.String(),
		"cached_at", entry.Timestamp,
		"error", err,
	)
	o.metrics.StaleFallbacks.WithLabelValues(string(region)).Inc()
	return entry.Data
}

// revalidate refreshes region in the background unless a fetch is already
// pending. Failures are logged at debug level only.
func (o *Orchestrator) revalidate(region domain.Region) {
	if o.acquire(region) {
		o.release(region)
		o.metrics.Revalidations.WithLabelValues(string(region), "skipped").Inc()
		return
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.release(region)

		if _, err := o.await(o.base, region); err != nil {
			o.logger.Debug("background revalidation failed", "region", region, "error", err)
			o.metrics.Revalidations.WithLabelValues(string(region), "error").Inc()
			return
		}
		o.metrics.Revalidations.WithLabelValues(string(region), "success").Inc()
		o.updates.Publish(events.DataUpdated{Region: region})
	}()
}

// shared waits on the region's single in-flight fetch, starting it if needed.
func (o *Orchestrator) shared(ctx context.Context, region domain.Region) (domain.Series, error) {
	o.acquire(region)
	defer o.release(region)
	return o.await(ctx, region)
}

// acquire registers a waiter on region and reports whether one was already
// registered.
func (o *Orchestrator) acquire(region domain.Region) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	pending := o.waiters[region] > 0
	o.waiters[region]++
	return pending
}

func (o *Orchestrator) release(region domain.Region) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.waiters[region] <= 1 {
		delete(o.waiters, region)
		return
	}
	o.waiters[region]--
}

func (o *Orchestrator) await(ctx context.Context, region domain.Region) (domain.Series, error) {
	ch := o.group.DoChan(string(region), func() (any, error) {
		return o.fetchAndStore(region)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(domain.Series), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (o *Orchestrator) fetchAndStore(region domain.Region) (domain.Series, error) {
	start := time.Now()

	raw, err := o.source.FetchRegion(o.base, region)
	var series domain.Series
	if err == nil {
		series, err = domain.Normalize(raw)
	}

	o.metrics.FetchDuration.WithLabelValues(string(region)).Observe(time.Since(start).Seconds())
	if err != nil {
		kind := domain.ErrorKind(err)
		o.metrics.FetchRequests.WithLabelValues(string(region), kind).Inc()
		o.logger.Warn("upstream fetch failed", "region", region, "kind", kind, "error", err)
		return nil, fmt.Errorf("fetch %s: %w", region, err)
	}

	o.metrics.FetchRequests.WithLabelValues(string(region), "success").Inc()
	o.cache.Set(o.base, region, series)
	o.logger.Info("region data fetched", "region", region, "records", len(series))
	return series, nil
}
