// Package loader drives dashboard loads: initial load with retries, manual
// and periodic refresh, reactions to background updates, and historical
// lookups. It owns the per-region dashboard state.
package loader

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/casualty-tracker/internal/domain"
	"github.com/couchcryptid/casualty-tracker/internal/events"
	"github.com/couchcryptid/casualty-tracker/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

var (
	// ErrNoData is returned when a load produced data for no region.
	ErrNoData = errors.New("failed to load data from all sources")

	// ErrRefreshThrottled is returned when a manual refresh arrives within
	// the debounce window of the previous one.
	ErrRefreshThrottled = errors.New("refresh throttled")
)

// Fetcher returns the series for a region, preferring cached data when asked.
type Fetcher interface {
	Fetch(ctx context.Context, region domain.Region, preferCache bool) (domain.Series, error)
}

// ChangeDetector reports whether a series differs from the last one seen.
type ChangeDetector interface {
	HasChanged(series domain.Series, region domain.Region) bool
}

// Publisher forwards the latest record of a changed region downstream.
type Publisher interface {
	PublishLatest(ctx context.Context, region domain.Region, rec domain.Record) error
}

// Result is the outcome of loading one region. It never carries a Go error
// up the stack; failures are reported through Err and Message.
type Result struct {
	Region     domain.Region
	Success    bool
	Data       domain.Series
	HasChanged bool
	Err        error
	Message    string
}

// Options tunes retries, refresh cadence, and the initially active region.
type Options struct {
	RetryMax        int
	RetryBaseDelay  time.Duration
	RefreshInterval time.Duration
	RefreshDebounce time.Duration
	DefaultRegion   domain.Region
}

// Coordinator orchestrates loads across regions and keeps the dashboard state.
type Coordinator struct {
	fetcher   Fetcher
	detector  ChangeDetector
	view      View
	publisher Publisher
	bus       *events.Bus
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options
	limiter   *rate.Limiter

	updates <-chan events.DataUpdated
	dates   <-chan events.DateSelected

	mu     sync.RWMutex
	data   map[domain.Region]domain.Series
	active domain.Region
}

// New creates a Coordinator and subscribes it to the bus. publisher may be nil.
func New(f Fetcher, d ChangeDetector, view View, publisher Publisher, bus *events.Bus, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Coordinator {
	if opts.RefreshDebounce <= 0 {
		opts.RefreshDebounce = time.Second
	}
	if !opts.DefaultRegion.Valid() {
		opts.DefaultRegion = domain.RegionGaza
	}
	return &Coordinator{
		fetcher:   f,
		detector:  d,
		view:      view,
		publisher: publisher,
		bus:       bus,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
		limiter:   rate.NewLimiter(rate.Every(opts.RefreshDebounce), 1),
		updates:   bus.DataUpdated.Subscribe(),
		dates:     bus.DateSelected.Subscribe(),
		data:      make(map[domain.Region]domain.Series),
		active:    opts.DefaultRegion,
	}
}

// LoadRegion fetches region and runs change detection on the result.
func (c *Coordinator) LoadRegion(ctx context.Context, region domain.Region, progressive bool) Result {
	series, err := c.fetcher.Fetch(ctx, region, progressive)
	if err != nil {
		c.logger.Error("region load failed", "region", region, "kind", domain.ErrorKind(err), "error", err)
		return Result{Region: region, Err: err, Message: err.Error()}
	}
	return Result{
		Region:     region,
		Success:    true,
		Data:       series,
		HasChanged: c.detector.HasChanged(series, region),
	}
}

// LoadAll loads every region. Non-progressive loads run concurrently with
// independent outcomes; progressive loads run one region at a time on the
// cached-first path.
func (c *Coordinator) LoadAll(ctx context.Context, progressive bool) map[domain.Region]Result {
	regions := domain.Regions()
	results := make(map[domain.Region]Result, len(regions))

	if progressive {
		for _, r := range regions {
			results[r] = c.LoadRegion(ctx, r, true)
		}
		return results
	}

	out := make([]Result, len(regions))
	var wg sync.WaitGroup
	for i, r := range regions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = c.LoadRegion(ctx, r, false)
		}()
	}
	wg.Wait()

	for _, res := range out {
		results[res.Region] = res
	}
	return results
}

// Load runs LoadAll and applies the outcome to the dashboard. Only
// successful, non-empty series replace state. A refresh that changed any
// region triggers an update notification.
func (c *Coordinator) Load(ctx context.Context, refresh, progressive bool) error {
	logger := c.logger.With("load_id", uuid.NewString(), "refresh", refresh, "progressive", progressive)
	logger.Debug("load started")

	results := c.LoadAll(ctx, progressive && !refresh)

	loaded, changed := false, false
	for _, region := range domain.Regions() {
		res := results[region]
		if !res.Success || len(res.Data) == 0 {
			logger.Warn("region produced no data", "region", region, "error", res.Message)
			continue
		}
		c.store(region, res.Data)
		loaded = true
		if res.HasChanged {
			changed = true
			c.publish(ctx, region, res.Data)
		}
	}

	if !loaded {
		return ErrNoData
	}

	c.renderActive()
	if refresh && changed {
		c.view.NotifyUpdated()
	}
	logger.Info("load complete", "changed", changed)
	return nil
}

// SetActiveRegion switches the displayed region, loading it when no data
// is held yet.
func (c *Coordinator) SetActiveRegion(ctx context.Context, region domain.Region) error {
	if !region.Valid() {
		return domain.ErrInvalidRegion
	}

	c.mu.Lock()
	c.active = region
	series := c.data[region]
	c.mu.Unlock()

	if len(series) > 0 {
		c.view.Render(region, series)
		return nil
	}

	res := c.LoadRegion(ctx, region, true)
	if !res.Success {
		c.view.ShowError(res.Err)
		return res.Err
	}
	c.store(region, res.Data)
	c.view.Render(region, res.Data)
	return nil
}

// ActiveRegion returns the region currently on display.
func (c *Coordinator) ActiveRegion() domain.Region {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Series returns the dashboard state for region.
func (c *Coordinator) Series(region domain.Region) (domain.Series, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.data[region]
	return s, ok && len(s) > 0
}

// CheckReadiness returns nil once any region holds data.
func (c *Coordinator) CheckReadiness(_ context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.data {
		if len(s) > 0 {
			return nil
		}
	}
	return errors.New("no region data loaded yet")
}

func (c *Coordinator) store(region domain.Region, series domain.Series) {
	c.mu.Lock()
	c.data[region] = series
	c.mu.Unlock()

	c.metrics.LastSuccess.WithLabelValues(string(region)).Set(float64(c.clock.Now().Unix()))
	c.metrics.DashboardReady.Set(1)
}

func (c *Coordinator) renderActive() {
	c.mu.RLock()
	region := c.active
	series := c.data[region]
	c.mu.RUnlock()

	if len(series) == 0 {
		c.logger.Warn("no data available for active region", "region", region)
		return
	}
	c.view.Render(region, series)
}

func (c *Coordinator) publish(ctx context.Context, region domain.Region, series domain.Series) {
	if c.publisher == nil {
		return
	}
	latest, ok := series.Latest()
	if !ok {
		return
	}
	if err := c.publisher.PublishLatest(ctx, region, latest); err != nil {
		c.logger.Warn("publish update failed", "region", region, "error", err)
		return
	}
	c.metrics.UpdatesPublished.Inc()
}
