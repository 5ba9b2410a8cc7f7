package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/casualty-tracker/internal/domain"
	"github.com/couchcryptid/casualty-tracker/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Freshness classifies a cached snapshot by age.
type Freshness int

const (
	Fresh   Freshness = iota // younger than the expiry threshold
	Stale                    // usable, but due for revalidation
	Expired                  // past max age, discarded on read
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "expired"
	}
}

// Entry is a snapshot read back from the cache.
type Entry struct {
	Data      domain.Series
	Freshness Freshness
	Timestamp time.Time
}

// envelope is the persisted form; timestamp is Unix milliseconds.
type envelope struct {
	Data      domain.Series `json:"data"`
	Timestamp int64         `json:"timestamp"`
}

// FingerprintResetter forgets change-detection state for cleared regions.
type FingerprintResetter interface {
	Reset(regions ...domain.Region)
}

// Options configures key naming and freshness thresholds.
type Options struct {
	KeyPrefix string
	Expiry    time.Duration
	MaxAge    time.Duration
}

// Store reads and writes per-region snapshots. It never surfaces backend or
// decode failures to callers: unreadable entries count as absent and failed
// writes purge the cache.
type Store struct {
	kv       KV
	opts     Options
	clock    clockwork.Clock
	resetter FingerprintResetter
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewStore creates a Store. resetter may be nil.
func NewStore(kv KV, opts Options, clock clockwork.Clock, resetter FingerprintResetter, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		kv:       kv,
		opts:     opts,
		clock:    clock,
		resetter: resetter,
		logger:   logger,
		metrics:  metrics,
	}
}

// Key returns the storage key for region.
func (s *Store) Key(region domain.Region) string {
	return s.opts.KeyPrefix + "_" + string(region)
}

// Classify maps an entry age onto a Freshness.
func (s *Store) Classify(age time.Duration) Freshness {
	switch {
	case age < s.opts.Expiry:
		return Fresh
	case age < s.opts.MaxAge:
		return Stale
	default:
		return Expired
	}
}

// Get returns the cached snapshot for region. Expired entries are deleted
// and reported as absent, as are entries without records.
func (s *Store) Get(ctx context.Context, region domain.Region) (Entry, bool) {
	key := s.Key(region)
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("cache read failed", "region", region, "error", err)
		}
		s.metrics.CacheLookups.WithLabelValues(string(region), "miss").Inc()
		return Entry{}, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Warn("cache entry unreadable", "region", region, "error", err)
		s.metrics.CacheLookups.WithLabelValues(string(region), "miss").Inc()
		return Entry{}, false
	}
	if len(env.Data) == 0 {
		s.logger.Warn("cache entry has no data", "region", region)
		s.metrics.CacheLookups.WithLabelValues(string(region), "miss").Inc()
		return Entry{}, false
	}

	ts := time.UnixMilli(env.Timestamp)
	freshness := s.Classify(s.clock.Since(ts))
	s.metrics.CacheLookups.WithLabelValues(string(region), freshness.String()).Inc()

	if freshness == Expired {
		if err := s.kv.Delete(ctx, key); err != nil {
			s.logger.Warn("cache purge failed", "region", region, "error", err)
		}
		return Entry{}, false
	}
	return Entry{Data: env.Data, Freshness: freshness, Timestamp: ts}, true
}

// Set stores series for region stamped with the current time. A failed
// write clears every region's entry so a full backend frees space.
func (s *Store) Set(ctx context.Context, region domain.Region, series domain.Series) {
	data, err := json.Marshal(envelope{Data: series, Timestamp: s.clock.Now().UnixMilli()})
	if err == nil {
		err = s.kv.Set(ctx, s.Key(region), data)
	}
	if err == nil {
		return
	}

	s.logger.Warn("cache write failed, clearing cache", "region", region, "error", err)
	s.metrics.CacheWriteErrors.Inc()
	if err := s.kv.Delete(ctx, s.keys(domain.Regions())...); err != nil {
		s.logger.Warn("cache clear failed", "error", err)
	}
}

// Clear removes the entries of the given regions, or of every region when
// none are given, and resets their change-detection state.
func (s *Store) Clear(ctx context.Context, regions ...domain.Region) {
	if len(regions) == 0 {
		regions = domain.Regions()
	}
	if err := s.kv.Delete(ctx, s.keys(regions)...); err != nil {
		s.logger.Warn("cache clear failed", "error", err)
	}
	if s.resetter != nil {
		s.resetter.Reset(regions...)
	}
}

func (s *Store) keys(regions []domain.Region) []string {
	keys := make([]string, len(regions))
	for i, r := range regions {
		keys[i] = s.Key(r)
	}
	return keys
}
