package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/casualty-tracker/internal/domain"
	"github.com/couchcryptid/casualty-tracker/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrefix = "test_cache"

var testSeries = domain.Series{
	{Date: "2024-01-02", Killed: 20, Injured: 40},
	{Date: "2024-01-01", Killed: 10, Injured: 30},
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(kv KV, clock clockwork.Clock, resetter FingerprintResetter) *Store {
	opts := Options{KeyPrefix: testPrefix, Expiry: 3 * time.Minute, MaxAge: 20 * time.Minute}
	return NewStore(kv, opts, clock, resetter, discardLogger(), observability.NewMetricsForTesting())
}

// failingKV rejects writes and can be told to fail reads.
type failingKV struct {
	*MemoryKV
	setErr error
	getErr error
}

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.MemoryKV.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryKV.Set(ctx, key, value)
}

type recordingResetter struct {
	calls [][]domain.Region
}

func (r *recordingResetter) Reset(regions ...domain.Region) {
	r.calls = append(r.calls, regions)
}

func TestStore_Key(t *testing.T) {
	s := newTestStore(NewMemoryKV(4), clockwork.NewFakeClock(), nil)
	assert.Equal(t, "test_cache_gaza", s.Key(domain.RegionGaza))
	assert.Equal(t, "test_cache_westbank", s.Key(domain.RegionWestBank))
}

func TestStore_FreshnessLifecycle(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	kv := NewMemoryKV(4)
	s := newTestStore(kv, clock, nil)

	s.Set(ctx, domain.RegionGaza, testSeries)

	entry, ok := s.Get(ctx, domain.RegionGaza)
	require.True(t, ok)
	assert.Equal(t, Fresh, entry.Freshness)
	assert.Equal(t, testSeries, entry.Data)
	assert.Equal(t, clock.Now().UnixMilli(), entry.Timestamp.UnixMilli())

	clock.Advance(3 * time.Minute)
	entry, ok = s.Get(ctx, domain.RegionGaza)
	require.True(t, ok)
	assert.Equal(t, Stale, entry.Freshness, "expiry boundary is exclusive")

	clock.Advance(17 * time.Minute)
	_, ok = s.Get(ctx, domain.RegionGaza)
	assert.False(t, ok, "max age reached")
	assert.Equal(t, 0, kv.Len(), "expired entry is purged")
}

func TestStore_Classify(t *testing.T) {
	s := newTestStore(NewMemoryKV(1), clockwork.NewFakeClock(), nil)

	assert.Equal(t, Fresh, s.Classify(0))
	assert.Equal(t, Fresh, s.Classify(3*time.Minute-time.Millisecond))
	assert.Equal(t, Stale, s.Classify(3*time.Minute))
	assert.Equal(t, Stale, s.Classify(20*time.Minute-time.Millisecond))
	assert.Equal(t, Expired, s.Classify(20*time.Minute))
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(NewMemoryKV(4), clockwork.NewFakeClock(), nil)
	_, ok := s.Get(context.Background(), domain.RegionWestBank)
	assert.False(t, ok)
}

func TestStore_GetUnreadableEntry(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV(4)
	s := newTestStore(kv, clockwork.NewFakeClock(), nil)
	require.NoError(t, kv.Set(ctx, s.Key(domain.RegionGaza), []byte("{not json")))

	_, ok := s.Get(ctx, domain.RegionGaza)
	assert.False(t, ok)
}

func TestStore_GetEntryWithoutData(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	kv := NewMemoryKV(4)
	s := newTestStore(kv, clock, nil)

	ts := strconv.FormatInt(clock.Now().UnixMilli(), 10)
	for name, payload := range map[string]string{
		"null data":  `{"data":null,"timestamp":` + ts + `}`,
		"empty data": `{"data":[],"timestamp":` + ts + `}`,
		"no data":    `{"timestamp":` + ts + `}`,
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set(ctx, s.Key(domain.RegionGaza), []byte(payload)))
			_, ok := s.Get(ctx, domain.RegionGaza)
			assert.False(t, ok)
		})
	}
}

func TestStore_GetBackendError(t *testing.T) {
	kv := &failingKV{MemoryKV: NewMemoryKV(4), getErr: errors.New("disk unplugged")}
	s := newTestStore(kv, clockwork.NewFakeClock(), nil)

	_, ok := s.Get(context.Background(), domain.RegionGaza)
	assert.False(t, ok)
}

func TestStore_SetFailureClearsAllRegions(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryKV: NewMemoryKV(4)}
	s := newTestStore(kv, clockwork.NewFakeClock(), nil)

	s.Set(ctx, domain.RegionGaza, testSeries)
	s.Set(ctx, domain.RegionWestBank, testSeries)
	require.Equal(t, 2, kv.Len())

	kv.setErr = ErrQuotaExceeded
	s.Set(ctx, domain.RegionGaza, testSeries)

	assert.Equal(t, 0, kv.Len())
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV(4)
	resetter := &recordingResetter{}
	s := newTestStore(kv, clockwork.NewFakeClock(), resetter)

	s.Set(ctx, domain.RegionGaza, testSeries)
	s.Set(ctx, domain.RegionWestBank, testSeries)

	s.Clear(ctx, domain.RegionGaza)
	_, ok := s.Get(ctx, domain.RegionGaza)
	assert.False(t, ok)
	_, ok = s.Get(ctx, domain.RegionWestBank)
	assert.True(t, ok)

	s.Clear(ctx)
	assert.Equal(t, 0, kv.Len())

	assert.Equal(t, [][]domain.Region{
		{domain.RegionGaza},
		{domain.RegionGaza, domain.RegionWestBank},
	}, resetter.calls)
}

func TestStore_ClearResetsChangeDetector(t *testing.T) {
	ctx := context.Background()
	detector := domain.NewChangeDetector()
	s := newTestStore(NewMemoryKV(4), clockwork.NewFakeClock(), detector)

	require.True(t, detector.HasChanged(testSeries, domain.RegionGaza))
	require.False(t, detector.HasChanged(testSeries, domain.RegionGaza))

	s.Clear(ctx)
	assert.True(t, detector.HasChanged(testSeries, domain.RegionGaza))
}
