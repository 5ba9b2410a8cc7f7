// Command dashboard polls the casualty API, keeps a per-region cache, and
// serves the dashboard view over HTTP.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/casualty-tracker/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/casualty-tracker/internal/adapter/kafka"
	"github.com/couchcryptid/casualty-tracker/internal/adapter/upstream"
	"github.com/couchcryptid/casualty-tracker/internal/cache"
	"github.com/couchcryptid/casualty-tracker/internal/config"
	"github.com/couchcryptid/casualty-tracker/internal/domain"
	"github.com/couchcryptid/casualty-tracker/internal/events"
	"github.com/couchcryptid/casualty-tracker/internal/fetch"
	"github.com/couchcryptid/casualty-tracker/internal/loader"
	"github.com/couchcryptid/casualty-tracker/internal/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, closeKV, err := newKV(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize cache backend", "backend", cfg.CacheBackend, "error", err)
		os.Exit(1)
	}
	defer closeKV()

	detector := domain.NewChangeDetector()
	store := cache.NewStore(kv, cache.Options{
		KeyPrefix: cfg.CacheKeyPrefix,
		Expiry:    cfg.CacheExpiry,
		MaxAge:    cfg.CacheMaxAge,
	}, clock, detector, logger, metrics)

	client := upstream.NewClient(map[domain.Region]string{
		domain.RegionGaza:     cfg.GazaURL,
		domain.RegionWestBank: cfg.WestBankURL,
	}, cfg.UpstreamProxy, cfg.FetchTimeout, logger)

	bus := events.NewBus()
	orch := fetch.New(ctx, client, store, bus.DataUpdated, logger, metrics)

	// Update publishing (feature-flagged via KAFKA_ENABLED).
	var publisher loader.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("kafka update publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka update publishing disabled")
	}

	coord := loader.New(orch, detector, loader.NewLogView(logger), publisher, bus, clock, logger, metrics, loader.Options{
		RetryMax:        cfg.RetryMax,
		RetryBaseDelay:  cfg.RetryBaseDelay,
		RefreshInterval: cfg.RefreshInterval,
		DefaultRegion:   domain.Region(cfg.DefaultRegion),
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, coord, store, bus.DateSelected, httpadapter.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		ChartWindow:    cfg.ChartMaxPoints,
	}, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Initial load, then the event and refresh loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := coord.InitialLoad(ctx); err != nil && ctx.Err() == nil {
			logger.Error("initial load failed", "error", err)
		}
		if err := coord.Run(ctx); err != nil {
			logger.Error("coordinator error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	<-done
	orch.Wait()
	bus.Close()
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// newKV builds the configured cache backend and its cleanup function.
func newKV(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.KV, func(), error) {
	switch cfg.CacheBackend {
	case config.CacheBackendMemory:
		logger.Info("using in-memory cache", "entries", cfg.CacheMemoryEntries)
		return cache.NewMemoryKV(cfg.CacheMemoryEntries), func() {}, nil
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		kv := cache.NewRedisKV(client, cfg.CacheMaxAge)
		if err := kv.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.Info("using redis cache", "addr", cfg.RedisAddr)
		return kv, func() { _ = client.Close() }, nil
	default:
		kv, err := cache.NewFileKV(cfg.CacheDir, cfg.CacheMaxBytes)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file cache", "dir", cfg.CacheDir, "max_bytes", cfg.CacheMaxBytes)
		return kv, func() {}, nil
	}
}
