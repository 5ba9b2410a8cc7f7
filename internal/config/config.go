package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Cache backends selectable through CACHE_BACKEND.
const (
	CacheBackendFile   = "file"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr           string
	CORSAllowedOrigins []string
	LogLevel           string
	LogFormat          string
	LogFile            string
	ShutdownTimeout    time.Duration

	// Upstream API.
	GazaURL       string
	WestBankURL   string
	UpstreamProxy string
	FetchTimeout  time.Duration

	// Cache.
	CacheBackend       string
	CacheDir           string
	CacheKeyPrefix     string
	CacheExpiry        time.Duration
	CacheMaxAge        time.Duration
	CacheMaxBytes      int64
	CacheMemoryEntries int
	RedisAddr          string

	// Load coordination.
	RefreshInterval time.Duration
	RetryMax        int
	RetryBaseDelay  time.Duration
	ChartMaxPoints  int
	DefaultRegion   string

	// Update publishing (feature-flagged via KAFKA_ENABLED).
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		LogFile:            sharedcfg.EnvOrDefault("LOG_FILE", ""),
		ShutdownTimeout:    shutdownTimeout,

		GazaURL:       sharedcfg.EnvOrDefault("GAZA_URL", "https://data.techforpalestine.org/api/v2/casualties_daily.json"),
		WestBankURL:   sharedcfg.EnvOrDefault("WESTBANK_URL", "https://data.techforpalestine.org/api/v2/west_bank_daily.json"),
		UpstreamProxy: sharedcfg.EnvOrDefault("UPSTREAM_PROXY", ""),

		CacheBackend:   strings.ToLower(sharedcfg.EnvOrDefault("CACHE_BACKEND", CacheBackendFile)),
		CacheDir:       sharedcfg.EnvOrDefault("CACHE_DIR", ".cache"),
		CacheKeyPrefix: sharedcfg.EnvOrDefault("CACHE_KEY_PREFIX", "palestine_casualties_cache"),
		RedisAddr:      sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),

		DefaultRegion: sharedcfg.EnvOrDefault("DEFAULT_REGION", "gaza"),

		KafkaEnabled: sharedcfg.EnvOrDefault("KAFKA_ENABLED", "false") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "casualty-updates"),
	}

	for _, d := range []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"FETCH_TIMEOUT", "8s", &cfg.FetchTimeout},
		{"CACHE_EXPIRY", "3m", &cfg.CacheExpiry},
		{"CACHE_MAX_AGE", "20m", &cfg.CacheMaxAge},
		{"REFRESH_INTERVAL", "20m", &cfg.RefreshInterval},
		{"RETRY_BASE_DELAY", "2s", &cfg.RetryBaseDelay},
	} {
		if *d.dst, err = parsePositiveDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.CacheMaxBytes, err = parsePositiveInt64("CACHE_MAX_BYTES", 5<<20); err != nil {
		return nil, err
	}
	memEntries, err := parsePositiveInt64("CACHE_MEMORY_ENTRIES", 16)
	if err != nil {
		return nil, err
	}
	cfg.CacheMemoryEntries = int(memEntries)
	retryMax, err := parsePositiveInt64("RETRY_MAX", 3)
	if err != nil {
		return nil, err
	}
	cfg.RetryMax = int(retryMax)
	chartPoints, err := parsePositiveInt64("CHART_MAX_POINTS", 30)
	if err != nil {
		return nil, err
	}
	cfg.ChartMaxPoints = int(chartPoints)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.GazaURL == "" || c.WestBankURL == "" {
		return errors.New("GAZA_URL and WESTBANK_URL are required")
	}
	switch c.CacheBackend {
	case CacheBackendFile, CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.CacheExpiry >= c.CacheMaxAge {
		return errors.New("CACHE_EXPIRY must be shorter than CACHE_MAX_AGE")
	}
	if c.DefaultRegion != "gaza" && c.DefaultRegion != "westbank" {
		return fmt.Errorf("invalid DEFAULT_REGION %q", c.DefaultRegion)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt64(key string, def int64) (int64, error) {
	s := sharedcfg.EnvOrDefault(key, strconv.FormatInt(def, 10))
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
