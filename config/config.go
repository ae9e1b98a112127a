package config

import (
	"os"
	"strconv"
	"time"

	"bidwatcher/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Redis configuration (report stream for the notifier collaborator);
	// empty addr publishes to the log instead
	RedisAddr         string
	RedisDB           int
	RedisStream       string
	RedisStreamMaxLen int

	// Memcache configuration (term block cache between runs); empty addr
	// keeps blocks in memory only
	MemcacheAddr string
	BlockTTL     time.Duration

	// Seen-store (cross-run "already reported" suppression)
	SeenDBPath string

	// Watchlist file (search terms, locations, conditions)
	WatchlistPath string

	// Target site
	BaseURL string

	// Browser configuration
	Headless          bool
	NavigationTimeout time.Duration
	ReadyTimeout      time.Duration
	SnapshotDir       string

	// Pagination and politeness
	PageCap      int
	RequestDelay time.Duration

	// Run scheduling
	RunBudget   time.Duration
	RunInterval time.Duration
	RunOnce     bool

	// Output
	ResultsDir string
	ImagesDir  string

	// Metrics exposition; empty disables the listener
	MetricsAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAXLEN", "500"))
	pageCap, _ := strconv.Atoi(getEnv("PAGE_CAP", "5"))
	navTimeout, _ := strconv.Atoi(getEnv("NAVIGATION_TIMEOUT_SECONDS", "30"))
	readyTimeout, _ := strconv.Atoi(getEnv("READY_TIMEOUT_SECONDS", "20"))
	requestDelay, _ := strconv.Atoi(getEnv("REQUEST_DELAY_SECONDS", "2"))
	runBudget, _ := strconv.Atoi(getEnv("RUN_BUDGET_SECONDS", "900"))
	runInterval, _ := strconv.Atoi(getEnv("RUN_INTERVAL_SECONDS", "604800"))
	blockTTL, _ := strconv.Atoi(getEnv("BLOCK_TTL_SECONDS", "3600"))

	return Config{
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisDB:           redisDB,
		RedisStream:       getEnv("REDIS_STREAM", "auction_reports"),
		RedisStreamMaxLen: streamMaxLen,
		MemcacheAddr:      getEnv("MEMCACHE_ADDR", ""),
		BlockTTL:          time.Duration(blockTTL) * time.Second,
		SeenDBPath:        getEnv("SEEN_DB_PATH", "bidwatcher.db"),
		WatchlistPath:     getEnv("WATCHLIST_PATH", "watchlist.yml"),
		BaseURL:           getEnv("BASE_URL", "https://www.bidft.auction"),
		Headless:          getEnv("HEADLESS", "true") == "true",
		NavigationTimeout: time.Duration(navTimeout) * time.Second,
		ReadyTimeout:      time.Duration(readyTimeout) * time.Second,
		SnapshotDir:       getEnv("SNAPSHOT_DIR", "scraper_output/snapshots"),
		PageCap:           pageCap,
		RequestDelay:      time.Duration(requestDelay) * time.Second,
		RunBudget:         time.Duration(runBudget) * time.Second,
		RunInterval:       time.Duration(runInterval) * time.Second,
		RunOnce:           getEnv("RUN_ONCE", "false") == "true",
		ResultsDir:        getEnv("RESULTS_DIR", "scraper_output"),
		ImagesDir:         getEnv("IMAGES_DIR", ""),
		MetricsAddr:       getEnv("METRICS_ADDR", ""),
		Environment:       getEnv("BIDWATCHER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.NewConfiguration("BASE_URL must not be empty", nil)
	}
	if c.PageCap <= 0 {
		return errors.NewConfiguration("PAGE_CAP must be positive", nil)
	}
	if c.NavigationTimeout <= 0 || c.ReadyTimeout <= 0 {
		return errors.NewConfiguration("timeouts must be positive", nil)
	}
	if c.RunBudget <= 0 {
		return errors.NewConfiguration("RUN_BUDGET_SECONDS must be positive", nil)
	}
	if !c.RunOnce && c.RunInterval <= 0 {
		return errors.NewConfiguration("RUN_INTERVAL_SECONDS must be positive", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
