package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"bidwatcher/config"
	"bidwatcher/helpers"
	"bidwatcher/internal/browser"
	"bidwatcher/internal/metrics"
	"bidwatcher/internal/pipeline"
	"bidwatcher/logger"
	"bidwatcher/services/blocklist"
	"bidwatcher/services/publisher"
	"bidwatcher/services/seen"
	"bidwatcher/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	watchlist, err := config.LoadWatchlist(cfg.WatchlistPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.WatchlistPath).Msg("Invalid watchlist")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Int("search_terms", len(watchlist.SearchTerms)).
		Dur("run_interval", cfg.RunInterval).
		Bool("run_once", cfg.RunOnce).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services := initializeServices(ctx, &cfg)
	defer services.Cleanup()

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		m = metrics.New(registry)
		metrics.Serve(cfg.MetricsAddr, registry)
		log.Info().Str("addr", cfg.MetricsAddr).Msg("Metrics endpoint listening")
	}

	selectors := browser.DefaultSelectors()
	driver := browser.NewChromeDriver(browser.Options{
		BaseURL:           cfg.BaseURL,
		Headless:          cfg.Headless,
		NavigationTimeout: cfg.NavigationTimeout,
		SnapshotDir:       cfg.SnapshotDir,
	}, selectors)

	var images pipeline.ImageFetcher
	if cfg.ImagesDir != "" {
		images = helpers.NewImageFetcher(cfg.ImagesDir, cfg.NavigationTimeout)
	}

	p := pipeline.New(driver, pipeline.Config{
		BaseURL:      cfg.BaseURL,
		Terms:        watchlist.SearchTerms,
		Allowlist:    watchlist.Locations.Allow,
		Conditions:   watchlist.Conditions,
		Priority1:    watchlist.Locations.Priority1,
		Priority2:    watchlist.Locations.Priority2,
		PageCap:      cfg.PageCap,
		RequestDelay: cfg.RequestDelay,
		Ready:        browser.ReadySignal{Selector: selectors.Results, Timeout: cfg.ReadyTimeout},
		RunBudget:    cfg.RunBudget,
		BlockTTL:     cfg.BlockTTL,
	}, services.Blocklist, images)

	// Create and start worker
	w := worker.NewWorker(
		p,
		services.Publisher,
		services.Seen,
		m,
		cfg.RunInterval,
		cfg.RunOnce,
		cfg.ResultsDir,
	)

	// Start worker in a goroutine
	workerDone := make(chan struct{})
	go func() {
		log.Info().Msg("Starting auction watcher")
		w.Start(ctx)
		close(workerDone)
	}()

	// Wait for shutdown signal or worker completion
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case <-workerDone:
		log.Info().Msg("Worker exited")
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Blocklist blocklist.Blocklist
	Publisher publisher.Publisher
	Seen      seen.Store
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Seen != nil {
		s.Seen.Close()
	}
}

// initializeServices initializes all required services. Redis and memcache
// are optional: without them the run logs its output and retries every term.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		services.Blocklist = blocklist.NewMemcacheBlocklist(cfg.MemcacheAddr)
		logger.Info("Using memcache blocklist at %s", cfg.MemcacheAddr)
	} else {
		services.Blocklist = blocklist.NewMemoryBlocklist()
		logger.Info("Using in-memory blocklist")
	}

	if cfg.RedisAddr != "" {
		services.Publisher = publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLen,
		)
		logger.Info("Publishing to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	} else {
		services.Publisher = publisher.NewLogPublisher()
		logger.Info("No Redis configured, publishing to log")
	}

	store, err := seen.OpenSQLite(cfg.SeenDBPath)
	if err != nil {
		logger.Fatal("Failed to open seen store at %s: %v", cfg.SeenDBPath, err)
	}
	services.Seen = store
	logger.Info("Seen store at %s", cfg.SeenDBPath)

	return services
}
