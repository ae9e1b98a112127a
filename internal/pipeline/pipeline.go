// Package pipeline runs a full watch cycle: one browser session, every
// configured search term, normalization, cross-term dedupe, and the filter
// pass that produces the run's report.
package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"bidwatcher/internal/browser"
	"bidwatcher/internal/dedupe"
	"bidwatcher/internal/filter"
	"bidwatcher/internal/listing"
	"bidwatcher/internal/normalize"
	"bidwatcher/internal/search"
	"bidwatcher/logger"
	"bidwatcher/pkg/errors"
	"bidwatcher/services/blocklist"
)

// runIDLayout renders run IDs that sort lexically in start order, which the
// dedupe run-span tracking relies on.
const runIDLayout = "20060102T150405Z"

// ImageFetcher downloads a listing thumbnail and returns its local path.
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL string) (string, error)
}

// Config holds everything one run needs besides the live services.
type Config struct {
	BaseURL    string
	Terms      []string
	Allowlist  []string
	Conditions []string
	Priority1  []string
	Priority2  []string

	PageCap      int
	RequestDelay time.Duration
	Ready        browser.ReadySignal

	// RunBudget bounds the whole run; zero means unbounded. Terms the
	// budget never reaches are reported as skipped, not silently dropped.
	RunBudget time.Duration

	// BlockTTL is how long a term stays blocked after a session or
	// navigation failure.
	BlockTTL time.Duration

	Timezone *time.Location
}

// Report is the outcome of one run: the records to publish, every rejection
// with its full reason list, and the run statistics.
type Report struct {
	Records  []listing.Record
	Rejected map[string]listing.FilterDecision
	Stats    RunStats
}

// Pipeline orchestrates runs. Blocklist and images may be nil; the run then
// attempts every term and skips thumbnail downloads.
type Pipeline struct {
	driver    browser.Driver
	cfg       Config
	blocklist blocklist.Blocklist
	images    ImageFetcher
}

// New creates a pipeline.
func New(driver browser.Driver, cfg Config, bl blocklist.Blocklist, images ImageFetcher) *Pipeline {
	return &Pipeline{driver: driver, cfg: cfg, blocklist: bl, images: images}
}

// Run executes one watch cycle. reported maps identity keys already published
// in earlier runs to their last reported bid; those listings are suppressed
// until the bid moves.
//
// A term failure never fails the run: partial rows are kept, the failure is
// recorded in the stats, and the next term proceeds in the same session. Only
// a session that cannot be opened at all is fatal.
func (p *Pipeline) Run(ctx context.Context, reported map[string]float64) (*Report, error) {
	start := time.Now()
	runID := start.UTC().Format(runIDLayout)
	log := logger.ForPipeline().WithField("run_id", runID)
	stats := newRunStats(runID, start)

	runCtx := ctx
	if p.cfg.RunBudget > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.cfg.RunBudget)
		defer cancel()
	}

	session, err := p.driver.OpenSession(runCtx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	limiter := rate.NewLimiter(rate.Every(p.cfg.RequestDelay), 1)
	exec := search.NewExecutor(session, p.cfg.Ready, p.cfg.PageCap, limiter)
	norm := normalize.New(normalize.NewVocabulary(p.cfg.Allowlist), start, runID, p.cfg.Timezone)
	window := search.WeekWindow(start)
	pool := dedupe.NewPool()

	for _, term := range p.cfg.Terms {
		if runCtx.Err() != nil {
			log.Warn().Str("term", term).Msg("run budget exhausted, skipping term")
			stats.recordSkip(term, SkipReasonTimeout)
			continue
		}
		if p.blocklist != nil && p.blocklist.Blocked(term) {
			log.Info().Str("term", term).Msg("term is blocked, skipping")
			stats.recordSkip(term, SkipReasonBlocked)
			continue
		}

		stats.TermsAttempted++
		searchURL := search.BuildURL(p.cfg.BaseURL, term, p.cfg.Allowlist, p.cfg.Conditions, window)
		rows, termErr := exec.Run(runCtx, term, searchURL)

		stats.TotalRawRows += len(rows)
		for _, row := range rows {
			rec, reason := norm.Normalize(row)
			if reason != "" {
				stats.recordRejection(reason)
				continue
			}
			pool.Add(rec)
		}

		if termErr != nil {
			logger.LogError("pipeline", termErr, "term %s failed, continuing with next", term)
			stats.recordFailure(term, termErr)
			p.maybeBlock(term, termErr)
		}
	}

	engine := filter.NewEngine(filter.Config{
		RunStart:   start,
		Allowlist:  p.cfg.Allowlist,
		Conditions: p.cfg.Conditions,
		Priority1:  p.cfg.Priority1,
		Priority2:  p.cfg.Priority2,
		Reported:   reported,
	})
	accepted, rejected := engine.Apply(pool.Records())
	for _, dec := range rejected {
		if len(dec.Reasons) > 0 {
			stats.recordRejection(dec.Reasons[0])
		}
	}

	p.fetchImages(ctx, accepted)

	stats.AcceptedCount = len(accepted)
	stats.Duration = time.Since(start)
	log.Info().
		Int("accepted", len(accepted)).
		Int("raw_rows", stats.TotalRawRows).
		Int("terms_failed", len(stats.TermsFailed)).
		Int("terms_skipped", len(stats.TermsSkipped)).
		Dur("duration", stats.Duration).
		Msg("run complete")

	return &Report{Records: accepted, Rejected: rejected, Stats: stats}, nil
}

// maybeBlock blocks a term after failures that suggest the site is refusing
// us. Extraction and ready-timeout failures are page-shaped problems and do
// not block.
func (p *Pipeline) maybeBlock(term string, err error) {
	if p.blocklist == nil || p.cfg.BlockTTL <= 0 {
		return
	}
	switch errors.TypeOf(err) {
	case errors.ErrorTypeSession, errors.ErrorTypeNavigation:
		if blockErr := p.blocklist.Block(term, p.cfg.BlockTTL); blockErr != nil {
			logger.LogError("pipeline", blockErr, "failed to block term %s", term)
		}
	}
}

func (p *Pipeline) fetchImages(ctx context.Context, recs []listing.Record) {
	if p.images == nil {
		return
	}
	for i := range recs {
		if recs[i].ImageURL == "" {
			continue
		}
		path, err := p.images.Fetch(ctx, recs[i].ImageURL)
		if err != nil {
			logger.Debug("image download failed for %s: %v", recs[i].IdentityKey, err)
			continue
		}
		recs[i].ImagePath = path
	}
}
