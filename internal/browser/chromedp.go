package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"

	"bidwatcher/internal/listing"
	"bidwatcher/logger"
	"bidwatcher/pkg/errors"
)

// ChromeDriver drives a headless Chrome via chromedp.
type ChromeDriver struct {
	opts Options
	sel  Selectors
}

// NewChromeDriver creates a chromedp-backed driver.
func NewChromeDriver(opts Options, sel Selectors) *ChromeDriver {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.WindowWidth == 0 {
		opts.WindowWidth = 1920
	}
	if opts.WindowHeight == 0 {
		opts.WindowHeight = 1080
	}
	return &ChromeDriver{opts: opts, sel: sel}
}

// OpenSession launches the browser. A launch failure is a SessionError; the
// caller decides whether that is fatal to one term or to the whole run.
func (d *ChromeDriver) OpenSession(ctx context.Context) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(d.opts.WindowWidth, d.opts.WindowHeight),
		chromedp.UserAgent(d.opts.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Run with no actions forces the browser process to start now, so a
	// missing or broken Chrome binary surfaces here and not mid-term.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, errors.NewSession("", "failed to launch browser", err)
	}

	logger.ForBrowser().Debug().Bool("headless", d.opts.Headless).Msg("browser session opened")

	return &chromeSession{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{cancelBrowser, cancelAlloc},
		opts:    d.opts,
		sel:     d.sel,
	}, nil
}

type chromeSession struct {
	ctx     context.Context
	cancels []context.CancelFunc
	opts    Options
	sel     Selectors

	closeOnce sync.Once
}

func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tctx, cancel := context.WithTimeout(s.ctx, s.opts.NavigationTimeout)
	defer cancel()
	return chromedp.Run(tctx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		snap := s.capture("navigate")
		return errors.NewNavigation("", fmt.Sprintf("navigate %s", url), err).WithSnapshot(snap)
	}
	return nil
}

func (s *chromeSession) WaitReady(ctx context.Context, sig ReadySignal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tctx, cancel := context.WithTimeout(s.ctx, sig.Timeout)
	defer cancel()
	if err := chromedp.Run(tctx, chromedp.WaitVisible(sig.Selector, chromedp.ByQuery)); err != nil {
		// A term with zero matches renders an empty-state page instead of
		// the results table. That is a normal result, not a timeout.
		if s.hasNoRows(ctx) {
			return ErrNoResults
		}
		snap := s.capture("wait_ready")
		return errors.NewReadyTimeout("", fmt.Sprintf("ready signal %q never appeared", sig.Selector), err).WithSnapshot(snap)
	}
	return nil
}

// hasNoRows reports whether the page finished loading without a single
// result row. Only a definitive "loaded and empty" answer returns true; any
// probe failure keeps the original timeout semantics.
func (s *chromeSession) hasNoRows(ctx context.Context) bool {
	script := fmt.Sprintf(
		"document.readyState === \"complete\" && document.querySelector(%q) === null",
		s.sel.Rows,
	)
	var empty bool
	if err := s.run(ctx, chromedp.Evaluate(script, &empty)); err != nil {
		return false
	}
	return empty
}

func (s *chromeSession) ExtractRows(ctx context.Context) ([]listing.RawRow, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		snap := s.capture("extract")
		return nil, errors.NewExtraction("", "read rendered page", err).WithSnapshot(snap)
	}
	rows, err := ParseRows(html, s.opts.BaseURL, s.sel)
	if err != nil {
		snap := writeSnapshot(s.opts.SnapshotDir, "extract", []byte(html), nil)
		return nil, errors.NewExtraction("", "parse rendered page", err).WithSnapshot(snap)
	}
	return rows, nil
}

func (s *chromeSession) HasNextPage(ctx context.Context) bool {
	script := fmt.Sprintf(
		"document.querySelector(%q) !== null && document.querySelector(%q) === null",
		s.sel.NextButton, s.sel.NextDisabled,
	)
	var has bool
	if err := s.run(ctx, chromedp.Evaluate(script, &has)); err != nil {
		logger.ForBrowser().Debug().Err(err).Msg("next-page probe failed")
		return false
	}
	return has
}

func (s *chromeSession) AdvancePage(ctx context.Context) error {
	if err := s.run(ctx, chromedp.Click(s.sel.NextButton, chromedp.ByQuery)); err != nil {
		snap := s.capture("advance_page")
		return errors.NewNavigation("", "advance to next page", err).WithSnapshot(snap)
	}
	return nil
}

func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		for _, cancel := range s.cancels {
			cancel()
		}
	})
	return nil
}

// capture grabs the page HTML and a screenshot for postmortem inspection.
// Uses its own short deadline so a hung page cannot stall the failure path.
func (s *chromeSession) capture(stage string) string {
	if s.opts.SnapshotDir == "" {
		return ""
	}
	tctx, cancel := context.WithTimeout(s.ctx, s.opts.NavigationTimeout)
	defer cancel()

	var html string
	var shot []byte
	_ = chromedp.Run(tctx,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.CaptureScreenshot(&shot),
	)
	return writeSnapshot(s.opts.SnapshotDir, stage, []byte(html), shot)
}
