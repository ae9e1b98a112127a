package browser

import (
	"context"
	"errors"
	"time"

	"bidwatcher/internal/listing"
)

// ErrNoResults reports that the page finished loading without any result
// rows. A search term with zero matches this week is a normal outcome, not a
// failure; WaitReady returns this so callers can tell the two apart.
var ErrNoResults = errors.New("no result rows on page")

// ReadySignal describes how to detect that a results page finished rendering:
// an element that must become visible within the timeout.
type ReadySignal struct {
	Selector string
	Timeout  time.Duration
}

// Options configures a browser session.
type Options struct {
	BaseURL           string
	Headless          bool
	UserAgent         string
	WindowWidth       int
	WindowHeight      int
	NavigationTimeout time.Duration
	// SnapshotDir receives page snapshots captured on failures; empty
	// disables capture.
	SnapshotDir string
}

// Session is one exclusive browser session. All calls mutate shared browser
// state; no call is safe to make concurrently on the same session. On any
// failure the session captures a diagnostic snapshot before returning, and
// the snapshot path travels on the returned error.
type Session interface {
	// Navigate loads the given URL.
	Navigate(ctx context.Context, url string) error

	// WaitReady blocks until the ready signal appears or its timeout
	// elapses. Returns ErrNoResults when the page rendered but holds no
	// result rows.
	WaitReady(ctx context.Context, sig ReadySignal) error

	// ExtractRows reads the currently rendered result rows.
	ExtractRows(ctx context.Context) ([]listing.RawRow, error)

	// HasNextPage reports whether a further results page is reachable.
	HasNextPage(ctx context.Context) bool

	// AdvancePage moves the session to the next results page.
	AdvancePage(ctx context.Context) error

	// Close releases the underlying browser. Safe to call more than once.
	Close() error
}

// Driver opens browser sessions.
type Driver interface {
	OpenSession(ctx context.Context) (Session, error)
}

// DefaultUserAgent is sent when Options.UserAgent is empty.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
