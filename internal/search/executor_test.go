package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"bidwatcher/internal/browser"
	"bidwatcher/internal/listing"
	"bidwatcher/pkg/errors"
)

// fakeSession implements browser.Session over canned pages.
type fakeSession struct {
	pages [][]listing.RawRow
	page  int // 1-based, set by Navigate

	failNavigate bool
	failReadyOn  int  // page on which WaitReady times out; 0 = never
	noResults    bool // empty-state page: WaitReady reports no rows

	navigated []string
	closed    bool
}

var _ browser.Session = (*fakeSession)(nil)

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	if f.failNavigate {
		return errors.NewNavigation("", "navigate "+url, nil)
	}
	f.navigated = append(f.navigated, url)
	f.page = 1
	return nil
}

func (f *fakeSession) WaitReady(_ context.Context, _ browser.ReadySignal) error {
	if f.noResults {
		return browser.ErrNoResults
	}
	if f.failReadyOn != 0 && f.page == f.failReadyOn {
		return errors.NewReadyTimeout("", "results table never appeared", nil)
	}
	return nil
}

func (f *fakeSession) ExtractRows(_ context.Context) ([]listing.RawRow, error) {
	return f.pages[f.page-1], nil
}

func (f *fakeSession) HasNextPage(_ context.Context) bool {
	return f.page < len(f.pages)
}

func (f *fakeSession) AdvancePage(_ context.Context) error {
	f.page++
	return nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func row(title string) listing.RawRow {
	return listing.RawRow{listing.FieldTitle: title}
}

func pages(rowsPerPage ...int) [][]listing.RawRow {
	var out [][]listing.RawRow
	for p, n := range rowsPerPage {
		var page []listing.RawRow
		for i := 0; i < n; i++ {
			page = append(page, row("item"))
		}
		_ = p
		out = append(out, page)
	}
	return out
}

func testLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

var testReady = browser.ReadySignal{Selector: "table tbody tr"}

func TestRunPaginatesToExhaustion(t *testing.T) {
	session := &fakeSession{pages: pages(3, 2, 1)}
	exec := NewExecutor(session, testReady, 10, testLimiter())

	rows, err := exec.Run(context.Background(), "Cat", "https://example.com/search")
	assert.NoError(t, err)
	assert.Len(t, rows, 6)
	for _, r := range rows {
		assert.Equal(t, "Cat", r[listing.FieldSearchTerm], "each row is tagged with its term")
	}
}

func TestRunHonorsPageCap(t *testing.T) {
	session := &fakeSession{pages: pages(2, 2, 2, 2, 2)}
	exec := NewExecutor(session, testReady, 2, testLimiter())

	rows, err := exec.Run(context.Background(), "Cat", "https://example.com/search")
	assert.NoError(t, err)
	assert.Len(t, rows, 4, "pagination stops at the cap")
}

func TestRunKeepsPartialResultsOnReadyTimeout(t *testing.T) {
	// Timeout on page 3 of 5: pages 1-2 are kept, the error propagates.
	session := &fakeSession{pages: pages(2, 3, 2, 2, 2), failReadyOn: 3}
	exec := NewExecutor(session, testReady, 10, testLimiter())

	rows, err := exec.Run(context.Background(), "Cat", "https://example.com/search")
	assert.Error(t, err)
	assert.Equal(t, errors.ErrorTypeReadyTimeout, errors.TypeOf(err))
	assert.Len(t, rows, 5)
}

func TestRunZeroResultsIsNotAFailure(t *testing.T) {
	session := &fakeSession{pages: pages(0), noResults: true}
	exec := NewExecutor(session, testReady, 10, testLimiter())

	rows, err := exec.Run(context.Background(), "Cat", "https://example.com/search")
	assert.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRunNavigationFailureYieldsNothing(t *testing.T) {
	session := &fakeSession{pages: pages(2), failNavigate: true}
	exec := NewExecutor(session, testReady, 10, testLimiter())

	rows, err := exec.Run(context.Background(), "Cat", "https://example.com/search")
	assert.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNavigation, errors.TypeOf(err))
	assert.Empty(t, rows)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := &fakeSession{pages: pages(2)}
	exec := NewExecutor(session, testReady, 10, testLimiter())

	_, err := exec.Run(ctx, "Cat", "https://example.com/search")
	assert.Error(t, err)
}
