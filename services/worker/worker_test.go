package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidwatcher/internal/listing"
	"bidwatcher/internal/pipeline"
	"bidwatcher/services/publisher"
	"bidwatcher/services/seen"
)

// MockRunner implements Runner for testing
type MockRunner struct {
	report   *pipeline.Report
	runErr   error
	runs     int
	reported map[string]float64
}

var _ Runner = (*MockRunner)(nil)

func (m *MockRunner) Run(_ context.Context, reported map[string]float64) (*pipeline.Report, error) {
	m.runs++
	m.reported = reported
	return m.report, m.runErr
}

// MockPublisher implements publisher.Publisher for testing
type MockPublisher struct {
	published map[string][][]byte
	pubErr    error
	trimmed   int
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{published: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(field string, message []byte) error {
	if m.pubErr != nil {
		return m.pubErr
	}
	m.published[field] = append(m.published[field], message)
	return nil
}

func (m *MockPublisher) Trim() error {
	m.trimmed++
	return nil
}

func (m *MockPublisher) Close() error { return nil }

func testReport() *pipeline.Report {
	return &pipeline.Report{
		Records: []listing.Record{
			{IdentityKey: "key-a", Title: "Cordless Drill", CurrentBid: 12.50},
			{IdentityKey: "key-b", Title: "Office Chair", CurrentBid: 3.00},
		},
		Stats: pipeline.RunStats{
			RunID:          "20260901T120000Z",
			StartedAt:      time.Now(),
			TermsAttempted: 2,
			TotalRawRows:   5,
			AcceptedCount:  2,
		},
	}
}

func TestWorkerPublishesReportAndStats(t *testing.T) {
	runner := &MockRunner{report: testReport()}
	pub := NewMockPublisher()
	store := seen.NewMemoryStore()

	w := NewWorker(runner, pub, store, nil, time.Hour, true, "")
	w.Start(context.Background())

	assert.Equal(t, 1, runner.runs)
	require.Len(t, pub.published[publisher.FieldListing], 2)
	require.Len(t, pub.published[publisher.FieldStats], 1)
	assert.Equal(t, 1, pub.trimmed)

	var rec listing.Record
	require.NoError(t, json.Unmarshal(pub.published[publisher.FieldListing][0], &rec))
	assert.Equal(t, "Cordless Drill", rec.Title)

	reported, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"key-a": 12.50, "key-b": 3.00}, reported)
}

func TestWorkerPassesSeenLedgerToRunner(t *testing.T) {
	runner := &MockRunner{report: testReport()}
	store := seen.NewMemoryStore()
	require.NoError(t, store.MarkReported(context.Background(),
		[]listing.Record{{IdentityKey: "old-key", CurrentBid: 7.00}}, "run0"))

	w := NewWorker(runner, NewMockPublisher(), store, nil, time.Hour, true, "")
	w.Start(context.Background())

	assert.Equal(t, map[string]float64{"old-key": 7.00}, runner.reported)
}

func TestWorkerPublishFailureSkipsMarkReported(t *testing.T) {
	runner := &MockRunner{report: testReport()}
	pub := NewMockPublisher()
	pub.pubErr = errors.New("redis unavailable")
	store := seen.NewMemoryStore()

	w := NewWorker(runner, pub, store, nil, time.Hour, true, "")
	w.Start(context.Background())

	// Nothing reached the stream, so nothing is marked reported and the
	// next run will retry every listing.
	reported, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reported)
}

func TestWorkerRunErrorDoesNotPanic(t *testing.T) {
	runner := &MockRunner{runErr: errors.New("browser would not launch")}
	pub := NewMockPublisher()

	w := NewWorker(runner, pub, seen.NewMemoryStore(), nil, time.Hour, true, "")
	w.Start(context.Background())

	assert.Equal(t, 1, runner.runs)
	assert.Empty(t, pub.published)
}

func TestWorkerWritesResultsFile(t *testing.T) {
	runner := &MockRunner{report: testReport()}
	dir := t.TempDir()

	w := NewWorker(runner, NewMockPublisher(), seen.NewMemoryStore(), nil, time.Hour, true, dir)
	w.Start(context.Background())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "results_20260901T120000Z")
}

func TestWorkerStopsOnCancelledContext(t *testing.T) {
	runner := &MockRunner{report: testReport()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWorker(runner, NewMockPublisher(), seen.NewMemoryStore(), nil, time.Hour, false, "")

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
	assert.Equal(t, 1, runner.runs)
}
