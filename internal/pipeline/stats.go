package pipeline

import (
	"time"

	"bidwatcher/internal/listing"
	"bidwatcher/pkg/errors"
)

// Skip reasons recorded for terms the run never attempted.
const (
	SkipReasonTimeout = "SkippedDueToTimeout"
	SkipReasonBlocked = "Blocked"
)

// TermFailure names a search term the run could not fully process, why, and
// the diagnostic snapshot captured at failure time if one exists.
type TermFailure struct {
	Term     string `json:"term"`
	Reason   string `json:"reason"`
	Snapshot string `json:"snapshot,omitempty"`
}

// RunStats summarizes one pipeline run. The report renderer shows these so a
// partially failed run is never presented as a complete one.
type RunStats struct {
	RunID          string                          `json:"run_id"`
	StartedAt      time.Time                       `json:"started_at"`
	TermsAttempted int                             `json:"terms_attempted"`
	TermsFailed    []TermFailure                   `json:"terms_failed,omitempty"`
	TermsSkipped   []TermFailure                   `json:"terms_skipped,omitempty"`
	TotalRawRows   int                             `json:"total_raw_rows"`
	RejectedCounts map[listing.RejectionReason]int `json:"rejected_counts,omitempty"`
	AcceptedCount  int                             `json:"accepted_count"`
	Duration       time.Duration                   `json:"duration"`
}

func newRunStats(runID string, start time.Time) RunStats {
	return RunStats{
		RunID:          runID,
		StartedAt:      start,
		RejectedCounts: make(map[listing.RejectionReason]int),
	}
}

func (s *RunStats) recordRejection(reason listing.RejectionReason) {
	s.RejectedCounts[reason]++
}

func (s *RunStats) recordFailure(term string, err error) {
	s.TermsFailed = append(s.TermsFailed, TermFailure{
		Term:     term,
		Reason:   errors.Reason(err),
		Snapshot: errors.SnapshotOf(err),
	})
}

func (s *RunStats) recordSkip(term, reason string) {
	s.TermsSkipped = append(s.TermsSkipped, TermFailure{Term: term, Reason: reason})
}
