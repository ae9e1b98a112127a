package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteResults renders a run report as a plain text file under dir and
// returns its path. The file is the human-readable companion to the stream
// payloads: one block per accepted listing plus the run summary, so a partial
// run is visibly partial.
func WriteResults(dir string, report *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	var b strings.Builder
	stats := report.Stats
	fmt.Fprintf(&b, "Run %s started %s\n", stats.RunID, stats.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Terms attempted: %d, failed: %d, skipped: %d\n",
		stats.TermsAttempted, len(stats.TermsFailed), len(stats.TermsSkipped))
	fmt.Fprintf(&b, "Raw rows: %d, accepted: %d\n", stats.TotalRawRows, stats.AcceptedCount)
	for _, f := range stats.TermsFailed {
		fmt.Fprintf(&b, "FAILED %s: %s", f.Term, f.Reason)
		if f.Snapshot != "" {
			fmt.Fprintf(&b, " (snapshot: %s)", f.Snapshot)
		}
		b.WriteString("\n")
	}
	for _, s := range stats.TermsSkipped {
		fmt.Fprintf(&b, "SKIPPED %s: %s\n", s.Term, s.Reason)
	}
	b.WriteString(strings.Repeat("-", 60) + "\n")

	for _, rec := range report.Records {
		fmt.Fprintf(&b, "%s\n", rec.Title)
		fmt.Fprintf(&b, "  Current bid: $%.2f\n", rec.CurrentBid)
		fmt.Fprintf(&b, "  Ends: %s\n", rec.EndTime.Format(time.RFC3339))
		fmt.Fprintf(&b, "  Location: %s", rec.Location)
		if rec.Priority > 0 {
			fmt.Fprintf(&b, " (priority %d)", rec.Priority)
		}
		b.WriteString("\n")
		if rec.Condition != "" {
			fmt.Fprintf(&b, "  Condition: %s\n", rec.Condition)
		}
		fmt.Fprintf(&b, "  Terms: %s\n", strings.Join(rec.SearchTerms, ", "))
		fmt.Fprintf(&b, "  URL: %s\n", rec.DetailURL)
		b.WriteString("\n")
	}

	path := filepath.Join(dir, fmt.Sprintf("results_%s.txt", stats.RunID))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write results file: %w", err)
	}
	return path, nil
}
