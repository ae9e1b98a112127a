// Package filter decides, per record, acceptance for the current run's
// report. Rules are evaluated without short-circuiting so a rejection carries
// every failing rule, which makes "why did my listing disappear" debuggable
// from the run statistics alone.
package filter

import (
	"sort"
	"strings"
	"time"

	"bidwatcher/internal/listing"
)

// Config holds the filter rules for one run.
type Config struct {
	RunStart time.Time

	// Allowlist of locations; empty means no location filtering.
	Allowlist []string
	// Conditions restricts listings to these item conditions (matched
	// case-insensitively as substrings, the way the site renders them);
	// empty means no condition filtering.
	Conditions []string

	// Priority1 and Priority2 locations annotate records for report
	// emphasis; they never reject.
	Priority1 []string
	Priority2 []string

	// Reported maps previously reported identity keys to the bid they were
	// last reported at. A suppressed listing whose bid moved is re-accepted
	// as an update.
	Reported map[string]float64
}

// Engine applies the configured rules in fixed precedence.
type Engine struct {
	cfg        Config
	allowed    map[string]bool
	priority1  map[string]bool
	priority2  map[string]bool
	conditions []string
}

// NewEngine builds an engine from the run configuration.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		cfg:       cfg,
		allowed:   foldSet(cfg.Allowlist),
		priority1: foldSet(cfg.Priority1),
		priority2: foldSet(cfg.Priority2),
	}
	for _, c := range cfg.Conditions {
		if c = strings.TrimSpace(c); c != "" {
			e.conditions = append(e.conditions, strings.ToLower(c))
		}
	}
	return e
}

// Evaluate applies every rule to one record. It returns the record with its
// priority annotation set and the decision with all failing rules listed in
// precedence order.
func (e *Engine) Evaluate(rec listing.Record) (listing.Record, listing.FilterDecision) {
	var reasons []listing.RejectionReason

	if !rec.EndTime.After(e.cfg.RunStart) {
		reasons = append(reasons, listing.RejectExpired)
	}

	if len(e.allowed) > 0 && !e.allowed[fold(rec.Location)] {
		reasons = append(reasons, listing.RejectLocationExcluded)
	}

	if len(e.conditions) > 0 && !e.conditionAllowed(rec.Condition) {
		reasons = append(reasons, listing.RejectConditionExcluded)
	}

	if last, seen := e.cfg.Reported[rec.IdentityKey]; seen && last == rec.CurrentBid {
		reasons = append(reasons, listing.RejectAlreadyReported)
	}

	// Priority is an annotation, not a filter outcome.
	switch {
	case e.priority2[fold(rec.Location)]:
		rec.Priority = 2
	case e.priority1[fold(rec.Location)]:
		rec.Priority = 1
	default:
		rec.Priority = 0
	}

	return rec, listing.FilterDecision{Accepted: len(reasons) == 0, Reasons: reasons}
}

// Apply evaluates every record and splits the set. Every input ends up in
// exactly one of the two outputs, and the accepted side comes back in the
// deterministic report order.
func (e *Engine) Apply(recs []listing.Record) ([]listing.Record, map[string]listing.FilterDecision) {
	accepted := make([]listing.Record, 0, len(recs))
	rejected := make(map[string]listing.FilterDecision)

	for _, rec := range recs {
		annotated, decision := e.Evaluate(rec)
		if decision.Accepted {
			accepted = append(accepted, annotated)
		} else {
			rejected[rec.IdentityKey] = decision
		}
	}

	SortForReport(accepted)
	return accepted, rejected
}

// SortForReport orders accepted records: soonest-ending first, then higher
// priority, then first search term, with identity key as the final tiebreak
// so re-running on identical input yields identical ordering.
func SortForReport(recs []listing.Record) {
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.EndTime.Equal(b.EndTime) {
			return a.EndTime.Before(b.EndTime)
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.FirstTerm() != b.FirstTerm() {
			return a.FirstTerm() < b.FirstTerm()
		}
		return a.IdentityKey < b.IdentityKey
	})
}

func (e *Engine) conditionAllowed(condition string) bool {
	folded := strings.ToLower(condition)
	for _, want := range e.conditions {
		if strings.Contains(folded, want) {
			return true
		}
	}
	return false
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func foldSet(entries []string) map[string]bool {
	set := make(map[string]bool, len(entries))
	for _, e := range entries {
		if key := fold(e); key != "" {
			set[key] = true
		}
	}
	return set
}
