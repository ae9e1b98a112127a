// Package dedupe merges listing sightings into one record per identity key.
// The merge is commutative and idempotent, so the outcome does not depend on
// the order search terms were processed in.
package dedupe

import (
	"sort"

	"bidwatcher/internal/listing"
)

// Pool accumulates records across search terms within a run.
type Pool struct {
	records map[string]listing.Record
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{records: make(map[string]listing.Record)}
}

// Add inserts a sighting, merging it with any record already held under the
// same identity key.
func (p *Pool) Add(rec listing.Record) {
	if existing, ok := p.records[rec.IdentityKey]; ok {
		rec = Merge(existing, rec)
	}
	p.records[rec.IdentityKey] = rec
}

// Len reports the number of distinct listings in the pool.
func (p *Pool) Len() int {
	return len(p.records)
}

// Records returns the merged records ordered by identity key, so iteration is
// deterministic regardless of insertion order.
func (p *Pool) Records() []listing.Record {
	out := make([]listing.Record, 0, len(p.records))
	for _, rec := range p.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IdentityKey < out[j].IdentityKey })
	return out
}

// Merge combines two sightings of the same listing. The later observation is
// authoritative for mutable fields (a re-scrape supersedes an earlier one);
// search term associations are unioned, and the seen-run span widens to cover
// both sightings. Ties on observation time are broken by the higher bid
// (auction bids only move up), then lexically, keeping the merge commutative.
func Merge(a, b listing.Record) listing.Record {
	newer, older := a, b
	if laterSighting(b, a) {
		newer, older = b, a
	}

	out := newer
	if out.ImageURL == "" {
		out.ImageURL = older.ImageURL
	}
	if out.ImagePath == "" {
		out.ImagePath = older.ImagePath
	}
	if out.Condition == "" {
		out.Condition = older.Condition
	}
	if out.Location == listing.LocationUnknown && older.Location != "" {
		out.Location = older.Location
	}

	out.SearchTerms = append([]string(nil), newer.SearchTerms...)
	for _, term := range older.SearchTerms {
		out.AddTerm(term)
	}

	out.FirstSeenRun = minString(a.FirstSeenRun, b.FirstSeenRun)
	out.LastSeenRun = maxString(a.LastSeenRun, b.LastSeenRun)
	return out
}

// laterSighting reports whether a supersedes b.
func laterSighting(a, b listing.Record) bool {
	if !a.ObservedAt.Equal(b.ObservedAt) {
		return a.ObservedAt.After(b.ObservedAt)
	}
	if a.CurrentBid != b.CurrentBid {
		return a.CurrentBid > b.CurrentBid
	}
	return a.Title > b.Title
}

func minString(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" || a < b {
		return a
	}
	return b
}

func maxString(a, b string) string {
	if a > b {
		return a
	}
	return b
}
