package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bidwatcher/internal/listing"
)

var runStart = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func record(key string, term string, endsIn time.Duration) listing.Record {
	rec := listing.Record{
		IdentityKey: key,
		Title:       "Item " + key,
		CurrentBid:  10.00,
		EndTime:     runStart.Add(endsIn),
		Location:    "Cincinnati - West Seymour Ave",
		Condition:   "Brand New",
	}
	rec.AddTerm(term)
	return rec
}

func TestExpiredRejected(t *testing.T) {
	e := NewEngine(Config{RunStart: runStart})

	// One hour in the past: rejected regardless of other fields.
	_, decision := e.Evaluate(record("a", "Cat", -time.Hour))
	assert.False(t, decision.Accepted)
	assert.Contains(t, decision.Reasons, listing.RejectExpired)

	// Ending exactly at run start counts as expired.
	_, decision = e.Evaluate(record("b", "Cat", 0))
	assert.False(t, decision.Accepted)
}

func TestLocationAllowlist(t *testing.T) {
	e := NewEngine(Config{
		RunStart:  runStart,
		Allowlist: []string{"Springdale - Commons Drive"},
	})

	_, decision := e.Evaluate(record("a", "Cat", time.Hour))
	assert.False(t, decision.Accepted)
	assert.Equal(t, []listing.RejectionReason{listing.RejectLocationExcluded}, decision.Reasons)

	// Empty allowlist means no location filtering.
	e = NewEngine(Config{RunStart: runStart})
	_, decision = e.Evaluate(record("a", "Cat", time.Hour))
	assert.True(t, decision.Accepted)
	assert.Empty(t, decision.Reasons)
}

func TestConditionFilter(t *testing.T) {
	e := NewEngine(Config{
		RunStart:   runStart,
		Conditions: []string{"Brand New", "Appears New"},
	})

	rec := record("a", "Cat", time.Hour)
	_, decision := e.Evaluate(rec)
	assert.True(t, decision.Accepted)

	rec.Condition = "As Is"
	_, decision = e.Evaluate(rec)
	assert.False(t, decision.Accepted)
	assert.Contains(t, decision.Reasons, listing.RejectConditionExcluded)
}

func TestAlreadyReportedSuppression(t *testing.T) {
	e := NewEngine(Config{
		RunStart: runStart,
		Reported: map[string]float64{"a": 10.00},
	})

	// Same price as last report: suppressed.
	_, decision := e.Evaluate(record("a", "Cat", time.Hour))
	assert.False(t, decision.Accepted)
	assert.Equal(t, []listing.RejectionReason{listing.RejectAlreadyReported}, decision.Reasons)

	// Price moved: re-accepted as an update.
	rec := record("a", "Cat", time.Hour)
	rec.CurrentBid = 15.00
	_, decision = e.Evaluate(rec)
	assert.True(t, decision.Accepted)
}

func TestAllFailingRulesListed(t *testing.T) {
	e := NewEngine(Config{
		RunStart:   runStart,
		Allowlist:  []string{"Springdale - Commons Drive"},
		Conditions: []string{"Brand New"},
		Reported:   map[string]float64{"a": 10.00},
	})

	rec := record("a", "Cat", -time.Hour)
	rec.Condition = "As Is"
	_, decision := e.Evaluate(rec)

	assert.Equal(t, []listing.RejectionReason{
		listing.RejectExpired,
		listing.RejectLocationExcluded,
		listing.RejectConditionExcluded,
		listing.RejectAlreadyReported,
	}, decision.Reasons)
}

func TestPriorityAnnotation(t *testing.T) {
	e := NewEngine(Config{
		RunStart:  runStart,
		Priority1: []string{"Springdale - Commons Drive"},
		Priority2: []string{"Cincinnati - West Seymour Ave"},
	})

	rec, decision := e.Evaluate(record("a", "Cat", time.Hour))
	assert.True(t, decision.Accepted)
	assert.Equal(t, 2, rec.Priority)

	other := record("b", "Cat", time.Hour)
	other.Location = "Springdale - Commons Drive"
	rec, _ = e.Evaluate(other)
	assert.Equal(t, 1, rec.Priority)

	plain := record("c", "Cat", time.Hour)
	plain.Location = "Cincinnati - School Road"
	rec, _ = e.Evaluate(plain)
	assert.Equal(t, 0, rec.Priority)
}

func TestApplyRejectionCompleteness(t *testing.T) {
	e := NewEngine(Config{
		RunStart:  runStart,
		Allowlist: []string{"Cincinnati - West Seymour Ave"},
	})

	input := []listing.Record{
		record("a", "Cat", time.Hour),
		record("b", "Cat", -time.Hour),
	}
	outsider := record("c", "Rug", time.Hour)
	outsider.Location = "Dayton - Elsewhere"
	input = append(input, outsider)

	accepted, rejected := e.Apply(input)
	assert.Equal(t, len(input), len(accepted)+len(rejected), "no record vanishes untracked")
	assert.Len(t, accepted, 1)
	assert.Contains(t, rejected, "b")
	assert.Contains(t, rejected, "c")
}

func TestReportOrderingDeterministic(t *testing.T) {
	e := NewEngine(Config{
		RunStart:  runStart,
		Priority2: []string{"Cincinnati - West Seymour Ave"},
	})

	soonLow := record("x", "Trash", time.Hour)
	soonLow.Location = "Cincinnati - School Road"
	soonHigh := record("y", "Cat", time.Hour)
	later := record("z", "Cat", 2*time.Hour)

	accepted1, _ := e.Apply([]listing.Record{later, soonLow, soonHigh})
	accepted2, _ := e.Apply([]listing.Record{soonHigh, later, soonLow})

	assert.Equal(t, accepted1, accepted2, "ordering is input-order independent")
	// Soonest-ending first; equal end times rank priority locations higher.
	assert.Equal(t, "y", accepted1[0].IdentityKey)
	assert.Equal(t, "x", accepted1[1].IdentityKey)
	assert.Equal(t, "z", accepted1[2].IdentityKey)
}
