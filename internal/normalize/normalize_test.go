package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bidwatcher/internal/listing"
)

var testLocations = []string{
	"Cincinnati - West Seymour Ave",
	"Springdale - Commons Drive",
	"Cincinnati - School Road",
}

func testNormalizer(runStart time.Time) *Normalizer {
	return New(NewVocabulary(testLocations), runStart, "run_1", time.UTC)
}

func TestNormalizeValidRow(t *testing.T) {
	runStart := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	n := testNormalizer(runStart)

	rec, reject := n.Normalize(listing.RawRow{
		listing.FieldTitle:      "Cat Litter Box",
		listing.FieldPrice:      "$12.50",
		listing.FieldEndTime:    "2d 3h remaining",
		listing.FieldLocation:   "Cincinnati - West Seymour Ave",
		listing.FieldCondition:  "Brand New",
		listing.FieldDetailURL:  "https://www.bidft.auction/itemDetails/123456",
		listing.FieldSearchTerm: "Cat",
	})

	assert.Empty(t, reject)
	assert.Equal(t, "Cat Litter Box", rec.Title)
	assert.Equal(t, 12.50, rec.CurrentBid)
	assert.Equal(t, runStart.Add(51*time.Hour), rec.EndTime)
	assert.Equal(t, "Cincinnati - West Seymour Ave", rec.Location)
	assert.Equal(t, []string{"Cat"}, rec.SearchTerms)
	assert.Equal(t, "run_1", rec.FirstSeenRun)
	assert.NotEmpty(t, rec.IdentityKey)
}

func TestNormalizeMissingIdentity(t *testing.T) {
	n := testNormalizer(time.Now())

	_, reject := n.Normalize(listing.RawRow{
		listing.FieldTitle: "   ",
		listing.FieldPrice: "$5.00",
	})
	assert.Equal(t, listing.RejectMissingIdentity, reject)

	_, reject = n.Normalize(listing.RawRow{
		listing.FieldTitle:     "No URL Item",
		listing.FieldPrice:     "$5.00",
		listing.FieldDetailURL: "",
	})
	assert.Equal(t, listing.RejectMissingIdentity, reject)
}

func TestNormalizeBadPrice(t *testing.T) {
	n := testNormalizer(time.Now())

	_, reject := n.Normalize(listing.RawRow{
		listing.FieldTitle:     "Mystery Box",
		listing.FieldDetailURL: "https://www.bidft.auction/itemDetails/42",
		listing.FieldPrice:     "N/A",
		listing.FieldEndTime:   "1d remaining",
	})
	assert.Equal(t, listing.RejectBadPrice, reject)
}

func TestNormalizeBadEndTime(t *testing.T) {
	n := testNormalizer(time.Now())

	_, reject := n.Normalize(listing.RawRow{
		listing.FieldTitle:     "Mystery Box",
		listing.FieldDetailURL: "https://www.bidft.auction/itemDetails/42",
		listing.FieldPrice:     "$3.00",
		listing.FieldEndTime:   "whenever",
	})
	assert.Equal(t, listing.RejectBadEndTime, reject)
}

func TestNormalizeUnknownLocationKept(t *testing.T) {
	n := testNormalizer(time.Now())

	rec, reject := n.Normalize(listing.RawRow{
		listing.FieldTitle:     "Area Rug 8x10",
		listing.FieldDetailURL: "https://www.bidft.auction/itemDetails/77",
		listing.FieldPrice:     "$20",
		listing.FieldEndTime:   "5h remaining",
		listing.FieldLocation:  "Dayton - Somewhere Else",
	})
	assert.Empty(t, reject)
	assert.Equal(t, listing.LocationUnknown, rec.Location)
}

func TestVocabularyCaseAndTrailingDot(t *testing.T) {
	v := NewVocabulary(testLocations)

	entry, ok := v.Resolve("cincinnati - west seymour ave.")
	assert.True(t, ok)
	assert.Equal(t, "Cincinnati - West Seymour Ave", entry)

	_, ok = v.Resolve("Columbus - Main St")
	assert.False(t, ok)
}

func TestParsePrice(t *testing.T) {
	cases := map[string]struct {
		want float64
		ok   bool
	}{
		"$12.50":    {12.50, true},
		"$1,250.00": {1250, true},
		"15":        {15, true},
		"$0":        {0, true},
		"N/A":       {0, false},
		"":          {0, false},
		"-$5":       {0, false},
	}
	for raw, tc := range cases {
		got, ok := ParsePrice(raw)
		assert.Equal(t, tc.ok, ok, "input %q", raw)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %q", raw)
		}
	}
}

func TestParseEndTimeForms(t *testing.T) {
	runStart := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) // a Monday
	n := testNormalizer(runStart)

	got, ok := n.ParseEndTime("2d 3h remaining")
	assert.True(t, ok)
	assert.Equal(t, runStart.Add(51*time.Hour), got)

	got, ok = n.ParseEndTime("45m left")
	assert.True(t, ok)
	assert.Equal(t, runStart.Add(45*time.Minute), got)

	got, ok = n.ParseEndTime("Ends Sunday 8:00 PM")
	assert.True(t, ok)
	assert.Equal(t, time.Weekday(time.Sunday), got.Weekday())
	assert.Equal(t, 20, got.Hour())
	assert.True(t, got.After(runStart))

	got, ok = n.ParseEndTime("03/08/2026 6:30 PM")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 8, 18, 30, 0, 0, time.UTC), got)

	_, ok = n.ParseEndTime("soon")
	assert.False(t, ok)

	_, ok = n.ParseEndTime("remaining")
	assert.False(t, ok, "relative form needs at least one component")
}

func TestParseEndTimeWeekdaySameDay(t *testing.T) {
	// Run starts Sunday 6 PM; "Ends Sunday 8:00 PM" is still today.
	runStart := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	n := testNormalizer(runStart)

	got, ok := n.ParseEndTime("Ends Sunday 8:00 PM")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC), got)

	// Sunday 9 PM start rolls to next week's Sunday.
	n = testNormalizer(time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC))
	got, ok = n.ParseEndTime("Ends Sunday 8:00 PM")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC), got)
}
