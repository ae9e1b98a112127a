// Package normalize converts raw extracted rows into canonical records.
// Normalization never fails the run: every row produces either a record or a
// tagged rejection the orchestrator can tally.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"bidwatcher/internal/listing"
)

// Vocabulary is the controlled set of pickup locations. Matching is exact
// but case-insensitive, and tolerates a trailing period (the site renders
// "West Seymour Ave" and "West Seymour Ave." interchangeably).
type Vocabulary struct {
	canon map[string]string
}

// NewVocabulary builds a vocabulary from the configured location names.
func NewVocabulary(entries []string) *Vocabulary {
	v := &Vocabulary{canon: make(map[string]string, len(entries))}
	for _, e := range entries {
		key := foldLocation(e)
		if key == "" {
			continue
		}
		if _, exists := v.canon[key]; !exists {
			v.canon[key] = strings.TrimSpace(e)
		}
	}
	return v
}

// Resolve maps raw location text onto its vocabulary entry.
func (v *Vocabulary) Resolve(raw string) (string, bool) {
	entry, ok := v.canon[foldLocation(raw)]
	return entry, ok
}

func foldLocation(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalizer turns RawRows into Records.
type Normalizer struct {
	locations *Vocabulary
	runStart  time.Time
	runID     string
	tz        *time.Location
}

// New creates a normalizer for one run. Relative end times ("2d 3h remaining")
// are resolved against runStart; absolute ones are parsed in tz.
func New(locations *Vocabulary, runStart time.Time, runID string, tz *time.Location) *Normalizer {
	if tz == nil {
		tz = time.Local
	}
	return &Normalizer{locations: locations, runStart: runStart, runID: runID, tz: tz}
}

// Normalize applies the rejection rules in order and returns either a record
// or the reason the row was dropped. The returned reason is empty on success.
func (n *Normalizer) Normalize(row listing.RawRow) (listing.Record, listing.RejectionReason) {
	title := strings.TrimSpace(row[listing.FieldTitle])
	detailURL := strings.TrimSpace(row[listing.FieldDetailURL])
	if title == "" || detailURL == "" {
		return listing.Record{}, listing.RejectMissingIdentity
	}

	bid, ok := ParsePrice(row[listing.FieldPrice])
	if !ok {
		return listing.Record{}, listing.RejectBadPrice
	}

	endTime, ok := n.ParseEndTime(row[listing.FieldEndTime])
	if !ok {
		return listing.Record{}, listing.RejectBadEndTime
	}

	location := listing.LocationUnknown
	if entry, matched := n.locations.Resolve(row[listing.FieldLocation]); matched {
		location = entry
	}

	rec := listing.Record{
		IdentityKey:  listing.IdentityKeyFor(detailURL),
		Title:        title,
		CurrentBid:   bid,
		EndTime:      endTime,
		Location:     location,
		Condition:    strings.TrimSpace(row[listing.FieldCondition]),
		DetailURL:    detailURL,
		ImageURL:     strings.TrimSpace(row[listing.FieldImageURL]),
		FirstSeenRun: n.runID,
		LastSeenRun:  n.runID,
		ObservedAt:   time.Now(),
	}
	if term := strings.TrimSpace(row[listing.FieldSearchTerm]); term != "" {
		rec.AddTerm(term)
	}
	return rec, ""
}

var priceCleaner = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")

// ParsePrice coerces rendered bid text to a non-negative amount. An
// unparsable price is a rejection, never a silent zero.
func ParsePrice(raw string) (float64, bool) {
	cleaned := priceCleaner.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || val < 0 {
		return 0, false
	}
	return val, true
}

var (
	relativeRe = regexp.MustCompile(`(?i)^(?:ends\s+in\s+)?(?:(\d+)\s*d)?\s*(?:(\d+)\s*h)?\s*(?:(\d+)\s*m)?\s*(?:remaining|left)$`)
	weekdayRe  = regexp.MustCompile(`(?i)^(?:ends\s+)?(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\s+(\d{1,2}):(\d{2})\s*(AM|PM)$`)
)

// absoluteLayouts are the date renderings observed on the source site.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"01/02/2006 3:04 PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2 3:04 PM",
}

// ParseEndTime parses the rendered end time against the known site formats:
// a relative "Xd Yh remaining" form resolved against run start, an
// "Ends <weekday> <clock>" form resolved to the next such weekday, and a
// small set of absolute layouts.
func (n *Normalizer) ParseEndTime(raw string) (time.Time, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return time.Time{}, false
	}

	if m := relativeRe.FindStringSubmatch(text); m != nil && (m[1] != "" || m[2] != "" || m[3] != "") {
		days, _ := strconv.Atoi(zeroIfEmpty(m[1]))
		hours, _ := strconv.Atoi(zeroIfEmpty(m[2]))
		mins, _ := strconv.Atoi(zeroIfEmpty(m[3]))
		d := time.Duration(days)*24*time.Hour + time.Duration(hours)*time.Hour + time.Duration(mins)*time.Minute
		return n.runStart.Add(d), true
	}

	if m := weekdayRe.FindStringSubmatch(text); m != nil {
		return n.resolveWeekday(m[1], m[2], m[3], m[4]), true
	}

	for _, layout := range absoluteLayouts {
		t, err := time.ParseInLocation(layout, text, n.tz)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			// Year-less layout: pin to the run's year. A result far in the
			// past means the listing crossed a year boundary.
			t = t.AddDate(n.runStart.Year(), 0, 0)
			if t.Before(n.runStart.AddDate(0, -6, 0)) {
				t = t.AddDate(1, 0, 0)
			}
		}
		return t, true
	}

	return time.Time{}, false
}

func (n *Normalizer) resolveWeekday(day, hourStr, minStr, meridiem string) time.Time {
	weekdays := map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}
	target := weekdays[strings.ToLower(day)]

	hour, _ := strconv.Atoi(hourStr)
	min, _ := strconv.Atoi(minStr)
	if strings.EqualFold(meridiem, "PM") && hour != 12 {
		hour += 12
	}
	if strings.EqualFold(meridiem, "AM") && hour == 12 {
		hour = 0
	}

	start := n.runStart.In(n.tz)
	ahead := (int(target) - int(start.Weekday()) + 7) % 7
	candidate := time.Date(start.Year(), start.Month(), start.Day(), hour, min, 0, 0, n.tz).AddDate(0, 0, ahead)
	if !candidate.After(n.runStart) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
