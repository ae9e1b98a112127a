package search

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// searchSettings mirrors the site's encoded query payload. The archive page
// takes the whole search as one base64 JSON blob in the searchSettings query
// parameter.
type searchSettings struct {
	SearchTerm string   `json:"searchTerm"`
	Locations  []string `json:"locations,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
	Sort       string   `json:"sort"`
	NewerThan  string   `json:"newerThan,omitempty"`
	OlderThan  string   `json:"olderThan,omitempty"`
	Ended      bool     `json:"ended"`
}

// Window bounds the auction end dates a search covers, in the site's own
// timestamp rendering.
type Window struct {
	NewerThan string
	OlderThan string
}

// windowStampSuffix is the fixed time-of-day the site renders on window
// bounds: 04:00 UTC. Only the date varies, so it is appended literally
// rather than formatted.
const windowStampSuffix = "T04:00:00.000Z"

// WeekWindow computes the Sunday-to-Sunday window containing now. The end
// bound is the following Sunday so Saturday auctions are included.
func WeekWindow(now time.Time) Window {
	daysSinceSunday := int(now.Weekday())
	sunday := now.AddDate(0, 0, -daysSinceSunday)
	nextSunday := sunday.AddDate(0, 0, 7)
	return Window{
		NewerThan: sunday.Format(time.DateOnly) + windowStampSuffix,
		OlderThan: nextSunday.Format(time.DateOnly) + windowStampSuffix,
	}
}

// BuildURL assembles the search URL for one term. Locations and conditions
// narrow the search server-side; the filter engine re-checks them anyway, so
// a site that ignores the hint only costs extra rows, never wrong output.
func BuildURL(baseURL, term string, locations, conditions []string, window Window) string {
	settings := searchSettings{
		SearchTerm: term,
		Locations:  locations,
		Conditions: conditions,
		Sort:       "DATE_ASC",
		NewerThan:  window.NewerThan,
		OlderThan:  window.OlderThan,
		Ended:      false,
	}
	payload, _ := json.Marshal(settings)
	return baseURL + "/archive?searchSettings=" + base64.StdEncoding.EncodeToString(payload)
}
