package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"bidwatcher/pkg/errors"
)

// Watchlist is the user-facing half of the configuration: what to search for
// and which pickup locations matter. It lives in a YAML file so it can be
// edited without touching the environment.
type Watchlist struct {
	SearchTerms []string `yaml:"search_terms"`

	Locations struct {
		// Allow is the location allowlist; empty means no location filtering.
		Allow []string `yaml:"allow"`
		// Priority1 and Priority2 are highlighted in the report (one and two
		// stars). They must be subsets of Allow when Allow is non-empty.
		Priority1 []string `yaml:"priority_1"`
		Priority2 []string `yaml:"priority_2"`
	} `yaml:"locations"`

	// Conditions restricts listings to these item conditions; empty means
	// no condition filtering.
	Conditions []string `yaml:"conditions"`
}

// LoadWatchlist reads and validates the watchlist file.
func LoadWatchlist(path string) (Watchlist, error) {
	var wl Watchlist
	b, err := os.ReadFile(path)
	if err != nil {
		return wl, errors.NewConfiguration("read watchlist", err)
	}
	if err := yaml.Unmarshal(b, &wl); err != nil {
		return wl, errors.NewConfiguration("parse watchlist", err)
	}
	if err := wl.Validate(); err != nil {
		return wl, err
	}
	return wl, nil
}

// Validate checks the watchlist for contradictions.
func (w *Watchlist) Validate() error {
	if len(w.SearchTerms) == 0 {
		return errors.NewConfiguration("watchlist has no search terms", nil)
	}
	for _, t := range w.SearchTerms {
		if strings.TrimSpace(t) == "" {
			return errors.NewConfiguration("watchlist contains an empty search term", nil)
		}
	}
	if len(w.Locations.Allow) > 0 {
		allowed := make(map[string]bool, len(w.Locations.Allow))
		for _, loc := range w.Locations.Allow {
			allowed[strings.ToLower(strings.TrimSpace(loc))] = true
		}
		for _, loc := range append(append([]string{}, w.Locations.Priority1...), w.Locations.Priority2...) {
			if !allowed[strings.ToLower(strings.TrimSpace(loc))] {
				return errors.NewConfiguration("priority location not in allowlist: "+loc, nil)
			}
		}
	}
	return nil
}
