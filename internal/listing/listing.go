package listing

import (
	"crypto/sha1"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// RawRow is one extracted result row before normalization: field name to the
// raw text or attribute value pulled from the DOM. It is owned by the search
// executor and discarded once the normalizer has produced an outcome.
type RawRow map[string]string

// Field names used in a RawRow.
const (
	FieldTitle      = "title"
	FieldPrice      = "price"
	FieldEndTime    = "end_time"
	FieldLocation   = "location"
	FieldCondition  = "condition"
	FieldDetailURL  = "detail_url"
	FieldImageURL   = "image_url"
	FieldSearchTerm = "search_term"
)

// RejectionReason tags why a row or record was dropped. Reasons are data that
// flow through run statistics; they are never raised as errors.
type RejectionReason string

const (
	RejectMissingIdentity   RejectionReason = "MissingIdentity"
	RejectBadPrice          RejectionReason = "BadPrice"
	RejectBadEndTime        RejectionReason = "BadEndTime"
	RejectExpired           RejectionReason = "Expired"
	RejectLocationExcluded  RejectionReason = "LocationExcluded"
	RejectConditionExcluded RejectionReason = "ConditionExcluded"
	RejectAlreadyReported   RejectionReason = "AlreadyReported"
)

// LocationUnknown is the bucket for locations that did not match the
// controlled vocabulary. Unknown locations are reported, not silently dropped.
const LocationUnknown = "Unknown"

// Record is the canonical representation of one auction listing.
type Record struct {
	IdentityKey  string    `json:"identity_key"`
	Title        string    `json:"title"`
	CurrentBid   float64   `json:"current_bid"`
	EndTime      time.Time `json:"end_time"`
	Location     string    `json:"location"`
	Condition    string    `json:"condition,omitempty"`
	DetailURL    string    `json:"detail_url"`
	ImageURL     string    `json:"image_url,omitempty"`
	ImagePath    string    `json:"image_path,omitempty"`
	SearchTerms  []string  `json:"search_terms"`
	Priority     int       `json:"priority,omitempty"`
	FirstSeenRun string    `json:"first_seen_run"`
	LastSeenRun  string    `json:"last_seen_run"`

	// ObservedAt is when this sighting was extracted; the deduplicator uses
	// it to decide which sighting supersedes the other.
	ObservedAt time.Time `json:"-"`
}

// IdentityKeyFor derives the deduplication key from a listing's detail URL.
// The URL is the durable identity of a listing; title and price are mutable
// over its lifetime and are deliberately not part of the key. Query string
// and fragment carry session noise on the source site and are stripped.
func IdentityKeyFor(detailURL string) string {
	raw := strings.TrimSpace(detailURL)
	canon := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		u.Scheme = "https"
		u.Host = strings.ToLower(u.Host)
		u.RawQuery = ""
		u.Fragment = ""
		u.Path = strings.TrimRight(u.Path, "/")
		canon = u.String()
	}
	return fmt.Sprintf("%x", sha1.Sum([]byte(canon)))
}

// AddTerm records that a search term surfaced this listing. Terms are kept
// sorted and unique so record comparison stays order independent.
func (r *Record) AddTerm(term string) {
	for _, t := range r.SearchTerms {
		if t == term {
			return
		}
	}
	r.SearchTerms = append(r.SearchTerms, term)
	sort.Strings(r.SearchTerms)
}

// FirstTerm returns the lexically first search term, used as an ordering key.
func (r *Record) FirstTerm() string {
	if len(r.SearchTerms) == 0 {
		return ""
	}
	return r.SearchTerms[0]
}

// FilterDecision is the per-record filter outcome for one run. Reasons lists
// every failing rule in precedence order; it is empty when accepted.
type FilterDecision struct {
	Accepted bool              `json:"accepted"`
	Reasons  []RejectionReason `json:"reasons,omitempty"`
}
