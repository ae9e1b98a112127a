package browser

// Selectors contains the CSS selectors for the site's result markup. The
// selectors are the only markup-dependent part of the adapter: when the site
// changes, this is the one place to fix. Cell positions follow the results
// table layout: photo, description, amazon link, condition, location,
// ends-at, price.
type Selectors struct {
	// Results is the container whose visibility marks the page as rendered.
	Results string
	// Rows selects one result row each within the rendered document.
	Rows string

	// Per-row field selectors.
	Title     string // text, or the link's title attribute when present
	Link      string // href holds the listing detail URL
	Image     string // src holds the photo URL
	Condition string
	Location  string
	EndTime   string
	Price     string

	// NextButton is the pagination control; NextDisabled matches it once no
	// further page exists.
	NextButton   string
	NextDisabled string
}

// DefaultSelectors returns the selector set for the current site version.
func DefaultSelectors() Selectors {
	return Selectors{
		Results:      "table",
		Rows:         "table tbody tr",
		Title:        "td:nth-child(2) a",
		Link:         "td:nth-child(2) a",
		Image:        "td:nth-child(1) img",
		Condition:    "td:nth-child(4)",
		Location:     "td:nth-child(5)",
		EndTime:      "td:nth-child(6)",
		Price:        "td:nth-child(7)",
		NextButton:   "[aria-label=\"Next\"]",
		NextDisabled: "[aria-label=\"Next\"][disabled]",
	}
}
