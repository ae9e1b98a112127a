package publisher

// Publisher delivers run output to downstream consumers (notifier bots,
// dashboards). Listings and run stats go out on the same stream under
// different fields.
type Publisher interface {
	// Publish publishes a message to the report stream under field.
	Publish(field string, message []byte) error

	// Trim caps the stream at the configured maximum length.
	Trim() error

	// Close closes the publisher connection
	Close() error
}

// Stream fields consumers switch on.
const (
	FieldListing = "listing"
	FieldStats   = "run_stats"
)
