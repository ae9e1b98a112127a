package publisher

import (
	"bidwatcher/logger"
)

// LogPublisher writes report payloads to the structured log instead of a
// stream. It is the fallback when no Redis address is configured, so a
// laptop run still shows its output.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(field string, message []byte) error {
	logger.ForPublisher().Info().
		Str("field", field).
		RawJSON("payload", message).
		Msg("report payload")
	return nil
}

func (p *LogPublisher) Trim() error { return nil }

func (p *LogPublisher) Close() error { return nil }
