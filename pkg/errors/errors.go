package errors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeSession represents a failure to launch or keep a browser session
	ErrorTypeSession ErrorType = "session"
	// ErrorTypeNavigation represents a navigation timeout or failure
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeReadyTimeout represents a page that never reached its ready signal
	ErrorTypeReadyTimeout ErrorType = "ready_timeout"
	// ErrorTypeExtraction represents a failure to read rendered result rows
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeStore represents seen-store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError is the typed error carried across pipeline boundaries.
// Session, navigation and ready-timeout errors are fatal to a single search
// term but never to the run; only a failure to open any session at all is.
type PipelineError struct {
	Type     ErrorType
	Term     string
	Message  string
	Snapshot string // diagnostic artifact path captured at failure time, if any
	Err      error
	Time     time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Term, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Term, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// WithSnapshot attaches a diagnostic artifact path to the error.
func (e *PipelineError) WithSnapshot(path string) *PipelineError {
	e.Snapshot = path
	return e
}

// New creates a new PipelineError
func New(errType ErrorType, term, message string, err error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Term:    term,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewSession creates a new session error
func NewSession(term, message string, err error) *PipelineError {
	return New(ErrorTypeSession, term, message, err)
}

// NewNavigation creates a new navigation error
func NewNavigation(term, message string, err error) *PipelineError {
	return New(ErrorTypeNavigation, term, message, err)
}

// NewReadyTimeout creates a new ready-timeout error
func NewReadyTimeout(term, message string, err error) *PipelineError {
	return New(ErrorTypeReadyTimeout, term, message, err)
}

// NewExtraction creates a new extraction error
func NewExtraction(term, message string, err error) *PipelineError {
	return New(ErrorTypeExtraction, term, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(message string, err error) *PipelineError {
	return New(ErrorTypePublisher, "", message, err)
}

// NewStore creates a new seen-store error
func NewStore(message string, err error) *PipelineError {
	return New(ErrorTypeStore, "", message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf reports the error type, or an empty string for untyped errors.
func TypeOf(err error) ErrorType {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ""
}

// SnapshotOf returns the diagnostic artifact path attached to the error chain.
func SnapshotOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Snapshot
	}
	return ""
}

// Reason renders a short cause tag for run statistics. A term abandoned by
// the run deadline is tagged distinctly so the report shows it was the run
// budget, not the site, that cut it short.
func Reason(err error) string {
	switch TypeOf(err) {
	case ErrorTypeSession:
		return "SessionError"
	case ErrorTypeNavigation:
		return "NavigationError"
	case ErrorTypeReadyTimeout:
		return "ReadyTimeoutError"
	case ErrorTypeExtraction:
		return "ExtractionError"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "RunBudgetExceeded"
	}
	return "Error"
}
