package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineErrorWrapping(t *testing.T) {
	cause := fmt.Errorf("context deadline exceeded")
	err := NewReadyTimeout("Cat", "results table never appeared", cause).
		WithSnapshot("/tmp/snapshots/cat_page3.html")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypeReadyTimeout, TypeOf(err))
	assert.Equal(t, "ReadyTimeoutError", Reason(err))
	assert.Equal(t, "/tmp/snapshots/cat_page3.html", SnapshotOf(err))

	// Wrapped further, the type still resolves.
	wrapped := fmt.Errorf("term aborted: %w", err)
	assert.Equal(t, ErrorTypeReadyTimeout, TypeOf(wrapped))
	assert.Equal(t, "/tmp/snapshots/cat_page3.html", SnapshotOf(wrapped))
}

func TestUntypedError(t *testing.T) {
	err := fmt.Errorf("plain")
	assert.Equal(t, ErrorType(""), TypeOf(err))
	assert.Equal(t, "Error", Reason(err))
	assert.Equal(t, "", SnapshotOf(err))
}

func TestReasonForDeadlineExceeded(t *testing.T) {
	// A term cut off by the run deadline, not by the site.
	assert.Equal(t, "RunBudgetExceeded", Reason(context.DeadlineExceeded))
	assert.Equal(t, "RunBudgetExceeded",
		Reason(fmt.Errorf("term aborted: %w", context.DeadlineExceeded)))

	// A typed failure that merely wraps a deadline keeps its stage tag.
	err := NewReadyTimeout("Cat", "results table never appeared", context.DeadlineExceeded)
	assert.Equal(t, "ReadyTimeoutError", Reason(err))
}
