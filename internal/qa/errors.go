package qa

import "errors"

var (
	// ErrInvalidInput indicates a missing question or document id.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoAnswer indicates the run finished but produced no assistant message.
	ErrNoAnswer = errors.New("no answer produced")
	// ErrTimeout indicates the provider did not finish within the poll budget.
	ErrTimeout = errors.New("provider operation timed out")
)

// RunFailedError carries the provider's failure detail for a run that
// reached a terminal non-completed status.
type RunFailedError struct {
	Status string
	Code   string
	Detail string
}

func (e *RunFailedError) Error() string {
	if e.Detail != "" {
		return "run " + e.Status + ": " + e.Detail
	}
	return "run " + e.Status
}
