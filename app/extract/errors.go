package extract

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned before any network activity when the
// extraction endpoint has no API key configured.
var ErrMissingAPIKey = errors.New("extraction API key is not configured")

// ExtractionError reports a failed call to the extraction endpoint.
// StatusCode carries the upstream HTTP status when one was received,
// zero otherwise.
type ExtractionError struct {
	StatusCode int
	Message    string
	err        error
}

func (e *ExtractionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("extraction request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("extraction request failed: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.err
}

// DecodeError reports model output that no repair strategy could turn
// into valid JSON. Excerpt holds a bounded prefix of the raw text for
// diagnostics.
type DecodeError struct {
	Excerpt string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode extraction response: %s", e.Excerpt)
}
