package feed

import (
	"errors"
	"fmt"
)

// ErrUnreachable marks a source page whose content could not be
// retrieved by any fetch strategy.
var ErrUnreachable = errors.New("source page is unreachable")

// ParseError reports XML that could not be parsed into a channel.
type ParseError struct {
	Reason string
	err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse feed: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.err
}
