package recording

import (
	"errors"
	"fmt"
)

// ErrNoFreeCard is returned when an entry conflicts with every card queue.
// The repository is left untouched; the caller decides how to surface it.
var ErrNoFreeCard = errors.New("no free card for requested interval")

// ErrNotFound is returned when an entry id is unknown to the repository.
var ErrNotFound = errors.New("recording not found")

// ValidationError reports a field that violates an entry constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
