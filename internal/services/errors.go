package services

import (
	"errors"
	"strings"
)

// ErrStorage is returned when the catalog could not be persisted.
var ErrStorage = errors.New("catalog storage failure")

// ValidationError reports a product submission that cannot be accepted.
type ValidationError struct {
	Missing []string // required fields that were blank
	Reason  string   // set for values that are present but unusable
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return "Name, category, price required (missing: " + strings.Join(e.Missing, ", ") + ")"
	}
	return e.Reason
}
