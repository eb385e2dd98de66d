// Package apperrors defines sentinel errors shared across layers.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound is the base lookup-miss sentinel. The domain variants wrap it,
// so errors.Is(err, ErrNotFound) matches any of them.
var ErrNotFound = errors.New("not found")

var (
	ErrCountryNotFound   = fmt.Errorf("country %w", ErrNotFound)
	ErrIndicatorNotFound = fmt.Errorf("indicator %w", ErrNotFound)
)
