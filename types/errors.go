package types

import "errors"

// ErrValidation is wrapped by every input-shape rejection raised while
// constructing or transitioning domain types. It is surfaced synchronously
// to callers and never mutates state (spec's ValidationError kind).
var ErrValidation = errors.New("validation error")
