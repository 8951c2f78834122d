package dispatch

import "errors"

// Failure taxonomy for the dispatch core. Handlers match these with
// errors.Is and translate them to HTTP status codes; the core never
// swallows any of them.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrForbidden         = errors.New("forbidden")
	ErrQueueEmpty        = errors.New("queue empty")
	ErrNothingToComplete = errors.New("nothing to complete")
)
