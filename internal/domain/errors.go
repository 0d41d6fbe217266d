package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every specific error below wraps exactly one of these so callers
// can branch on the class with errors.Is.
var (
	// ErrValidation marks malformed requests; the caller must fix the input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks unknown identifiers.
	ErrNotFound = errors.New("not found")
	// ErrState marks operations that are invalid for the session's current status.
	ErrState = errors.New("invalid session state")
	// ErrResourceExhausted marks requests the engine cannot satisfy with the available content.
	ErrResourceExhausted = errors.New("resource exhausted")
)

var (
	// ErrInvalidPhase is returned for phase numbers outside 1..50.
	ErrInvalidPhase = fmt.Errorf("%w: phase number out of range", ErrValidation)
	// ErrUnsupportedLocale is returned for locales outside the supported set.
	ErrUnsupportedLocale = fmt.Errorf("%w: unsupported locale", ErrValidation)
	// ErrInvalidOption is returned when a submitted option is not one of A-D.
	ErrInvalidOption = fmt.Errorf("%w: invalid answer option", ErrValidation)
	// ErrInvalidTime is returned when time used is negative or exceeds the question limit.
	ErrInvalidTime = fmt.Errorf("%w: time used out of range", ErrValidation)

	// ErrSessionNotFound is returned when a session id is unknown or already evicted.
	ErrSessionNotFound = fmt.Errorf("%w: session not found", ErrNotFound)

	// ErrSessionNotActive is returned when an operation requires an active session.
	ErrSessionNotActive = fmt.Errorf("%w: session not active", ErrState)
	// ErrSessionNotPaused is returned when resuming a session that is not paused.
	ErrSessionNotPaused = fmt.Errorf("%w: session not paused", ErrState)
	// ErrSessionExpired is returned to the first caller that observes an expired session.
	ErrSessionExpired = fmt.Errorf("%w: session expired", ErrState)
	// ErrNoMoreQuestions is returned when every question of the session has been answered.
	ErrNoMoreQuestions = fmt.Errorf("%w: no more questions", ErrState)

	// ErrInsufficientQuestionPool is returned when the selector cannot fill a phase.
	ErrInsufficientQuestionPool = fmt.Errorf("%w: insufficient question pool", ErrResourceExhausted)
)
