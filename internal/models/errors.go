package models

import "errors"

var (
	// ErrNotFound is returned when a story session does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrProviderUnavailable wraps transport/auth failures of a remote
	// generation provider. It is surfaced to the presentation layer instead
	// of crashing the process.
	ErrProviderUnavailable = errors.New("generation provider unavailable")

	// ErrStoryAlreadyStarted is returned by Start when the engine has left
	// the NotStarted state.
	ErrStoryAlreadyStarted = errors.New("story already started")

	// ErrStoryNotStarted is returned for operations that need at least one
	// generated scene.
	ErrStoryNotStarted = errors.New("story not started")

	// ErrUnknownProviderKind is returned by provider factories for a kind
	// string outside the recognized set.
	ErrUnknownProviderKind = errors.New("unknown provider kind")
)
