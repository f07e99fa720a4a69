package fsmx

import "errors"

var (
	// ErrNotFound is returned when a state key is not in the registry.
	ErrNotFound = errors.New("state not found")

	// ErrNotInitialized is returned by operations that need an active state
	// when Initialize has not succeeded yet.
	ErrNotInitialized = errors.New("machine not initialized")

	// ErrAlreadyInitialized is returned by a second Initialize, or by
	// AttachOwner after Initialize.
	ErrAlreadyInitialized = errors.New("machine already initialized")

	// ErrInvalidOwner is returned for a nil owner, or when Initialize runs
	// without one.
	ErrInvalidOwner = errors.New("invalid owner")

	// ErrNilState is returned when discovery yields a nil state.
	ErrNilState = errors.New("nil state")

	// ErrInvalidDelta is returned by Tick and FixedTick for negative durations.
	ErrInvalidDelta = errors.New("negative delta time")
)
