package config

import "errors"

var (
	// ErrInvalidConfig is returned when a configuration fails validation.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrParsingConfig is returned when environment variables or a machine
	// file cannot be decoded.
	ErrParsingConfig = errors.New("failed to parse config")
)
