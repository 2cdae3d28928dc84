package generation

import "errors"

// Common errors returned by generator implementations
var (
	// ErrInvalidConfig is returned when the provider configuration is
	// incomplete or invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrProviderUnavailable is returned when the provider endpoint
	// cannot be reached at all.
	ErrProviderUnavailable = errors.New("generation provider unavailable")
)
