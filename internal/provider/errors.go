package provider

import "errors"

// Sentinel errors for registry operations.
var (
	// ErrUnknownProvider indicates the identifier does not resolve to a
	// registered plugin.
	ErrUnknownProvider = errors.New("provider: unknown provider")

	// ErrDuplicatePlugin indicates two plugins claim the same ID or alias.
	ErrDuplicatePlugin = errors.New("provider: duplicate plugin")
)
