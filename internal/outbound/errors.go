package outbound

import "errors"

var (
	// ErrUnknownChannel indicates the channel identifier does not resolve
	// to any registered provider.
	ErrUnknownChannel = errors.New("outbound: unknown channel")

	// ErrNotRoutable indicates an internal-only channel that cannot be
	// reached through generic outbound routing.
	ErrNotRoutable = errors.New("outbound: channel not routable")

	// ErrNotConfigured indicates the provider plugin lacks outbound send
	// operations. This is a deployment defect, not a per-payload failure.
	ErrNotConfigured = errors.New("outbound: provider not configured for sending")
)
