package outbound

import (
	"fmt"

	"github.com/courierhq/courier/internal/provider"
)

// ResolveParams identifies a destination to canonicalize.
type ResolveParams struct {
	// Channel is the raw provider identifier (alias forms accepted).
	Channel string
	To      string

	// AllowFrom overrides the account's configured allow-list when set.
	AllowFrom []string
	AccountID string
	Mode      provider.TargetMode
}

// ResolveTarget turns a raw destination into the provider's canonical address.
// Fallback policy follows the mode: explicit destinations that are present but
// invalid are errors; implicit and heartbeat sends may substitute the first
// non-wildcard allow-list entry. Error text names the provider and its
// expected syntax and is shown to users verbatim.
func ResolveTarget(reg *provider.Registry, p ResolveParams) (string, error) {
	id, ok := reg.Resolve(p.Channel)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownChannel, p.Channel)
	}
	plugin, _ := reg.Get(id)
	meta := plugin.Meta()

	out := plugin.Outbound()
	if out == nil {
		if id == provider.WebChat {
			return "", fmt.Errorf("%w: %s targets cannot be resolved for outbound sends", ErrNotRoutable, meta.Label)
		}
		return "", fmt.Errorf("%w: %s", ErrNotConfigured, meta.Label)
	}

	accounts := plugin.Accounts()
	accountID := p.AccountID
	if accountID == "" {
		accountID = accounts.DefaultAccountID()
	}
	allowFrom := p.AllowFrom
	if allowFrom == nil {
		allowFrom = accounts.AllowFrom(accountID)
	}
	mode := p.Mode
	if mode == "" {
		mode = provider.TargetExplicit
	}

	return out.ResolveTarget(provider.TargetRequest{
		To:        p.To,
		AllowFrom: allowFrom,
		AccountID: accountID,
		Mode:      mode,
	})
}

// FallbackTarget returns the first non-wildcard allow-list entry, or "" when
// none exists. Plugins share this when implementing implicit-mode fallback.
func FallbackTarget(allowFrom []string) string {
	for _, entry := range allowFrom {
		if entry != "" && entry != "*" {
			return entry
		}
	}
	return ""
}
