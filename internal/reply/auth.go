package reply

import (
	"slices"
	"strings"

	"github.com/courierhq/courier/internal/provider"
)

// MsgContext carries the identity fields of one inbound message that matter
// for command authorization. Fields mirror what providers attach to events;
// most are optional.
type MsgContext struct {
	// Provider, Surface, and OriginatingChannel are explicit channel hints
	// in decreasing precedence.
	Provider           string
	Surface            string
	OriginatingChannel string

	// From and To may be compound addresses ("whatsapp:+1555").
	From string
	To   string

	SenderID   string
	SenderE164 string
	AccountID  string
}

// CommandAuthorization is the resolved decision for one inbound message.
// Computed fresh per message; allow-lists can change between messages.
type CommandAuthorization struct {
	Provider provider.ID

	// Owners is the normalized allow-list used for the identity check,
	// wildcard excluded.
	Owners []string

	// SenderID is the sender's normalized address.
	SenderID string

	// IsAuthorizedSender is true only when the upstream command gate AND
	// the owner identity check both pass.
	IsAuthorizedSender bool

	From string
	To   string
}

// ResolveCommandAuthorization decides whether the sender of one inbound
// message may issue administrative commands. commandAuthorized is the
// upstream syntactic gate; the final decision is the AND of both stages.
func ResolveCommandAuthorization(reg *provider.Registry, ctx MsgContext, commandAuthorized bool) CommandAuthorization {
	id, plugin := inferProvider(reg, ctx)
	auth := CommandAuthorization{
		Provider: id,
		From:     ctx.From,
		To:       ctx.To,
	}
	if plugin == nil {
		// No provider to enforce an allow-list for; only the syntactic
		// gate applies.
		auth.IsAuthorizedSender = commandAuthorized
		return auth
	}

	accounts := plugin.Accounts()
	accountID := ctx.AccountID
	if accountID == "" {
		accountID = accounts.DefaultAccountID()
	}

	raw := accounts.AllowFrom(accountID)
	allowAll := len(raw) == 0 || slices.Contains(raw, "*")

	var owners []string
	for _, entry := range raw {
		if entry == "*" {
			continue
		}
		if n := accounts.NormalizeAddress(entry); n != "" {
			owners = append(owners, n)
		}
	}

	// Self-DM bootstrap: a configured but unusable allow-list falls back
	// to the conversation target as the sole owner.
	if !allowAll && len(owners) == 0 && ctx.To != "" {
		if n := accounts.NormalizeAddress(stripChannelPrefix(ctx.To)); n != "" {
			owners = []string{n}
		}
	}
	auth.Owners = owners

	auth.SenderID = normalizeSender(accounts, ctx)

	ownerOK := allowAll || len(owners) == 0 || slices.Contains(owners, auth.SenderID)
	if cp, ok := plugin.(provider.CommandPolicy); !ok || !cp.EnforceOwnerForCommands() {
		ownerOK = true
	}
	auth.IsAuthorizedSender = commandAuthorized && ownerOK
	return auth
}

// inferProvider resolves the originating provider: explicit context fields
// first, then compound from/to prefixes, then the single registered provider
// with a configured allow-list.
func inferProvider(reg *provider.Registry, ctx MsgContext) (provider.ID, provider.Plugin) {
	for _, hint := range []string{ctx.Provider, ctx.Surface, ctx.OriginatingChannel} {
		if hint == "" {
			continue
		}
		if id, ok := reg.Resolve(hint); ok {
			p, _ := reg.Get(id)
			return id, p
		}
	}

	for _, addr := range []string{ctx.From, ctx.To} {
		prefix, rest, found := strings.Cut(addr, ":")
		if !found || rest == "" {
			continue
		}
		if id, ok := reg.Resolve(prefix); ok {
			p, _ := reg.Get(id)
			return id, p
		}
	}

	var (
		matched provider.Plugin
		count   int
	)
	for _, p := range reg.List() {
		accounts := p.Accounts()
		if len(accounts.AllowFrom(accounts.DefaultAccountID())) > 0 {
			matched = p
			count++
		}
	}
	if count == 1 {
		return matched.Meta().ID, matched
	}
	return "", nil
}

// normalizeSender picks the best sender identity the message carries and
// normalizes it with the provider's address rules.
func normalizeSender(accounts provider.Accounts, ctx MsgContext) string {
	for _, candidate := range []string{ctx.SenderID, ctx.SenderE164, stripChannelPrefix(ctx.From)} {
		if candidate == "" {
			continue
		}
		if n := accounts.NormalizeAddress(candidate); n != "" {
			return n
		}
	}
	return ""
}

// stripChannelPrefix removes a leading "<provider>:" from a compound address
// when the prefix is alphabetic, leaving bare addresses untouched.
func stripChannelPrefix(addr string) string {
	prefix, rest, found := strings.Cut(addr, ":")
	if !found || rest == "" {
		return addr
	}
	for _, r := range prefix {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return addr
		}
	}
	return rest
}
