// Package provider defines the chat-provider plugin contract and the
// read-only capability registry that outbound routing dispatches through.
package provider

import "context"

// ID identifies a chat provider.
type ID string

// Known provider IDs. Concrete plugins live under modules/provider.
const (
	WhatsApp ID = "whatsapp"
	Telegram ID = "telegram"
	Discord  ID = "discord"
	Slack    ID = "slack"
	Signal   ID = "signal"

	// WebChat is the internal channel backing the browser UI. It is a
	// registry member so addresses and command authorization resolve
	// against it, but it exposes no outbound adapter: generic reply
	// routing must reject it.
	WebChat ID = "webchat"
)

// TargetMode selects the fallback policy for target resolution.
type TargetMode string

const (
	// TargetExplicit is a user-specified destination: a present but
	// invalid target is an error, never substituted.
	TargetExplicit TargetMode = "explicit"
	// TargetImplicit is a destination derived from conversation state;
	// the allow-list may substitute for an invalid target.
	TargetImplicit TargetMode = "implicit"
	// TargetHeartbeat is an autonomous send with no user destination at
	// all; resolution behaves like implicit mode.
	TargetHeartbeat TargetMode = "heartbeat"
)

// ChatType is a kind of conversation a provider supports.
type ChatType string

const (
	ChatDirect  ChatType = "direct"
	ChatGroup   ChatType = "group"
	ChatChannel ChatType = "channel"
	ChatThread  ChatType = "thread"
)

// Meta describes a provider for registry lookup and user-facing diagnostics.
type Meta struct {
	ID ID

	// Label is the human-readable provider name used verbatim in error
	// messages (e.g. "WhatsApp", "WebChat").
	Label string

	// Aliases are alternative identifiers accepted by Resolve
	// (e.g. "web" for whatsapp, "tg" for telegram).
	Aliases []string
}

// Capabilities are the feature flags a provider declares.
type Capabilities struct {
	ChatTypes []ChatType
	Polls     bool
	Reactions bool
	Threads   bool
	Media     bool
}

// TargetRequest asks a plugin to turn a raw destination into a canonical
// address.
type TargetRequest struct {
	To        string
	AllowFrom []string
	AccountID string
	Mode      TargetMode
}

// SendRequest is one physical text or media send.
type SendRequest struct {
	To        string
	Text      string
	MediaURL  string
	AccountID string
	ReplyToID string
	ThreadID  int64
}

// SendResult is the provider acknowledgement for one physical send. ChatID
// carries the provider-specific conversation correlation (JID, channel ID,
// conversation ID) when the provider reports one.
type SendResult struct {
	Provider  ID
	MessageID string
	ChatID    string
	Timestamp int64
}

// PollRequest creates a native poll on providers that support them.
type PollRequest struct {
	To            string
	Question      string
	Options       []string
	MaxSelections int
	DurationHours int
	AccountID     string
}

// PollResult is the acknowledgement for a poll creation.
type PollResult struct {
	MessageID string
	PollID    string
}

// Outbound is the send surface of a provider plugin.
type Outbound interface {
	// ResolveTarget normalizes a raw destination per the provider's
	// addressing syntax and fallback policy. The returned error text is
	// shown to users and must name the provider and expected syntax.
	ResolveTarget(req TargetRequest) (string, error)

	SendText(ctx context.Context, req SendRequest) (SendResult, error)
	SendMedia(ctx context.Context, req SendRequest) (SendResult, error)
}

// Chunking is implemented by outbound adapters whose provider caps message
// length. The pipeline splits text with Chunk at ChunkLimit before sending.
type Chunking interface {
	ChunkLimit() int
	Chunk(text string, limit int) []string
}

// PollSender is implemented by outbound adapters that can create native polls.
type PollSender interface {
	SendPoll(ctx context.Context, req PollRequest) (PollResult, error)
}

// Accounts exposes provider account metadata and address normalization.
type Accounts interface {
	AccountIDs() []string
	DefaultAccountID() string

	// AllowFrom returns the configured allow-list for the account, raw.
	AllowFrom(accountID string) []string

	// NormalizeAddress canonicalizes one address with the provider's
	// syntax rules so allow-list entries compare equal to sender IDs.
	// Returns "" when the address is invalid. The wildcard "*" passes
	// through unchanged.
	NormalizeAddress(raw string) string
}

// ReplyToMode is the per-conversation threading policy.
type ReplyToMode string

const (
	ReplyToOff   ReplyToMode = "off"
	ReplyToFirst ReplyToMode = "first"
	ReplyToAll   ReplyToMode = "all"
)

// Plugin is one long-lived, effectively-immutable chat provider. Instances
// are shared read-only across all calls and never mutated at request time.
type Plugin interface {
	Meta() Meta
	Capabilities() Capabilities

	// Outbound returns the send surface, or nil for internal channels
	// that cannot be reached through generic routing.
	Outbound() Outbound

	Accounts() Accounts
}

// ThreadingPolicy is implemented by plugins with a configured reply-to mode.
// Plugins without it default to ReplyToAll with no tag passthrough.
type ThreadingPolicy interface {
	ReplyToMode(accountID string) ReplyToMode
	AllowTagsWhenOff() bool
}

// CommandPolicy is implemented by plugins that restrict administrative
// commands to allow-listed owners. Plugins without it do not enforce owner
// identity for commands.
type CommandPolicy interface {
	EnforceOwnerForCommands() bool
}

// GroupPolicy is implemented by plugins with per-account group behavior.
// Plugins without it require an explicit mention before replying in groups.
type GroupPolicy interface {
	RequireMention(accountID string) bool
}
