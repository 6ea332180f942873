// Package providertest provides scriptable plugin fakes for exercising the
// outbound pipeline and reply routing without real chat networks.
package providertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/courierhq/courier/internal/provider"
)

// Plugin is a scriptable provider.Plugin. The zero value is a minimal
// sendable provider; set fields to shape behavior per test.
type Plugin struct {
	MetaInfo     provider.Meta
	Caps         provider.Capabilities
	Out          provider.Outbound
	Accts        *Accounts
	Mode         provider.ReplyToMode
	AllowTags    bool
	EnforceOwner bool
}

var (
	_ provider.Plugin          = (*Plugin)(nil)
	_ provider.ThreadingPolicy = (*Plugin)(nil)
	_ provider.CommandPolicy   = (*Plugin)(nil)
)

// New returns a plugin with id, a recording outbound adapter, and empty
// account metadata.
func New(id provider.ID) (*Plugin, *Outbound) {
	out := &Outbound{}
	return &Plugin{
		MetaInfo: provider.Meta{ID: id, Label: strings.ToTitle(string(id[:1])) + string(id[1:])},
		Caps:     provider.Capabilities{ChatTypes: []provider.ChatType{provider.ChatDirect}, Media: true},
		Out:      out,
		Accts:    &Accounts{},
		Mode:     provider.ReplyToAll,
	}, out
}

func (p *Plugin) Meta() provider.Meta                 { return p.MetaInfo }
func (p *Plugin) Capabilities() provider.Capabilities { return p.Caps }
func (p *Plugin) Accounts() provider.Accounts         { return p.Accts }

func (p *Plugin) Outbound() provider.Outbound {
	if p.Out == nil {
		return nil
	}
	return p.Out
}

func (p *Plugin) ReplyToMode(string) provider.ReplyToMode {
	if p.Mode == "" {
		return provider.ReplyToAll
	}
	return p.Mode
}

func (p *Plugin) AllowTagsWhenOff() bool        { return p.AllowTags }
func (p *Plugin) EnforceOwnerForCommands() bool { return p.EnforceOwner }

// Accounts is a static provider.Accounts implementation.
type Accounts struct {
	IDs       []string
	DefaultID string
	Allow     map[string][]string

	// Normalize overrides address normalization. Default: trim + lowercase.
	Normalize func(string) string
}

var _ provider.Accounts = (*Accounts)(nil)

func (a *Accounts) AccountIDs() []string { return a.IDs }

func (a *Accounts) DefaultAccountID() string {
	if a.DefaultID == "" {
		return "default"
	}
	return a.DefaultID
}

func (a *Accounts) AllowFrom(accountID string) []string {
	if a.Allow == nil {
		return nil
	}
	return a.Allow[accountID]
}

func (a *Accounts) NormalizeAddress(raw string) string {
	if a.Normalize != nil {
		return a.Normalize(raw)
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// Outbound records every send and answers with scripted or generated results.
type Outbound struct {
	ResolveFn   func(provider.TargetRequest) (string, error)
	SendTextFn  func(context.Context, provider.SendRequest) (provider.SendResult, error)
	SendMediaFn func(context.Context, provider.SendRequest) (provider.SendResult, error)

	mu    sync.Mutex
	calls []provider.SendRequest
}

var _ provider.Outbound = (*Outbound)(nil)

func (o *Outbound) ResolveTarget(req provider.TargetRequest) (string, error) {
	if o.ResolveFn != nil {
		return o.ResolveFn(req)
	}
	to := strings.TrimSpace(req.To)
	if to == "" {
		return "", fmt.Errorf("mock: target required")
	}
	return to, nil
}

func (o *Outbound) SendText(ctx context.Context, req provider.SendRequest) (provider.SendResult, error) {
	o.record(req)
	if o.SendTextFn != nil {
		return o.SendTextFn(ctx, req)
	}
	return provider.SendResult{MessageID: fmt.Sprintf("text-%d", o.CallCount())}, nil
}

func (o *Outbound) SendMedia(ctx context.Context, req provider.SendRequest) (provider.SendResult, error) {
	o.record(req)
	if o.SendMediaFn != nil {
		return o.SendMediaFn(ctx, req)
	}
	return provider.SendResult{MessageID: fmt.Sprintf("media-%d", o.CallCount())}, nil
}

func (o *Outbound) record(req provider.SendRequest) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, req)
}

// Calls returns a copy of all recorded send requests in order.
func (o *Outbound) Calls() []provider.SendRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]provider.SendRequest(nil), o.calls...)
}

// CallCount returns the number of physical sends attempted so far.
func (o *Outbound) CallCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}

// ChunkedOutbound is an Outbound whose provider declares a chunker.
type ChunkedOutbound struct {
	Outbound
	Limit int
}

var _ provider.Chunking = (*ChunkedOutbound)(nil)

func (c *ChunkedOutbound) ChunkLimit() int {
	if c.Limit <= 0 {
		return 20
	}
	return c.Limit
}

// Chunk splits text into fixed-size pieces; the simplest legal chunker.
func (c *ChunkedOutbound) Chunk(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}
	var parts []string
	for len(text) > limit {
		parts = append(parts, text[:limit])
		text = text[limit:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
