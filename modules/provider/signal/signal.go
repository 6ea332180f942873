// Package signal provides the Signal provider plugin. Transport is a
// signal-cli daemon reached over JSON-RPC; courier never speaks the Signal
// protocol itself.
package signal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/courierhq/courier/internal/core"
	"github.com/courierhq/courier/internal/provider"
)

func init() {
	core.RegisterModule(&Signal{})
}

// Compile-time interface guards.
var (
	_ provider.Plugin          = (*Signal)(nil)
	_ provider.Accounts        = (*Signal)(nil)
	_ provider.ThreadingPolicy = (*Signal)(nil)
	_ provider.CommandPolicy   = (*Signal)(nil)
	_ provider.GroupPolicy     = (*Signal)(nil)
	_ core.Configurable        = (*Signal)(nil)
	_ core.Provisioner         = (*Signal)(nil)
	_ core.Validator           = (*Signal)(nil)
	_ core.Stopper             = (*Signal)(nil)
)

// Signal implements the Signal provider for courier.
type Signal struct {
	config Config
	logger *slog.Logger
	sender *sender
}

// ModuleInfo implements core.Module.
func (s *Signal) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.signal",
		New: func() core.Module { return &Signal{} },
	}
}

// Configure implements core.Configurable.
func (s *Signal) Configure(node *yaml.Node) error {
	if err := node.Decode(&s.config); err != nil {
		return fmt.Errorf("signal: decode config: %w", err)
	}
	s.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (s *Signal) Provision(ctx *core.AppContext) error {
	s.logger = ctx.Logger
	s.sender = &sender{
		cfg:    s.config,
		http:   &http.Client{Timeout: 60 * time.Second},
		logger: ctx.Logger,
	}
	return nil
}

// Validate implements core.Validator.
func (s *Signal) Validate() error {
	return s.config.validate()
}

// Meta implements provider.Plugin.
func (s *Signal) Meta() provider.Meta {
	return provider.Meta{ID: provider.Signal, Label: "Signal"}
}

// Capabilities implements provider.Plugin.
func (s *Signal) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		ChatTypes: []provider.ChatType{provider.ChatDirect, provider.ChatGroup},
		Media:     true,
	}
}

// Outbound implements provider.Plugin.
func (s *Signal) Outbound() provider.Outbound { return s.sender }

// Accounts implements provider.Plugin.
func (s *Signal) Accounts() provider.Accounts { return s }

// AccountIDs implements provider.Accounts.
func (s *Signal) AccountIDs() []string { return []string{s.config.AccountID} }

// DefaultAccountID implements provider.Accounts.
func (s *Signal) DefaultAccountID() string { return s.config.AccountID }

// AllowFrom implements provider.Accounts.
func (s *Signal) AllowFrom(accountID string) []string {
	if accountID != "" && accountID != s.config.AccountID {
		return nil
	}
	return s.config.AllowFrom
}

// NormalizeAddress implements provider.Accounts.
func (s *Signal) NormalizeAddress(raw string) string {
	if raw == "*" {
		return "*"
	}
	return NormalizeTarget(raw)
}

// ReplyToMode implements provider.ThreadingPolicy.
func (s *Signal) ReplyToMode(string) provider.ReplyToMode {
	return provider.ReplyToMode(s.config.ReplyToMode)
}

// AllowTagsWhenOff implements provider.ThreadingPolicy.
func (s *Signal) AllowTagsWhenOff() bool { return s.config.AllowTagsWhenOff }

// RequireMention implements provider.GroupPolicy.
func (s *Signal) RequireMention(string) bool {
	if s.config.RequireMention == nil {
		return true
	}
	return *s.config.RequireMention
}

// EnforceOwnerForCommands implements provider.CommandPolicy. Signal accounts
// are personal numbers, so commands stay owner-only.
func (s *Signal) EnforceOwnerForCommands() bool { return true }

// Stop implements core.Stopper.
func (s *Signal) Stop(ctx context.Context) error { return nil }
