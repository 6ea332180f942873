// Package slack provides the Slack provider plugin over the Web API.
package slack

import (
	"context"
	"fmt"
	"log/slog"

	slackapi "github.com/slack-go/slack"
	"gopkg.in/yaml.v3"

	"github.com/courierhq/courier/internal/core"
	"github.com/courierhq/courier/internal/provider"
)

func init() {
	core.RegisterModule(&Slack{})
}

// Compile-time interface guards.
var (
	_ provider.Plugin          = (*Slack)(nil)
	_ provider.Accounts        = (*Slack)(nil)
	_ provider.ThreadingPolicy = (*Slack)(nil)
	_ provider.GroupPolicy     = (*Slack)(nil)
	_ core.Configurable        = (*Slack)(nil)
	_ core.Provisioner         = (*Slack)(nil)
	_ core.Validator           = (*Slack)(nil)
	_ core.Starter             = (*Slack)(nil)
	_ core.Stopper             = (*Slack)(nil)
)

// Slack implements the Slack provider for courier.
type Slack struct {
	config Config
	logger *slog.Logger
	client *slackapi.Client
	sender *sender
}

// ModuleInfo implements core.Module.
func (s *Slack) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.slack",
		New: func() core.Module { return &Slack{} },
	}
}

// Configure implements core.Configurable.
func (s *Slack) Configure(node *yaml.Node) error {
	if err := node.Decode(&s.config); err != nil {
		return fmt.Errorf("slack: decode config: %w", err)
	}
	s.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (s *Slack) Provision(ctx *core.AppContext) error {
	s.logger = ctx.Logger
	s.client = slackapi.New(s.config.BotToken)
	s.sender = &sender{cfg: s.config, client: s.client, logger: ctx.Logger}
	return nil
}

// Validate implements core.Validator.
func (s *Slack) Validate() error {
	return s.config.validate()
}

// Start implements core.Starter. It validates the token against auth.test.
func (s *Slack) Start() error {
	resp, err := s.client.AuthTest()
	if err != nil {
		return fmt.Errorf("slack: auth test failed (check bot_token): %w", err)
	}
	s.logger.Info("slack bot authenticated", "user", resp.User, "team", resp.Team)
	return nil
}

// Stop implements core.Stopper.
func (s *Slack) Stop(ctx context.Context) error { return nil }

// Meta implements provider.Plugin.
func (s *Slack) Meta() provider.Meta {
	return provider.Meta{ID: provider.Slack, Label: "Slack"}
}

// Capabilities implements provider.Plugin.
func (s *Slack) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		ChatTypes: []provider.ChatType{provider.ChatDirect, provider.ChatChannel, provider.ChatThread},
		Reactions: true,
		Threads:   true,
		Media:     true,
	}
}

// Outbound implements provider.Plugin.
func (s *Slack) Outbound() provider.Outbound { return s.sender }

// Accounts implements provider.Plugin.
func (s *Slack) Accounts() provider.Accounts { return s }

// AccountIDs implements provider.Accounts.
func (s *Slack) AccountIDs() []string { return []string{s.config.AccountID} }

// DefaultAccountID implements provider.Accounts.
func (s *Slack) DefaultAccountID() string { return s.config.AccountID }

// AllowFrom implements provider.Accounts.
func (s *Slack) AllowFrom(accountID string) []string {
	if accountID != "" && accountID != s.config.AccountID {
		return nil
	}
	return s.config.AllowFrom
}

// NormalizeAddress implements provider.Accounts.
func (s *Slack) NormalizeAddress(raw string) string {
	if raw == "*" {
		return "*"
	}
	return NormalizeAddress(raw)
}

// ReplyToMode implements provider.ThreadingPolicy.
func (s *Slack) ReplyToMode(string) provider.ReplyToMode {
	return provider.ReplyToMode(s.config.ReplyToMode)
}

// AllowTagsWhenOff implements provider.ThreadingPolicy.
func (s *Slack) AllowTagsWhenOff() bool { return s.config.AllowTagsWhenOff }

// RequireMention implements provider.GroupPolicy.
func (s *Slack) RequireMention(string) bool {
	if s.config.RequireMention == nil {
		return true
	}
	return *s.config.RequireMention
}
