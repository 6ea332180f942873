// Package discord provides the Discord provider plugin over discordgo.
package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"gopkg.in/yaml.v3"

	"github.com/courierhq/courier/internal/core"
	"github.com/courierhq/courier/internal/provider"
)

func init() {
	core.RegisterModule(&Discord{})
}

// Compile-time interface guards.
var (
	_ provider.Plugin          = (*Discord)(nil)
	_ provider.Accounts        = (*Discord)(nil)
	_ provider.ThreadingPolicy = (*Discord)(nil)
	_ provider.GroupPolicy     = (*Discord)(nil)
	_ core.Configurable        = (*Discord)(nil)
	_ core.Provisioner         = (*Discord)(nil)
	_ core.Validator           = (*Discord)(nil)
	_ core.Starter             = (*Discord)(nil)
	_ core.Stopper             = (*Discord)(nil)
)

// Discord implements the Discord provider for courier.
type Discord struct {
	config  Config
	logger  *slog.Logger
	session *discordgo.Session
	sender  *sender
}

// ModuleInfo implements core.Module.
func (d *Discord) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.discord",
		New: func() core.Module { return &Discord{} },
	}
}

// Configure implements core.Configurable.
func (d *Discord) Configure(node *yaml.Node) error {
	if err := node.Decode(&d.config); err != nil {
		return fmt.Errorf("discord: decode config: %w", err)
	}
	d.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (d *Discord) Provision(ctx *core.AppContext) error {
	d.logger = ctx.Logger
	d.sender = &sender{cfg: d.config, logger: ctx.Logger}
	return nil
}

// Validate implements core.Validator.
func (d *Discord) Validate() error {
	return d.config.validate()
}

// Start implements core.Starter.
func (d *Discord) Start() error {
	session, err := discordgo.New("Bot " + d.config.Token)
	if err != nil {
		return fmt.Errorf("discord: create session: %w", err)
	}
	if err := session.Open(); err != nil {
		return fmt.Errorf("discord: open gateway connection: %w", err)
	}
	d.session = session
	d.sender.session = session
	d.logger.Info("discord session opened", "user", session.State.User.Username)
	return nil
}

// Stop implements core.Stopper.
func (d *Discord) Stop(ctx context.Context) error {
	if d.session != nil {
		return d.session.Close()
	}
	return nil
}

// Meta implements provider.Plugin.
func (d *Discord) Meta() provider.Meta {
	return provider.Meta{ID: provider.Discord, Label: "Discord"}
}

// Capabilities implements provider.Plugin.
func (d *Discord) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		ChatTypes: []provider.ChatType{provider.ChatDirect, provider.ChatChannel, provider.ChatThread},
		Reactions: true,
		Threads:   true,
		Media:     true,
	}
}

// Outbound implements provider.Plugin.
func (d *Discord) Outbound() provider.Outbound { return d.sender }

// Accounts implements provider.Plugin.
func (d *Discord) Accounts() provider.Accounts { return d }

// AccountIDs implements provider.Accounts.
func (d *Discord) AccountIDs() []string { return []string{d.config.AccountID} }

// DefaultAccountID implements provider.Accounts.
func (d *Discord) DefaultAccountID() string { return d.config.AccountID }

// AllowFrom implements provider.Accounts.
func (d *Discord) AllowFrom(accountID string) []string {
	if accountID != "" && accountID != d.config.AccountID {
		return nil
	}
	return d.config.AllowFrom
}

// NormalizeAddress implements provider.Accounts.
func (d *Discord) NormalizeAddress(raw string) string {
	if raw == "*" {
		return "*"
	}
	return NormalizeTarget(raw)
}

// ReplyToMode implements provider.ThreadingPolicy.
func (d *Discord) ReplyToMode(string) provider.ReplyToMode {
	return provider.ReplyToMode(d.config.ReplyToMode)
}

// AllowTagsWhenOff implements provider.ThreadingPolicy.
func (d *Discord) AllowTagsWhenOff() bool { return d.config.AllowTagsWhenOff }

// RequireMention implements provider.GroupPolicy.
func (d *Discord) RequireMention(string) bool {
	if d.config.RequireMention == nil {
		return true
	}
	return *d.config.RequireMention
}
