// Package telegram provides the Telegram provider plugin over the Bot API.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gopkg.in/yaml.v3"

	"github.com/courierhq/courier/internal/core"
	"github.com/courierhq/courier/internal/provider"
)

func init() {
	core.RegisterModule(&Telegram{})
}

// Compile-time interface guards.
var (
	_ provider.Plugin          = (*Telegram)(nil)
	_ provider.Accounts        = (*Telegram)(nil)
	_ provider.ThreadingPolicy = (*Telegram)(nil)
	_ provider.GroupPolicy     = (*Telegram)(nil)
	_ core.Configurable        = (*Telegram)(nil)
	_ core.Provisioner         = (*Telegram)(nil)
	_ core.Validator           = (*Telegram)(nil)
	_ core.Starter             = (*Telegram)(nil)
	_ core.Stopper             = (*Telegram)(nil)
)

// Telegram implements the Telegram provider for courier.
type Telegram struct {
	config Config
	logger *slog.Logger
	bot    *tgbotapi.BotAPI
	sender *sender
}

// ModuleInfo implements core.Module.
func (t *Telegram) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.telegram",
		New: func() core.Module { return &Telegram{} },
	}
}

// Configure implements core.Configurable.
func (t *Telegram) Configure(node *yaml.Node) error {
	if err := node.Decode(&t.config); err != nil {
		return fmt.Errorf("telegram: decode config: %w", err)
	}
	t.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (t *Telegram) Provision(ctx *core.AppContext) error {
	t.logger = ctx.Logger
	t.sender = &sender{cfg: t.config, logger: ctx.Logger}
	return nil
}

// Validate implements core.Validator.
func (t *Telegram) Validate() error {
	return t.config.validate()
}

// Start implements core.Starter. It validates the bot token.
func (t *Telegram) Start() error {
	bot, err := tgbotapi.NewBotAPI(t.config.Token)
	if err != nil {
		return fmt.Errorf("telegram: authenticate (check token): %w", err)
	}
	t.bot = bot
	t.sender.bot = bot
	t.logger.Info("telegram bot authenticated", "username", bot.Self.UserName)
	return nil
}

// Stop implements core.Stopper.
func (t *Telegram) Stop(ctx context.Context) error {
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
	return nil
}

// Meta implements provider.Plugin.
func (t *Telegram) Meta() provider.Meta {
	return provider.Meta{
		ID:      provider.Telegram,
		Label:   "Telegram",
		Aliases: []string{"tg"},
	}
}

// Capabilities implements provider.Plugin.
func (t *Telegram) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		ChatTypes: []provider.ChatType{provider.ChatDirect, provider.ChatGroup, provider.ChatChannel},
		Polls:     true,
		Media:     true,
	}
}

// Outbound implements provider.Plugin.
func (t *Telegram) Outbound() provider.Outbound { return t.sender }

// Accounts implements provider.Plugin.
func (t *Telegram) Accounts() provider.Accounts { return t }

// AccountIDs implements provider.Accounts.
func (t *Telegram) AccountIDs() []string { return []string{t.config.AccountID} }

// DefaultAccountID implements provider.Accounts.
func (t *Telegram) DefaultAccountID() string { return t.config.AccountID }

// AllowFrom implements provider.Accounts.
func (t *Telegram) AllowFrom(accountID string) []string {
	if accountID != "" && accountID != t.config.AccountID {
		return nil
	}
	return t.config.AllowFrom
}

// NormalizeAddress implements provider.Accounts.
func (t *Telegram) NormalizeAddress(raw string) string {
	if raw == "*" {
		return "*"
	}
	return NormalizeTarget(raw)
}

// ReplyToMode implements provider.ThreadingPolicy.
func (t *Telegram) ReplyToMode(string) provider.ReplyToMode {
	return provider.ReplyToMode(t.config.ReplyToMode)
}

// AllowTagsWhenOff implements provider.ThreadingPolicy.
func (t *Telegram) AllowTagsWhenOff() bool { return t.config.AllowTagsWhenOff }

// RequireMention implements provider.GroupPolicy.
func (t *Telegram) RequireMention(string) bool {
	if t.config.RequireMention == nil {
		return true
	}
	return *t.config.RequireMention
}
