// Package whatsapp provides the WhatsApp provider plugin, backed by
// whatsmeow with a SQLite session store.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"
	"gopkg.in/yaml.v3"

	"github.com/courierhq/courier/internal/core"
	"github.com/courierhq/courier/internal/provider"
)

func init() {
	core.RegisterModule(&WhatsApp{})
}

// Compile-time interface guards.
var (
	_ provider.Plugin          = (*WhatsApp)(nil)
	_ provider.Accounts        = (*WhatsApp)(nil)
	_ provider.ThreadingPolicy = (*WhatsApp)(nil)
	_ provider.CommandPolicy   = (*WhatsApp)(nil)
	_ provider.GroupPolicy     = (*WhatsApp)(nil)
	_ core.Configurable        = (*WhatsApp)(nil)
	_ core.Provisioner         = (*WhatsApp)(nil)
	_ core.Validator           = (*WhatsApp)(nil)
	_ core.Starter             = (*WhatsApp)(nil)
	_ core.Stopper             = (*WhatsApp)(nil)
)

// WhatsApp implements the WhatsApp provider for courier.
type WhatsApp struct {
	config    Config
	logger    *slog.Logger
	container *sqlstore.Container
	client    *whatsmeow.Client
	sender    *sender
}

// ModuleInfo implements core.Module.
func (w *WhatsApp) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.whatsapp",
		New: func() core.Module { return &WhatsApp{} },
	}
}

// Configure implements core.Configurable.
func (w *WhatsApp) Configure(node *yaml.Node) error {
	if err := node.Decode(&w.config); err != nil {
		return fmt.Errorf("whatsapp: decode config: %w", err)
	}
	w.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (w *WhatsApp) Provision(ctx *core.AppContext) error {
	w.logger = ctx.Logger
	w.sender = &sender{
		cfg:    w.config,
		logger: ctx.Logger,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
	return nil
}

// Validate implements core.Validator.
func (w *WhatsApp) Validate() error {
	return w.config.validate()
}

// Start implements core.Starter. It opens the session store and connects.
// The device must already be linked; courier does not run the QR flow.
func (w *WhatsApp) Start() error {
	ctx := context.Background()
	container, err := sqlstore.New(ctx, "sqlite3", w.config.StoreDSN, waLog.Stdout("whatsmeow-db", "WARN", true))
	if err != nil {
		return fmt.Errorf("whatsapp: open session store: %w", err)
	}
	w.container = container

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("whatsapp: load device: %w", err)
	}

	w.client = whatsmeow.NewClient(device, waLog.Stdout("whatsmeow", "WARN", true))
	if w.client.Store.ID == nil {
		return errors.New("whatsapp: device not linked (pair the account before starting courier)")
	}
	if err := w.client.Connect(); err != nil {
		return fmt.Errorf("whatsapp: connect: %w", err)
	}
	w.sender.client = w.client

	w.logger.Info("whatsapp connected", "account", w.config.AccountID, "jid", w.client.Store.ID.String())
	return nil
}

// Stop implements core.Stopper.
func (w *WhatsApp) Stop(ctx context.Context) error {
	if w.client != nil {
		w.client.Disconnect()
	}
	if w.container != nil {
		if err := w.container.Close(); err != nil {
			w.logger.Warn("whatsapp: close session store", "error", err)
		}
	}
	return nil
}

// Meta implements provider.Plugin.
func (w *WhatsApp) Meta() provider.Meta {
	return provider.Meta{
		ID:      provider.WhatsApp,
		Label:   "WhatsApp",
		Aliases: []string{"web", "wa"},
	}
}

// Capabilities implements provider.Plugin.
func (w *WhatsApp) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		ChatTypes: []provider.ChatType{provider.ChatDirect, provider.ChatGroup},
		Polls:     true,
		Media:     true,
	}
}

// Outbound implements provider.Plugin.
func (w *WhatsApp) Outbound() provider.Outbound { return w.sender }

// Accounts implements provider.Plugin.
func (w *WhatsApp) Accounts() provider.Accounts { return w }

// AccountIDs implements provider.Accounts.
func (w *WhatsApp) AccountIDs() []string { return []string{w.config.AccountID} }

// DefaultAccountID implements provider.Accounts.
func (w *WhatsApp) DefaultAccountID() string { return w.config.AccountID }

// AllowFrom implements provider.Accounts.
func (w *WhatsApp) AllowFrom(accountID string) []string {
	if accountID != "" && accountID != w.config.AccountID {
		return nil
	}
	return w.config.AllowFrom
}

// NormalizeAddress implements provider.Accounts.
func (w *WhatsApp) NormalizeAddress(raw string) string {
	if raw == "*" {
		return "*"
	}
	return NormalizeTarget(raw)
}

// ReplyToMode implements provider.ThreadingPolicy.
func (w *WhatsApp) ReplyToMode(string) provider.ReplyToMode {
	return provider.ReplyToMode(w.config.ReplyToMode)
}

// AllowTagsWhenOff implements provider.ThreadingPolicy.
func (w *WhatsApp) AllowTagsWhenOff() bool { return w.config.AllowTagsWhenOff }

// EnforceOwnerForCommands implements provider.CommandPolicy. WhatsApp
// accounts are personal numbers, so commands stay owner-only.
func (w *WhatsApp) EnforceOwnerForCommands() bool { return true }

// RequireMention implements provider.GroupPolicy.
func (w *WhatsApp) RequireMention(string) bool {
	if w.config.RequireMention == nil {
		return true
	}
	return *w.config.RequireMention
}
