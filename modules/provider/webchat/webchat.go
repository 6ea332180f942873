// Package webchat provides the internal browser channel. It is a registry
// member so addresses and authorization resolve against it, but it exposes
// no outbound adapter: generic reply routing must reject it.
package webchat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/courierhq/courier/internal/core"
	"github.com/courierhq/courier/internal/provider"
)

func init() {
	core.RegisterModule(&WebChat{})
}

// Compile-time interface guards.
var (
	_ provider.Plugin   = (*WebChat)(nil)
	_ provider.Accounts = (*WebChat)(nil)
	_ core.Configurable = (*WebChat)(nil)
	_ core.Provisioner  = (*WebChat)(nil)
	_ core.Stopper      = (*WebChat)(nil)
)

// Config holds the webchat configuration.
type Config struct {
	AccountID string `yaml:"account_id"`
}

// WebChat implements the internal browser channel for courier.
type WebChat struct {
	config Config
	logger *slog.Logger
	hub    *Hub
}

// ModuleInfo implements core.Module.
func (w *WebChat) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.webchat",
		New: func() core.Module { return &WebChat{} },
	}
}

// Configure implements core.Configurable.
func (w *WebChat) Configure(node *yaml.Node) error {
	if err := node.Decode(&w.config); err != nil {
		return fmt.Errorf("webchat: decode config: %w", err)
	}
	if w.config.AccountID == "" {
		w.config.AccountID = "default"
	}
	return nil
}

// Provision implements core.Provisioner. The hub is published as a service
// so the gateway can mount it.
func (w *WebChat) Provision(ctx *core.AppContext) error {
	if w.config.AccountID == "" {
		w.config.AccountID = "default"
	}
	w.logger = ctx.Logger
	w.hub = NewHub(ctx.Logger)
	ctx.RegisterService("webchat.handler", w.hub)
	return nil
}

// Stop implements core.Stopper.
func (w *WebChat) Stop(ctx context.Context) error { return nil }

// Hub returns the websocket hub.
func (w *WebChat) Hub() *Hub { return w.hub }

// Meta implements provider.Plugin.
func (w *WebChat) Meta() provider.Meta {
	return provider.Meta{ID: provider.WebChat, Label: "WebChat", Aliases: []string{"ui"}}
}

// Capabilities implements provider.Plugin.
func (w *WebChat) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		ChatTypes: []provider.ChatType{provider.ChatDirect},
	}
}

// Outbound implements provider.Plugin. Webchat is internal-only.
func (w *WebChat) Outbound() provider.Outbound { return nil }

// Accounts implements provider.Plugin.
func (w *WebChat) Accounts() provider.Accounts { return w }

// AccountIDs implements provider.Accounts.
func (w *WebChat) AccountIDs() []string { return []string{w.config.AccountID} }

// DefaultAccountID implements provider.Accounts.
func (w *WebChat) DefaultAccountID() string { return w.config.AccountID }

// AllowFrom implements provider.Accounts. Browser sessions are already
// authenticated by the gateway; there is no allow-list.
func (w *WebChat) AllowFrom(string) []string { return nil }

// NormalizeAddress implements provider.Accounts. Session IDs are opaque.
func (w *WebChat) NormalizeAddress(raw string) string {
	if raw == "*" {
		return "*"
	}
	return strings.ToLower(strings.TrimSpace(raw))
}
