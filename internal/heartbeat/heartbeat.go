// Package heartbeat sends a periodic autonomous message through the
// delivery pipeline, resolving its destination in heartbeat mode so the
// provider's allow-list supplies the target.
package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/courierhq/courier/internal/core"
	"github.com/courierhq/courier/internal/outbound"
	"github.com/courierhq/courier/internal/provider"
	"github.com/courierhq/courier/pkg/payload"
)

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// Config holds the heartbeat module configuration.
type Config struct {
	// Schedule is a cron expression (robfig/cron standard format,
	// "@every ..." accepted).
	Schedule string `yaml:"schedule"`

	Channel   string `yaml:"channel"`
	To        string `yaml:"to"`
	AccountID string `yaml:"account_id"`
	Message   string `yaml:"message"`

	// QuietHours is a "HH:MM-HH:MM" blackout window. Empty disables it.
	QuietHours string `yaml:"quiet_hours"`
	Timezone   string `yaml:"timezone"`
}

func (c *Config) defaults() {
	if c.Schedule == "" {
		c.Schedule = "0 * * * *"
	}
	if c.Message == "" {
		c.Message = "ping"
	}
}

// Module wires the heartbeat sender into the application lifecycle.
type Module struct {
	config Config
	logger *slog.Logger
	appCtx *core.AppContext

	cron      *cron.Cron
	deliverer *outbound.Deliverer
	quiet     *QuietHours
	location  *time.Location

	now func() time.Time // injectable for testing
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "heartbeat",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("heartbeat: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger
	m.appCtx = ctx
	m.now = time.Now

	m.location = time.UTC
	if m.config.Timezone != "" {
		loc, err := time.LoadLocation(m.config.Timezone)
		if err != nil {
			return fmt.Errorf("heartbeat: invalid timezone %q: %w", m.config.Timezone, err)
		}
		m.location = loc
	}
	if m.config.QuietHours != "" {
		q, err := ParseQuietHours(m.config.QuietHours)
		if err != nil {
			return err
		}
		m.quiet = &q
	}
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if m.config.Channel == "" {
		return errors.New("heartbeat: channel is required")
	}
	if _, err := cron.ParseStandard(m.config.Schedule); err != nil {
		return fmt.Errorf("heartbeat: invalid schedule %q: %w", m.config.Schedule, err)
	}
	return nil
}

// Start implements core.Starter.
func (m *Module) Start() error {
	svc, ok := m.appCtx.Service("outbound.deliverer")
	if !ok {
		return errors.New("heartbeat: outbound.deliverer service not found")
	}
	deliverer, ok := svc.(*outbound.Deliverer)
	if !ok {
		return errors.New("heartbeat: outbound.deliverer is not an *outbound.Deliverer")
	}
	m.deliverer = deliverer

	m.cron = cron.New(cron.WithLocation(m.location))
	if _, err := m.cron.AddFunc(m.config.Schedule, m.beatOnce); err != nil {
		return fmt.Errorf("heartbeat: schedule job: %w", err)
	}
	m.cron.Start()
	m.logger.Info("heartbeat scheduled",
		"schedule", m.config.Schedule, "channel", m.config.Channel)
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	if m.cron == nil {
		return nil
	}
	select {
	case <-m.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Module) beatOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := m.beat(ctx); err != nil {
		m.logger.Warn("heartbeat failed", "channel", m.config.Channel, "error", err)
	}
}

// beat resolves the destination in heartbeat mode and sends the configured
// message through the pipeline.
func (m *Module) beat(ctx context.Context) error {
	if m.quiet != nil && m.quiet.IsQuiet(m.now().In(m.location)) {
		m.logger.Debug("heartbeat suppressed by quiet hours")
		return nil
	}

	to, err := outbound.ResolveTarget(m.deliverer.Registry(), outbound.ResolveParams{
		Channel:   m.config.Channel,
		To:        m.config.To,
		AccountID: m.config.AccountID,
		Mode:      provider.TargetHeartbeat,
	})
	if err != nil {
		return err
	}

	results, err := m.deliverer.Deliver(ctx, outbound.DeliverParams{
		Channel:   m.config.Channel,
		To:        to,
		AccountID: m.config.AccountID,
		Payloads:  []payload.Reply{{Text: m.config.Message}},
	})
	if err != nil {
		return err
	}
	if len(results) > 0 {
		m.logger.Info("heartbeat sent", "channel", m.config.Channel, "to", to, "message_id", results[0].MessageID)
	}
	return nil
}
