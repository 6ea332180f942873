package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/courierhq/courier/internal/core"
	"github.com/courierhq/courier/internal/reply"
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

// Config holds the queue module configuration.
type Config struct {
	// Path is the SQLite database file. Relative paths resolve against the
	// data directory.
	Path        string        `yaml:"path"`
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
}

func (c *Config) defaults() {
	if c.Path == "" {
		c.Path = "queue.db"
	}
	if c.Interval <= 0 {
		c.Interval = 2 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
}

// Module wires the followup queue into the application lifecycle.
type Module struct {
	config Config
	logger *slog.Logger
	appCtx *core.AppContext
	store  *Store
	sender *Sender
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "queue",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("queue: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner. The store opens here so other
// modules can enqueue through the "queue.store" service.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger
	m.appCtx = ctx

	store, err := Open(ctx.ResolvePath(m.config.Path))
	if err != nil {
		return err
	}
	m.store = store
	ctx.RegisterService("queue.store", store)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if m.config.Interval < 100*time.Millisecond {
		return fmt.Errorf("queue: interval must be at least 100ms, got %s", m.config.Interval)
	}
	if m.config.MaxAttempts < 1 || m.config.MaxAttempts > 100 {
		return fmt.Errorf("queue: max_attempts must be 1-100, got %d", m.config.MaxAttempts)
	}
	return nil
}

// Start implements core.Starter. It resolves the reply router and launches
// the drain loop.
func (m *Module) Start() error {
	svc, ok := m.appCtx.Service("reply.router")
	if !ok {
		return errors.New("queue: reply.router service not found")
	}
	router, ok := svc.(*reply.Router)
	if !ok {
		return errors.New("queue: reply.router is not a *reply.Router")
	}

	m.sender = NewSender(m.store, router, m.logger, m.config.Interval, m.config.MaxAttempts)
	m.sender.Start()
	m.logger.Info("queue sender started", "interval", m.config.Interval, "max_attempts", m.config.MaxAttempts)
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	if m.sender != nil {
		m.sender.Stop()
	}
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}
