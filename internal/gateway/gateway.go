// Package gateway exposes the HTTP surface of courier: health, Prometheus
// metrics, a provider inventory, the send API, and the webchat WebSocket.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/courierhq/courier/internal/core"
	"github.com/courierhq/courier/internal/provider"
	"github.com/courierhq/courier/internal/queue"
	"github.com/courierhq/courier/internal/reply"
)

func init() {
	core.RegisterModule(&Gateway{})
}

// Compile-time interface guards.
var (
	_ core.Configurable = (*Gateway)(nil)
	_ core.Provisioner  = (*Gateway)(nil)
	_ core.Validator    = (*Gateway)(nil)
	_ core.Starter      = (*Gateway)(nil)
	_ core.Stopper      = (*Gateway)(nil)
)

// replyRouter is the slice of *reply.Router the send API needs.
type replyRouter interface {
	RouteReply(ctx context.Context, p reply.RouteParams) reply.RouteResult
}

// followupQueue is the slice of *queue.Store the send API needs.
type followupQueue interface {
	Enqueue(ctx context.Context, item queue.Item) (int64, error)
	PendingCount(ctx context.Context) (int, error)
}

// Gateway is the HTTP gateway module. It is a leaf module: nothing imports
// it, and its dependencies are resolved from the service registry at Start.
type Gateway struct {
	config    Config
	appCtx    *core.AppContext
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time

	// Resolved lazily at Start() via service registry.
	registry *provider.Registry
	router   replyRouter
	queue    followupQueue
	webchat  http.Handler
}

// ModuleInfo implements core.Module.
func (g *Gateway) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "gateway",
		New: func() core.Module { return &Gateway{} },
	}
}

// Configure implements core.Configurable.
func (g *Gateway) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return err
	}
	g.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (g *Gateway) Provision(ctx *core.AppContext) error {
	g.config.defaults()
	g.appCtx = ctx
	g.logger = ctx.Logger
	return nil
}

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + g.config.Bind)
	}
	return nil
}

// Start implements core.Starter. It resolves dependencies from the service
// registry (lazy binding) and starts the HTTP server.
func (g *Gateway) Start() error {
	if svc, ok := g.appCtx.Service("provider.registry"); ok {
		if reg, ok := svc.(*provider.Registry); ok {
			g.registry = reg
		}
	}
	if svc, ok := g.appCtx.Service("reply.router"); ok {
		if r, ok := svc.(replyRouter); ok {
			g.router = r
		}
	}
	// Optional services, degraded gracefully when missing.
	if svc, ok := g.appCtx.Service("queue.store"); ok {
		if q, ok := svc.(followupQueue); ok {
			g.queue = q
		}
	}
	if svc, ok := g.appCtx.Service("webchat.handler"); ok {
		if h, ok := svc.(http.Handler); ok {
			g.webchat = h
		}
	}
	if g.router == nil {
		return errors.New("gateway: reply.router service not found")
	}

	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop implements core.Stopper. Graceful shutdown with configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	if err := g.server.Shutdown(shutdownCtx); err != nil {
		return errors.New("gateway: shutdown failed: " + err.Error())
	}
	return nil
}
