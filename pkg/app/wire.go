package app

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/courierhq/courier/internal/config"
	"github.com/courierhq/courier/internal/core"
	"github.com/courierhq/courier/internal/outbound"
	"github.com/courierhq/courier/internal/provider"
	"github.com/courierhq/courier/internal/reply"
)

// wireRouting discovers provider plugins among the loaded modules, seals
// them into the registry, and publishes the delivery pipeline services.
// Must be called after LoadModules and before Start, so that consumer
// modules (gateway, queue, heartbeat) can resolve the services when they
// start.
func wireRouting(app *core.App, appCtx *core.AppContext, cfg *config.Config, logger *slog.Logger) error {
	var plugins []provider.Plugin
	for _, id := range config.Resolve(cfg) {
		mod, ok := app.Module(id)
		if !ok {
			continue
		}
		if p, ok := mod.(provider.Plugin); ok {
			plugins = append(plugins, p)
			logger.Info("routing: registered provider", "module", id, "provider", string(p.Meta().ID))
		}
	}

	registry, err := provider.NewRegistry(plugins...)
	if err != nil {
		return fmt.Errorf("building provider registry: %w", err)
	}

	metrics := outbound.NewMetrics(prometheus.DefaultRegisterer)
	deliverer := outbound.NewDeliverer(registry, logger, metrics)
	router := reply.NewRouter(registry, cfg.Messages, logger)

	appCtx.RegisterService("provider.registry", registry)
	appCtx.RegisterService("outbound.deliverer", deliverer)
	appCtx.RegisterService("reply.router", router)

	logger.Info("routing: wired", "providers", len(plugins))
	return nil
}
