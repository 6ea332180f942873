package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public, no auth required.
	r.Get("/health", g.handleHealth())
	r.Handle("/metrics", promhttp.Handler())

	// Webchat WebSocket for browser connections, no bearer auth.
	if g.webchat != nil {
		r.Handle("/ws", g.webchat)
	}

	// Send API, auth applied when configured.
	r.Group(func(r chi.Router) {
		if g.config.Auth.IsConfigured() {
			r.Use(authMiddleware(g.config.Auth))
		}
		r.Route("/v1", func(r chi.Router) {
			r.Get("/providers", g.handleProviders())
			r.Post("/send", g.handleSend())
		})
	})

	return r
}
