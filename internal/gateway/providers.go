package gateway

import (
	"net/http"

	"github.com/courierhq/courier/internal/provider"
)

// ProviderInfo is one registry entry in the GET /v1/providers response.
type ProviderInfo struct {
	ID           string                `json:"id"`
	Label        string                `json:"label"`
	Aliases      []string              `json:"aliases,omitempty"`
	Internal     bool                  `json:"internal,omitempty"`
	Accounts     []string              `json:"accounts,omitempty"`
	Capabilities provider.Capabilities `json:"capabilities"`
}

// handleProviders returns an http.HandlerFunc for GET /v1/providers. The
// listing is the registry snapshot: sorted by ID, internal channels included
// and flagged.
func (g *Gateway) handleProviders() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if g.registry == nil {
			writeJSON(w, http.StatusOK, []ProviderInfo{})
			return
		}

		plugins := g.registry.List()
		out := make([]ProviderInfo, 0, len(plugins))
		for _, p := range plugins {
			meta := p.Meta()
			info := ProviderInfo{
				ID:           string(meta.ID),
				Label:        meta.Label,
				Aliases:      meta.Aliases,
				Internal:     p.Outbound() == nil,
				Capabilities: p.Capabilities(),
			}
			if acc := p.Accounts(); acc != nil {
				info.Accounts = acc.AccountIDs()
			}
			out = append(out, info)
		}
		writeJSON(w, http.StatusOK, out)
	}
}
