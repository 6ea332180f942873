package provider

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Registry is the read-only lookup from provider identifier to plugin.
// It is sealed at construction and safe for concurrent use without locking.
type Registry struct {
	plugins map[ID]Plugin
	aliases map[string]ID
}

// NewRegistry builds a registry from the given plugins. Returns
// ErrDuplicatePlugin when two plugins claim the same ID or alias.
func NewRegistry(plugins ...Plugin) (*Registry, error) {
	r := &Registry{
		plugins: make(map[ID]Plugin, len(plugins)),
		aliases: make(map[string]ID),
	}
	for _, p := range plugins {
		meta := p.Meta()
		if _, exists := r.plugins[meta.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlugin, meta.ID)
		}
		r.plugins[meta.ID] = p

		for _, alias := range append([]string{string(meta.ID)}, meta.Aliases...) {
			key := normalizeKey(alias)
			if owner, exists := r.aliases[key]; exists && owner != meta.ID {
				return nil, fmt.Errorf("%w: alias %q claimed by %s and %s",
					ErrDuplicatePlugin, alias, owner, meta.ID)
			}
			r.aliases[key] = meta.ID
		}
	}
	return r, nil
}

// Get returns the plugin registered under id.
func (r *Registry) Get(id ID) (Plugin, bool) {
	p, ok := r.plugins[id]
	return p, ok
}

// Resolve normalizes a raw provider identifier (trimmed, lowercased,
// aliases applied) to a registered ID.
func (r *Registry) Resolve(raw string) (ID, bool) {
	id, ok := r.aliases[normalizeKey(raw)]
	return id, ok
}

// List returns all registered plugins sorted by ID.
func (r *Registry) List() []Plugin {
	out := make([]Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Plugin) int {
		return cmp.Compare(a.Meta().ID, b.Meta().ID)
	})
	return out
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
