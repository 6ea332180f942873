// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for courier.
package config

import "gopkg.in/yaml.v3"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "provider.whatsapp").
	Modules map[string]yaml.Node `yaml:"modules"`

	// Messages holds cross-provider outbound message settings.
	Messages MessagesConfig `yaml:"messages,omitempty"`

	// Telemetry configures the optional OTLP trace exporter.
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`
}

// MessagesConfig controls how outbound reply text is decorated.
type MessagesConfig struct {
	// ResponsePrefix is prepended to every outbound reply's text.
	// The special value "auto" (and "") means no prefix.
	ResponsePrefix string `yaml:"response_prefix,omitempty"`

	// Agents overrides the prefix per agent ID. An agent's session keys are
	// of the form "<agent>:<rest>"; the part before the first colon selects
	// the override.
	Agents map[string]AgentMessages `yaml:"agents,omitempty"`
}

// AgentMessages holds per-agent message overrides.
type AgentMessages struct {
	ResponsePrefix string `yaml:"response_prefix,omitempty"`
}

// TelemetryConfig configures trace export.
type TelemetryConfig struct {
	// Endpoint is the OTLP/HTTP collector endpoint (host:port). Empty
	// disables export.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure disables TLS for the exporter connection.
	Insecure bool `yaml:"insecure,omitempty"`
}

// ResolveResponsePrefix returns the effective response prefix for the given
// session key. A per-agent override wins over the global setting; the value
// "auto" resolves to no prefix.
func (m MessagesConfig) ResolveResponsePrefix(sessionKey string) string {
	if sessionKey != "" {
		if agent, ok := m.Agents[agentID(sessionKey)]; ok {
			return normalizePrefix(agent.ResponsePrefix)
		}
	}
	return normalizePrefix(m.ResponsePrefix)
}

func normalizePrefix(p string) string {
	if p == "auto" {
		return ""
	}
	return p
}

// agentID extracts the agent identifier from a session key of the form
// "<agent>:<rest>". A key without a colon is its own agent ID.
func agentID(sessionKey string) string {
	for i := 0; i < len(sessionKey); i++ {
		if sessionKey[i] == ':' {
			return sessionKey[:i]
		}
	}
	return sessionKey
}
