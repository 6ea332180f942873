package slack

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/courierhq/courier/internal/outbound"
	"github.com/courierhq/courier/internal/provider"
)

var (
	userIDPattern      = regexp.MustCompile(`^[UW][A-Z0-9]{4,}$`)
	channelIDPattern   = regexp.MustCompile(`^[CGD][A-Z0-9]{4,}$`)
	channelNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
)

// NormalizeTarget canonicalizes a Slack destination to "user:<id>" (a DM
// target), a channel ID, or a "#channel-name". Accepted input forms:
// "user:<id>", "channel:<id>", "@<user id>", "#name", and raw IDs.
func NormalizeTarget(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "slack:")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if id, ok := strings.CutPrefix(s, "user:"); ok {
		if id = strings.ToUpper(id); userIDPattern.MatchString(id) {
			return "user:" + id
		}
		return ""
	}
	if id, ok := strings.CutPrefix(s, "channel:"); ok {
		if id = strings.ToUpper(id); channelIDPattern.MatchString(id) {
			return id
		}
		return ""
	}
	if id, ok := strings.CutPrefix(s, "@"); ok {
		if id = strings.ToUpper(id); userIDPattern.MatchString(id) {
			return "user:" + id
		}
		return ""
	}
	if name, ok := strings.CutPrefix(s, "#"); ok {
		if channelNamePattern.MatchString(strings.ToLower(name)) {
			return "#" + strings.ToLower(name)
		}
		return ""
	}
	if upper := strings.ToUpper(s); channelIDPattern.MatchString(upper) {
		return upper
	}
	if upper := strings.ToUpper(s); userIDPattern.MatchString(upper) {
		return "user:" + upper
	}
	return ""
}

// NormalizeAddress canonicalizes a sender or allow-list address to a bare
// uppercase user ID (or "#channel" / channel ID for channel entries).
func NormalizeAddress(raw string) string {
	norm := NormalizeTarget(raw)
	return strings.TrimPrefix(norm, "user:")
}

func resolveTarget(req provider.TargetRequest) (string, error) {
	raw := strings.TrimSpace(req.To)
	if raw == "" {
		return fallback(req.AllowFrom)
	}
	if norm := NormalizeTarget(raw); norm != "" {
		return norm, nil
	}
	if req.Mode == provider.TargetExplicit {
		return "", fmt.Errorf("Slack target %q is invalid (expected user:<id>, channel:<id>, #channel, or @<user id>)", req.To)
	}
	return fallback(req.AllowFrom)
}

func fallback(allowFrom []string) (string, error) {
	if fb := outbound.FallbackTarget(allowFrom); fb != "" {
		if norm := NormalizeTarget(fb); norm != "" {
			return norm, nil
		}
	}
	return "", fmt.Errorf("Slack target missing (expected user:<id>, channel:<id>, #channel, or @<user id>, and no allow-list fallback is configured)")
}
