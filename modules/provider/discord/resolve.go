package discord

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/courierhq/courier/internal/outbound"
	"github.com/courierhq/courier/internal/provider"
)

var (
	mentionPattern   = regexp.MustCompile(`^<@!?(\d+)>$`)
	snowflakePattern = regexp.MustCompile(`^\d{5,}$`)
)

// NormalizeTarget canonicalizes a Discord destination to either "user:<id>"
// (a DM target) or a bare channel snowflake. Accepted input forms:
// "user:<id>", "channel:<id>", "<@id>" mentions, and raw snowflakes.
func NormalizeTarget(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "discord:")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if m := mentionPattern.FindStringSubmatch(s); m != nil {
		return "user:" + m[1]
	}
	if id, ok := strings.CutPrefix(s, "user:"); ok {
		if snowflakePattern.MatchString(id) {
			return "user:" + id
		}
		return ""
	}
	if id, ok := strings.CutPrefix(s, "channel:"); ok {
		if snowflakePattern.MatchString(id) {
			return id
		}
		return ""
	}
	if snowflakePattern.MatchString(s) {
		return s
	}
	return ""
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
		return "", fmt.Errorf("Discord target %q is invalid (expected user:<id>, channel:<id>, or a mention)", req.To)
	}
	return fallback(req.AllowFrom)
}

func fallback(allowFrom []string) (string, error) {
	if fb := outbound.FallbackTarget(allowFrom); fb != "" {
		if norm := NormalizeTarget(fb); norm != "" {
			return norm, nil
		}
	}
	return "", fmt.Errorf("Discord target missing (expected user:<id>, channel:<id>, or a mention, and no allow-list fallback is configured)")
}
