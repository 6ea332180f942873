package signal

import (
	"fmt"
	"strings"

	"github.com/courierhq/courier/internal/outbound"
	"github.com/courierhq/courier/internal/provider"
)

// NormalizeTarget canonicalizes a Signal destination: a phone number in
// international form or a "group.<id>" group identifier.
func NormalizeTarget(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "signal:")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "group.") && len(s) > len("group.") {
		return s
	}
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	return "+" + digits.String()
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
		return "", fmt.Errorf("Signal target %q is invalid (expected a phone number like +15551234567 or a group.<id>)", req.To)
	}
	return fallback(req.AllowFrom)
}

func fallback(allowFrom []string) (string, error) {
	if fb := outbound.FallbackTarget(allowFrom); fb != "" {
		if norm := NormalizeTarget(fb); norm != "" {
			return norm, nil
		}
	}
	return "", fmt.Errorf("Signal target missing (expected a phone number like +15551234567 or a group.<id>, and no allow-list fallback is configured)")
}
