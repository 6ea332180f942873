package whatsapp

import (
	"fmt"
	"strings"

	"github.com/courierhq/courier/internal/outbound"
	"github.com/courierhq/courier/internal/provider"
)

const groupJIDSuffix = "@g.us"

// NormalizeTarget canonicalizes a WhatsApp destination. JIDs (anything
// containing "@") pass through lowercased; everything else is treated as a
// phone number, stripped of formatting and coerced to international form.
// Returns "" when nothing usable remains.
func NormalizeTarget(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "whatsapp:")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "@") {
		return strings.ToLower(s)
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

// IsGroupJID reports whether the canonical target addresses a group chat.
func IsGroupJID(target string) bool {
	return strings.HasSuffix(target, groupJIDSuffix)
}

// resolveTarget applies the provider addressing rules: an absent target
// falls back to the first usable allow-list entry in every mode; a present
// but unparseable target is an error in explicit mode and falls back
// otherwise.
func resolveTarget(req provider.TargetRequest) (string, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(req.To), "whatsapp:"))

	if raw == "" {
		return fallback(req.AllowFrom)
	}
	if norm := NormalizeTarget(raw); norm != "" {
		return norm, nil
	}
	if req.Mode == provider.TargetExplicit {
		return "", fmt.Errorf("WhatsApp target %q is invalid (expected a phone number like +15551234567 or a JID)", req.To)
	}
	return fallback(req.AllowFrom)
}

func fallback(allowFrom []string) (string, error) {
	if fb := outbound.FallbackTarget(allowFrom); fb != "" {
		if norm := NormalizeTarget(fb); norm != "" {
			return norm, nil
		}
	}
	return "", fmt.Errorf("WhatsApp target missing (expected a phone number like +15551234567 or a JID, and no allow-list fallback is configured)")
}
