package telegram

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/courierhq/courier/internal/outbound"
	"github.com/courierhq/courier/internal/provider"
)

var (
	tmePattern      = regexp.MustCompile(`^(?:https?://)?(?:t\.me|telegram\.me)/([A-Za-z0-9_]{4,})/?$`)
	chatIDPattern   = regexp.MustCompile(`^-?\d+$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{4,}$`)
)

// NormalizeTarget canonicalizes a Telegram destination to either a numeric
// chat ID (possibly negative for groups) or an "@handle". Accepted input
// forms: "telegram:<x>", "tg:<x>", "group:<id>", t.me links, "@handle",
// bare handles, and raw chat IDs. Returns "" when nothing matches.
func NormalizeTarget(raw string) string {
	s := strings.TrimSpace(raw)
	for _, prefix := range []string{"telegram:", "tg:", "group:"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			s = strings.TrimSpace(rest)
			break
		}
	}
	if s == "" {
		return ""
	}
	if m := tmePattern.FindStringSubmatch(s); m != nil {
		return "@" + m[1]
	}
	if chatIDPattern.MatchString(s) {
		return s
	}
	if handle, ok := strings.CutPrefix(s, "@"); ok {
		if usernamePattern.MatchString(handle) {
			return "@" + handle
		}
		return ""
	}
	if usernamePattern.MatchString(s) {
		return "@" + s
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
		return "", fmt.Errorf("Telegram target %q is invalid (expected a chat ID, @handle, or t.me link)", req.To)
	}
	return fallback(req.AllowFrom)
}

func fallback(allowFrom []string) (string, error) {
	if fb := outbound.FallbackTarget(allowFrom); fb != "" {
		if norm := NormalizeTarget(fb); norm != "" {
			return norm, nil
		}
	}
	return "", fmt.Errorf("Telegram target missing (expected a chat ID, @handle, or t.me link, and no allow-list fallback is configured)")
}
