package whatsapp

import (
	"strings"
	"testing"

	"github.com/courierhq/courier/internal/provider"
)

func TestNormalizeTarget(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already canonical", "+15551234567", "+15551234567"},
		{"formatted number", " (555) 123-4567 ", "+5551234567"},
		{"channel prefix", "whatsapp:+1555", "+1555"},
		{"jid passthrough", "1555@s.whatsapp.net", "1555@s.whatsapp.net"},
		{"group jid passthrough", "123-456@g.us", "123-456@g.us"},
		{"letters only", "not-a-number", ""},
		{"empty", "   ", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeTarget(tc.raw); got != tc.want {
				t.Errorf("NormalizeTarget(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestIsGroupJID(t *testing.T) {
	t.Parallel()
	if !IsGroupJID("123-456@g.us") {
		t.Error("group JID not recognized")
	}
	if IsGroupJID("1555@s.whatsapp.net") || IsGroupJID("+1555") {
		t.Error("non-group target classified as group")
	}
}

func TestResolveTargetFallback(t *testing.T) {
	t.Parallel()
	got, err := resolveTarget(provider.TargetRequest{
		To:        "",
		AllowFrom: []string{"+1555"},
		Mode:      provider.TargetExplicit,
	})
	if err != nil {
		t.Fatalf("resolveTarget: %v", err)
	}
	if got != "+1555" {
		t.Errorf("to = %q, want allow-list fallback %q", got, "+1555")
	}
}

func TestResolveTargetSkipsWildcardFallback(t *testing.T) {
	t.Parallel()
	got, err := resolveTarget(provider.TargetRequest{
		AllowFrom: []string{"*", "+1555"},
		Mode:      provider.TargetHeartbeat,
	})
	if err != nil {
		t.Fatalf("resolveTarget: %v", err)
	}
	if got != "+1555" {
		t.Errorf("to = %q, want first non-wildcard entry", got)
	}
}

func TestResolveTargetNormalizes(t *testing.T) {
	t.Parallel()
	got, err := resolveTarget(provider.TargetRequest{
		To:   " (555) 123-4567 ",
		Mode: provider.TargetExplicit,
	})
	if err != nil {
		t.Fatalf("resolveTarget: %v", err)
	}
	if got != "+5551234567" {
		t.Errorf("to = %q, want %q", got, "+5551234567")
	}
}

func TestResolveTargetExplicitInvalid(t *testing.T) {
	t.Parallel()
	_, err := resolveTarget(provider.TargetRequest{
		To:        "garbage",
		AllowFrom: []string{"+1555"},
		Mode:      provider.TargetExplicit,
	})
	if err == nil {
		t.Fatal("explicit mode must not substitute an invalid target")
	}
	if !strings.Contains(err.Error(), "WhatsApp") {
		t.Errorf("error %q does not name the provider", err)
	}
}

func TestResolveTargetImplicitInvalidFallsBack(t *testing.T) {
	t.Parallel()
	got, err := resolveTarget(provider.TargetRequest{
		To:        "garbage",
		AllowFrom: []string{"+1555"},
		Mode:      provider.TargetImplicit,
	})
	if err != nil {
		t.Fatalf("resolveTarget: %v", err)
	}
	if got != "+1555" {
		t.Errorf("to = %q, want fallback", got)
	}
}

func TestResolveTargetNoFallbackAvailable(t *testing.T) {
	t.Parallel()
	_, err := resolveTarget(provider.TargetRequest{Mode: provider.TargetHeartbeat})
	if err == nil || !strings.Contains(err.Error(), "WhatsApp") {
		t.Errorf("err = %v, want provider-naming error", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	cfg := Config{AllowFrom: []string{"*", "+1555"}}
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	bad := Config{ReplyToMode: "sometimes"}
	bad.defaults()
	if err := bad.validate(); err == nil {
		t.Error("invalid reply_to_mode accepted")
	}

	badAllow := Config{AllowFrom: []string{"nonsense"}}
	badAllow.defaults()
	if err := badAllow.validate(); err == nil {
		t.Error("unparseable allow_from entry accepted")
	}
}
