package signal

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
		{"canonical number", "+15551234567", "+15551234567"},
		{"formatted number", " (555) 123-4567 ", "+5551234567"},
		{"channel prefix", "signal:+1555", "+1555"},
		{"group id", "group.abc123==", "group.abc123=="},
		{"letters", "nonsense", ""},
		{"blank", "  ", ""},
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

func TestResolveTargetErrorsNameProvider(t *testing.T) {
	t.Parallel()
	_, err := resolveTarget(provider.TargetRequest{To: "nonsense", Mode: provider.TargetExplicit})
	if err == nil || !strings.Contains(err.Error(), "Signal") {
		t.Errorf("err = %v, want provider-naming error", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	cfg := Config{Account: "+15551234567"}
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	missing := Config{}
	missing.defaults()
	if err := missing.validate(); err == nil {
		t.Error("missing account accepted")
	}
}
