package slack

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
		{"channel id", "C024BE91L", "C024BE91L"},
		{"lowercase channel id", "c024be91l", "C024BE91L"},
		{"channel prefix", "channel:C024BE91L", "C024BE91L"},
		{"channel name", "#general", "#general"},
		{"channel name uppercase", "#General", "#general"},
		{"user prefix", "user:U12345", "user:U12345"},
		{"at user id", "@U12345", "user:U12345"},
		{"bare user id", "U12345", "user:U12345"},
		{"dm channel", "D024BE91L", "D024BE91L"},
		{"at display name", "@alice", ""},
		{"blank", " ", ""},
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

func TestNormalizeAddressStripsUserPrefix(t *testing.T) {
	t.Parallel()
	if got := NormalizeAddress("user:U12345"); got != "U12345" {
		t.Errorf("NormalizeAddress = %q, want bare user ID", got)
	}
	if got := NormalizeAddress("@U12345"); got != "U12345" {
		t.Errorf("NormalizeAddress = %q, want bare user ID", got)
	}
}

func TestResolveTargetExplicitInvalid(t *testing.T) {
	t.Parallel()
	_, err := resolveTarget(provider.TargetRequest{
		To:        "@alice",
		AllowFrom: []string{"U12345"},
		Mode:      provider.TargetExplicit,
	})
	if err == nil || !strings.Contains(err.Error(), "Slack") {
		t.Errorf("err = %v, want provider-naming error", err)
	}
}

func TestResolveTargetHeartbeatFallback(t *testing.T) {
	t.Parallel()
	got, err := resolveTarget(provider.TargetRequest{
		AllowFrom: []string{"*", "U12345"},
		Mode:      provider.TargetHeartbeat,
	})
	if err != nil {
		t.Fatalf("resolveTarget: %v", err)
	}
	if got != "user:U12345" {
		t.Errorf("to = %q, want DM fallback from allow-list", got)
	}
}
