package outbound_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/courierhq/courier/internal/outbound"
	"github.com/courierhq/courier/internal/provider"
	"github.com/courierhq/courier/internal/provider/providertest"
)

func TestResolveTargetUnknownChannel(t *testing.T) {
	t.Parallel()
	reg, err := provider.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	_, err = outbound.ResolveTarget(reg, outbound.ResolveParams{Channel: "matrix", To: "x"})
	if !errors.Is(err, outbound.ErrUnknownChannel) {
		t.Errorf("err = %v, want ErrUnknownChannel", err)
	}
}

func TestResolveTargetRejectsInternalChannel(t *testing.T) {
	t.Parallel()
	web, _ := providertest.New(provider.WebChat)
	web.MetaInfo.Label = "WebChat"
	web.Out = nil

	reg, err := provider.NewRegistry(web)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	_, err = outbound.ResolveTarget(reg, outbound.ResolveParams{Channel: "webchat", To: "x"})
	if !errors.Is(err, outbound.ErrNotRoutable) {
		t.Fatalf("err = %v, want ErrNotRoutable", err)
	}
	if !strings.Contains(err.Error(), "WebChat") {
		t.Errorf("error %q does not name the channel", err)
	}
}

func TestResolveTargetDefaultsAccountAndAllowList(t *testing.T) {
	t.Parallel()
	p, out := providertest.New(provider.Slack)
	p.Accts = &providertest.Accounts{
		DefaultID: "work",
		Allow:     map[string][]string{"work": {"*", "@owner"}},
	}

	var got provider.TargetRequest
	out.ResolveFn = func(req provider.TargetRequest) (string, error) {
		got = req
		return "@owner", nil
	}

	reg, err := provider.NewRegistry(p)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	to, err := outbound.ResolveTarget(reg, outbound.ResolveParams{
		Channel: "Slack",
		Mode:    provider.TargetHeartbeat,
	})
	if err != nil {
		t.Fatalf("ResolveTarget: %v", err)
	}
	if to != "@owner" {
		t.Errorf("to = %q, want %q", to, "@owner")
	}
	if got.AccountID != "work" {
		t.Errorf("AccountID = %q, want default account", got.AccountID)
	}
	if len(got.AllowFrom) != 2 {
		t.Errorf("AllowFrom = %v, want account allow-list", got.AllowFrom)
	}
}

func TestFallbackTargetSkipsWildcard(t *testing.T) {
	t.Parallel()
	tests := []struct {
		allow []string
		want  string
	}{
		{nil, ""},
		{[]string{"*"}, ""},
		{[]string{"*", "+1555"}, "+1555"},
		{[]string{"", "+1555", "+2666"}, "+1555"},
	}
	for _, tc := range tests {
		if got := outbound.FallbackTarget(tc.allow); got != tc.want {
			t.Errorf("FallbackTarget(%v) = %q, want %q", tc.allow, got, tc.want)
		}
	}
}
