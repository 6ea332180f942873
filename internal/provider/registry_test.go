package provider_test

import (
	"errors"
	"testing"

	"github.com/courierhq/courier/internal/provider"
	"github.com/courierhq/courier/internal/provider/providertest"
)

func TestRegistryResolveAliases(t *testing.T) {
	t.Parallel()

	wa, _ := providertest.New(provider.WhatsApp)
	wa.MetaInfo.Aliases = []string{"web"}
	tg, _ := providertest.New(provider.Telegram)
	tg.MetaInfo.Aliases = []string{"tg"}

	reg, err := provider.NewRegistry(wa, tg)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	tests := []struct {
		raw  string
		want provider.ID
		ok   bool
	}{
		{"whatsapp", provider.WhatsApp, true},
		{"  WhatsApp ", provider.WhatsApp, true},
		{"web", provider.WhatsApp, true},
		{"tg", provider.Telegram, true},
		{"TG", provider.Telegram, true},
		{"discord", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		id, ok := reg.Resolve(tc.raw)
		if ok != tc.ok || id != tc.want {
			t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tc.raw, id, ok, tc.want, tc.ok)
		}
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	a, _ := providertest.New(provider.Slack)
	b, _ := providertest.New(provider.Slack)
	if _, err := provider.NewRegistry(a, b); !errors.Is(err, provider.ErrDuplicatePlugin) {
		t.Errorf("duplicate ID: err = %v, want ErrDuplicatePlugin", err)
	}

	c, _ := providertest.New(provider.Discord)
	c.MetaInfo.Aliases = []string{"chat"}
	d, _ := providertest.New(provider.Telegram)
	d.MetaInfo.Aliases = []string{"Chat"}
	if _, err := provider.NewRegistry(c, d); !errors.Is(err, provider.ErrDuplicatePlugin) {
		t.Errorf("duplicate alias: err = %v, want ErrDuplicatePlugin", err)
	}
}

func TestRegistryListSorted(t *testing.T) {
	t.Parallel()

	tg, _ := providertest.New(provider.Telegram)
	dc, _ := providertest.New(provider.Discord)
	sl, _ := providertest.New(provider.Slack)

	reg, err := provider.NewRegistry(tg, dc, sl)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	got := reg.List()
	want := []provider.ID{provider.Discord, provider.Slack, provider.Telegram}
	if len(got) != len(want) {
		t.Fatalf("List() returned %d plugins, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.Meta().ID != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, p.Meta().ID, want[i])
		}
	}
}
