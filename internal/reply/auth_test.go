package reply

import (
	"strings"
	"testing"

	"github.com/courierhq/courier/internal/provider"
	"github.com/courierhq/courier/internal/provider/providertest"
)

func enforcingPlugin(id provider.ID, allow []string) *providertest.Plugin {
	p, _ := providertest.New(id)
	p.EnforceOwner = true
	p.Accts = &providertest.Accounts{
		Allow: map[string][]string{"default": allow},
	}
	return p
}

func mustRegistry(t *testing.T, plugins ...provider.Plugin) *provider.Registry {
	t.Helper()
	reg, err := provider.NewRegistry(plugins...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestAuthWildcardAllowsAll(t *testing.T) {
	t.Parallel()
	reg := mustRegistry(t, enforcingPlugin(provider.WhatsApp, []string{"*"}))

	auth := ResolveCommandAuthorization(reg, MsgContext{
		Provider: "whatsapp",
		SenderID: "+9999",
	}, true)
	if !auth.IsAuthorizedSender {
		t.Error("wildcard allow-list must authorize any sender")
	}
	if len(auth.Owners) != 0 {
		t.Errorf("Owners = %v, wildcard must be excluded", auth.Owners)
	}
}

func TestAuthEmptyAllowListAllowsAll(t *testing.T) {
	t.Parallel()
	reg := mustRegistry(t, enforcingPlugin(provider.WhatsApp, nil))

	auth := ResolveCommandAuthorization(reg, MsgContext{Provider: "whatsapp", SenderID: "+9999"}, true)
	if !auth.IsAuthorizedSender {
		t.Error("empty allow-list must authorize any sender")
	}
}

func TestAuthOwnerCheck(t *testing.T) {
	t.Parallel()
	reg := mustRegistry(t, enforcingPlugin(provider.WhatsApp, []string{"+1555"}))

	tests := []struct {
		name   string
		sender string
		want   bool
	}{
		{"owner", "+1555", true},
		{"owner unnormalized", " +1555 ", true},
		{"stranger", "+2666", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			auth := ResolveCommandAuthorization(reg, MsgContext{
				Provider: "whatsapp",
				SenderID: tc.sender,
			}, true)
			if auth.IsAuthorizedSender != tc.want {
				t.Errorf("IsAuthorizedSender = %v, want %v", auth.IsAuthorizedSender, tc.want)
			}
		})
	}
}

func TestAuthTwoStageGate(t *testing.T) {
	t.Parallel()
	reg := mustRegistry(t, enforcingPlugin(provider.WhatsApp, []string{"+1555"}))

	// Owner identity passes but the syntactic gate fails.
	auth := ResolveCommandAuthorization(reg, MsgContext{
		Provider: "whatsapp",
		SenderID: "+1555",
	}, false)
	if auth.IsAuthorizedSender {
		t.Error("syntactic gate must veto even for the owner")
	}
}

func TestAuthNoEnforcementPolicy(t *testing.T) {
	t.Parallel()
	p, _ := providertest.New(provider.Discord)
	p.EnforceOwner = false
	p.Accts = &providertest.Accounts{
		Allow: map[string][]string{"default": {"owner#1"}},
	}
	reg := mustRegistry(t, p)

	auth := ResolveCommandAuthorization(reg, MsgContext{
		Provider: "discord",
		SenderID: "stranger#2",
	}, true)
	if !auth.IsAuthorizedSender {
		t.Error("provider without owner enforcement must not restrict commands")
	}
}

func TestAuthProviderInference(t *testing.T) {
	t.Parallel()
	wa := enforcingPlugin(provider.WhatsApp, []string{"+1555"})
	tg, _ := providertest.New(provider.Telegram)
	reg := mustRegistry(t, wa, tg)

	tests := []struct {
		name string
		ctx  MsgContext
		want provider.ID
	}{
		{"explicit field", MsgContext{Provider: "whatsapp"}, provider.WhatsApp},
		{"surface field", MsgContext{Surface: "telegram"}, provider.Telegram},
		{"from prefix", MsgContext{From: "whatsapp:+1555"}, provider.WhatsApp},
		{"to prefix", MsgContext{To: "telegram:42"}, provider.Telegram},
		{"single configured allow-list", MsgContext{SenderID: "+1555"}, provider.WhatsApp},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			auth := ResolveCommandAuthorization(reg, tc.ctx, true)
			if auth.Provider != tc.want {
				t.Errorf("Provider = %q, want %q", auth.Provider, tc.want)
			}
		})
	}
}

func TestAuthSelfDMBootstrap(t *testing.T) {
	t.Parallel()
	// Allow-list entries all fail normalization, leaving the conversation
	// target as the sole owner.
	p, _ := providertest.New(provider.WhatsApp)
	p.EnforceOwner = true
	p.Accts = &providertest.Accounts{
		Allow: map[string][]string{"default": {"bogus"}},
		Normalize: func(raw string) string {
			raw = strings.TrimSpace(raw)
			if !strings.HasPrefix(raw, "+") {
				return ""
			}
			return raw
		},
	}
	reg := mustRegistry(t, p)

	auth := ResolveCommandAuthorization(reg, MsgContext{
		Provider: "whatsapp",
		To:       "whatsapp:+1555",
		SenderID: "+1555",
	}, true)
	if len(auth.Owners) != 1 || auth.Owners[0] != "+1555" {
		t.Fatalf("Owners = %v, want conversation target as sole owner", auth.Owners)
	}
	if !auth.IsAuthorizedSender {
		t.Error("sender matching bootstrapped owner must be authorized")
	}

	other := ResolveCommandAuthorization(reg, MsgContext{
		Provider: "whatsapp",
		To:       "whatsapp:+1555",
		SenderID: "+2666",
	}, true)
	if other.IsAuthorizedSender {
		t.Error("non-owner must be rejected after bootstrap")
	}
}

func TestRequireMentionDefaultsTrue(t *testing.T) {
	t.Parallel()
	p, _ := providertest.New(provider.Slack)
	if !RequireMention(p, "") {
		t.Error("plugins without a group policy must require mentions")
	}
	if !RequireMention(nil, "") {
		t.Error("nil plugin must require mentions")
	}
}
