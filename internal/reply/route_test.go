package reply

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/courierhq/courier/internal/config"
	"github.com/courierhq/courier/internal/provider"
	"github.com/courierhq/courier/internal/provider/providertest"
	"github.com/courierhq/courier/pkg/payload"
)

func newRouter(t *testing.T, messages config.MessagesConfig, plugins ...provider.Plugin) *Router {
	t.Helper()
	return NewRouter(mustRegistry(t, plugins...), messages, nil)
}

func TestRouteReplyTextSuccess(t *testing.T) {
	t.Parallel()
	p, out := providertest.New(provider.Telegram)
	out.SendTextFn = func(_ context.Context, req provider.SendRequest) (provider.SendResult, error) {
		return provider.SendResult{MessageID: "42"}, nil
	}
	r := newRouter(t, config.MessagesConfig{}, p)

	res := r.RouteReply(context.Background(), RouteParams{
		Payload: payload.Reply{Text: "hello"},
		Channel: "telegram",
		To:      "tg:1",
	})
	if !res.OK || res.MessageID != "42" || res.Error != "" {
		t.Errorf("RouteReply = %+v, want ok with message id", res)
	}
	if out.CallCount() != 1 {
		t.Errorf("sends = %d, want exactly one text send", out.CallCount())
	}
}

func TestRouteReplyEmptyPayloadNoOp(t *testing.T) {
	t.Parallel()
	p, out := providertest.New(provider.Telegram)
	r := newRouter(t, config.MessagesConfig{}, p)

	res := r.RouteReply(context.Background(), RouteParams{
		Payload: payload.Reply{Text: "   "},
		Channel: "telegram",
		To:      "tg:1",
	})
	if !res.OK || res.MessageID != "" {
		t.Errorf("RouteReply = %+v, want no-op success", res)
	}
	if out.CallCount() != 0 {
		t.Errorf("sends = %d, want none", out.CallCount())
	}
}

func TestRouteReplyUnknownChannel(t *testing.T) {
	t.Parallel()
	r := newRouter(t, config.MessagesConfig{})
	res := r.RouteReply(context.Background(), RouteParams{
		Payload: payload.Reply{Text: "hi"},
		Channel: "matrix",
		To:      "x",
	})
	if res.OK || res.Error != "Unknown channel: matrix" {
		t.Errorf("RouteReply = %+v, want unknown channel error", res)
	}
}

func TestRouteReplyRejectsWebchat(t *testing.T) {
	t.Parallel()
	web, _ := providertest.New(provider.WebChat)
	web.Out = nil
	r := newRouter(t, config.MessagesConfig{}, web)

	res := r.RouteReply(context.Background(), RouteParams{
		Payload: payload.Reply{Text: "hi"},
		Channel: "webchat",
		To:      "session-1",
	})
	if res.OK || res.Error != "Webchat routing not supported for queued replies" {
		t.Errorf("RouteReply = %+v, want webchat rejection", res)
	}
}

func TestRouteReplyNotConfigured(t *testing.T) {
	t.Parallel()
	sig, _ := providertest.New(provider.Signal)
	sig.MetaInfo.Label = "Signal"
	sig.Out = nil
	r := newRouter(t, config.MessagesConfig{}, sig)

	res := r.RouteReply(context.Background(), RouteParams{
		Payload: payload.Reply{Text: "hi"},
		Channel: "signal",
		To:      "+1555",
	})
	if res.OK || res.Error != "Reply routing not configured for Signal" {
		t.Errorf("RouteReply = %+v, want configuration error", res)
	}
}

func TestRouteReplyMediaFailFast(t *testing.T) {
	t.Parallel()
	p, out := providertest.New(provider.Discord)
	out.SendMediaFn = func(_ context.Context, req provider.SendRequest) (provider.SendResult, error) {
		if strings.Contains(req.MediaURL, "2.png") {
			return provider.SendResult{}, errors.New("upload rejected")
		}
		return provider.SendResult{MessageID: "m-" + req.MediaURL}, nil
	}
	r := newRouter(t, config.MessagesConfig{}, p)

	res := r.RouteReply(context.Background(), RouteParams{
		Payload: payload.Reply{
			Text:      "caption",
			MediaURLs: []string{"https://x/1.png", "https://x/2.png", "https://x/3.png"},
		},
		Channel: "discord",
		To:      "channel:9",
	})
	if res.OK {
		t.Fatalf("RouteReply = %+v, want failure from second media item", res)
	}
	if !strings.Contains(res.Error, "Failed to route reply to discord") ||
		!strings.Contains(res.Error, "upload rejected") {
		t.Errorf("Error = %q, want wrapped send failure", res.Error)
	}

	calls := out.Calls()
	// First send completed before the failure; the third was never attempted.
	if len(calls) != 2 {
		t.Fatalf("sends = %d, want 2 (fail-fast)", len(calls))
	}
	if calls[0].Text != "caption" || calls[1].Text != "" {
		t.Errorf("captions = [%q, %q], want caption on first item only", calls[0].Text, calls[1].Text)
	}
}

func TestRouteReplyAborted(t *testing.T) {
	t.Parallel()
	p, out := providertest.New(provider.Telegram)
	r := newRouter(t, config.MessagesConfig{}, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := r.RouteReply(ctx, RouteParams{
		Payload: payload.Reply{Text: "hi"},
		Channel: "telegram",
		To:      "tg:1",
	})
	if res.OK || res.Error != "Reply routing aborted" {
		t.Errorf("RouteReply = %+v, want aborted result", res)
	}
	if out.CallCount() != 0 {
		t.Errorf("sends attempted after cancellation: %d", out.CallCount())
	}
}

func TestRouteReplyResponsePrefix(t *testing.T) {
	t.Parallel()
	p, out := providertest.New(provider.Telegram)
	var sent string
	out.SendTextFn = func(_ context.Context, req provider.SendRequest) (provider.SendResult, error) {
		sent = req.Text
		return provider.SendResult{MessageID: "1"}, nil
	}
	messages := config.MessagesConfig{
		ResponsePrefix: "[bot]",
		Agents: map[string]config.AgentMessages{
			"support": {ResponsePrefix: ">>"},
		},
	}
	r := newRouter(t, messages, p)

	r.RouteReply(context.Background(), RouteParams{
		Payload: payload.Reply{Text: "hi"},
		Channel: "telegram",
		To:      "tg:1",
	})
	if sent != "[bot] hi" {
		t.Errorf("global prefix: sent %q, want %q", sent, "[bot] hi")
	}

	r.RouteReply(context.Background(), RouteParams{
		Payload:    payload.Reply{Text: "hi"},
		Channel:    "telegram",
		To:         "tg:1",
		SessionKey: "support:room-7",
	})
	if sent != ">> hi" {
		t.Errorf("agent prefix: sent %q, want %q", sent, ">> hi")
	}
}
