package reply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/courierhq/courier/internal/config"
	"github.com/courierhq/courier/internal/provider"
	"github.com/courierhq/courier/pkg/payload"
)

// Router is the reply-routing entry point used by asynchronous delivery
// consumers: the followup queue, the heartbeat sender, and the gateway.
type Router struct {
	reg      *provider.Registry
	messages config.MessagesConfig
	log      *slog.Logger
	tracer   trace.Tracer
}

// NewRouter builds a router over the registry with the messages config
// (response prefixes).
func NewRouter(reg *provider.Registry, messages config.MessagesConfig, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		reg:      reg,
		messages: messages,
		log:      log,
		tracer:   otel.Tracer("courier/reply"),
	}
}

// RouteParams describes one queued reply to deliver.
type RouteParams struct {
	Payload    payload.Reply
	Channel    string
	To         string
	SessionKey string
	AccountID  string
	ThreadID   int64
}

// RouteResult is the structured outcome of one routing call. OK with an
// empty MessageID means the payload normalized to nothing and no send was
// attempted.
type RouteResult struct {
	OK        bool   `json:"ok"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RouteReply resolves the channel's plugin, normalizes the payload, and
// sends it: text as one call, media sequentially with the text as caption on
// the first item only, failing fast on the first send error. The context is
// checked before every send; routing never panics across this boundary.
func (r *Router) RouteReply(ctx context.Context, p RouteParams) RouteResult {
	ctx, span := r.tracer.Start(ctx, "reply.route", trace.WithAttributes(
		attribute.String("channel", p.Channel),
	))
	defer span.End()

	prefix := r.messages.ResolveResponsePrefix(p.SessionKey)
	n, ok := payload.Normalize(p.Payload, prefix)
	if !ok {
		return RouteResult{OK: true}
	}

	id, ok := r.reg.Resolve(p.Channel)
	if !ok {
		return RouteResult{Error: fmt.Sprintf("Unknown channel: %s", p.Channel)}
	}
	if id == provider.WebChat {
		return RouteResult{Error: "Webchat routing not supported for queued replies"}
	}
	plugin, _ := r.reg.Get(id)
	out := plugin.Outbound()
	if out == nil {
		return RouteResult{Error: fmt.Sprintf("Reply routing not configured for %s", plugin.Meta().Label)}
	}

	accountID := p.AccountID
	if accountID == "" {
		accountID = plugin.Accounts().DefaultAccountID()
	}

	result, err := r.send(ctx, out, p, accountID, n)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return RouteResult{Error: "Reply routing aborted"}
		}
		r.log.Warn("reply routing failed", "channel", p.Channel, "to", p.To, "error", err)
		return RouteResult{Error: fmt.Sprintf("Failed to route reply to %s: %s", p.Channel, err)}
	}
	return RouteResult{OK: true, MessageID: result.MessageID}
}

// send performs the physical sends for one normalized payload and returns
// the last acknowledgement.
func (r *Router) send(ctx context.Context, out provider.Outbound, p RouteParams, accountID string, n payload.Normalized) (provider.SendResult, error) {
	if !n.HasMedia() {
		if err := ctx.Err(); err != nil {
			return provider.SendResult{}, err
		}
		return out.SendText(ctx, provider.SendRequest{
			To:        p.To,
			Text:      n.Text,
			AccountID: accountID,
			ReplyToID: n.ReplyToID,
			ThreadID:  p.ThreadID,
		})
	}

	var last provider.SendResult
	for i, url := range n.MediaURLs {
		if err := ctx.Err(); err != nil {
			return last, err
		}
		caption := ""
		if i == 0 {
			caption = n.Text
		}
		res, err := out.SendMedia(ctx, provider.SendRequest{
			To:        p.To,
			Text:      caption,
			MediaURL:  url,
			AccountID: accountID,
			ReplyToID: n.ReplyToID,
			ThreadID:  p.ThreadID,
		})
		if err != nil {
			return last, err
		}
		last = res
	}
	return last, nil
}
