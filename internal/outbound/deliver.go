// Package outbound implements the delivery pipeline: target resolution,
// payload normalization, chunking, media sequencing, and per-send accounting.
package outbound

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/courierhq/courier/internal/provider"
	"github.com/courierhq/courier/pkg/payload"
)

// Deliverer drives provider send operations for batches of reply payloads.
// Instances are safe for concurrent use; all mutable state is per-call.
type Deliverer struct {
	reg     *provider.Registry
	log     *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// NewDeliverer builds a pipeline over the given registry. metrics may be nil.
func NewDeliverer(reg *provider.Registry, log *slog.Logger, metrics *Metrics) *Deliverer {
	if log == nil {
		log = slog.Default()
	}
	return &Deliverer{
		reg:     reg,
		log:     log,
		metrics: metrics,
		tracer:  otel.Tracer("courier/outbound"),
	}
}

// Registry returns the provider registry the pipeline dispatches through.
func (d *Deliverer) Registry() *provider.Registry { return d.reg }

// DeliverParams describes one batch delivery.
type DeliverParams struct {
	Channel   string
	To        string
	AccountID string
	Payloads  []payload.Reply

	// Prefix is the response prefix applied during normalization.
	Prefix string

	// BestEffort continues past a failing payload instead of aborting the
	// batch. A failing payload contributes no results.
	BestEffort bool

	// OnError observes per-payload failures in best-effort mode.
	OnError func(err error, p payload.Normalized)

	// OnPayload observes each normalized payload before its sends.
	OnPayload func(p payload.Normalized)
}

// Deliver normalizes params.Payloads and sends them in order. Text is split
// with the provider's chunker when it declares one; media sequences send one
// call per URL with the text as caption on the first item only. The returned
// results hold one entry per physical send that succeeded, in send order.
// The context is checked before every physical send.
func (d *Deliverer) Deliver(ctx context.Context, params DeliverParams) ([]provider.SendResult, error) {
	id, ok := d.reg.Resolve(params.Channel)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, params.Channel)
	}
	plugin, _ := d.reg.Get(id)
	meta := plugin.Meta()

	out := plugin.Outbound()
	if out == nil {
		if id == provider.WebChat {
			return nil, fmt.Errorf("%w: %s has no outbound adapter", ErrNotRoutable, meta.Label)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, meta.Label)
	}

	accountID := params.AccountID
	if accountID == "" {
		accountID = plugin.Accounts().DefaultAccountID()
	}

	normalized := payload.NormalizeAll(params.Payloads, params.Prefix)

	ctx, span := d.tracer.Start(ctx, "outbound.deliver", trace.WithAttributes(
		attribute.String("provider", string(id)),
		attribute.Int("payloads", len(normalized)),
		attribute.Bool("best_effort", params.BestEffort),
	))
	defer span.End()

	var results []provider.SendResult
	for _, n := range normalized {
		if params.OnPayload != nil {
			params.OnPayload(n)
		}

		batch, err := d.sendPayload(ctx, id, out, params.To, accountID, n)
		if err != nil {
			d.metrics.sendErr(string(id))
			if params.BestEffort {
				d.log.Warn("payload delivery failed, continuing",
					"provider", id, "to", params.To, "error", err)
				if params.OnError != nil {
					params.OnError(err, n)
				}
				continue
			}
			span.SetStatus(codes.Error, err.Error())
			return append(results, batch...), err
		}
		results = append(results, batch...)
	}
	return results, nil
}

// sendPayload performs the physical sends for one normalized payload and
// returns the results that succeeded before any error.
func (d *Deliverer) sendPayload(ctx context.Context, id provider.ID, out provider.Outbound, to, accountID string, n payload.Normalized) ([]provider.SendResult, error) {
	if n.HasMedia() {
		var batch []provider.SendResult
		for i, url := range n.MediaURLs {
			if err := ctx.Err(); err != nil {
				return batch, fmt.Errorf("delivery aborted: %w", err)
			}
			caption := ""
			if i == 0 {
				caption = n.Text
			}
			res, err := out.SendMedia(ctx, provider.SendRequest{
				To:        to,
				Text:      caption,
				MediaURL:  url,
				AccountID: accountID,
				ReplyToID: n.ReplyToID,
			})
			if err != nil {
				return batch, err
			}
			res.Provider = id
			d.metrics.sendOK(string(id))
			batch = append(batch, res)
		}
		return batch, nil
	}

	chunks := []string{n.Text}
	if c, ok := out.(provider.Chunking); ok {
		chunks = c.Chunk(n.Text, c.ChunkLimit())
	}

	var batch []provider.SendResult
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return batch, fmt.Errorf("delivery aborted: %w", err)
		}
		res, err := out.SendText(ctx, provider.SendRequest{
			To:        to,
			Text:      chunk,
			AccountID: accountID,
			ReplyToID: n.ReplyToID,
		})
		if err != nil {
			return batch, err
		}
		res.Provider = id
		d.metrics.sendOK(string(id))
		batch = append(batch, res)
	}
	return batch, nil
}
