package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/courierhq/courier/internal/reply"
)

// replyRouter is the slice of reply.Router the sender needs.
type replyRouter interface {
	RouteReply(ctx context.Context, p reply.RouteParams) reply.RouteResult
}

// Sender drains the queue, routing each pending item with bounded retries.
type Sender struct {
	store       *Store
	router      replyRouter
	logger      *slog.Logger
	interval    time.Duration
	maxAttempts int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSender builds a sender over the store and router. interval and
// maxAttempts fall back to 2s and 5 when zero.
func NewSender(store *Store, router replyRouter, logger *slog.Logger, interval time.Duration, maxAttempts int) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Sender{
		store:       store,
		router:      router,
		logger:      logger,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Start launches the drain loop.
func (s *Sender) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop cancels the drain loop and waits for the in-flight item to settle.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Sender) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Drain(ctx)
		}
	}
}

// Drain routes pending items until the queue is empty, an item fails, or
// the context is cancelled.
func (s *Sender) Drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		item, err := s.store.NextPending(ctx)
		if err != nil {
			s.logger.Error("queue: read pending item", "error", err)
			return
		}
		if item == nil {
			return
		}
		if !s.deliver(ctx, item) {
			return
		}
	}
}

// deliver routes one item and reports whether draining should continue.
func (s *Sender) deliver(ctx context.Context, item *Item) bool {
	res := s.router.RouteReply(ctx, reply.RouteParams{
		Payload:    item.Payload,
		Channel:    item.Channel,
		To:         item.To,
		SessionKey: item.SessionKey,
		AccountID:  item.AccountID,
		ThreadID:   item.ThreadID,
	})
	if res.OK {
		if err := s.store.MarkSent(ctx, item.ID); err != nil {
			s.logger.Error("queue: mark sent", "id", item.ID, "error", err)
		}
		return true
	}

	// Cancellation keeps the item pending untouched; it will be retried on
	// the next start.
	if ctx.Err() != nil {
		return false
	}

	if item.Attempts+1 >= s.maxAttempts {
		s.logger.Warn("queue: giving up on item",
			"id", item.ID, "channel", item.Channel, "error", res.Error)
		if err := s.store.MarkFailed(ctx, item.ID, res.Error); err != nil {
			s.logger.Error("queue: mark failed", "id", item.ID, "error", err)
		}
		return true
	}

	s.logger.Warn("queue: delivery failed, will retry",
		"id", item.ID, "channel", item.Channel, "attempt", item.Attempts+1, "error", res.Error)
	if err := s.store.MarkRetry(ctx, item.ID, res.Error); err != nil {
		s.logger.Error("queue: mark retry", "id", item.ID, "error", err)
	}
	// Stop the pass so the retry waits for the next tick instead of
	// hammering the provider.
	return false
}
