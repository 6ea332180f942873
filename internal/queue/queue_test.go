package queue

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/courierhq/courier/internal/reply"
	"github.com/courierhq/courier/pkg/payload"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreEnqueueAndDrainOrder(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"first", "second"} {
		if _, err := store.Enqueue(ctx, Item{
			Channel: "telegram",
			To:      "42",
			Payload: payload.Reply{Text: text},
		}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	item, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending: %v", err)
	}
	if item == nil || item.Payload.Text != "first" {
		t.Fatalf("NextPending = %+v, want oldest item first", item)
	}

	if err := store.MarkSent(ctx, item.ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	item, err = store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending: %v", err)
	}
	if item == nil || item.Payload.Text != "second" {
		t.Fatalf("NextPending = %+v, want second item after first sent", item)
	}

	if err := store.MarkSent(ctx, item.ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	item, err = store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending: %v", err)
	}
	if item != nil {
		t.Fatalf("NextPending = %+v, want drained queue", item)
	}
}

func TestStoreRetryBookkeeping(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.Enqueue(ctx, Item{Channel: "slack", To: "C024BE91L", Payload: payload.Reply{Text: "x"}})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := store.MarkRetry(ctx, id, "boom"); err != nil {
		t.Fatalf("MarkRetry: %v", err)
	}

	item, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending: %v", err)
	}
	if item == nil || item.Attempts != 1 || item.LastError != "boom" {
		t.Fatalf("item = %+v, want attempts=1 last_error=boom", item)
	}

	if err := store.MarkFailed(ctx, id, "gave up"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	n, err := store.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if n != 0 {
		t.Errorf("PendingCount = %d, want 0 after MarkFailed", n)
	}
}

// fakeRouter scripts RouteReply outcomes by payload text.
type fakeRouter struct {
	mu    sync.Mutex
	fail  map[string]string
	calls []string
}

func (f *fakeRouter) RouteReply(_ context.Context, p reply.RouteParams) reply.RouteResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p.Payload.Text)
	if msg, ok := f.fail[p.Payload.Text]; ok {
		return reply.RouteResult{Error: msg}
	}
	return reply.RouteResult{OK: true, MessageID: "m1"}
}

func TestSenderDrainMarksSent(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"a", "b"} {
		if _, err := store.Enqueue(ctx, Item{Channel: "telegram", To: "42", Payload: payload.Reply{Text: text}}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	router := &fakeRouter{}
	sender := NewSender(store, router, nil, time.Second, 3)
	sender.Drain(ctx)

	if len(router.calls) != 2 {
		t.Fatalf("routed %d items, want 2", len(router.calls))
	}
	n, err := store.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if n != 0 {
		t.Errorf("PendingCount = %d, want drained", n)
	}
}

func TestSenderGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, Item{Channel: "telegram", To: "42", Payload: payload.Reply{Text: "poison"}}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	router := &fakeRouter{fail: map[string]string{"poison": "api down"}}
	sender := NewSender(store, router, nil, time.Second, 2)

	// Each pass stops at the failing item; the second pass exhausts it.
	sender.Drain(ctx)
	sender.Drain(ctx)

	if len(router.calls) != 2 {
		t.Fatalf("routed %d times, want 2 attempts", len(router.calls))
	}
	n, err := store.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if n != 0 {
		t.Errorf("PendingCount = %d, want item marked failed", n)
	}
}
