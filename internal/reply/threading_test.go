package reply

import (
	"testing"

	"github.com/courierhq/courier/internal/provider"
	"github.com/courierhq/courier/pkg/payload"
)

func TestThreadFilterFirstMode(t *testing.T) {
	t.Parallel()
	f := NewThreadFilter(provider.ReplyToFirst, false)

	first := f.Apply(payload.Reply{Text: "a", ReplyToID: "m1"})
	if first.ReplyToID != "m1" {
		t.Errorf("first payload ReplyToID = %q, want retained", first.ReplyToID)
	}
	for i := 0; i < 3; i++ {
		next := f.Apply(payload.Reply{Text: "b", ReplyToID: "m2"})
		if next.ReplyToID != "" {
			t.Errorf("payload %d ReplyToID = %q, want stripped", i+2, next.ReplyToID)
		}
	}
}

func TestThreadFilterOffMode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		allowTags bool
		r         payload.Reply
		wantID    string
	}{
		{"strips id", false, payload.Reply{ReplyToID: "m1"}, ""},
		{"strips id despite tag", false, payload.Reply{ReplyToID: "m1", ReplyToTag: "t"}, ""},
		{"tag passthrough keeps id", true, payload.Reply{ReplyToID: "m1", ReplyToTag: "t"}, "m1"},
		{"no tag still strips", true, payload.Reply{ReplyToID: "m1"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := NewThreadFilter(provider.ReplyToOff, tc.allowTags)
			if got := f.Apply(tc.r); got.ReplyToID != tc.wantID {
				t.Errorf("ReplyToID = %q, want %q", got.ReplyToID, tc.wantID)
			}
		})
	}
}

func TestThreadFilterAllModePassesThrough(t *testing.T) {
	t.Parallel()
	f := NewThreadFilter(provider.ReplyToAll, false)
	for i := 0; i < 3; i++ {
		if got := f.Apply(payload.Reply{ReplyToID: "m1"}); got.ReplyToID != "m1" {
			t.Fatalf("payload %d stripped under all mode", i+1)
		}
	}
}

func TestThreadFilterNoTargetPassesThrough(t *testing.T) {
	t.Parallel()
	f := NewThreadFilter(provider.ReplyToFirst, false)
	if got := f.Apply(payload.Reply{Text: "plain"}); got.ReplyToID != "" || got.Text != "plain" {
		t.Errorf("payload without target modified: %+v", got)
	}
	// A target-less payload must not consume the first slot.
	if got := f.Apply(payload.Reply{ReplyToID: "m1"}); got.ReplyToID != "m1" {
		t.Error("first threaded payload stripped after target-less payload")
	}
}
