// Package reply implements reply-side policy: threading filters, command
// authorization, group mention rules, and the routing entry point for
// queued replies.
package reply

import (
	"github.com/courierhq/courier/internal/provider"
	"github.com/courierhq/courier/pkg/payload"
)

// ThreadFilter decides whether outbound payloads keep their reply-target id.
// One instance belongs to exactly one conversation; access is sequential
// within that conversation, so no locking is needed.
type ThreadFilter struct {
	mode             provider.ReplyToMode
	allowTagsWhenOff bool
	hasThreaded      bool
}

// NewThreadFilter builds a filter for one conversation with the resolved mode.
func NewThreadFilter(mode provider.ReplyToMode, allowTagsWhenOff bool) *ThreadFilter {
	if mode == "" {
		mode = provider.ReplyToAll
	}
	return &ThreadFilter{mode: mode, allowTagsWhenOff: allowTagsWhenOff}
}

// NewThreadFilterFor resolves the plugin's configured threading policy for
// accountID. Plugins without one thread every reply.
func NewThreadFilterFor(plugin provider.Plugin, accountID string) *ThreadFilter {
	if tp, ok := plugin.(provider.ThreadingPolicy); ok {
		return NewThreadFilter(tp.ReplyToMode(accountID), tp.AllowTagsWhenOff())
	}
	return NewThreadFilter(provider.ReplyToAll, false)
}

// Apply runs the state machine on one payload and returns the payload to
// send. Payloads without a reply-target id pass through untouched.
func (f *ThreadFilter) Apply(r payload.Reply) payload.Reply {
	if r.ReplyToID == "" {
		return r
	}
	switch f.mode {
	case provider.ReplyToOff:
		if f.allowTagsWhenOff && r.ReplyToTag != "" {
			return r
		}
		r.ReplyToID = ""
		return r
	case provider.ReplyToFirst:
		if f.hasThreaded {
			r.ReplyToID = ""
			return r
		}
		f.hasThreaded = true
		return r
	default:
		return r
	}
}
