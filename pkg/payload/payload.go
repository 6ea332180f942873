// Package payload defines the provider-agnostic outbound reply model shared
// between reply generation, the threading filter, and the delivery pipeline.
package payload

import "strings"

// Reply is one logical outbound message: optional text, optional media (a
// single URL, an ordered sequence, or both), and optional threading hints.
// Values are immutable once constructed; transformations return new values.
type Reply struct {
	// Text is the message body. May be empty for media-only replies.
	Text string `json:"text,omitempty"`

	// MediaURL is a single media attachment. Collapsed into MediaURLs
	// during normalization.
	MediaURL string `json:"media_url,omitempty"`

	// MediaURLs is an ordered sequence of media attachments.
	MediaURLs []string `json:"media_urls,omitempty"`

	// ReplyToID references the provider message this reply chains onto.
	ReplyToID string `json:"reply_to_id,omitempty"`

	// ReplyToTag is a lightweight provider-specific threading hint used by
	// some providers when full reply-to chaining is disabled.
	ReplyToTag string `json:"reply_to_tag,omitempty"`
}

// Normalized is a Reply after normalization: trimmed text, media collapsed
// into a single ordered slice with empty entries dropped, and the response
// prefix applied. MediaURLs is never nil.
type Normalized struct {
	Text       string
	MediaURLs  []string
	ReplyToID  string
	ReplyToTag string
}

// Normalize produces the normalized form of r, applying prefix to non-empty
// text. It reports false when the result carries neither text nor media, in
// which case the payload is a no-op and must not be delivered.
//
// Normalization is idempotent: feeding a Normalized value back through
// (via its Reply form) yields an identical result.
func Normalize(r Reply, prefix string) (Normalized, bool) {
	text := strings.TrimSpace(r.Text)
	if prefix != "" && text != "" && !strings.HasPrefix(text, prefix) {
		text = prefix + " " + text
	}

	media := make([]string, 0, len(r.MediaURLs)+1)
	for _, u := range r.MediaURLs {
		if u = strings.TrimSpace(u); u != "" {
			media = append(media, u)
		}
	}
	if u := strings.TrimSpace(r.MediaURL); u != "" && len(media) == 0 {
		media = append(media, u)
	}

	n := Normalized{
		Text:       text,
		MediaURLs:  media,
		ReplyToID:  r.ReplyToID,
		ReplyToTag: r.ReplyToTag,
	}
	return n, text != "" || len(media) > 0
}

// NormalizeAll normalizes each reply in order, dropping no-op payloads.
func NormalizeAll(replies []Reply, prefix string) []Normalized {
	out := make([]Normalized, 0, len(replies))
	for _, r := range replies {
		if n, ok := Normalize(r, prefix); ok {
			out = append(out, n)
		}
	}
	return out
}

// Reply converts a normalized payload back into the Reply form. Used when a
// normalized value re-enters a stage that operates on raw replies.
func (n Normalized) Reply() Reply {
	return Reply{
		Text:       n.Text,
		MediaURLs:  n.MediaURLs,
		ReplyToID:  n.ReplyToID,
		ReplyToTag: n.ReplyToTag,
	}
}

// HasMedia reports whether the payload carries at least one attachment.
func (n Normalized) HasMedia() bool {
	return len(n.MediaURLs) > 0
}
