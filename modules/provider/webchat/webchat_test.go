package webchat

import (
	"testing"
)

func TestWebChatIsInternalOnly(t *testing.T) {
	t.Parallel()
	w := &WebChat{}
	if w.Outbound() != nil {
		t.Fatal("webchat must not expose an outbound adapter")
	}
	if w.Meta().Label != "WebChat" {
		t.Errorf("Label = %q, want %q", w.Meta().Label, "WebChat")
	}
}

func TestHubBroadcastSkipsSlowClients(t *testing.T) {
	t.Parallel()
	h := NewHub(nil)
	c := &client{send: make(chan []byte, 1)}
	h.add(c)
	defer h.remove(c)

	h.Broadcast(map[string]string{"type": "reply"})
	h.Broadcast(map[string]string{"type": "reply"}) // buffer full, must not block

	if h.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, want 1", h.ClientCount())
	}
	select {
	case data := <-c.send:
		if len(data) == 0 {
			t.Error("empty broadcast payload")
		}
	default:
		t.Error("no event queued for client")
	}
}
