package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/courierhq/courier/internal/queue"
	"github.com/courierhq/courier/internal/reply"
	"github.com/courierhq/courier/pkg/payload"
)

// SendRequest is the JSON body for POST /v1/send.
type SendRequest struct {
	Channel    string        `json:"channel"`
	To         string        `json:"to,omitempty"`
	AccountID  string        `json:"accountId,omitempty"`
	SessionKey string        `json:"sessionKey,omitempty"`
	ThreadID   int64         `json:"threadId,omitempty"`
	Payload    payload.Reply `json:"payload"`

	// Queued defers the send to the followup queue instead of routing it
	// synchronously.
	Queued bool `json:"queued,omitempty"`
}

// QueuedResponse acknowledges a deferred send.
type QueuedResponse struct {
	Queued bool  `json:"queued"`
	ID     int64 `json:"id"`
}

// handleSend returns an http.HandlerFunc for POST /v1/send. Synchronous
// sends return the routing result as-is; the HTTP status reflects the OK
// flag so callers can branch without parsing the body.
func (g *Gateway) handleSend() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body: " + err.Error()})
			return
		}
		if req.Channel == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "channel is required"})
			return
		}

		if req.Queued {
			if g.queue == nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "followup queue not configured"})
				return
			}
			id, err := g.queue.Enqueue(r.Context(), queue.Item{
				Channel:    req.Channel,
				To:         req.To,
				AccountID:  req.AccountID,
				SessionKey: req.SessionKey,
				ThreadID:   req.ThreadID,
				Payload:    req.Payload,
			})
			if err != nil {
				g.logger.Error("enqueue failed", "channel", req.Channel, "error", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "enqueue failed"})
				return
			}
			writeJSON(w, http.StatusAccepted, QueuedResponse{Queued: true, ID: id})
			return
		}

		res := g.router.RouteReply(r.Context(), reply.RouteParams{
			Payload:    req.Payload,
			Channel:    req.Channel,
			To:         req.To,
			SessionKey: req.SessionKey,
			AccountID:  req.AccountID,
			ThreadID:   req.ThreadID,
		})

		code := http.StatusOK
		if !res.OK {
			code = http.StatusBadGateway
		}
		writeJSON(w, code, res)
	}
}
