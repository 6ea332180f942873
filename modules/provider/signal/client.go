package signal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/courierhq/courier/internal/provider"
)

// maxAttachmentBytes caps downloaded attachments before re-encoding.
const maxAttachmentBytes = 32 << 20

// sender implements the outbound adapter against signal-cli's JSON-RPC API.
type sender struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
	nextID atomic.Int64
}

var _ provider.Outbound = (*sender)(nil)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type sendParams struct {
	Account     string   `json:"account"`
	Recipient   []string `json:"recipient,omitempty"`
	GroupID     string   `json:"groupId,omitempty"`
	Message     string   `json:"message"`
	Attachments []string `json:"attachments,omitempty"`
}

type sendResult struct {
	Timestamp int64 `json:"timestamp"`
}

func (s *sender) ResolveTarget(req provider.TargetRequest) (string, error) {
	return resolveTarget(req)
}

func (s *sender) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      s.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("signal: marshal rpc request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.RPCURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("signal: build rpc request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("signal: rpc call %s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("signal: rpc call %s: unexpected status %s", method, resp.Status)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("signal: decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("signal: %s (code %d)", rpcResp.Error.Message, rpcResp.Error.Code)
	}
	if out != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("signal: decode rpc result: %w", err)
		}
	}
	return nil
}

func (s *sender) send(ctx context.Context, to, text string, attachments []string) (provider.SendResult, error) {
	params := sendParams{
		Account:     s.cfg.Account,
		Message:     text,
		Attachments: attachments,
	}
	if id, ok := strings.CutPrefix(to, "group."); ok {
		params.GroupID = id
	} else {
		params.Recipient = []string{to}
	}

	var result sendResult
	if err := s.call(ctx, "send", params, &result); err != nil {
		return provider.SendResult{}, err
	}
	return provider.SendResult{
		MessageID: strconv.FormatInt(result.Timestamp, 10),
		ChatID:    to,
		Timestamp: result.Timestamp,
	}, nil
}

func (s *sender) SendText(ctx context.Context, req provider.SendRequest) (provider.SendResult, error) {
	return s.send(ctx, req.To, req.Text, nil)
}

// SendMedia downloads the attachment and hands it to signal-cli as a data
// URI; the daemon has no access to remote URLs.
func (s *sender) SendMedia(ctx context.Context, req provider.SendRequest) (provider.SendResult, error) {
	dataURI, err := s.fetchAsDataURI(ctx, req.MediaURL)
	if err != nil {
		return provider.SendResult{}, err
	}
	return s.send(ctx, req.To, req.Text, []string{dataURI})
}

func (s *sender) fetchAsDataURI(ctx context.Context, url string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("signal: media url %q: %w", url, err)
	}
	resp, err := s.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("signal: fetch media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("signal: fetch media: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes))
	if err != nil {
		return "", fmt.Errorf("signal: read media: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
