package whatsapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"

	"github.com/courierhq/courier/internal/outbound"
	"github.com/courierhq/courier/internal/provider"
)

const jidSuffix = "s.whatsapp.net"

// maxMediaBytes caps downloaded attachments before upload.
const maxMediaBytes = 64 << 20

// sender implements the outbound adapter over a whatsmeow client.
type sender struct {
	cfg    Config
	client *whatsmeow.Client
	logger *slog.Logger
	http   *http.Client
}

var (
	_ provider.Outbound   = (*sender)(nil)
	_ provider.Chunking   = (*sender)(nil)
	_ provider.PollSender = (*sender)(nil)
)

func (s *sender) ResolveTarget(req provider.TargetRequest) (string, error) {
	return resolveTarget(req)
}

func (s *sender) ChunkLimit() int { return s.cfg.ChunkLimit }

func (s *sender) Chunk(text string, limit int) []string {
	return outbound.SplitText(text, limit)
}

// targetJID parses a canonical target into a whatsmeow JID.
func targetJID(to string) (types.JID, error) {
	if strings.Contains(to, "@") {
		jid, err := types.ParseJID(to)
		if err != nil {
			return types.JID{}, fmt.Errorf("whatsapp: invalid JID %q: %w", to, err)
		}
		return jid, nil
	}
	user := strings.TrimPrefix(to, "+")
	if user == "" {
		return types.JID{}, fmt.Errorf("whatsapp: empty target")
	}
	return types.NewJID(user, jidSuffix), nil
}

func (s *sender) SendText(ctx context.Context, req provider.SendRequest) (provider.SendResult, error) {
	jid, err := targetJID(req.To)
	if err != nil {
		return provider.SendResult{}, err
	}

	var msg *waE2E.Message
	if req.ReplyToID != "" {
		msg = &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(req.Text),
			ContextInfo: &waE2E.ContextInfo{
				StanzaID: proto.String(req.ReplyToID),
			},
		}}
	} else {
		msg = &waE2E.Message{Conversation: proto.String(req.Text)}
	}

	resp, err := s.client.SendMessage(ctx, jid, msg)
	if err != nil {
		return provider.SendResult{}, fmt.Errorf("whatsapp: send to %s: %w", jid, err)
	}
	return provider.SendResult{
		MessageID: resp.ID,
		ChatID:    jid.String(),
		Timestamp: resp.Timestamp.Unix(),
	}, nil
}

func (s *sender) SendMedia(ctx context.Context, req provider.SendRequest) (provider.SendResult, error) {
	jid, err := targetJID(req.To)
	if err != nil {
		return provider.SendResult{}, err
	}

	data, mime, err := s.fetchMedia(ctx, req.MediaURL)
	if err != nil {
		return provider.SendResult{}, err
	}

	var msg *waE2E.Message
	if strings.HasPrefix(mime, "image/") {
		upload, err := s.client.Upload(ctx, data, whatsmeow.MediaImage)
		if err != nil {
			return provider.SendResult{}, fmt.Errorf("whatsapp: upload image: %w", err)
		}
		msg = &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
			Caption:       proto.String(req.Text),
			Mimetype:      proto.String(mime),
			URL:           proto.String(upload.URL),
			DirectPath:    proto.String(upload.DirectPath),
			MediaKey:      upload.MediaKey,
			FileEncSHA256: upload.FileEncSHA256,
			FileSHA256:    upload.FileSHA256,
			FileLength:    proto.Uint64(upload.FileLength),
		}}
	} else {
		upload, err := s.client.Upload(ctx, data, whatsmeow.MediaDocument)
		if err != nil {
			return provider.SendResult{}, fmt.Errorf("whatsapp: upload document: %w", err)
		}
		msg = &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{
			Caption:       proto.String(req.Text),
			Mimetype:      proto.String(mime),
			FileName:      proto.String(fileNameFromURL(req.MediaURL)),
			URL:           proto.String(upload.URL),
			DirectPath:    proto.String(upload.DirectPath),
			MediaKey:      upload.MediaKey,
			FileEncSHA256: upload.FileEncSHA256,
			FileSHA256:    upload.FileSHA256,
			FileLength:    proto.Uint64(upload.FileLength),
		}}
	}

	resp, err := s.client.SendMessage(ctx, jid, msg)
	if err != nil {
		return provider.SendResult{}, fmt.Errorf("whatsapp: send media to %s: %w", jid, err)
	}
	return provider.SendResult{
		MessageID: resp.ID,
		ChatID:    jid.String(),
		Timestamp: resp.Timestamp.Unix(),
	}, nil
}

// SendPoll creates a native WhatsApp poll.
func (s *sender) SendPoll(ctx context.Context, req provider.PollRequest) (provider.PollResult, error) {
	jid, err := targetJID(req.To)
	if err != nil {
		return provider.PollResult{}, err
	}
	maxSelections := req.MaxSelections
	if maxSelections < 1 {
		maxSelections = 1
	}
	msg := s.client.BuildPollCreation(req.Question, req.Options, maxSelections)
	resp, err := s.client.SendMessage(ctx, jid, msg)
	if err != nil {
		return provider.PollResult{}, fmt.Errorf("whatsapp: send poll to %s: %w", jid, err)
	}
	return provider.PollResult{MessageID: resp.ID, PollID: resp.ID}, nil
}

func (s *sender) fetchMedia(ctx context.Context, url string) ([]byte, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: media url %q: %w", url, err)
	}
	resp, err := s.http.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: fetch media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("whatsapp: fetch media: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: read media: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return data, mime, nil
}

func fileNameFromURL(url string) string {
	trimmed := strings.SplitN(url, "?", 2)[0]
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 && i+1 < len(trimmed) {
		return trimmed[i+1:]
	}
	return "attachment"
}
