package slack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	slackapi "github.com/slack-go/slack"

	"github.com/courierhq/courier/internal/outbound"
	"github.com/courierhq/courier/internal/provider"
)

// sender implements the outbound adapter over the Slack Web API.
type sender struct {
	cfg    Config
	client *slackapi.Client
	logger *slog.Logger
}

var (
	_ provider.Outbound = (*sender)(nil)
	_ provider.Chunking = (*sender)(nil)
)

func (s *sender) ResolveTarget(req provider.TargetRequest) (string, error) {
	return resolveTarget(req)
}

func (s *sender) ChunkLimit() int { return s.cfg.ChunkLimit }

func (s *sender) Chunk(text string, limit int) []string {
	return outbound.SplitText(text, limit)
}

// channelFor maps a canonical target to a postable channel, opening a DM
// conversation for user targets.
func (s *sender) channelFor(ctx context.Context, to string) (string, error) {
	if userID, ok := strings.CutPrefix(to, "user:"); ok {
		ch, _, _, err := s.client.OpenConversationContext(ctx, &slackapi.OpenConversationParameters{
			Users: []string{userID},
		})
		if err != nil {
			return "", fmt.Errorf("slack: open DM with %s: %w", userID, err)
		}
		return ch.ID, nil
	}
	return to, nil
}

func (s *sender) SendText(ctx context.Context, req provider.SendRequest) (provider.SendResult, error) {
	channel, err := s.channelFor(ctx, req.To)
	if err != nil {
		return provider.SendResult{}, err
	}

	opts := []slackapi.MsgOption{slackapi.MsgOptionText(req.Text, false)}
	if req.ReplyToID != "" {
		opts = append(opts, slackapi.MsgOptionTS(req.ReplyToID))
	}

	chatID, ts, err := s.client.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		return provider.SendResult{}, fmt.Errorf("slack: send to %s: %w", req.To, err)
	}
	return provider.SendResult{MessageID: ts, ChatID: chatID}, nil
}

func (s *sender) SendMedia(ctx context.Context, req provider.SendRequest) (provider.SendResult, error) {
	channel, err := s.channelFor(ctx, req.To)
	if err != nil {
		return provider.SendResult{}, err
	}

	opts := []slackapi.MsgOption{
		slackapi.MsgOptionAttachments(slackapi.Attachment{
			Text:     req.Text,
			ImageURL: req.MediaURL,
		}),
	}
	if req.Text != "" {
		opts = append(opts, slackapi.MsgOptionText(req.Text, false))
	}
	if req.ReplyToID != "" {
		opts = append(opts, slackapi.MsgOptionTS(req.ReplyToID))
	}

	chatID, ts, err := s.client.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		return provider.SendResult{}, fmt.Errorf("slack: send media to %s: %w", req.To, err)
	}
	return provider.SendResult{MessageID: ts, ChatID: chatID}, nil
}
