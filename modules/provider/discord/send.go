package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/courierhq/courier/internal/outbound"
	"github.com/courierhq/courier/internal/provider"
)

// sender implements the outbound adapter over a discordgo session.
type sender struct {
	cfg     Config
	session *discordgo.Session
	logger  *slog.Logger
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

// channelFor maps a canonical target to a channel ID, opening a DM channel
// for user targets.
func (s *sender) channelFor(to string) (string, error) {
	if userID, ok := strings.CutPrefix(to, "user:"); ok {
		ch, err := s.session.UserChannelCreate(userID)
		if err != nil {
			return "", fmt.Errorf("discord: open DM with %s: %w", userID, err)
		}
		return ch.ID, nil
	}
	return to, nil
}

func (s *sender) SendText(ctx context.Context, req provider.SendRequest) (provider.SendResult, error) {
	channelID, err := s.channelFor(req.To)
	if err != nil {
		return provider.SendResult{}, err
	}

	send := &discordgo.MessageSend{Content: req.Text}
	if req.ReplyToID != "" {
		send.Reference = &discordgo.MessageReference{
			MessageID: req.ReplyToID,
			ChannelID: channelID,
		}
	}

	msg, err := s.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return provider.SendResult{}, fmt.Errorf("discord: send to %s: %w", req.To, err)
	}
	return sendResult(msg), nil
}

func (s *sender) SendMedia(ctx context.Context, req provider.SendRequest) (provider.SendResult, error) {
	channelID, err := s.channelFor(req.To)
	if err != nil {
		return provider.SendResult{}, err
	}

	send := &discordgo.MessageSend{
		Content: req.Text,
		Embed: &discordgo.MessageEmbed{
			Image: &discordgo.MessageEmbedImage{URL: req.MediaURL},
		},
	}
	if req.ReplyToID != "" {
		send.Reference = &discordgo.MessageReference{
			MessageID: req.ReplyToID,
			ChannelID: channelID,
		}
	}

	msg, err := s.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return provider.SendResult{}, fmt.Errorf("discord: send media to %s: %w", req.To, err)
	}
	return sendResult(msg), nil
}

func sendResult(msg *discordgo.Message) provider.SendResult {
	return provider.SendResult{
		MessageID: msg.ID,
		ChatID:    msg.ChannelID,
		Timestamp: msg.Timestamp.Unix(),
	}
}
