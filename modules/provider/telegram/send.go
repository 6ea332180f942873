package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/courierhq/courier/internal/outbound"
	"github.com/courierhq/courier/internal/provider"
)

// sender implements the outbound adapter over the Telegram Bot API.
type sender struct {
	cfg    Config
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
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

// replyTo picks the message to chain onto. Thread IDs double as a reply
// target because Bot API 5.x has no separate topic field.
func replyTo(req provider.SendRequest) int {
	if req.ReplyToID != "" {
		if id, err := strconv.Atoi(req.ReplyToID); err == nil {
			return id
		}
	}
	if req.ThreadID > 0 {
		return int(req.ThreadID)
	}
	return 0
}

func (s *sender) SendText(ctx context.Context, req provider.SendRequest) (provider.SendResult, error) {
	var msg tgbotapi.MessageConfig
	if handle, ok := strings.CutPrefix(req.To, "@"); ok {
		msg = tgbotapi.NewMessageToChannel("@"+handle, req.Text)
	} else {
		chatID, err := strconv.ParseInt(req.To, 10, 64)
		if err != nil {
			return provider.SendResult{}, fmt.Errorf("telegram: invalid chat ID %q: %w", req.To, err)
		}
		msg = tgbotapi.NewMessage(chatID, req.Text)
	}
	msg.ReplyToMessageID = replyTo(req)

	sent, err := s.bot.Send(msg)
	if err != nil {
		return provider.SendResult{}, fmt.Errorf("telegram: send to %s: %w", req.To, err)
	}
	return sendResult(sent), nil
}

func (s *sender) SendMedia(ctx context.Context, req provider.SendRequest) (provider.SendResult, error) {
	file := tgbotapi.FileURL(req.MediaURL)

	var sent tgbotapi.Message
	var err error
	if isPhotoURL(req.MediaURL) {
		var photo tgbotapi.PhotoConfig
		if strings.HasPrefix(req.To, "@") {
			photo = tgbotapi.NewPhotoToChannel(req.To, file)
		} else {
			chatID, perr := strconv.ParseInt(req.To, 10, 64)
			if perr != nil {
				return provider.SendResult{}, fmt.Errorf("telegram: invalid chat ID %q: %w", req.To, perr)
			}
			photo = tgbotapi.NewPhoto(chatID, file)
		}
		photo.Caption = req.Text
		photo.ReplyToMessageID = replyTo(req)
		sent, err = s.bot.Send(photo)
	} else {
		chatID, perr := strconv.ParseInt(req.To, 10, 64)
		if perr != nil {
			return provider.SendResult{}, fmt.Errorf("telegram: documents need a numeric chat ID, got %q: %w", req.To, perr)
		}
		doc := tgbotapi.NewDocument(chatID, file)
		doc.Caption = req.Text
		doc.ReplyToMessageID = replyTo(req)
		sent, err = s.bot.Send(doc)
	}
	if err != nil {
		return provider.SendResult{}, fmt.Errorf("telegram: send media to %s: %w", req.To, err)
	}
	return sendResult(sent), nil
}

// SendPoll creates a native Telegram poll. Polls require a numeric chat ID.
func (s *sender) SendPoll(ctx context.Context, req provider.PollRequest) (provider.PollResult, error) {
	chatID, err := strconv.ParseInt(req.To, 10, 64)
	if err != nil {
		return provider.PollResult{}, fmt.Errorf("telegram: polls need a numeric chat ID, got %q: %w", req.To, err)
	}
	poll := tgbotapi.NewPoll(chatID, req.Question, req.Options...)
	poll.AllowsMultipleAnswers = req.MaxSelections > 1

	sent, err := s.bot.Send(poll)
	if err != nil {
		return provider.PollResult{}, fmt.Errorf("telegram: send poll to %s: %w", req.To, err)
	}
	res := provider.PollResult{MessageID: strconv.Itoa(sent.MessageID)}
	if sent.Poll != nil {
		res.PollID = sent.Poll.ID
	}
	return res, nil
}

func sendResult(sent tgbotapi.Message) provider.SendResult {
	res := provider.SendResult{
		MessageID: strconv.Itoa(sent.MessageID),
		Timestamp: int64(sent.Date),
	}
	if sent.Chat != nil {
		res.ChatID = strconv.FormatInt(sent.Chat.ID, 10)
	}
	return res
}

func isPhotoURL(url string) bool {
	trimmed := strings.ToLower(strings.SplitN(url, "?", 2)[0])
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp"} {
		if strings.HasSuffix(trimmed, ext) {
			return true
		}
	}
	return false
}
