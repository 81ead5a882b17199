// Package telegram is the only place that knows the platform's error
// shapes. Everything it reports upward is a normalized model.SendResult.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/anderka/support-relay/internal/model"
)

// BotAPI is the slice of *tgbotapi.BotAPI the sender needs.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Sender struct {
	bot       BotAPI
	parseMode string
	logger    *slog.Logger
}

func NewSender(bot BotAPI, parseMode string, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{bot: bot, parseMode: parseMode, logger: logger}
}

// Send delivers one piece of content to a chat and classifies the result.
// The ctx is accepted for interface symmetry; the underlying client
// carries its own HTTP timeout.
func (s *Sender) Send(ctx context.Context, chatID int64, content model.Content) model.SendResult {
	if content.HasMedia() {
		return s.sendMedia(chatID, content)
	}
	return s.sendText(chatID, content.Text)
}

func (s *Sender) sendText(chatID int64, text string) model.SendResult {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = s.parseMode

	sent, err := s.bot.Send(msg)
	if err == nil {
		return delivered(sent)
	}

	// Formatting rejection: retry once with formatting stripped before
	// giving up on the message.
	if s.parseMode != "" && isParseError(err) {
		s.logger.Warn("formatting rejected, retrying as plain text",
			"chat_id", chatID, "err", err)
		return s.sendPlain(chatID, text)
	}

	return classify(err)
}

func (s *Sender) sendMedia(chatID int64, content model.Content) model.SendResult {
	media := content.Media

	caption := media.Caption
	if caption == "" {
		caption = content.Text
	}

	var c tgbotapi.Chattable
	switch media.Kind {
	case model.MediaImage:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(media.URL))
		photo.Caption = caption
		c = photo
	default:
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileURL(media.URL))
		doc.Caption = caption
		c = doc
	}

	sent, err := s.bot.Send(c)
	if err == nil {
		return delivered(sent)
	}

	res := classify(err)
	if res.Outcome == model.OutcomeRejected {
		// The platform refused the media itself. A caption-only
		// placeholder still reaches the user, which beats losing the
		// reply outright.
		s.logger.Warn("media send rejected, falling back to placeholder",
			"chat_id", chatID, "kind", media.Kind, "err", err)
		return s.sendPlain(chatID, mediaPlaceholder(media, caption))
	}
	return res
}

// sendPlain sends text with no parse mode set, so it cannot hit a
// formatting rejection of its own.
func (s *Sender) sendPlain(chatID int64, text string) model.SendResult {
	sent, err := s.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err == nil {
		return delivered(sent)
	}
	return classify(err)
}

func mediaPlaceholder(media *model.Media, caption string) string {
	label := "document"
	if media.Kind == model.MediaImage {
		label = "photo"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", label)
	if caption != "" {
		b.WriteString(" ")
		b.WriteString(caption)
	}
	if media.Filename != "" {
		fmt.Fprintf(&b, " (%s)", media.Filename)
	}
	return b.String()
}

func delivered(sent tgbotapi.Message) model.SendResult {
	return model.SendResult{
		Outcome:         model.OutcomeDelivered,
		RemoteMessageID: sent.MessageID,
	}
}

// classify maps a tgbotapi error onto the outcome taxonomy. Anything the
// transport produced itself (timeouts, connection resets) is transient.
func classify(err error) model.SendResult {
	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) {
		return model.SendResult{Outcome: model.OutcomeTransient, Err: err}
	}

	switch {
	case tgErr.Code == 429 || tgErr.RetryAfter > 0:
		return model.SendResult{
			Outcome:    model.OutcomeRateLimited,
			RetryAfter: time.Duration(tgErr.RetryAfter) * time.Second,
			Err:        err,
		}
	case isUnreachable(tgErr):
		return model.SendResult{Outcome: model.OutcomeBlocked, Err: err}
	case tgErr.Code >= 400 && tgErr.Code < 500:
		return model.SendResult{Outcome: model.OutcomeRejected, Err: err}
	default:
		return model.SendResult{Outcome: model.OutcomeTransient, Err: err}
	}
}

// isUnreachable matches the platform's recipient-gone signals: blocked
// bot, deleted account, vanished chat.
func isUnreachable(tgErr *tgbotapi.Error) bool {
	if tgErr.Code == 403 {
		return true
	}
	msg := strings.ToLower(tgErr.Message)
	return strings.Contains(msg, "blocked by the user") ||
		strings.Contains(msg, "user is deactivated") ||
		strings.Contains(msg, "chat not found")
}

func isParseError(err error) bool {
	var tgErr *tgbotapi.Error
	return errors.As(err, &tgErr) &&
		tgErr.Code == 400 &&
		strings.Contains(strings.ToLower(tgErr.Message), "can't parse entities")
}
