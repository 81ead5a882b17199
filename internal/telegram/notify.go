package telegram

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier fans a formatted event out to the operator chats. Best-effort:
// a failed operator send is logged and the broadcast moves on. Sends are
// sequential with a fixed delay so the broadcast does not trip the same
// rate limiter the relay queue depends on.
type Notifier struct {
	bot       BotAPI
	operators []int64
	parseMode string
	delay     time.Duration
	logger    *slog.Logger
}

func NewNotifier(bot BotAPI, operators []int64, parseMode string, delay time.Duration, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		bot:       bot,
		operators: operators,
		parseMode: parseMode,
		delay:     delay,
		logger:    logger,
	}
}

func (n *Notifier) Broadcast(ctx context.Context, text string) {
	for i, op := range n.operators {
		if i > 0 && n.delay > 0 {
			timer := time.NewTimer(n.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				n.logger.Warn("operator broadcast interrupted", "err", ctx.Err())
				return
			case <-timer.C:
			}
		}

		n.notifyOne(op, text)
	}
}

func (n *Notifier) notifyOne(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = n.parseMode

	_, err := n.bot.Send(msg)
	if err == nil {
		return
	}

	if n.parseMode != "" && isParseError(err) {
		_, err2 := n.bot.Send(tgbotapi.NewMessage(chatID, text))
		if err2 == nil {
			return
		}
		err = err2
	}

	n.logger.Warn("operator notification failed", "operator_id", chatID, "err", err)
}
