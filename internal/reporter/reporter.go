package reporter

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/0x0BSoD/crossPoster/internal/logger"
)

// maxMessageLength is the Bot API limit for message text, in characters.
const maxMessageLength = 4096

type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Reporter forwards cross-post failures to a Telegram admin chat.
// It is nil-safe: if adminID is 0 or the receiver is nil, Notify is a no-op.
type Reporter struct {
	bot     Sender
	adminID int64
	log     logger.Logger
}

func New(bot Sender, adminID int64, log logger.Logger) *Reporter {
	return &Reporter{bot: bot, adminID: adminID, log: log}
}

func (r *Reporter) Notify(msg string) {
	if r == nil || r.adminID == 0 || r.bot == nil {
		return
	}

	text := "crosspost: " + msg
	if runes := []rune(text); len(runes) > maxMessageLength {
		text = string(runes[:maxMessageLength-1]) + "…"
	}

	if _, err := r.bot.Send(tgbotapi.NewMessage(r.adminID, text)); err != nil {
		r.log.Error("failed to send admin notification", logger.Error(err))
	}
}
