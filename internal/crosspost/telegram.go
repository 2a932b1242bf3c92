package crosspost

import (
	"context"

	"github.com/0x0BSoD/crossPoster/internal/logger"
	"github.com/0x0BSoD/crossPoster/internal/model"
)

// TelegramDispatcher sends a text message to every channel registered for a
// category. The channel name is the chat to post into, e.g. "@golang_news".
type TelegramDispatcher struct {
	channelLoop
	newClient TelegramClientFactory
}

func NewTelegramDispatcher(directory ChannelDirectory, newClient TelegramClientFactory, log logger.Logger, opts ...Option) *TelegramDispatcher {
	return &TelegramDispatcher{
		channelLoop: newChannelLoop(model.PlatformTelegram, directory, log, opts),
		newClient:   newClient,
	}
}

func (d *TelegramDispatcher) Send(ctx context.Context, event model.PublicationEvent) {
	for _, ch := range d.channels(ctx, event) {
		d.deliver(ctx, event, ch, func() error {
			bot, err := d.newClient(ch.Credentials.Token)
			if err != nil {
				return err
			}
			return bot.SendTextMessage(ctx, ch.Name, Format(model.PlatformTelegram, event.Comment, event.Link, nil))
		})
	}
}
