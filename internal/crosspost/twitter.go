package crosspost

import (
	"context"

	"github.com/0x0BSoD/crossPoster/internal/logger"
	"github.com/0x0BSoD/crossPoster/internal/model"
)

// TwitterDispatcher publishes a tweet from every account registered for a
// category. All accounts share one client whose credentials are switched per
// account inside the serializer.
type TwitterDispatcher struct {
	channelLoop
	client TwitterClient
}

func NewTwitterDispatcher(directory ChannelDirectory, client TwitterClient, log logger.Logger, opts ...Option) *TwitterDispatcher {
	return &TwitterDispatcher{
		channelLoop: newChannelLoop(model.PlatformTwitter, directory, log, opts),
		client:      client,
	}
}

func (d *TwitterDispatcher) Send(ctx context.Context, event model.PublicationEvent) {
	accounts := d.channels(ctx, event)
	if len(accounts) == 0 {
		return
	}

	text := Format(model.PlatformTwitter, event.Comment, event.Link, event.Tags())

	for _, account := range accounts {
		d.deliver(ctx, event, account, func() error {
			return d.opts.serializer.Do(ctx, func() error {
				if err := d.client.SetCredentials(account.Credentials); err != nil {
					return err
				}
				return d.client.PublishTweet(ctx, text)
			})
		})
	}
}
