package crosspost

import (
	"context"

	"github.com/0x0BSoD/crossPoster/internal/logger"
	"github.com/0x0BSoD/crossPoster/internal/model"
)

// FacebookDispatcher posts to the wall of every page registered for a category.
type FacebookDispatcher struct {
	channelLoop
	newClient FacebookClientFactory
}

func NewFacebookDispatcher(directory ChannelDirectory, newClient FacebookClientFactory, log logger.Logger, opts ...Option) *FacebookDispatcher {
	return &FacebookDispatcher{
		channelLoop: newChannelLoop(model.PlatformFacebook, directory, log, opts),
		newClient:   newClient,
	}
}

func (d *FacebookDispatcher) Send(ctx context.Context, event model.PublicationEvent) {
	for _, page := range d.channels(ctx, event) {
		d.deliver(ctx, event, page, func() error {
			client, err := d.newClient(page.Credentials.Token)
			if err != nil {
				return err
			}
			text := Format(model.PlatformFacebook, event.Comment, event.Link, nil)
			return client.PostOnWall(ctx, text, event.Link)
		})
	}
}
