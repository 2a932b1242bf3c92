package crosspost

import (
	"context"
	"time"

	"github.com/0x0BSoD/crossPoster/internal/logger"
	"github.com/0x0BSoD/crossPoster/internal/metrics"
	"github.com/0x0BSoD/crossPoster/internal/model"
)

// LogDispatcher resolves channels and formats messages like the real
// dispatchers but only logs them. Used when the service runs with dry_run.
type LogDispatcher struct {
	channelLoop
}

func NewLogDispatcher(platform model.Platform, directory ChannelDirectory, log logger.Logger, opts ...Option) *LogDispatcher {
	return &LogDispatcher{channelLoop: newChannelLoop(platform, directory, log, opts)}
}

func (d *LogDispatcher) Send(ctx context.Context, event model.PublicationEvent) {
	var tags []string
	if d.platform == model.PlatformTwitter {
		tags = event.Tags()
	}
	text := Format(d.platform, event.Comment, event.Link, tags)

	for _, ch := range d.channels(ctx, event) {
		d.opts.metrics.ObserveSend(d.platform.String(), metrics.ResultSkipped, time.Duration(0))
		d.log.Info("dry run, message not sent",
			append(eventFields(event), logger.String("channel", ch.Name), logger.String("text", text))...)
	}
}
