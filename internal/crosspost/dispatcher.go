package crosspost

import (
	"context"
	"fmt"
	"time"

	"github.com/0x0BSoD/crossPoster/internal/logger"
	"github.com/0x0BSoD/crossPoster/internal/metrics"
	"github.com/0x0BSoD/crossPoster/internal/model"
)

// channelLoop is the part every platform dispatcher shares: directory lookup
// and the per-channel log/count/continue policy.
type channelLoop struct {
	platform  model.Platform
	directory ChannelDirectory
	log       logger.Logger
	opts      options
}

func newChannelLoop(platform model.Platform, directory ChannelDirectory, log logger.Logger, opts []Option) channelLoop {
	return channelLoop{
		platform:  platform,
		directory: directory,
		log:       log.With(logger.String("platform", platform.String())),
		opts:      buildOptions(opts),
	}
}

func (l channelLoop) Platform() model.Platform {
	return l.platform
}

func (l channelLoop) channels(ctx context.Context, event model.PublicationEvent) []model.Channel {
	channels, err := l.directory.Lookup(ctx, l.platform, event.CategoryID)
	if err != nil {
		l.log.Error("failed to look up channels", append(eventFields(event), logger.Error(err))...)
		return nil
	}
	return channels
}

// deliver runs send for one channel and absorbs whatever it returns or panics with.
func (l channelLoop) deliver(ctx context.Context, event model.PublicationEvent, ch model.Channel, send func() error) {
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		if err := ch.Validate(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return send()
	}()

	fields := append(eventFields(event), logger.String("channel", ch.Name))

	if err != nil {
		l.opts.metrics.ObserveSend(l.platform.String(), metrics.ResultFailure, time.Since(start))
		l.log.Error("failed to send message", append(fields, logger.Error(err))...)
		if l.opts.alerter != nil {
			l.opts.alerter.Notify(fmt.Sprintf("%s: failed to send to %q (category %d): %v", l.platform, ch.Name, event.CategoryID, err))
		}
		return
	}

	l.opts.metrics.ObserveSend(l.platform.String(), metrics.ResultSuccess, time.Since(start))
	l.log.Info("message was sent", fields...)
}

func eventFields(event model.PublicationEvent) []logger.Field {
	return []logger.Field{
		logger.String("event_id", event.ID.String()),
		logger.Int64("category_id", event.CategoryID),
		logger.String("comment", event.Comment),
		logger.String("link", event.Link),
	}
}
