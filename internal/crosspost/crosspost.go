// Package crosspost fans a publication event out to the Facebook pages, Telegram
// channels and Twitter accounts registered for its category.
//
// Every send is best-effort: a failing channel is logged, counted and skipped, and
// nothing is reported back to the publishing workflow.
package crosspost

import (
	"context"

	"github.com/0x0BSoD/crossPoster/internal/metrics"
	"github.com/0x0BSoD/crossPoster/internal/model"
)

// ChannelDirectory returns the channels registered for a category on a
// platform, in directory order. No channels is an empty result, not an error.
type ChannelDirectory interface {
	Lookup(ctx context.Context, platform model.Platform, categoryID int64) ([]model.Channel, error)
}

// Dispatcher sends an event to every channel of one platform. Send never
// reports failure; errors are absorbed per channel.
type Dispatcher interface {
	Platform() model.Platform
	Send(ctx context.Context, event model.PublicationEvent)
}

type FacebookClient interface {
	PostOnWall(ctx context.Context, message, link string) error
}

type TelegramClient interface {
	SendTextMessage(ctx context.Context, chatName, text string) error
}

// TwitterClient binds credentials as client state: PublishTweet posts as
// whichever account was set last. Callers must go through an AccessSerializer.
type TwitterClient interface {
	SetCredentials(creds model.Credentials) error
	PublishTweet(ctx context.Context, text string) error
}

type (
	FacebookClientFactory func(token string) (FacebookClient, error)
	TelegramClientFactory func(token string) (TelegramClient, error)
)

// Alerter receives a short notice for each failed channel send.
type Alerter interface {
	Notify(msg string)
}

type options struct {
	metrics    *metrics.Metrics
	alerter    Alerter
	serializer *AccessSerializer
}

type Option func(*options)

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithAlerter(a Alerter) Option {
	return func(o *options) { o.alerter = a }
}

// WithSerializer replaces the process-wide serializer of a Twitter dispatcher.
func WithSerializer(s *AccessSerializer) Option {
	return func(o *options) { o.serializer = s }
}

func buildOptions(opts []Option) options {
	o := options{serializer: SharedSerializer()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
