// Package source reads the RSS/Atom feeds whose new items are announced for a category.
package source

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"
	"time"

	"github.com/SlyMarbo/rss"
	"github.com/samber/lo"

	"github.com/0x0BSoD/crossPoster/internal/model"
)

const fetchTimeout = 30 * time.Second

// contextTransport injects a context into every outgoing request so that
// context cancellation and deadlines propagate through the rss library.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

type RSSSource struct {
	URL        string
	SourceID   int64
	SourceName string
	CategoryID int64
	Insecure   bool
}

func NewRSSSourceFromModel(m model.Source) RSSSource {
	return RSSSource{
		URL:        m.FeedURL,
		SourceID:   m.ID,
		SourceName: m.Name,
		CategoryID: m.CategoryID,
		Insecure:   m.Insecure,
	}
}

func (s RSSSource) Fetch(ctx context.Context) ([]model.Item, error) {
	feed, err := s.loadFeed(ctx)
	if err != nil {
		return nil, err
	}

	items := lo.Filter(feed.Items, func(item *rss.Item, _ int) bool {
		return strings.TrimSpace(item.Link) != ""
	})

	return lo.Map(items, func(item *rss.Item, _ int) model.Item {
		return model.Item{
			Title:      strings.TrimSpace(item.Title),
			Categories: item.Categories,
			Link:       strings.TrimSpace(item.Link),
			Date:       item.Date,
			Summary:    strings.TrimSpace(item.Summary),
			SourceName: s.SourceName,
		}
	}), nil
}

func (s RSSSource) loadFeed(ctx context.Context) (*rss.Feed, error) {
	base := http.DefaultTransport
	if s.Insecure {
		base = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}
	client := &http.Client{
		Transport: contextTransport{ctx: ctx, base: base},
		Timeout:   fetchTimeout,
	}
	return rss.FetchByClient(s.URL, client)
}

func (s RSSSource) ID() int64 {
	return s.SourceID
}

func (s RSSSource) Name() string {
	return s.SourceName
}

func (s RSSSource) Category() int64 {
	return s.CategoryID
}
