package intake

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/0x0BSoD/crossPoster/internal/logger"
	"github.com/0x0BSoD/crossPoster/internal/model"
	"github.com/0x0BSoD/crossPoster/internal/source"
)

type PublicationStorage interface {
	Store(ctx context.Context, p model.Publication) (bool, error)
	CategoryTags(ctx context.Context, categoryID int64) ([]string, error)
}

type SourceProvider interface {
	Sources(ctx context.Context) ([]model.Source, error)
}

type Source interface {
	ID() int64
	Name() string
	Category() int64
	Fetch(ctx context.Context) ([]model.Item, error)
}

// FeedPoller stores new feed items and announces each one through the
// dispatcher. Items already stored (same link) are never announced again.
type FeedPoller struct {
	publications PublicationStorage
	sources      SourceProvider
	dispatcher   EventDispatcher
	log          logger.Logger

	fetchInterval  time.Duration
	filterKeywords []string

	newSource func(model.Source) Source
}

func NewFeedPoller(
	publications PublicationStorage,
	sources SourceProvider,
	dispatcher EventDispatcher,
	log logger.Logger,
	fetchInterval time.Duration,
	filterKeywords []string,
) *FeedPoller {
	return &FeedPoller{
		publications: publications,
		sources:      sources,
		dispatcher:   dispatcher,
		log:          log.With(logger.String("intake", "feed")),

		fetchInterval: fetchInterval,
		filterKeywords: lo.Map(filterKeywords, func(k string, _ int) string {
			return strings.ToLower(strings.TrimSpace(k))
		}),

		newSource: func(m model.Source) Source { return source.NewRSSSourceFromModel(m) },
	}
}

func (f *FeedPoller) Start(ctx context.Context) error {
	if f.fetchInterval <= 0 {
		return fmt.Errorf("fetch interval must be positive, got %s", f.fetchInterval)
	}

	ticker := time.NewTicker(f.fetchInterval)
	defer ticker.Stop()

	if err := f.Poll(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := f.Poll(ctx); err != nil {
				return err
			}
		}
	}
}

// Poll fetches every source concurrently. A failing source is logged and
// does not affect the others.
func (f *FeedPoller) Poll(ctx context.Context) error {
	sources, err := f.sources.Sources(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, m := range sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()

			items, err := src.Fetch(ctx)
			if err != nil {
				f.log.Error("failed to fetch feed", logger.Int64("source_id", src.ID()), logger.Error(err))
				return
			}
			if err := f.processItems(ctx, src, items); err != nil {
				f.log.Error("failed to process feed items", logger.Int64("source_id", src.ID()), logger.Error(err))
			}
		}(f.newSource(m))
	}
	wg.Wait()

	return nil
}

func (f *FeedPoller) itemMustBeSkipped(item model.Item) bool {
	categories := lo.Uniq(lo.Map(item.Categories, func(c string, _ int) string { return strings.ToLower(c) }))
	title := strings.ToLower(item.Title)

	return lo.SomeBy(f.filterKeywords, func(keyword string) bool {
		return keyword != "" && (lo.Contains(categories, keyword) || strings.Contains(title, keyword))
	})
}

func (f *FeedPoller) processItems(ctx context.Context, src Source, items []model.Item) error {
	var tags []string
	tagsLoaded := false

	for _, item := range items {
		if f.itemMustBeSkipped(item) {
			continue
		}

		publishedAt := item.Date
		if publishedAt.IsZero() {
			publishedAt = time.Now().UTC()
		}

		created, err := f.publications.Store(ctx, model.Publication{
			SourceID:    src.ID(),
			CategoryID:  src.Category(),
			Title:       item.Title,
			Link:        item.Link,
			Summary:     item.Summary,
			PublishedAt: publishedAt,
		})
		if err != nil {
			return err
		}
		if !created {
			continue
		}

		if !tagsLoaded {
			if tags, err = f.publications.CategoryTags(ctx, src.Category()); err != nil {
				f.log.Warn("failed to load category tags", logger.Int64("category_id", src.Category()), logger.Error(err))
			}
			tagsLoaded = true
		}

		f.dispatcher.Dispatch(ctx, model.NewPublicationEvent(src.Category(), item.Title, item.Link, tags, nil))
	}
	return nil
}
