package crosspost

import (
	"context"
	"fmt"
	"sync"

	"github.com/0x0BSoD/crossPoster/internal/logger"
	"github.com/0x0BSoD/crossPoster/internal/metrics"
	"github.com/0x0BSoD/crossPoster/internal/model"
)

// Coordinator hands a publication event to each platform dispatcher. The
// dispatcher list is fixed at construction.
type Coordinator struct {
	dispatchers []Dispatcher
	log         logger.Logger
	metrics     *metrics.Metrics
	concurrent  bool
}

type CoordinatorOption func(*Coordinator)

// WithConcurrentPlatforms runs each platform in its own goroutine and waits
// for all of them. Channels within a platform are still sent in order.
func WithConcurrentPlatforms(enabled bool) CoordinatorOption {
	return func(c *Coordinator) { c.concurrent = enabled }
}

func WithCoordinatorMetrics(m *metrics.Metrics) CoordinatorOption {
	return func(c *Coordinator) { c.metrics = m }
}

func NewCoordinator(log logger.Logger, dispatchers []Dispatcher, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		dispatchers: dispatchers,
		log:         log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispatch fans the event out and returns once every dispatcher is done.
// The caller must only dispatch items that were saved and are new.
func (c *Coordinator) Dispatch(ctx context.Context, event model.PublicationEvent) {
	c.metrics.ObserveDispatch(string(event.Kind))
	c.log.Debug("dispatching event",
		logger.String("event_id", event.ID.String()),
		logger.String("kind", string(event.Kind)),
		logger.Int64("category_id", event.CategoryID),
	)

	if !c.concurrent {
		for _, d := range c.dispatchers {
			c.send(ctx, d, event)
		}
		return
	}

	var wg sync.WaitGroup
	for _, d := range c.dispatchers {
		wg.Add(1)
		go func(d Dispatcher) {
			defer wg.Done()
			c.send(ctx, d, event)
		}(d)
	}
	wg.Wait()
}

func (c *Coordinator) send(ctx context.Context, d Dispatcher, event model.PublicationEvent) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("dispatcher panicked",
				logger.String("platform", d.Platform().String()),
				logger.String("event_id", event.ID.String()),
				logger.Error(fmt.Errorf("%v", r)),
			)
		}
	}()

	d.Send(ctx, event)
}
