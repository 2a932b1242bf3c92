// Package intake turns external signals into publication events for the
// fan-out: messages published by the website on a Redis channel, and new
// items of the category feeds.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/0x0BSoD/crossPoster/internal/logger"
	"github.com/0x0BSoD/crossPoster/internal/model"
)

type EventDispatcher interface {
	Dispatch(ctx context.Context, event model.PublicationEvent)
}

// message is the payload the website publishes after saving a publication
// or a vacancy. Tags may come pre-split or as the raw string the author typed.
type message struct {
	Kind         string   `json:"kind"`
	CategoryID   int64    `json:"category_id"`
	Comment      string   `json:"comment"`
	Link         string   `json:"link"`
	CategoryTags []string `json:"category_tags"`
	UserTags     []string `json:"user_tags"`
	Tags         string   `json:"tags"`
}

func (m message) event() (model.PublicationEvent, error) {
	if m.CategoryID <= 0 {
		return model.PublicationEvent{}, errors.New("category_id is required")
	}
	u, err := url.Parse(strings.TrimSpace(m.Link))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return model.PublicationEvent{}, fmt.Errorf("link %q is not an absolute url", m.Link)
	}

	switch model.EventKind(m.Kind) {
	case model.KindVacancy:
		return model.NewVacancyEvent(m.CategoryID, m.Comment, u.String()), nil
	case model.KindPublication, "":
		userTags := m.UserTags
		if len(userTags) == 0 {
			userTags = model.ParseUserTags(m.Tags)
		}
		return model.NewPublicationEvent(m.CategoryID, m.Comment, u.String(), m.CategoryTags, userTags), nil
	default:
		return model.PublicationEvent{}, fmt.Errorf("unknown kind %q", m.Kind)
	}
}

// Subscriber dispatches every valid message received on a Redis channel.
// Each message is handled in its own goroutine; Start waits for them before
// returning.
type Subscriber struct {
	client     *redis.Client
	channel    string
	dispatcher EventDispatcher
	log        logger.Logger

	wg sync.WaitGroup
}

func NewSubscriber(client *redis.Client, channel string, dispatcher EventDispatcher, log logger.Logger) *Subscriber {
	return &Subscriber{
		client:     client,
		channel:    channel,
		dispatcher: dispatcher,
		log:        log.With(logger.String("intake", "redis"), logger.String("channel", channel)),
	}
}

func (s *Subscriber) Start(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()
	defer s.wg.Wait()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	s.log.Info("subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handle(ctx, msg.Payload)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, payload string) {
	var m message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		s.log.Error("failed to decode message", logger.String("payload", payload), logger.Error(err))
		return
	}

	event, err := m.event()
	if err != nil {
		s.log.Error("invalid message", logger.String("payload", payload), logger.Error(err))
		return
	}

	s.wg.Add(1)
	go func(event model.PublicationEvent) {
		defer s.wg.Done()
		// an accepted event is fanned out even if the subscription is shutting down
		s.dispatcher.Dispatch(context.WithoutCancel(ctx), event)
	}(event)
}

const pingTimeout = 2 * time.Second

// NewRedisClient connects and pings once so a bad address fails at startup.
func NewRedisClient(addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return client, nil
}

// Publish sends an event in the subscriber's wire format.
func Publish(ctx context.Context, client *redis.Client, channel string, event model.PublicationEvent) error {
	payload, err := json.Marshal(message{
		Kind:         string(event.Kind),
		CategoryID:   event.CategoryID,
		Comment:      event.Comment,
		Link:         event.Link,
		CategoryTags: event.CategoryTags,
		UserTags:     event.UserTags,
	})
	if err != nil {
		return err
	}
	return client.Publish(ctx, channel, payload).Err()
}
