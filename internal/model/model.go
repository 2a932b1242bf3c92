// Package model defines the data structures shared by the crossPoster packages: social channels and
// their credentials, publication events fed into the fan-out, and the feed sources, items and
// publications used by the feed intake.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Platform string

const (
	PlatformFacebook Platform = "facebook"
	PlatformTelegram Platform = "telegram"
	PlatformTwitter  Platform = "twitter"
)

func (p Platform) String() string {
	return string(p)
}

var ErrEmptyCredentials = errors.New("empty credentials")

// Credentials holds a single token for Facebook and Telegram, or the OAuth 1.0a
// four-tuple for Twitter.
type Credentials struct {
	Token string

	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

type Channel struct {
	ID          int64
	CategoryID  int64
	Platform    Platform
	Name        string
	Credentials Credentials
}

func (c Channel) Validate() error {
	switch c.Platform {
	case PlatformFacebook, PlatformTelegram:
		if strings.TrimSpace(c.Credentials.Token) == "" {
			return fmt.Errorf("%s channel %q: %w", c.Platform, c.Name, ErrEmptyCredentials)
		}
	case PlatformTwitter:
		cr := c.Credentials
		if cr.ConsumerKey == "" || cr.ConsumerSecret == "" || cr.AccessToken == "" || cr.AccessTokenSecret == "" {
			return fmt.Errorf("twitter account %q: %w", c.Name, ErrEmptyCredentials)
		}
	default:
		return fmt.Errorf("channel %q: unknown platform %q", c.Name, c.Platform)
	}
	return nil
}

type EventKind string

const (
	KindPublication EventKind = "publication"
	KindVacancy     EventKind = "vacancy"
)

// PublicationEvent is one unit of work for the fan-out. It is built once per
// successful publish or vacancy save and is not persisted.
type PublicationEvent struct {
	ID           uuid.UUID
	Kind         EventKind
	CategoryID   int64
	Comment      string
	Link         string
	CategoryTags []string
	UserTags     []string
}

func NewPublicationEvent(categoryID int64, comment, link string, categoryTags, userTags []string) PublicationEvent {
	return PublicationEvent{
		ID:           uuid.New(),
		Kind:         KindPublication,
		CategoryID:   categoryID,
		Comment:      comment,
		Link:         link,
		CategoryTags: categoryTags,
		UserTags:     userTags,
	}
}

// NewVacancyEvent builds the event for a saved vacancy. Vacancies are announced
// with their share URL and no tags.
func NewVacancyEvent(categoryID int64, comment, shareURL string) PublicationEvent {
	return PublicationEvent{
		ID:         uuid.New(),
		Kind:       KindVacancy,
		CategoryID: categoryID,
		Comment:    comment,
		Link:       shareURL,
	}
}

// Tags returns category tags followed by user tags, trimmed and deduplicated.
func (e PublicationEvent) Tags() []string {
	all := append(append([]string{}, e.CategoryTags...), e.UserTags...)
	all = lo.Map(all, func(t string, _ int) string { return strings.TrimSpace(t) })
	return lo.Uniq(lo.Compact(all))
}

// ParseUserTags splits the space separated tag string typed by an author.
func ParseUserTags(raw string) []string {
	return lo.Compact(lo.Map(strings.Split(raw, " "), func(t string, _ int) string {
		return strings.TrimSpace(t)
	}))
}

type Source struct {
	ID         int64     `db:"id"`
	Name       string    `db:"name"`
	FeedURL    string    `db:"feed_url"`
	CategoryID int64     `db:"category_id"`
	Insecure   bool      `db:"insecure"`
	CreatedAt  time.Time `db:"created_at"`
}

type Item struct {
	Title      string
	Categories []string
	Link       string
	Date       time.Time
	Summary    string
	SourceName string
}

// Publication is a stored content item. Link is unique across publications.
type Publication struct {
	ID          int64     `db:"id"`
	SourceID    int64     `db:"source_id"`
	CategoryID  int64     `db:"category_id"`
	Title       string    `db:"title"`
	Link        string    `db:"link"`
	Summary     string    `db:"summary"`
	PublishedAt time.Time `db:"published_at"`
	CreatedAt   time.Time `db:"created_at"`
}
