package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/0x0BSoD/crossPoster/internal/model"
)

var ErrUnknownPlatform = errors.New("unknown platform")

// ChannelStorage is the read-only channel directory. Channels are maintained
// by the admin side; this service only looks them up.
type ChannelStorage struct {
	db *sqlx.DB
}

func NewChannelStorage(db *sqlx.DB) *ChannelStorage {
	return &ChannelStorage{db: db}
}

var lookupQueries = map[model.Platform]string{
	model.PlatformFacebook: `SELECT id, category_id, name, token FROM facebook_pages WHERE category_id = $1 ORDER BY id`,
	model.PlatformTelegram: `SELECT id, category_id, name, token FROM telegram_channels WHERE category_id = $1 ORDER BY id`,
	model.PlatformTwitter: `SELECT id, category_id, name, consumer_key, consumer_secret, access_token, access_token_secret
		FROM twitter_accounts WHERE category_id = $1 ORDER BY id`,
}

// Lookup returns the channels of a category on a platform in id order. A
// category without channels yields an empty slice.
func (s *ChannelStorage) Lookup(ctx context.Context, platform model.Platform, categoryID int64) ([]model.Channel, error) {
	query, ok := lookupQueries[platform]
	if !ok {
		return nil, fmt.Errorf("lookup %q: %w", platform, ErrUnknownPlatform)
	}

	var rows []dbChannel
	if err := s.db.SelectContext(ctx, &rows, query, categoryID); err != nil {
		return nil, fmt.Errorf("lookup %s channels for category %d: %w", platform, categoryID, err)
	}

	return lo.Map(rows, func(r dbChannel, _ int) model.Channel {
		return model.Channel{
			ID:         r.ID,
			CategoryID: r.CategoryID,
			Platform:   platform,
			Name:       r.Name,
			Credentials: model.Credentials{
				Token:             r.Token,
				ConsumerKey:       r.ConsumerKey,
				ConsumerSecret:    r.ConsumerSecret,
				AccessToken:       r.AccessToken,
				AccessTokenSecret: r.AccessTokenSecret,
			},
		}
	}), nil
}

type dbChannel struct {
	ID                int64  `db:"id"`
	CategoryID        int64  `db:"category_id"`
	Name              string `db:"name"`
	Token             string `db:"token"`
	ConsumerKey       string `db:"consumer_key"`
	ConsumerSecret    string `db:"consumer_secret"`
	AccessToken       string `db:"access_token"`
	AccessTokenSecret string `db:"access_token_secret"`
}
