package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/0x0BSoD/crossPoster/internal/model"
)

type PublicationStorage struct {
	db *sqlx.DB
}

func NewPublicationStorage(db *sqlx.DB) *PublicationStorage {
	return &PublicationStorage{db: db}
}

// Store saves p unless a publication with the same link exists. It reports
// whether p was new.
func (s *PublicationStorage) Store(ctx context.Context, p model.Publication) (bool, error) {
	const query = `INSERT INTO publications (source_id, category_id, title, link, summary, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (link) DO NOTHING
		RETURNING id`

	var id int64
	err := s.db.QueryRowxContext(ctx, query,
		p.SourceID, p.CategoryID, p.Title, p.Link, p.Summary, p.PublishedAt.UTC(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store publication %s: %w", p.Link, err)
	}
	return true, nil
}

// CategoryTags returns the tags attached to a category in display order.
func (s *PublicationStorage) CategoryTags(ctx context.Context, categoryID int64) ([]string, error) {
	tags := []string{}
	err := s.db.SelectContext(ctx, &tags,
		`SELECT tag FROM category_tags WHERE category_id = $1 ORDER BY position, id`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("category %d tags: %w", categoryID, err)
	}
	return tags, nil
}
