package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/0x0BSoD/crossPoster/internal/model"
)

type SourceStorage struct {
	db *sqlx.DB
}

func NewSourceStorage(db *sqlx.DB) *SourceStorage {
	return &SourceStorage{db: db}
}

func (s *SourceStorage) Sources(ctx context.Context) ([]model.Source, error) {
	sources := []model.Source{}
	err := s.db.SelectContext(ctx, &sources,
		`SELECT id, name, feed_url, category_id, insecure, created_at FROM sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}
