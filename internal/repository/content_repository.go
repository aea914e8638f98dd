package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"yt-notify/internal/domain"
	"yt-notify/pkg/database"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// listByChannelQuery orders by insertion id: seq restarts when a channel is
// deleted and recreated under the same name, and both histories share the archive.
const listByChannelQuery = `
	SELECT id, channel, seq, title, kind, description, source_id,
	       published_at, archived_at
	FROM content_archive
	WHERE channel = $1
	ORDER BY id DESC
	LIMIT $2
`

type PgContentRepository struct {
	db *database.PostgresDB
}

func NewContentRepository(db *database.PostgresDB) *PgContentRepository {
	return &PgContentRepository{db: db}
}

// Create inserts an archived publication
func (r *PgContentRepository) Create(ctx context.Context, content *domain.ArchivedContent) error {
	query := `
		INSERT INTO content_archive (
			channel, seq, title, kind, description, source_id, published_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, archived_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		content.Channel,
		content.Seq,
		content.Title,
		string(content.Kind),
		content.Description,
		content.SourceID,
		content.PublishedAt,
	).Scan(&content.ID, &content.ArchivedAt)

	if err != nil {
		return fmt.Errorf("failed to archive content: %w", err)
	}

	return nil
}

// ListByChannel returns archived items, newest first
func (r *PgContentRepository) ListByChannel(ctx context.Context, channel string, limit int) ([]*domain.ArchivedContent, error) {
	rows, err := r.db.GetReadPool().Query(ctx, listByChannelQuery, channel, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[domain.ArchivedContent])
	if err != nil {
		return nil, fmt.Errorf("failed to scan archive: %w", err)
	}

	return items, nil
}

// CountByChannel counts archived items of a channel
func (r *PgContentRepository) CountByChannel(ctx context.Context, channel string) (int64, error) {
	var count int64
	err := r.db.GetReadPool().QueryRow(ctx,
		`SELECT COUNT(*) FROM content_archive WHERE channel = $1`, channel,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count archive: %w", err)
	}
	return count, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
