package repository

import (
	"context"

	"yt-notify/internal/domain"
)

// ContentRepository defines the interface for archived content operations
type ContentRepository interface {
	// Create stores a publication and fills in its ID and ArchivedAt
	Create(ctx context.Context, content *domain.ArchivedContent) error

	// ListByChannel returns the newest archived items of a channel first
	ListByChannel(ctx context.Context, channel string, limit int) ([]*domain.ArchivedContent, error)

	// CountByChannel returns how many items of a channel are archived
	CountByChannel(ctx context.Context, channel string) (int64, error)
}
