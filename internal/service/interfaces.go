package service

import (
	"context"
	"time"

	"yt-notify/internal/channel"
	"yt-notify/internal/domain"
)

// AuthService defines the interface for publisher authentication
type AuthService interface {
	// IssueToken mints a bearer token for subject
	IssueToken(subject string, ttl time.Duration) (string, error)

	// ValidateToken validates a bearer token and returns its claims
	ValidateToken(ctx context.Context, token string) (*domain.PublisherClaims, error)
}

// YouTubeService defines the interface for YouTube operations
type YouTubeService interface {
	// GetChannelInfo gets basic information about a YouTube channel
	GetChannelInfo(ctx context.Context, channelID string) (*domain.YouTubeChannel, error)

	// LatestUploads returns the newest uploads of a channel, newest first
	LatestUploads(ctx context.Context, channelID string, max int64) ([]domain.Content, error)
}

// StatsService keeps per-channel delivery counters
type StatsService interface {
	channel.PublishHook

	// RecordRound adds the outcome of a notification round to the counters
	RecordRound(ctx context.Context, channelName string, result channel.Result) error

	// GetStats returns the counters of a channel
	GetStats(ctx context.Context, channelName string) (*domain.ChannelStats, error)
}

// ArchiveService persists publications beyond the in-memory content log
type ArchiveService interface {
	channel.PublishHook

	// History returns archived publications of a channel, newest first
	History(ctx context.Context, channelName string, limit int) ([]*domain.ArchivedContent, error)

	// Count returns how many publications of a channel are archived
	Count(ctx context.Context, channelName string) (int64, error)
}

// Services aggregates all service interfaces
type Services struct {
	Auth    AuthService
	YouTube YouTubeService
	Stats   StatsService
	Archive ArchiveService
}
