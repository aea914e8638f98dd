package service

import (
	"context"

	"yt-notify/internal/domain"
	"yt-notify/internal/repository"
	"yt-notify/pkg/errors"
	"yt-notify/pkg/logger"
)

// ContentArchiveService writes every publication to the content repository
type ContentArchiveService struct {
	repo   repository.ContentRepository
	logger *logger.Logger
}

// NewArchiveService creates a new archive service
func NewArchiveService(repo repository.ContentRepository, logger *logger.Logger) *ContentArchiveService {
	return &ContentArchiveService{
		repo:   repo,
		logger: logger,
	}
}

// OnPublish archives the publication
func (s *ContentArchiveService) OnPublish(ctx context.Context, pub domain.Publication) error {
	row := domain.NewArchivedContent(pub)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"channel": pub.Channel,
			"seq":     pub.Seq,
		}).Error("Failed to archive publication")
		return errors.NewInternalError("Failed to archive publication", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"channel":    pub.Channel,
		"seq":        pub.Seq,
		"archive_id": row.ID,
	}).Debug("Publication archived")

	return nil
}

// History returns archived publications, newest first
func (s *ContentArchiveService) History(ctx context.Context, channelName string, limit int) ([]*domain.ArchivedContent, error) {
	items, err := s.repo.ListByChannel(ctx, channelName, limit)
	if err != nil {
		s.logger.WithError(err).WithField("channel", channelName).Error("Failed to read archive")
		return nil, errors.NewInternalError("Failed to read archive", err)
	}
	return items, nil
}

// Count returns the number of archived publications of a channel
func (s *ContentArchiveService) Count(ctx context.Context, channelName string) (int64, error) {
	total, err := s.repo.CountByChannel(ctx, channelName)
	if err != nil {
		s.logger.WithError(err).WithField("channel", channelName).Error("Failed to count archive")
		return 0, errors.NewInternalError("Failed to count archive", err)
	}
	return total, nil
}
