package youtube

import (
	"context"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"yt-notify/internal/domain"
	"yt-notify/internal/service"
	"yt-notify/pkg/errors"
	"yt-notify/pkg/logger"
)

// Service implements the YouTubeService interface
type Service struct {
	apiKey      string
	accessToken string
	logger      *logger.Logger
	extra       []option.ClientOption
}

// NewService creates a new YouTube service. When accessToken is set it is
// sent as a bearer token, otherwise requests are keyed with apiKey.
func NewService(apiKey, accessToken string, logger *logger.Logger, opts ...option.ClientOption) *Service {
	return &Service{
		apiKey:      apiKey,
		accessToken: accessToken,
		logger:      logger,
		extra:       opts,
	}
}

var _ service.YouTubeService = (*Service)(nil)

func (s *Service) client(ctx context.Context) (*youtube.Service, error) {
	var opts []option.ClientOption
	if s.accessToken != "" {
		token := &oauth2.Token{
			AccessToken: s.accessToken,
			TokenType:   "Bearer",
		}
		oauth2Config := &oauth2.Config{}
		opts = append(opts, option.WithHTTPClient(oauth2Config.Client(ctx, token)))
	} else if s.apiKey != "" {
		opts = append(opts, option.WithAPIKey(s.apiKey))
	}
	opts = append(opts, s.extra...)

	youtubeService, err := youtube.NewService(ctx, opts...)
	if err != nil {
		s.logger.WithError(err).Error("Failed to create YouTube service")
		return nil, errors.NewInternalError("Failed to initialize YouTube service", err)
	}
	return youtubeService, nil
}

// GetChannelInfo gets basic information about a YouTube channel
func (s *Service) GetChannelInfo(ctx context.Context, channelID string) (*domain.YouTubeChannel, error) {
	s.logger.WithField("channel_id", channelID).Debug("Getting YouTube channel info")

	youtubeService, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	channelsResponse, err := youtubeService.Channels.List([]string{"id", "snippet", "contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		s.logger.WithError(err).Error("Failed to get channel info")
		return nil, errors.NewExternalError("Failed to get YouTube channel information", err)
	}

	if len(channelsResponse.Items) == 0 {
		s.logger.WithField("channel_id", channelID).Warn("Channel not found")
		return nil, errors.NewNotFoundError("YouTube channel not found")
	}

	channel := channelsResponse.Items[0]
	info := &domain.YouTubeChannel{ID: channel.Id}

	if channel.Snippet != nil {
		info.Title = channel.Snippet.Title
		info.Description = channel.Snippet.Description
		info.Thumbnail = thumbnailURL(channel.Snippet.Thumbnails)
	}
	if channel.ContentDetails != nil && channel.ContentDetails.RelatedPlaylists != nil {
		info.UploadsPlaylistID = channel.ContentDetails.RelatedPlaylists.Uploads
	}

	s.logger.WithFields(map[string]interface{}{
		"channel_id":    info.ID,
		"channel_title": info.Title,
	}).Debug("Retrieved YouTube channel info")

	return info, nil
}

// LatestUploads lists the newest videos of the channel's uploads playlist
func (s *Service) LatestUploads(ctx context.Context, channelID string, max int64) ([]domain.Content, error) {
	info, err := s.GetChannelInfo(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if info.UploadsPlaylistID == "" {
		return nil, errors.NewNotFoundError("YouTube channel has no uploads playlist")
	}

	youtubeService, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	if max <= 0 {
		max = 5
	}

	itemsResponse, err := youtubeService.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(info.UploadsPlaylistID).
		MaxResults(max).
		Context(ctx).
		Do()
	if err != nil {
		s.logger.WithError(err).Error("Failed to list uploads")
		return nil, errors.NewExternalError("Failed to list YouTube uploads", err)
	}

	uploads := make([]domain.Content, 0, len(itemsResponse.Items))
	for _, item := range itemsResponse.Items {
		if item.Snippet == nil {
			continue
		}
		content := domain.Content{
			Title:       item.Snippet.Title,
			Kind:        domain.KindVideo,
			Description: item.Snippet.Description,
			PublishedAt: parsePublishedAt(item.Snippet.PublishedAt),
		}
		if item.ContentDetails != nil {
			content.SourceID = item.ContentDetails.VideoId
			if ts := parsePublishedAt(item.ContentDetails.VideoPublishedAt); !ts.IsZero() {
				content.PublishedAt = ts
			}
		}
		uploads = append(uploads, content)
	}

	s.logger.WithFields(map[string]interface{}{
		"channel_id": channelID,
		"uploads":    len(uploads),
	}).Debug("Retrieved YouTube uploads")

	return uploads, nil
}

func thumbnailURL(thumbnails *youtube.ThumbnailDetails) string {
	if thumbnails == nil {
		return ""
	}
	switch {
	case thumbnails.Default != nil:
		return thumbnails.Default.Url
	case thumbnails.Medium != nil:
		return thumbnails.Medium.Url
	case thumbnails.High != nil:
		return thumbnails.High.Url
	}
	return ""
}

func parsePublishedAt(value string) time.Time {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
