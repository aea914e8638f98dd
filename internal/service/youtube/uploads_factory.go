package youtube

import (
	"context"
	"errors"
	"sync"

	"yt-notify/internal/domain"
	"yt-notify/internal/service"
)

// ErrNoNewUploads is returned when the newest upload was already published
var ErrNoNewUploads = errors.New("no new uploads since last publish")

// UploadsFactory produces the newest upload of a YouTube channel. It remembers
// the last video it handed out and refuses to produce it twice.
type UploadsFactory struct {
	yt        service.YouTubeService
	channelID string

	mu       sync.Mutex
	lastSeen string
}

// NewUploadsFactory creates a factory for channelID
func NewUploadsFactory(yt service.YouTubeService, channelID string) *UploadsFactory {
	return &UploadsFactory{yt: yt, channelID: channelID}
}

// NextContent fetches the newest upload. seq is ignored; the title comes from YouTube.
func (f *UploadsFactory) NextContent(ctx context.Context, _ int) (domain.Content, error) {
	uploads, err := f.yt.LatestUploads(ctx, f.channelID, 1)
	if err != nil {
		return domain.Content{}, err
	}
	if len(uploads) == 0 {
		return domain.Content{}, ErrNoNewUploads
	}

	newest := uploads[0]

	f.mu.Lock()
	defer f.mu.Unlock()
	if newest.SourceID != "" && newest.SourceID == f.lastSeen {
		return domain.Content{}, ErrNoNewUploads
	}
	f.lastSeen = newest.SourceID

	return newest, nil
}
