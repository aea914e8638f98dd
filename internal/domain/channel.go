package domain

import "time"

// ChannelSummary is the read model of a channel returned by the API
type ChannelSummary struct {
	Name            string              `json:"name"`
	SourceID        string              `json:"source_id,omitempty"`
	SubscriberCount int                 `json:"subscriber_count"`
	ContentCount    int                 `json:"content_count"`
	Latest          *Content            `json:"latest,omitempty"`
	Subscribers     []SubscriberSummary `json:"subscribers,omitempty"`
}

// SubscriberSummary describes one registration on a channel
type SubscriberSummary struct {
	Token    string    `json:"token"`
	Name     string    `json:"name"`
	AddedAt  time.Time `json:"added_at"`
	Received int       `json:"received"`
}

// ChannelStats represents delivery counters kept in Redis
type ChannelStats struct {
	Channel     string    `json:"channel"`
	Published   int64     `json:"published"`
	Delivered   int64     `json:"delivered"`
	Failed      int64     `json:"failed"`
	Skipped     int64     `json:"skipped"`
	Latest      *Content  `json:"latest,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// YouTubeChannel represents basic YouTube channel information
type YouTubeChannel struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Thumbnail         string `json:"thumbnail"`
	UploadsPlaylistID string `json:"uploads_playlist_id,omitempty"`
}
