package domain

import (
	"fmt"
	"strings"
	"time"
)

// ContentKind is the variant of a published content item
type ContentKind string

const (
	KindVideo ContentKind = "video"
	KindPhoto ContentKind = "photo"
)

// ParseContentKind accepts "video" or "photo" in any case
func ParseContentKind(value string) (ContentKind, error) {
	switch ContentKind(strings.ToLower(strings.TrimSpace(value))) {
	case KindVideo:
		return KindVideo, nil
	case KindPhoto:
		return KindPhoto, nil
	default:
		return "", fmt.Errorf("unknown content kind %q", value)
	}
}

// Content is one unit of published material. Values are never mutated after
// they enter a channel's content log.
type Content struct {
	Title       string      `json:"title"`
	Kind        ContentKind `json:"kind"`
	Description string      `json:"description,omitempty"`
	SourceID    string      `json:"source_id,omitempty"`
	PublishedAt time.Time   `json:"published_at"`
}

// Publication is a content item together with its position in a channel's log
type Publication struct {
	Channel string  `json:"channel"`
	Seq     int     `json:"seq"`
	Content Content `json:"content"`
}

// ArchivedContent represents a publication stored in PostgreSQL
type ArchivedContent struct {
	ID          int64       `json:"id" db:"id"`
	Channel     string      `json:"channel" db:"channel"`
	Seq         int         `json:"seq" db:"seq"`
	Title       string      `json:"title" db:"title"`
	Kind        ContentKind `json:"kind" db:"kind"`
	Description string      `json:"description,omitempty" db:"description"`
	SourceID    string      `json:"source_id,omitempty" db:"source_id"`
	PublishedAt time.Time   `json:"published_at" db:"published_at"`
	ArchivedAt  time.Time   `json:"archived_at" db:"archived_at"`
}

// NewArchivedContent flattens a publication into its archive row
func NewArchivedContent(pub Publication) *ArchivedContent {
	return &ArchivedContent{
		Channel:     pub.Channel,
		Seq:         pub.Seq,
		Title:       pub.Content.Title,
		Kind:        pub.Content.Kind,
		Description: pub.Content.Description,
		SourceID:    pub.Content.SourceID,
		PublishedAt: pub.Content.PublishedAt,
	}
}
