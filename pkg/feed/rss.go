package feed

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/eduncan911/podcast"

	"yt-notify/internal/domain"
)

// BaseURL returns configured when set, otherwise the scheme and host of r
func BaseURL(r *http.Request, configured string) string {
	if configured != "" {
		return configured
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// ItemLink points at the YouTube video when the content has one, otherwise
// at the content's position in the channel log
func ItemLink(baseURL, channel string, seq int, content domain.Content) string {
	if content.SourceID != "" && content.Kind == domain.KindVideo {
		return "https://www.youtube.com/watch?v=" + url.QueryEscape(content.SourceID)
	}
	return fmt.Sprintf("%s/api/channels/%s/content#%d", baseURL, url.PathEscape(channel), seq)
}

// Render builds an RSS document of a channel's content log, newest first
func Render(channel string, log []domain.Content, baseURL string) (string, error) {
	var lastBuild time.Time
	if len(log) > 0 {
		lastBuild = log[len(log)-1].PublishedAt
	}
	var pubDate time.Time
	if len(log) > 0 {
		pubDate = log[0].PublishedAt
	}

	p := podcast.New(
		channel,
		fmt.Sprintf("%s/api/channels/%s", baseURL, url.PathEscape(channel)),
		fmt.Sprintf("New videos and photos published on %s.", channel),
		&pubDate, &lastBuild,
	)

	for seq := len(log) - 1; seq >= 0; seq-- {
		content := log[seq]
		description := content.Description
		if description == "" {
			description = fmt.Sprintf("New %s: %s", content.Kind, content.Title)
		}
		publishedAt := content.PublishedAt

		item := podcast.Item{
			Title:       content.Title,
			Description: description,
			Link:        ItemLink(baseURL, channel, seq, content),
			GUID:        fmt.Sprintf("%s/%s/%d", baseURL, url.PathEscape(channel), seq),
			PubDate:     &publishedAt,
		}
		if _, err := p.AddItem(item); err != nil {
			return "", fmt.Errorf("add feed item %d: %w", seq, err)
		}
	}

	return p.String(), nil
}
