package channel

import (
	"context"
	"fmt"

	"yt-notify/internal/domain"
)

// ContentFactory produces the content for the next publication.
// seq is the number of items already in the channel's log.
type ContentFactory interface {
	NextContent(ctx context.Context, seq int) (domain.Content, error)
}

// ContentFactoryFunc adapts a function to ContentFactory
type ContentFactoryFunc func(ctx context.Context, seq int) (domain.Content, error)

// NextContent calls f
func (f ContentFactoryFunc) NextContent(ctx context.Context, seq int) (domain.Content, error) {
	return f(ctx, seq)
}

// VideoFactory titles videos from the running counter
var VideoFactory = ContentFactoryFunc(func(_ context.Context, seq int) (domain.Content, error) {
	return domain.Content{
		Title: fmt.Sprintf("Cool clip №%d with <3", seq),
		Kind:  domain.KindVideo,
	}, nil
})

// PhotoFactory titles photos from the running counter
var PhotoFactory = ContentFactoryFunc(func(_ context.Context, seq int) (domain.Content, error) {
	return domain.Content{
		Title: fmt.Sprintf("Funny photo №%d", seq),
		Kind:  domain.KindPhoto,
	}, nil
})

// FactoryFor returns the built-in factory for kind
func FactoryFor(kind domain.ContentKind) (ContentFactory, error) {
	switch kind {
	case domain.KindVideo:
		return VideoFactory, nil
	case domain.KindPhoto:
		return PhotoFactory, nil
	default:
		return nil, fmt.Errorf("no factory for content kind %q", kind)
	}
}

// StaticContent always yields the given content, regardless of the counter
func StaticContent(content domain.Content) ContentFactory {
	return ContentFactoryFunc(func(context.Context, int) (domain.Content, error) {
		return content, nil
	})
}
