package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"yt-notify/internal/domain"
	"yt-notify/pkg/logger"
)

func TestHub_Create(t *testing.T) {
	hub := NewHub()

	ch, err := hub.Create("  Imagine Dragons ")
	require.NoError(t, err)
	assert.Equal(t, "Imagine Dragons", ch.Name())

	_, err = hub.Create("Imagine Dragons")
	assert.ErrorIs(t, err, ErrChannelExists)

	_, err = hub.Create("   ")
	assert.ErrorIs(t, err, ErrInvalidName)

	got, ok := hub.Get("Imagine Dragons")
	require.True(t, ok)
	assert.Same(t, ch, got)

	_, ok = hub.Get("Muse")
	assert.False(t, ok)
}

func TestHub_ListKeepsCreationOrder(t *testing.T) {
	hub := NewHub()
	for _, name := range []string{"Muse", "Imagine Dragons", "Coldplay"} {
		_, err := hub.Create(name)
		require.NoError(t, err)
	}

	var listed []string
	for _, ch := range hub.List() {
		listed = append(listed, ch.Name())
	}
	assert.Equal(t, []string{"Muse", "Imagine Dragons", "Coldplay"}, listed)
}

func TestHub_AppliesDefaultOptions(t *testing.T) {
	var published []string
	hub := NewHub(WithPublishHook(PublishHookFunc(func(_ context.Context, pub domain.Publication) error {
		published = append(published, pub.Channel)
		return nil
	})))

	muse, err := hub.Create("Muse", WithSourceID("UC123"))
	require.NoError(t, err)
	assert.Equal(t, "UC123", muse.SourceID())

	muse.PublishVideo(context.Background())
	assert.Equal(t, []string{"Muse"}, published)
}

func TestHub_DeleteDetachesSubscribers(t *testing.T) {
	hub := NewHub()
	ch, err := hub.Create("Imagine Dragons")
	require.NoError(t, err)

	bob := NewInbox("Bob", 0)
	tim := NewInbox("Tim", 0)
	ch.Add(bob)
	ch.Add(tim)

	assert.True(t, hub.Delete("Imagine Dragons"))
	assert.False(t, hub.Delete("Imagine Dragons"))

	assert.False(t, bob.Attached())
	assert.False(t, tim.Attached())
	assert.Empty(t, ch.Subscribers())
	assert.Empty(t, hub.List())

	_, err = hub.Create("Imagine Dragons")
	assert.NoError(t, err, "name can be reused after delete")
}

func TestHub_DeleteRemovesEachObserverOnce(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	hub := NewHub(WithLogger(logger.FromZap(zap.New(core))))
	ch, err := hub.Create("Imagine Dragons")
	require.NoError(t, err)

	bob := NewInbox("Bob", 0)
	ch.Add(bob)
	ch.Add(bob)
	ch.Add(NewInbox("Tim", 0))

	require.True(t, hub.Delete("Imagine Dragons"))

	removals := logs.FilterMessage("Subscriber has been removed from subscribers").All()
	require.Len(t, removals, 2)
	assert.Equal(t, "Bob", removals[0].ContextMap()["subscriber"])
	assert.Equal(t, int64(2), removals[0].ContextMap()["registrations"])
	assert.Equal(t, "Tim", removals[1].ContextMap()["subscriber"])
	assert.False(t, bob.Attached())
}
