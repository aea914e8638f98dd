package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"yt-notify/pkg/logger"
)

func TestConsole_LogsNotification(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ch, _ := newTestChannel(t, "Imagine Dragons")
	bob := NewConsole("Bob", logger.FromZap(zap.New(core)))
	ch.Add(bob)

	ch.PublishVideo(context.Background())

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Bob receive notification about new content: 'Cool clip №0 with <3'", logs.All()[0].Message)
}

func TestConsole_UnsubscribeWhenDetached(t *testing.T) {
	bob := NewConsole("Bob", nil)

	assert.NotPanics(t, bob.Unsubscribe)
	assert.False(t, bob.Attached())
}

func TestInbox_KeepsItemsInOrder(t *testing.T) {
	ch, _ := newTestChannel(t, "Imagine Dragons")
	inbox := NewInbox("Tim", 0)
	ch.Add(inbox)

	ctx := context.Background()
	ch.PublishVideo(ctx)
	ch.PublishPhoto(ctx)
	ch.PublishVideo(ctx)

	items := inbox.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "Cool clip №0 with <3", items[0].Title)
	assert.Equal(t, "Funny photo №1", items[1].Title)
	assert.Equal(t, "Cool clip №2 with <3", items[2].Title)
	assert.True(t, inbox.Attached(), "unlimited inbox stays subscribed")
}

func TestInbox_UnsubscribesAtLimit(t *testing.T) {
	tests := []struct {
		name          string
		limit         int
		publishes     int
		expectedItems int
		attached      bool
	}{
		{name: "below limit", limit: 3, publishes: 2, expectedItems: 2, attached: true},
		{name: "at limit", limit: 2, publishes: 2, expectedItems: 2, attached: false},
		{name: "past limit", limit: 1, publishes: 4, expectedItems: 1, attached: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, _ := newTestChannel(t, "Imagine Dragons")
			inbox := NewInbox("Alexa(hater)", tt.limit)
			other := NewInbox("Jack", 0)
			ch.Add(inbox)
			ch.Add(other)

			for i := 0; i < tt.publishes; i++ {
				ch.PublishVideo(context.Background())
			}

			assert.Equal(t, tt.expectedItems, inbox.Received())
			assert.Equal(t, tt.attached, inbox.Attached())
			assert.Equal(t, tt.publishes, other.Received(), "other subscribers are unaffected")
		})
	}
}

func TestInbox_LimitReachedMidRoundKeepsOrder(t *testing.T) {
	ch, _ := newTestChannel(t, "Imagine Dragons")
	first := NewInbox("A", 1)
	second := NewInbox("B", 0)
	ch.Add(first)
	ch.Add(second)

	_, result := ch.PublishVideo(context.Background())

	assert.Equal(t, 2, result.Delivered)
	assert.Equal(t, 1, second.Received())
	require.Len(t, ch.Subscribers(), 1)
	assert.Same(t, second, ch.Subscribers()[0].Observer)
}
