package channel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"yt-notify/internal/domain"
	"yt-notify/pkg/logger"
)

// journal records deliveries across subscribers so that ordering can be asserted
type journal struct {
	entries []string
}

type recorder struct {
	Attachment
	name     string
	journal  *journal
	received []domain.Content
	onUpdate func(r *recorder)
}

func newRecorder(name string, j *journal) *recorder {
	return &recorder{name: name, journal: j}
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Update(content domain.Content) {
	r.received = append(r.received, content)
	if r.journal != nil {
		r.journal.entries = append(r.journal.entries, r.name+": "+content.Title)
	}
	if r.onUpdate != nil {
		r.onUpdate(r)
	}
}

func (r *recorder) Unsubscribe() { _ = Detach(r) }

func newTestChannel(t *testing.T, name string, opts ...Option) (*Channel, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	fixed := time.Date(2018, time.February, 8, 12, 0, 0, 0, time.UTC)
	all := append([]Option{
		WithLogger(logger.FromZap(zap.New(core))),
		WithClock(func() time.Time { return fixed }),
	}, opts...)
	return New(name, all...), logs
}

func names(regs []Registration) []string {
	out := make([]string, 0, len(regs))
	for _, reg := range regs {
		out = append(out, reg.Observer.Name())
	}
	return out
}

func TestChannel_AddPreservesRegistrationOrder(t *testing.T) {
	ch, logs := newTestChannel(t, "Imagine Dragons")

	for _, name := range []string{"Jacke(hater)", "Bob", "Alexa(hater)", "Jack", "Tim"} {
		ch.Add(newRecorder(name, nil))
	}

	assert.Equal(t, []string{"Jacke(hater)", "Bob", "Alexa(hater)", "Jack", "Tim"}, names(ch.Subscribers()))
	assert.Equal(t, 5, logs.FilterMessage("Subscriber has been subscribed to the channel").Len())
}

func TestChannel_AddIssuesDistinctTokens(t *testing.T) {
	ch, _ := newTestChannel(t, "Imagine Dragons")
	bob := newRecorder("Bob", nil)

	first := ch.Add(bob)
	second := ch.Add(bob)

	assert.NotEqual(t, first, second)
	assert.Len(t, ch.Subscribers(), 2)

	reg, ok := ch.Lookup(second)
	require.True(t, ok)
	assert.Same(t, bob, reg.Observer)
}

func TestChannel_BackReferenceLifecycle(t *testing.T) {
	ch, _ := newTestChannel(t, "Imagine Dragons")
	bob := newRecorder("Bob", nil)

	assert.Nil(t, bob.Source(), "back-reference is nil before Add")

	ch.Add(bob)
	assert.Equal(t, Source(ch), bob.Source())

	ch.Remove(bob)
	assert.Nil(t, bob.Source())

	ch.Add(bob)
	bob.Unsubscribe()
	assert.Nil(t, bob.Source())
	assert.Empty(t, ch.Subscribers())
}

func TestChannel_RemoveMatchesIdentityNotName(t *testing.T) {
	ch, _ := newTestChannel(t, "Imagine Dragons")
	j := &journal{}
	first := newRecorder("Bob", j)
	second := newRecorder("Bob", j)

	ch.Add(first)
	ch.Add(second)
	ch.Remove(first)

	require.Len(t, ch.Subscribers(), 1)
	assert.Same(t, second, ch.Subscribers()[0].Observer)
	assert.Nil(t, first.Source())
	assert.Equal(t, Source(ch), second.Source())

	ch.PublishVideo(context.Background())
	assert.Empty(t, first.received)
	assert.Len(t, second.received, 1)
}

func TestChannel_RemoveDropsEveryRegistrationOfObserver(t *testing.T) {
	ch, logs := newTestChannel(t, "Imagine Dragons")
	bob := newRecorder("Bob", nil)
	tim := newRecorder("Tim", nil)

	ch.Add(bob)
	ch.Add(tim)
	ch.Add(bob)

	_, result := ch.PublishVideo(context.Background())
	assert.Equal(t, 3, result.Delivered)
	assert.Len(t, bob.received, 2, "duplicate registrations deliver twice")

	ch.Remove(bob)
	assert.Equal(t, []string{"Tim"}, names(ch.Subscribers()))

	_, result = ch.PublishVideo(context.Background())
	assert.Equal(t, 1, result.Delivered)
	assert.Len(t, bob.received, 2)

	removed := logs.FilterMessage("Subscriber has been removed from subscribers").All()
	require.Len(t, removed, 1)
	assert.EqualValues(t, 2, removed[0].ContextMap()["registrations"])
}

func TestChannel_RemoveAbsentObserverIsNoop(t *testing.T) {
	ch, _ := newTestChannel(t, "Imagine Dragons")
	bob := newRecorder("Bob", nil)
	tim := newRecorder("Tim", nil)
	ch.Add(tim)

	assert.NotPanics(t, func() { ch.Remove(bob) })
	assert.Equal(t, []string{"Tim"}, names(ch.Subscribers()))
}

func TestChannel_RemoveDoesNotClearForeignBackReference(t *testing.T) {
	first, _ := newTestChannel(t, "Imagine Dragons")
	second, _ := newTestChannel(t, "Muse")
	bob := newRecorder("Bob", nil)

	second.Add(bob)
	first.Remove(bob)

	assert.Equal(t, Source(second), bob.Source())
}

func TestChannel_RemoveToken(t *testing.T) {
	ch, _ := newTestChannel(t, "Imagine Dragons")
	bob := newRecorder("Bob", nil)

	first := ch.Add(bob)
	second := ch.Add(bob)

	assert.True(t, ch.RemoveToken(first))
	assert.Len(t, ch.Subscribers(), 1)
	assert.Equal(t, Source(ch), bob.Source(), "still registered through the second token")

	assert.False(t, ch.RemoveToken(first), "token already removed")

	assert.True(t, ch.RemoveToken(second))
	assert.Empty(t, ch.Subscribers())
	assert.Nil(t, bob.Source())
}

// gatedRecorder blocks inside its first attaching SetSource until released
type gatedRecorder struct {
	*recorder
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRecorder) SetSource(src Source) {
	if src != nil {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	g.recorder.SetSource(src)
}

func TestChannel_AddAttachesBeforeConcurrentRound(t *testing.T) {
	ch, _ := newTestChannel(t, "Imagine Dragons")
	ch.PublishVideo(context.Background())

	g := &gatedRecorder{
		recorder: newRecorder("Alexa(hater)", nil),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	g.onUpdate = func(*recorder) { _ = Detach(g) }

	added := make(chan Token, 1)
	go func() { added <- ch.Add(g) }()
	<-g.entered

	rounds := make(chan Result, 1)
	go func() { rounds <- ch.NotifyAll() }()
	// Let the round try to run while Add is still attaching
	time.Sleep(20 * time.Millisecond)
	close(g.release)

	<-added
	result := <-rounds

	assert.Equal(t, 1, result.Delivered)
	assert.Len(t, g.received, 1)
	assert.Empty(t, ch.Subscribers(), "subscriber that unsubscribed in its first round stays removed")
	assert.False(t, g.Attached())
}

func TestChannel_AddMovesObserverBetweenChannels(t *testing.T) {
	first, _ := newTestChannel(t, "Imagine Dragons")
	second, _ := newTestChannel(t, "Muse")
	bob := newRecorder("Bob", nil)

	first.Add(bob)
	second.Add(bob)

	assert.Empty(t, first.Subscribers())
	assert.Equal(t, []string{"Bob"}, names(second.Subscribers()))
	assert.Equal(t, Source(second), bob.Source())
}

func TestChannel_NotifyAllWithoutContent(t *testing.T) {
	ch, logs := newTestChannel(t, "Imagine Dragons")
	subs := []*recorder{newRecorder("A", nil), newRecorder("B", nil), newRecorder("C", nil)}
	for _, s := range subs {
		ch.Add(s)
	}

	result := ch.NotifyAll()

	assert.Equal(t, StatusNoContent, result.Status)
	assert.True(t, result.Skipped())
	assert.ErrorIs(t, result.Err(), ErrEmptyContentLog)
	assert.Zero(t, result.Delivered)
	for _, s := range subs {
		assert.Empty(t, s.received)
	}
	assert.Equal(t, []string{"A", "B", "C"}, names(ch.Subscribers()), "registry is untouched")
	assert.Equal(t, 1, logs.FilterMessage("Channel doesn't have content to notify").Len())
}

func TestChannel_PublishWithoutSubscribers(t *testing.T) {
	ch, logs := newTestChannel(t, "Imagine Dragons")

	content, result := ch.PublishVideo(context.Background())

	assert.Equal(t, StatusNoSubscribers, result.Status)
	assert.ErrorIs(t, result.Err(), ErrNoSubscribers)
	assert.Zero(t, result.Delivered)
	assert.Equal(t, []domain.Content{content}, ch.Content(), "content is still appended")
	assert.Equal(t, 1, logs.FilterMessage("Channel doesn't have any subscribers").Len())
}

func TestChannel_PublishDeliversLatestInRegistrationOrder(t *testing.T) {
	ch, logs := newTestChannel(t, "Imagine Dragons")
	j := &journal{}
	for _, name := range []string{"A", "B", "C"} {
		ch.Add(newRecorder(name, j))
	}

	ch.PublishVideo(context.Background())
	j.entries = nil
	content, result := ch.PublishPhoto(context.Background())

	assert.Equal(t, "Funny photo №1", content.Title)
	assert.Equal(t, domain.KindPhoto, content.Kind)
	assert.Equal(t, Result{Status: StatusDelivered, Content: content, Delivered: 3}, result)
	assert.NoError(t, result.Err())
	assert.Equal(t, []string{
		"A: Funny photo №1",
		"B: Funny photo №1",
		"C: Funny photo №1",
	}, j.entries)
	assert.Equal(t, 6, logs.FilterMessage("Notification delivered").Len())
}

func TestChannel_ImagineDragonsScenario(t *testing.T) {
	ch, _ := newTestChannel(t, "Imagine Dragons")
	j := &journal{}
	a := newRecorder("A", j)
	b := newRecorder("B", j)
	c := newRecorder("C", j)
	for _, s := range []*recorder{a, b, c} {
		ch.Add(s)
	}

	_, _, err := ch.Publish(context.Background(), StaticContent(domain.Content{Title: "clip 0", Kind: domain.KindVideo}))
	require.NoError(t, err)
	assert.Equal(t, []string{"A: clip 0", "B: clip 0", "C: clip 0"}, j.entries)

	j.entries = nil
	a.Unsubscribe()
	_, _, err = ch.Publish(context.Background(), StaticContent(domain.Content{Title: "clip 1", Kind: domain.KindVideo}))
	require.NoError(t, err)

	assert.Equal(t, []string{"B: clip 1", "C: clip 1"}, j.entries)
	assert.Len(t, a.received, 1)
}

func TestChannel_UnsubscribeTwiceIsSafe(t *testing.T) {
	ch, logs := newTestChannel(t, "Imagine Dragons")
	bob := newRecorder("Bob", nil)
	tim := newRecorder("Tim", nil)
	ch.Add(bob)
	ch.Add(tim)

	assert.NoError(t, Detach(bob))
	assert.ErrorIs(t, Detach(bob), ErrNotAttached)
	assert.NotPanics(t, bob.Unsubscribe)

	assert.Equal(t, []string{"Tim"}, names(ch.Subscribers()))
	assert.Equal(t, 1, logs.FilterMessage("Subscriber has been removed from subscribers").Len())
}

func TestChannel_UnsubscribeDuringNotification(t *testing.T) {
	ch, _ := newTestChannel(t, "Imagine Dragons")
	j := &journal{}
	a := newRecorder("A", j)
	b := newRecorder("B", j)
	c := newRecorder("C", j)
	d := newRecorder("D", j)

	a.onUpdate = func(r *recorder) { r.Unsubscribe() }
	b.onUpdate = func(*recorder) { c.Unsubscribe() }
	for _, s := range []*recorder{a, b, c, d} {
		ch.Add(s)
	}

	_, result := ch.PublishVideo(context.Background())

	assert.Equal(t, 4, result.Delivered, "the round uses the registry snapshot")
	assert.Equal(t, []string{
		"A: Cool clip №0 with <3",
		"B: Cool clip №0 with <3",
		"C: Cool clip №0 with <3",
		"D: Cool clip №0 with <3",
	}, j.entries)
	assert.Equal(t, []string{"B", "D"}, names(ch.Subscribers()))
	assert.Nil(t, a.Source())
	assert.Nil(t, c.Source())

	j.entries = nil
	ch.PublishVideo(context.Background())
	assert.Equal(t, []string{"B: Cool clip №1 with <3", "D: Cool clip №1 with <3"}, j.entries)
}

func TestChannel_AddDuringNotificationWaitsForNextRound(t *testing.T) {
	ch, _ := newTestChannel(t, "Imagine Dragons")
	late := newRecorder("Late", nil)
	a := newRecorder("A", nil)
	a.onUpdate = func(*recorder) {
		if late.Source() == nil {
			ch.Add(late)
		}
	}
	ch.Add(a)

	_, result := ch.PublishVideo(context.Background())
	assert.Equal(t, 1, result.Delivered)
	assert.Empty(t, late.received)

	_, result = ch.PublishVideo(context.Background())
	assert.Equal(t, 2, result.Delivered)
	assert.Len(t, late.received, 1)
}

func TestChannel_PanickingSubscriberIsIsolated(t *testing.T) {
	ch, logs := newTestChannel(t, "Imagine Dragons")
	j := &journal{}
	a := newRecorder("A", j)
	broken := newRecorder("Broken", nil)
	broken.onUpdate = func(*recorder) { panic("subscriber exploded") }
	c := newRecorder("C", j)
	for _, s := range []*recorder{a, broken, c} {
		ch.Add(s)
	}

	var result Result
	require.NotPanics(t, func() { _, result = ch.PublishVideo(context.Background()) })

	assert.Equal(t, 2, result.Delivered)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"A: Cool clip №0 with <3", "C: Cool clip №0 with <3"}, j.entries)

	failures := logs.FilterMessage("Subscriber failed to receive notification").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "Broken", failures[0].ContextMap()["subscriber"])
}

func TestChannel_PublishTitlesFromCounter(t *testing.T) {
	ch, _ := newTestChannel(t, "Imagine Dragons")
	ctx := context.Background()

	first, _ := ch.PublishVideo(ctx)
	second, _ := ch.PublishVideo(ctx)
	third, _ := ch.PublishPhoto(ctx)

	assert.Equal(t, "Cool clip №0 with <3", first.Title)
	assert.Equal(t, "Cool clip №1 with <3", second.Title)
	assert.Equal(t, "Funny photo №2", third.Title)
	assert.Equal(t, time.Date(2018, time.February, 8, 12, 0, 0, 0, time.UTC), third.PublishedAt)

	latest, ok := ch.Latest()
	require.True(t, ok)
	assert.Equal(t, third, latest)
	assert.Len(t, ch.Content(), 3)
}

func TestChannel_PublishRunsHooks(t *testing.T) {
	var seen []domain.Publication
	recordHook := PublishHookFunc(func(_ context.Context, pub domain.Publication) error {
		seen = append(seen, pub)
		return nil
	})
	failingHook := PublishHookFunc(func(context.Context, domain.Publication) error {
		return errors.New("archive unavailable")
	})

	ch, logs := newTestChannel(t, "Imagine Dragons", WithPublishHook(failingHook), WithPublishHook(recordHook))
	bob := newRecorder("Bob", nil)
	ch.Add(bob)

	ch.PublishVideo(context.Background())
	ch.PublishPhoto(context.Background())

	require.Len(t, seen, 2)
	assert.Equal(t, "Imagine Dragons", seen[1].Channel)
	assert.Equal(t, 1, seen[1].Seq)
	assert.Equal(t, "Funny photo №1", seen[1].Content.Title)
	assert.Len(t, bob.received, 2, "hook failures do not block notification")
	assert.Equal(t, 2, logs.FilterMessage("Publish hook failed").Len())
}

func TestChannel_PublishFactoryError(t *testing.T) {
	ch, _ := newTestChannel(t, "Imagine Dragons")
	bob := newRecorder("Bob", nil)
	ch.Add(bob)

	factoryErr := errors.New("upstream unavailable")
	_, _, err := ch.Publish(context.Background(), ContentFactoryFunc(func(context.Context, int) (domain.Content, error) {
		return domain.Content{}, factoryErr
	}))

	assert.ErrorIs(t, err, factoryErr)
	assert.Empty(t, ch.Content())
	assert.Empty(t, bob.received)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "delivered", StatusDelivered.String())
	assert.Equal(t, "no_content", StatusNoContent.String())
	assert.Equal(t, "no_subscribers", StatusNoSubscribers.String())
	assert.Equal(t, "unknown", Status(42).String())

	text, err := StatusNoSubscribers.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "no_subscribers", string(text))
}
