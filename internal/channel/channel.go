package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"yt-notify/internal/domain"
	"yt-notify/pkg/logger"
)

// Token identifies one registration on a channel
type Token string

func newToken() Token {
	return Token(uuid.NewString())
}

// Registration is an entry of a channel's subscriber registry
type Registration struct {
	Token    Token
	Observer Observer
	AddedAt  time.Time
}

// PublishHook is called after content is appended and before subscribers are notified
type PublishHook interface {
	OnPublish(ctx context.Context, pub domain.Publication) error
}

// PublishHookFunc adapts a function to PublishHook
type PublishHookFunc func(ctx context.Context, pub domain.Publication) error

// OnPublish calls f
func (f PublishHookFunc) OnPublish(ctx context.Context, pub domain.Publication) error {
	return f(ctx, pub)
}

// Option configures a Channel
type Option func(*Channel)

// WithLogger sets the channel logger
func WithLogger(log *logger.Logger) Option {
	return func(c *Channel) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPublishHook registers a hook run on every publication
func WithPublishHook(hook PublishHook) Option {
	return func(c *Channel) {
		if hook != nil {
			c.hooks = append(c.hooks, hook)
		}
	}
}

// WithSourceID records the external channel (e.g. YouTube channel id) this channel mirrors
func WithSourceID(id string) Option {
	return func(c *Channel) {
		c.sourceID = id
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Channel) {
		c.now = now
	}
}

// Channel is the subject: it owns the subscriber registry and the
// append-only content log.
//
// The registry lock is never held while an observer's Update runs, so
// callbacks may unsubscribe. Every observer in the registry has its
// back-reference pointing at this channel.
type Channel struct {
	name     string
	sourceID string
	log      *logger.Logger
	hooks    []PublishHook
	now      func() time.Time

	// publishMu serialises factory calls so that sequence numbers are unique
	publishMu sync.Mutex

	mu       sync.Mutex
	registry []Registration
	content  []domain.Content
}

// New creates an empty channel
func New(name string, opts ...Option) *Channel {
	c := &Channel{
		name: name,
		log:  logger.NewNop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("channel", name)
	return c
}

// Name returns the channel name
func (c *Channel) Name() string {
	return c.name
}

// SourceID returns the external channel id, if any
func (c *Channel) SourceID() string {
	return c.sourceID
}

// Add appends o to the registry and points its back-reference at c.
// Adding the same observer twice creates two registrations. An observer
// attached to another channel is detached from it first.
func (c *Channel) Add(o Observer) Token {
	if prev := o.Source(); prev != nil && prev != Source(c) {
		prev.Remove(o)
	}

	reg := Registration{Token: newToken(), Observer: o, AddedAt: c.now()}

	// The back-reference is set before the registration becomes visible to a
	// concurrent NotifyAll, so an Update in that round can unsubscribe.
	c.mu.Lock()
	o.SetSource(c)
	c.registry = append(c.registry, reg)
	c.mu.Unlock()

	c.log.WithFields(map[string]interface{}{
		"subscriber": o.Name(),
		"token":      string(reg.Token),
	}).Info("Subscriber has been subscribed to the channel")

	return reg.Token
}

// Remove drops every registration of o and clears its back-reference.
// Observers are matched by identity, so a different subscriber with the
// same name is untouched. Removing an absent observer is a no-op.
func (c *Channel) Remove(o Observer) {
	c.mu.Lock()
	removed := c.filter(func(reg Registration) bool { return reg.Observer == o })
	if o.Source() == Source(c) {
		o.SetSource(nil)
	}
	c.mu.Unlock()

	c.log.WithFields(map[string]interface{}{
		"subscriber":    o.Name(),
		"registrations": removed,
	}).Info("Subscriber has been removed from subscribers")
}

// RemoveToken drops exactly one registration. The observer's back-reference
// is cleared only when it has no registrations left on c.
func (c *Channel) RemoveToken(tok Token) bool {
	c.mu.Lock()
	var target Observer
	removed := c.filter(func(reg Registration) bool {
		if reg.Token == tok {
			target = reg.Observer
			return true
		}
		return false
	})
	if removed > 0 && c.indexOf(target) < 0 && target.Source() == Source(c) {
		target.SetSource(nil)
	}
	c.mu.Unlock()

	if removed == 0 {
		return false
	}

	c.log.WithFields(map[string]interface{}{
		"subscriber": target.Name(),
		"token":      string(tok),
	}).Info("Subscriber has been removed from subscribers")

	return true
}

// filter removes registrations matching drop. Callers hold c.mu.
func (c *Channel) filter(drop func(Registration) bool) int {
	kept := c.registry[:0]
	removed := 0
	for _, reg := range c.registry {
		if drop(reg) {
			removed++
			continue
		}
		kept = append(kept, reg)
	}
	for i := len(kept); i < len(c.registry); i++ {
		c.registry[i] = Registration{}
	}
	c.registry = kept
	return removed
}

// indexOf returns the first registry index of o. Callers hold c.mu.
func (c *Channel) indexOf(o Observer) int {
	for i, reg := range c.registry {
		if reg.Observer == o {
			return i
		}
	}
	return -1
}

// Lookup finds a registration by token
func (c *Channel) Lookup(tok Token) (Registration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, reg := range c.registry {
		if reg.Token == tok {
			return reg, true
		}
	}
	return Registration{}, false
}

// Subscribers returns a copy of the registry in registration order
func (c *Channel) Subscribers() []Registration {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Registration, len(c.registry))
	copy(out, c.registry)
	return out
}

// Content returns a copy of the content log
func (c *Channel) Content() []domain.Content {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Content, len(c.content))
	copy(out, c.content)
	return out
}

// Latest returns the most recently published content
func (c *Channel) Latest() (domain.Content, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.content) == 0 {
		return domain.Content{}, false
	}
	return c.content[len(c.content)-1], true
}

// NotifyAll pushes the latest content to every registered observer.
//
// The registry is snapshotted before the first delivery: observers removed
// by a callback still receive this round, observers added by a callback
// wait for the next one. A panicking Update is recovered, logged and
// counted as failed; the remaining observers are still notified.
func (c *Channel) NotifyAll() Result {
	c.mu.Lock()
	if len(c.content) == 0 {
		c.mu.Unlock()
		c.log.Warn("Channel doesn't have content to notify")
		return Result{Status: StatusNoContent}
	}
	latest := c.content[len(c.content)-1]

	if len(c.registry) == 0 {
		c.mu.Unlock()
		c.log.WithField("title", latest.Title).Warn("Channel doesn't have any subscribers")
		return Result{Status: StatusNoSubscribers, Content: latest}
	}

	snapshot := make([]Registration, len(c.registry))
	copy(snapshot, c.registry)
	c.mu.Unlock()

	result := Result{Status: StatusDelivered, Content: latest}
	for _, reg := range snapshot {
		if err := c.deliver(reg, latest); err != nil {
			result.Failed++
			continue
		}
		result.Delivered++
	}

	c.log.WithFields(map[string]interface{}{
		"title":     latest.Title,
		"delivered": result.Delivered,
		"failed":    result.Failed,
	}).Debug("Notification round completed")

	return result
}

func (c *Channel) deliver(reg Registration, content domain.Content) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUpdatePanicked, r)
			c.log.WithFields(map[string]interface{}{
				"subscriber": reg.Observer.Name(),
				"token":      string(reg.Token),
			}).WithError(err).Error("Subscriber failed to receive notification")
		}
	}()

	reg.Observer.Update(content)

	c.log.WithFields(map[string]interface{}{
		"subscriber": reg.Observer.Name(),
		"title":      content.Title,
	}).Debug("Notification delivered")
	return nil
}

// Publish appends the content produced by factory, runs the publish hooks and
// notifies subscribers. Nothing is appended when the factory fails. Hook
// errors are logged and do not stop the notification.
func (c *Channel) Publish(ctx context.Context, factory ContentFactory) (domain.Content, Result, error) {
	c.publishMu.Lock()

	c.mu.Lock()
	seq := len(c.content)
	c.mu.Unlock()

	content, err := factory.NextContent(ctx, seq)
	if err != nil {
		c.publishMu.Unlock()
		c.log.WithError(err).Error("Failed to produce content")
		return domain.Content{}, Result{}, fmt.Errorf("produce content: %w", err)
	}
	if content.PublishedAt.IsZero() {
		content.PublishedAt = c.now()
	}

	c.mu.Lock()
	c.content = append(c.content, content)
	c.mu.Unlock()
	c.publishMu.Unlock()

	c.log.WithFields(map[string]interface{}{
		"kind":  string(content.Kind),
		"title": content.Title,
		"seq":   seq,
	}).Info("Hey fans, there is new content")

	pub := domain.Publication{Channel: c.name, Seq: seq, Content: content}
	for _, hook := range c.hooks {
		if err := hook.OnPublish(ctx, pub); err != nil {
			c.log.WithError(err).WithField("seq", seq).Warn("Publish hook failed")
		}
	}

	return content, c.NotifyAll(), nil
}

// PublishVideo publishes a video titled from the running counter
func (c *Channel) PublishVideo(ctx context.Context) (domain.Content, Result) {
	content, result, _ := c.Publish(ctx, VideoFactory)
	return content, result
}

// PublishPhoto publishes a photo titled from the running counter
func (c *Channel) PublishPhoto(ctx context.Context) (domain.Content, Result) {
	content, result, _ := c.Publish(ctx, PhotoFactory)
	return content, result
}
