// Package channel implements a media channel that pushes newly published
// content to its subscribers.
package channel

import (
	"sync"

	"yt-notify/internal/domain"
)

// Observer receives content pushed by a Channel.
type Observer interface {
	// Name is a display name. Names may collide; identity is the observer value itself.
	Name() string

	// Update receives the latest content. It runs synchronously inside
	// NotifyAll and may call Unsubscribe on itself or on other observers.
	Update(content domain.Content)

	// Source returns the channel the observer is attached to, or nil.
	Source() Source

	// SetSource is called by Channel on Add and Remove while the channel's
	// registry lock is held; it must not call back into the channel. Other
	// callers break the registry invariant.
	SetSource(src Source)
}

// Source is the non-owning back-reference an observer keeps to its channel.
// It is only used to route unsubscribe requests.
type Source interface {
	Name() string
	Remove(o Observer)
}

// Attachment stores an observer's back-reference. Embed it in observer
// implementations to satisfy Source and SetSource.
type Attachment struct {
	mu  sync.RWMutex
	src Source
}

// Source returns the attached channel or nil
func (a *Attachment) Source() Source {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.src
}

// SetSource replaces the back-reference
func (a *Attachment) SetSource(src Source) {
	a.mu.Lock()
	a.src = src
	a.mu.Unlock()
}

// Attached reports whether the back-reference is set
func (a *Attachment) Attached() bool {
	return a.Source() != nil
}

// Detach removes o from the channel it is attached to.
// It returns ErrNotAttached when o has no channel; callers may ignore it.
func Detach(o Observer) error {
	src := o.Source()
	if src == nil {
		return ErrNotAttached
	}
	src.Remove(o)
	return nil
}
