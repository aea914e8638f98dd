package channel

import (
	"strings"
	"sync"
)

// Hub is a directory of channels by name
type Hub struct {
	mu       sync.RWMutex
	channels map[string]*Channel
	order    []string
	defaults []Option
}

// NewHub creates an empty hub. opts are applied to every channel it creates.
func NewHub(opts ...Option) *Hub {
	return &Hub{
		channels: make(map[string]*Channel),
		defaults: opts,
	}
}

// Create registers a new channel
func (h *Hub) Create(name string, opts ...Option) (*Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.channels[name]; exists {
		return nil, ErrChannelExists
	}

	all := make([]Option, 0, len(h.defaults)+len(opts))
	all = append(all, h.defaults...)
	all = append(all, opts...)

	ch := New(name, all...)
	h.channels[name] = ch
	h.order = append(h.order, name)
	return ch, nil
}

// Get returns the channel registered under name
func (h *Hub) Get(name string) (*Channel, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ch, ok := h.channels[name]
	return ch, ok
}

// List returns channels in creation order
func (h *Hub) List() []*Channel {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Channel, 0, len(h.order))
	for _, name := range h.order {
		out = append(out, h.channels[name])
	}
	return out
}

// Delete unregisters a channel and detaches all of its subscribers
func (h *Hub) Delete(name string) bool {
	h.mu.Lock()
	ch, ok := h.channels[name]
	if ok {
		delete(h.channels, name)
		for i, n := range h.order {
			if n == name {
				h.order = append(h.order[:i], h.order[i+1:]...)
				break
			}
		}
	}
	h.mu.Unlock()

	if !ok {
		return false
	}

	// Remove drops every registration of an observer, so each observer once
	seen := make(map[Observer]struct{})
	for _, reg := range ch.Subscribers() {
		if _, done := seen[reg.Observer]; done {
			continue
		}
		seen[reg.Observer] = struct{}{}
		ch.Remove(reg.Observer)
	}
	return true
}
