package channel

import (
	"sync"

	"yt-notify/internal/domain"
	"yt-notify/pkg/logger"
)

// Console is a subscriber that reports every notification to the log
type Console struct {
	Attachment
	name string
	log  *logger.Logger
}

// NewConsole creates an unattached console subscriber
func NewConsole(name string, log *logger.Logger) *Console {
	if log == nil {
		log = logger.NewNop()
	}
	return &Console{name: name, log: log}
}

// Name returns the display name
func (s *Console) Name() string {
	return s.name
}

// Update logs the received content
func (s *Console) Update(content domain.Content) {
	s.log.Info(s.name + " receive notification about new content: '" + content.Title + "'")
}

// Unsubscribe detaches s from its channel; it is a no-op when s is not attached
func (s *Console) Unsubscribe() {
	_ = Detach(s)
}

// Inbox is a subscriber that keeps what it receives. With a positive limit it
// unsubscribes itself from inside Update once the limit is reached.
type Inbox struct {
	Attachment
	name  string
	limit int

	mu    sync.Mutex
	items []domain.Content
}

// NewInbox creates an unattached inbox. limit <= 0 means unlimited.
func NewInbox(name string, limit int) *Inbox {
	return &Inbox{name: name, limit: limit}
}

// Name returns the display name
func (s *Inbox) Name() string {
	return s.name
}

// Limit returns the self-unsubscribe threshold
func (s *Inbox) Limit() int {
	return s.limit
}

// Update stores content and unsubscribes when the limit is hit
func (s *Inbox) Update(content domain.Content) {
	s.mu.Lock()
	s.items = append(s.items, content)
	reached := s.limit > 0 && len(s.items) >= s.limit
	s.mu.Unlock()

	if reached {
		s.Unsubscribe()
	}
}

// Items returns a copy of the received content in arrival order
func (s *Inbox) Items() []domain.Content {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Content, len(s.items))
	copy(out, s.items)
	return out
}

// Received returns how many notifications arrived
func (s *Inbox) Received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Unsubscribe detaches s from its channel; it is a no-op when s is not attached
func (s *Inbox) Unsubscribe() {
	_ = Detach(s)
}
