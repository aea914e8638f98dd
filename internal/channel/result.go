package channel

import (
	"errors"

	"yt-notify/internal/domain"
)

var (
	// ErrEmptyContentLog is reported when NotifyAll runs before anything was published
	ErrEmptyContentLog = errors.New("channel has no content to notify")
	// ErrNoSubscribers is reported when NotifyAll runs with an empty registry
	ErrNoSubscribers = errors.New("channel has no subscribers")
	// ErrNotAttached is reported when an unattached observer is asked to unsubscribe
	ErrNotAttached = errors.New("subscriber is not attached to a channel")
	// ErrUpdatePanicked wraps a panic recovered from an observer's Update
	ErrUpdatePanicked = errors.New("subscriber update panicked")

	ErrChannelExists = errors.New("channel already exists")
	ErrInvalidName   = errors.New("channel name is required")
)

// Status is the outcome of one notification round
type Status int

const (
	StatusDelivered Status = iota
	StatusNoContent
	StatusNoSubscribers
)

func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusNoContent:
		return "no_content"
	case StatusNoSubscribers:
		return "no_subscribers"
	default:
		return "unknown"
	}
}

// Result summarises a NotifyAll round. Skipped rounds carry a non-nil Err
// but are not failures; callers only need to look at it for reporting.
type Result struct {
	Status    Status         `json:"status"`
	Content   domain.Content `json:"content"`
	Delivered int            `json:"delivered"`
	Failed    int            `json:"failed"`
}

// Err maps a skipped round to its sentinel error
func (r Result) Err() error {
	switch r.Status {
	case StatusNoContent:
		return ErrEmptyContentLog
	case StatusNoSubscribers:
		return ErrNoSubscribers
	default:
		return nil
	}
}

// Skipped reports whether the round delivered nothing because of an empty log or registry
func (r Result) Skipped() bool {
	return r.Status != StatusDelivered
}

// MarshalText renders the status as its string form in JSON
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
