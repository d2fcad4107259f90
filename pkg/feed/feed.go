// pkg/feed/feed.go
package feed

import (
	"sync"

	"github.com/jalsetu/scheme-ingress/pkg/model"
)

// DefaultCapacity bounds the feed when no explicit capacity is configured.
const DefaultCapacity = 1000

// ChangeFeed is the shared collection of change events consumed by the
// recent-activity view. Appends are concurrency-safe; the feed is bounded,
// evicting the oldest events once capacity is reached. Events already handed
// out via Snapshot are never mutated.
type ChangeFeed struct {
	mu       sync.Mutex
	capacity int
	events   []model.ChangeEvent
}

// NewChangeFeed creates a feed holding at most capacity events.
func NewChangeFeed(capacity int) *ChangeFeed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ChangeFeed{capacity: capacity}
}

// Append adds events to the feed in order, evicting the oldest entries when
// the bound is exceeded.
func (f *ChangeFeed) Append(events ...model.ChangeEvent) {
	if len(events) == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
	if overflow := len(f.events) - f.capacity; overflow > 0 {
		f.events = append([]model.ChangeEvent(nil), f.events[overflow:]...)
	}
}

// Snapshot returns a copy of the current events, oldest first.
func (f *ChangeFeed) Snapshot() []model.ChangeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ChangeEvent, len(f.events))
	copy(out, f.events)
	return out
}

// Len returns the number of events currently held.
func (f *ChangeFeed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// Reset discards all held events. The activity view resets the feed at the
// start of each reporting day.
func (f *ChangeFeed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}
