package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Feed keeps the most recent notifications in memory so clients can poll and
// acknowledge them. Once full, the oldest entry is dropped.
type Feed struct {
	mu     sync.Mutex
	items  []Notification
	acked  map[string]bool
	limit  int
	now    func() time.Time
	listen []func(Notification)
}

// NewFeed creates a feed holding at most limit notifications (100 when limit
// is not positive).
func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = 100
	}
	return &Feed{acked: make(map[string]bool), limit: limit, now: time.Now}
}

// WithClock replaces the feed's clock. Intended for tests.
func (f *Feed) WithClock(now func() time.Time) *Feed {
	f.now = now
	return f
}

// Subscribe registers fn to receive every notification added to the feed.
func (f *Feed) Subscribe(fn func(Notification)) {
	f.mu.Lock()
	f.listen = append(f.listen, fn)
	f.mu.Unlock()
}

func (f *Feed) Notify(message string, severity Severity, duration time.Duration) {
	n := Notification{
		ID:         uuid.NewString(),
		Message:    message,
		Severity:   severity,
		Duration:   duration,
		CreatedAt:  f.now(),
		Persistent: duration <= 0,
	}

	f.mu.Lock()
	f.items = append(f.items, n)
	if over := len(f.items) - f.limit; over > 0 {
		for _, dropped := range f.items[:over] {
			delete(f.acked, dropped.ID)
		}
		f.items = append([]Notification(nil), f.items[over:]...)
	}
	listeners := make([]func(Notification), len(f.listen))
	copy(listeners, f.listen)
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(n)
	}
}

// Active returns unacknowledged notifications that have not expired at now,
// newest first. Persistent notifications never expire.
func (f *Feed) Active(now time.Time) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Notification, 0, len(f.items))
	for i := len(f.items) - 1; i >= 0; i-- {
		n := f.items[i]
		if f.acked[n.ID] {
			continue
		}
		if !n.Persistent && now.Sub(n.CreatedAt) >= n.Duration {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Acknowledge dismisses the notification with id. It reports false for
// unknown ids.
func (f *Feed) Acknowledge(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.items {
		if n.ID == id {
			f.acked[id] = true
			return true
		}
	}
	return false
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
