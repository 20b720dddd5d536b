// Package watch fans session events out to live subscribers.
package watch

import (
	"log/slog"
	"sync"

	"github.com/rpggio/groupbite/internal/domain/session"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 16

var _ session.Publisher = (*Hub)(nil)

type subscriber struct {
	ch chan session.Event
}

// Hub delivers events for a session to every subscriber of that session.
// Publish never blocks: a subscriber whose queue is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*subscriber]struct{}
	buffer  int
	logger  *slog.Logger
	dropped func()
}

// Option configures a Hub
type Option func(*Hub)

// WithBuffer sets the per-subscriber queue length
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithDropHook is called each time an event is dropped for a slow subscriber
func WithDropHook(fn func()) Option {
	return func(h *Hub) { h.dropped = fn }
}

// NewHub creates a Hub
func NewHub(logger *slog.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		buffer: DefaultBuffer,
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers for events of sessionID. The returned func
// unsubscribes and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(sessionID string) (<-chan session.Event, func()) {
	sub := &subscriber{ch: make(chan session.Event, h.buffer)}

	h.mu.Lock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[sessionID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, sessionID)
				}
			}
			close(sub.ch)
		})
	}
}

// Publish delivers ev to the subscribers of ev.SessionID
func (h *Hub) Publish(ev session.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[ev.SessionID] {
		select {
		case sub.ch <- ev:
		default:
			h.logger.Warn("dropping event for slow watcher",
				"session_id", ev.SessionID,
				"type", ev.Type,
			)
			if h.dropped != nil {
				h.dropped()
			}
		}
	}
}

// Subscribers returns the number of live subscribers of sessionID
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}
