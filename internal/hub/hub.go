package hub

import (
	"log/slog"
	"sync"
)

// Subscriber is one live observer connection scoped to a single session.
// Send must be safe to call from the publishing goroutine; a non-nil error
// marks the subscriber dead and it is removed from the session's set.
type Subscriber interface {
	Send(event any) error
}

// Hub is a per-session registry of subscribers. Membership is mutated
// concurrently by connect/disconnect and by the publish path; iteration
// works on a snapshot so publish never observes a half-mutated set.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[Subscriber]struct{}
	latest   map[string]StatsEvent
	logger   *slog.Logger
}

// New creates a Hub.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sessions: make(map[string]map[Subscriber]struct{}),
		latest:   make(map[string]StatsEvent),
		logger:   logger,
	}
}

// Join registers a subscriber under the given session. Joining twice has no
// extra effect.
func (h *Hub) Join(sessionID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.sessions[sessionID]
	if !ok {
		set = make(map[Subscriber]struct{})
		h.sessions[sessionID] = set
	}
	set[sub] = struct{}{}
}

// Leave removes a subscriber from the session. When the session's set
// becomes empty its entry is pruned; it is recreated lazily on the next
// Join.
func (h *Hub) Leave(sessionID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sessionID, sub)
}

func (h *Hub) removeLocked(sessionID string, sub Subscriber) {
	set, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.sessions, sessionID)
	}
}

// Publish delivers the event to every current subscriber of the session.
// Delivery is attempted independently per subscriber; a failed send removes
// that subscriber without affecting the others, and never surfaces an error
// to the publisher. Stats events are retained as the session's latest value.
func (h *Hub) Publish(sessionID string, event any) {
	h.mu.Lock()
	if stats, ok := event.(StatsEvent); ok {
		h.latest[sessionID] = stats
	}
	set := h.sessions[sessionID]
	subs := make([]Subscriber, 0, len(set))
	for sub := range set {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	var failed []Subscriber
	for _, sub := range subs {
		if err := sub.Send(event); err != nil {
			h.logger.Debug("dropping subscriber after failed send",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
			failed = append(failed, sub)
		}
	}

	if len(failed) > 0 {
		h.mu.Lock()
		for _, sub := range failed {
			h.removeLocked(sessionID, sub)
		}
		h.mu.Unlock()
	}
}

// LatestStats returns the most recent stats event published for a session.
func (h *Hub) LatestStats(sessionID string) (StatsEvent, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	stats, ok := h.latest[sessionID]
	return stats, ok
}

// ForgetSession drops the retained stats for a session. Called after a
// session reaches its terminal state.
func (h *Hub) ForgetSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.latest, sessionID)
}

// SubscriberCount returns the number of live subscribers for a session.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
