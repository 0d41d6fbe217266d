package app

import (
	"sync"

	"trivia-session-engine/internal/domain"
)

// hub fans session summaries out to live subscribers, keyed by session id.
type hub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.SessionSummary]struct{}
}

func newHub() *hub {
	return &hub{subscribers: make(map[string]map[chan domain.SessionSummary]struct{})}
}

func (h *hub) subscribe(sessionID string, initial domain.SessionSummary) (<-chan domain.SessionSummary, func()) {
	ch := make(chan domain.SessionSummary, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[sessionID]
	if !ok {
		subs = make(map[chan domain.SessionSummary]struct{})
		h.subscribers[sessionID] = subs
	}
	subs[ch] = struct{}{}
	// the buffer is empty until the lock is released
	ch <- initial
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subscribers, sessionID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *hub) broadcast(summary domain.SessionSummary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[summary.SessionID] {
		select {
		case ch <- summary:
		default:
			// slow subscriber: replace its oldest pending update
			select {
			case <-ch:
			default:
			}
			ch <- summary
		}
	}
}
