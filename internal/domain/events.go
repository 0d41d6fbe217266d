package domain

import "time"

// Lifecycle event types. They double as routing keys on the events exchange.
const (
	EventSessionStarted   = "session.started"
	EventSessionPaused    = "session.paused"
	EventSessionResumed   = "session.resumed"
	EventSessionCompleted = "session.completed"
	EventSessionAbandoned = "session.abandoned"
	EventSessionExpired   = "session.expired"
)

// SessionEvent is published on every session lifecycle transition.
type SessionEvent struct {
	Type       string        `json:"type"`
	SessionID  string        `json:"sessionId"`
	UserID     string        `json:"userId,omitempty"`
	Phase      int           `json:"phase"`
	Locale     Locale        `json:"locale"`
	Status     SessionStatus `json:"status"`
	Score      int           `json:"score"`
	Reason     string        `json:"reason,omitempty"`
	Result     *PhaseResult  `json:"result,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}
