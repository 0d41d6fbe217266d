package app

import (
	"context"

	"trivia-session-engine/internal/domain"
	"trivia-session-engine/internal/selection"
)

// SessionStore persists whole session snapshots (in-memory, Redis, etc).
// Get returns domain.ErrSessionNotFound for unknown ids.
type SessionStore interface {
	Get(ctx context.Context, id string) (domain.Session, error)
	Put(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, id string) error
	// Scan calls fn for every stored session; a non-nil error from fn stops the scan.
	Scan(ctx context.Context, fn func(domain.Session) error) error
}

// QuestionSelector picks the questions of a phase.
type QuestionSelector interface {
	SelectPhaseQuestions(ctx context.Context, req selection.Request) ([]domain.Question, error)
}

// ProfileStore keeps a rolling window of a user's recent play.
type ProfileStore interface {
	GetRecentPerformance(ctx context.Context, userID string) (domain.PerformanceHints, error)
	RecordPerformance(ctx context.Context, userID string, answers []domain.AnswerRecord) error
}

// EventPublisher delivers lifecycle events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.SessionEvent) error
}

// ResultRecorder archives completed phases.
type ResultRecorder interface {
	RecordResult(ctx context.Context, session domain.Session) error
}
