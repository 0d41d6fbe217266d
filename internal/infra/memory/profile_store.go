package memory

import (
	"context"
	"sync"

	"trivia-session-engine/internal/domain"
)

// DefaultProfileWindow is how many recent answers a profile keeps per user.
const DefaultProfileWindow = 50

// ProfileStore keeps each user's recent answers in memory.
type ProfileStore struct {
	window int

	mu      sync.RWMutex
	answers map[string][]domain.RecentAnswer
}

func NewProfileStore(window int) *ProfileStore {
	if window <= 0 {
		window = DefaultProfileWindow
	}
	return &ProfileStore{
		window:  window,
		answers: make(map[string][]domain.RecentAnswer),
	}
}

func (p *ProfileStore) GetRecentPerformance(_ context.Context, userID string) (domain.PerformanceHints, error) {
	p.mu.RLock()
	answers := append([]domain.RecentAnswer(nil), p.answers[userID]...)
	p.mu.RUnlock()
	return domain.HintsFromAnswers(answers), nil
}

func (p *ProfileStore) RecordPerformance(_ context.Context, userID string, records []domain.AnswerRecord) error {
	latest := domain.RecentAnswersOf(records)

	p.mu.Lock()
	defer p.mu.Unlock()
	merged := append(latest, p.answers[userID]...)
	if len(merged) > p.window {
		merged = merged[:p.window]
	}
	p.answers[userID] = merged
	return nil
}
