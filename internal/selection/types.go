package selection

import (
	"context"

	"trivia-session-engine/internal/domain"
	"trivia-session-engine/internal/phase"
)

// ContentRepository returns every question of locale at the given levels except excludeIDs.
type ContentRepository interface {
	FetchQuestions(ctx context.Context, locale domain.Locale, levels []int, excludeIDs []string) ([]domain.Question, error)
}

// Request describes one phase selection.
type Request struct {
	Phase      int
	Locale     domain.Locale
	ExcludeIDs []string
	// RecentTopics is ordered most recent first.
	RecentTopics []string
	Hints        *domain.PerformanceHints
}

// Config tunes weighting and diversity.
type Config struct {
	Phases   phase.Config
	Adaptive bool

	// TopicCap is the most questions one topic may contribute to a phase.
	TopicCap int
	// MaxConsecutive is the longest run of same-topic picks.
	MaxConsecutive int

	BaseWeight      float64
	CooldownWindow  int
	CooldownPenalty float64

	WeakTopicBoost      float64
	WeakTopicMinAnswers int
	WeakTopicThreshold  float64

	// JitterMax bounds the random term added to each weight.
	JitterMax float64
}

// DefaultConfig returns production selection settings.
func DefaultConfig() Config {
	return Config{
		Phases:              phase.DefaultConfig(),
		Adaptive:            true,
		TopicCap:            3,
		MaxConsecutive:      2,
		BaseWeight:          1.0,
		CooldownWindow:      5,
		CooldownPenalty:     0.8,
		WeakTopicBoost:      1.5,
		WeakTopicMinAnswers: 2,
		WeakTopicThreshold:  0.5,
		JitterMax:           0.25,
	}
}

// WeightedQuestion is a candidate with its selection weight.
type WeightedQuestion struct {
	Question domain.Question
	Weight   float64
}
