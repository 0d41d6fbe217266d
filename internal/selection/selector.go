package selection

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"trivia-session-engine/internal/domain"
	"trivia-session-engine/internal/phase"
)

// Selector picks the questions of a phase.
type Selector struct {
	repo   ContentRepository
	config Config

	// rnd is not safe for concurrent use; mu guards it.
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSelector creates a selector. A nil rnd seeds a generator from the clock.
func NewSelector(repo ContentRepository, config Config, rnd *rand.Rand) *Selector {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{repo: repo, config: config, rnd: rnd}
}

// ResolvePhase returns the distribution the selector targets for req.
func (s *Selector) ResolvePhase(req Request) (phase.PhaseConfig, error) {
	pc, err := s.config.Phases.ForPhase(req.Phase)
	if err != nil {
		return phase.PhaseConfig{}, err
	}
	if s.config.Adaptive && req.Hints != nil {
		pc = s.config.Phases.Adjust(pc, *req.Hints)
	}
	return pc, nil
}

// SelectPhaseQuestions returns exactly QuestionsPerPhase questions in random order.
func (s *Selector) SelectPhaseQuestions(ctx context.Context, req Request) ([]domain.Question, error) {
	locale, err := domain.ParseLocale(string(req.Locale))
	if err != nil {
		return nil, err
	}
	pc, err := s.ResolvePhase(req)
	if err != nil {
		return nil, err
	}
	target := pc.Total()

	excluded := make(map[string]bool, len(req.ExcludeIDs))
	for _, id := range req.ExcludeIDs {
		excluded[id] = true
	}

	pool, err := s.repo.FetchQuestions(ctx, locale, pc.Levels(), req.ExcludeIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	pool = sanitize(pool, locale, excluded, pc.InRange)

	s.mu.Lock()
	weighted := s.weigh(pool, req)
	s.mu.Unlock()

	byLevel := make(map[int][]WeightedQuestion)
	for _, wq := range weighted {
		byLevel[wq.Question.Level] = append(byLevel[wq.Question.Level], wq)
	}

	p := newPicker(s.config, target)
	for _, level := range pc.Levels() {
		p.pick(byLevel[level], pc.Distribution[level], false)
	}

	// Shortfall: remaining in-range candidates first.
	if p.missing() > 0 {
		p.pick(weighted, p.missing(), false)
	}

	// Then the levels adjacent to the phase range.
	var outside []WeightedQuestion
	if p.missing() > 0 {
		outside, err = s.fetchAdjacent(ctx, locale, pc, excluded, req)
		if err != nil {
			return nil, err
		}
		p.pick(outside, p.missing(), false)
	}

	// Last resort: drop the diversity caps rather than return a short phase.
	if p.missing() > 0 {
		p.pick(weighted, p.missing(), true)
		p.pick(outside, p.missing(), true)
	}

	if p.missing() > 0 {
		return nil, fmt.Errorf("%w: phase %d locale %s needs %d questions, found %d",
			domain.ErrInsufficientQuestionPool, req.Phase, locale, target, len(p.selected))
	}

	selected := p.questions()
	s.mu.Lock()
	shuffle(s.rnd, selected)
	s.mu.Unlock()
	return selected, nil
}

func (s *Selector) fetchAdjacent(ctx context.Context, locale domain.Locale, pc phase.PhaseConfig, excluded map[string]bool, req Request) ([]WeightedQuestion, error) {
	var levels []int
	if pc.MinLevel > domain.MinLevel {
		levels = append(levels, pc.MinLevel-1)
	}
	if pc.MaxLevel < domain.MaxLevel {
		levels = append(levels, pc.MaxLevel+1)
	}
	if len(levels) == 0 {
		return nil, nil
	}

	pool, err := s.repo.FetchQuestions(ctx, locale, levels, req.ExcludeIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch fallback questions: %w", err)
	}
	pool = sanitize(pool, locale, excluded, func(level int) bool {
		return !pc.InRange(level) && level >= pc.MinLevel-1 && level <= pc.MaxLevel+1
	})

	s.mu.Lock()
	weighted := s.weigh(pool, req)
	s.mu.Unlock()
	return weighted, nil
}

// weigh scores pool and returns it ordered by descending weight. Callers hold s.mu.
func (s *Selector) weigh(pool []domain.Question, req Request) []WeightedQuestion {
	cooldown := make(map[string]int)
	for i, topic := range req.RecentTopics {
		if i >= s.config.CooldownWindow {
			break
		}
		if _, seen := cooldown[topic]; !seen {
			cooldown[topic] = i
		}
	}
	weak := map[string]bool{}
	if req.Hints != nil {
		weak = req.Hints.WeakTopics(s.config.WeakTopicMinAnswers, s.config.WeakTopicThreshold)
	}

	weighted := make([]WeightedQuestion, 0, len(pool))
	for _, q := range pool {
		w := s.config.BaseWeight
		if idx, ok := cooldown[q.Topic]; ok && s.config.CooldownWindow > 0 {
			recency := float64(s.config.CooldownWindow-idx) / float64(s.config.CooldownWindow)
			w *= 1 - s.config.CooldownPenalty*recency
		}
		if weak[q.Topic] {
			w *= s.config.WeakTopicBoost
		}
		if s.config.JitterMax > 0 {
			w += s.rnd.Float64() * s.config.JitterMax
		}
		weighted = append(weighted, WeightedQuestion{Question: q, Weight: w})
	}

	sort.SliceStable(weighted, func(i, j int) bool {
		if weighted[i].Weight != weighted[j].Weight {
			return weighted[i].Weight > weighted[j].Weight
		}
		return weighted[i].Question.ID < weighted[j].Question.ID
	})
	return weighted
}

// sanitize drops duplicates, excluded ids and questions the repository should not have
// returned, and orders the rest by id so seeded selections are reproducible.
func sanitize(pool []domain.Question, locale domain.Locale, excluded map[string]bool, levelOK func(int) bool) []domain.Question {
	seen := make(map[string]bool, len(pool))
	out := make([]domain.Question, 0, len(pool))
	for _, q := range pool {
		if seen[q.ID] || excluded[q.ID] || q.Locale != locale || !levelOK(q.Level) {
			continue
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// shuffle is an in-place Fisher-Yates permutation.
func shuffle(rnd *rand.Rand, questions []domain.Question) {
	for i := len(questions) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}
