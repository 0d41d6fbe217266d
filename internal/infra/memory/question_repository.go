package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"trivia-session-engine/internal/domain"
)

// QuestionLoader fetches the question bank of one (locale, level) pair from a backing
// store (e.g., Postgres, document DB).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, locale domain.Locale, level int) ([]domain.Question, error)
}

// QuestionRepository caches question pools per (locale, level) with TTL to avoid
// repeated DB hits. It implements selection.ContentRepository.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPool),
	}
}

// FetchQuestions loads every requested level concurrently and drops excluded ids.
func (r *QuestionRepository) FetchQuestions(ctx context.Context, locale domain.Locale, levels []int, excludeIDs []string) ([]domain.Question, error) {
	pools := make([][]domain.Question, len(levels))
	g, gctx := errgroup.WithContext(ctx)
	for i, level := range levels {
		i, level := i, level
		g.Go(func() error {
			questions, err := r.pool(gctx, locale, level)
			if err != nil {
				return err
			}
			pools[i] = questions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filterExcluded(pools, excludeIDs), nil
}

func (r *QuestionRepository) pool(ctx context.Context, locale domain.Locale, level int) ([]domain.Question, error) {
	key := poolKey(locale, level)
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.questions, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.questions, nil
		}
		r.mu.RUnlock()

		questions, err := r.loader.LoadQuestions(ctx, locale, level)
		if err != nil {
			return nil, fmt.Errorf("load %s level %d: %w", locale, level, err)
		}

		r.mu.Lock()
		r.cache[key] = cachedPool{
			questions: questions,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func poolKey(locale domain.Locale, level int) string {
	return fmt.Sprintf("%s:%d", locale, level)
}

func filterExcluded(pools [][]domain.Question, excludeIDs []string) []domain.Question {
	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}
	var out []domain.Question
	for _, pool := range pools {
		for _, q := range pool {
			if _, skip := excluded[q.ID]; !skip {
				out = append(out, q)
			}
		}
	}
	return out
}

// StaticQuestionLoader is a simple loader backed by an in-memory bank (useful for tests/demos).
type StaticQuestionLoader struct {
	byKey map[string][]domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	byKey := make(map[string][]domain.Question)
	for _, q := range questions {
		key := poolKey(q.Locale, q.Level)
		byKey[key] = append(byKey[key], q)
	}
	for key := range byKey {
		pool := byKey[key]
		sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	}
	return &StaticQuestionLoader{byKey: byKey}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, locale domain.Locale, level int) ([]domain.Question, error) {
	return append([]domain.Question(nil), l.byKey[poolKey(locale, level)]...), nil
}
