package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-session-engine/internal/domain"
)

// QuestionLoader fetches the question bank of one (locale, level) pair from a backing
// store (e.g., Postgres, document DB).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, locale domain.Locale, level int) ([]domain.Question, error)
}

// QuestionRepository caches question pools in Redis and falls back to a loader on a miss.
// Pools are stored as: SET trivia:questions:{locale}:{level} <json array>
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchQuestions implements selection.ContentRepository.
func (r *QuestionRepository) FetchQuestions(ctx context.Context, locale domain.Locale, levels []int, excludeIDs []string) ([]domain.Question, error) {
	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	var out []domain.Question
	for _, level := range levels {
		pool, err := r.pool(ctx, locale, level)
		if err != nil {
			return nil, err
		}
		for _, q := range pool {
			if _, skip := excluded[q.ID]; !skip {
				out = append(out, q)
			}
		}
	}
	return out, nil
}

func (r *QuestionRepository) pool(ctx context.Context, locale domain.Locale, level int) ([]domain.Question, error) {
	key := r.poolKey(locale, level)
	if pool, ok := r.cached(ctx, key); ok {
		return pool, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pool, ok := r.cached(ctx, key); ok {
			return pool, nil
		}

		pool, err := r.loader.LoadQuestions(ctx, locale, level)
		if err != nil {
			return nil, fmt.Errorf("load %s level %d: %w", locale, level, err)
		}
		raw, err := json.Marshal(pool)
		if err != nil {
			return nil, fmt.Errorf("marshal pool: %w", err)
		}
		if err := r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err(); err != nil {
			// cache write is best-effort; the loaded pool is still good
			log.Printf("cache question pool %s failed: %v", key, err)
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var pool []domain.Question
	if err := json.Unmarshal(raw, &pool); err != nil {
		return nil, false
	}
	return pool, true
}

func (r *QuestionRepository) poolKey(locale domain.Locale, level int) string {
	return fmt.Sprintf("trivia:questions:%s:%d", locale, level)
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
