package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-session-engine/internal/domain"
)

// ProfileStore keeps each user's recent answers in a capped Redis list, newest at the head.
// Answers are stored as: LPUSH trivia:profile:{userID}:answers <json>
type ProfileStore struct {
	client *redis.Client
	window int64
	ttl    time.Duration
}

func NewProfileStore(client *redis.Client, window int, ttl time.Duration) *ProfileStore {
	if window <= 0 {
		window = 50
	}
	return &ProfileStore{client: client, window: int64(window), ttl: ttl}
}

func (p *ProfileStore) GetRecentPerformance(ctx context.Context, userID string) (domain.PerformanceHints, error) {
	items, err := p.client.LRange(ctx, p.key(userID), 0, p.window-1).Result()
	if err != nil {
		return domain.PerformanceHints{}, fmt.Errorf("read profile: %w", err)
	}
	answers := make([]domain.RecentAnswer, 0, len(items))
	for _, item := range items {
		var a domain.RecentAnswer
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return domain.PerformanceHints{}, fmt.Errorf("unmarshal answer: %w", err)
		}
		answers = append(answers, a)
	}
	return domain.HintsFromAnswers(answers), nil
}

func (p *ProfileStore) RecordPerformance(ctx context.Context, userID string, records []domain.AnswerRecord) error {
	if len(records) == 0 {
		return nil
	}
	key := p.key(userID)
	pipe := p.client.TxPipeline()
	// LPUSH oldest first so the newest answer ends up at the head.
	for _, r := range records {
		raw, err := json.Marshal(domain.RecentAnswer{
			QuestionID: r.QuestionID,
			Topic:      r.Topic,
			Level:      r.Level,
			Correct:    r.IsCorrect,
		})
		if err != nil {
			return fmt.Errorf("marshal answer: %w", err)
		}
		pipe.LPush(ctx, key, raw)
	}
	pipe.LTrim(ctx, key, 0, p.window-1)
	if p.ttl > 0 {
		pipe.Expire(ctx, key, p.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record profile: %w", err)
	}
	return nil
}

func (p *ProfileStore) key(userID string) string {
	return "trivia:profile:" + userID + ":answers"
}
