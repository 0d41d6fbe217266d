package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-session-engine/internal/domain"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	mr := runMiniredis(t)
	store := NewSessionStore(newClient(mr), time.Hour)
	ctx := context.Background()

	session := sampleSession("s1")
	if err := store.Put(ctx, session); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("trivia:session:s1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("trivia:session:s1"); ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", ttl)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "s1" || got.Status != domain.StatusActive || len(got.Questions) != 1 {
		t.Fatalf("unexpected session %+v", got)
	}
	if !got.CreatedAt.Equal(session.CreatedAt) {
		t.Fatalf("created at changed: %v vs %v", got.CreatedAt, session.CreatedAt)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("trivia:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionStoreScan(t *testing.T) {
	mr := runMiniredis(t)
	client := newClient(mr)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Put(ctx, sampleSession(id)); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	_ = client.Set(ctx, "unrelated", "1", 0).Err()

	seen := map[string]bool{}
	err := store.Scan(ctx, func(s domain.Session) error {
		seen[s.ID] = true
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(seen) != 3 || !seen["a"] || !seen["b"] || !seen["c"] {
		t.Fatalf("unexpected scan result %v", seen)
	}
}

func runMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func sampleSession(id string) domain.Session {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return domain.Session{
		ID:     id,
		Phase:  1,
		Locale: domain.LocaleEN,
		Questions: []domain.Question{{
			ID:      "q1",
			Topic:   "math",
			Level:   1,
			Locale:  domain.LocaleEN,
			Prompt:  "What is 2 + 2?",
			Choices: [4]string{"4", "3", "5", "22"},
			Correct: domain.OptionA,
		}},
		Answers:           []domain.AnswerRecord{},
		Status:            domain.StatusActive,
		CreatedAt:         now,
		QuestionStartedAt: now,
		LastActivityAt:    now,
	}
}
