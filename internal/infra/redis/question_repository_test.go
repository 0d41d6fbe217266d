package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"trivia-session-engine/internal/domain"
	"trivia-session-engine/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr := runMiniredis(t)
	client := newClient(mr)

	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleBank())}
	repo := NewQuestionRepository(client, loader, time.Minute)

	got, err := repo.FetchQuestions(context.Background(), domain.LocaleEN, []int{1}, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(got))
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists("trivia:questions:en:1") {
		t.Fatalf("expected pool cached in redis")
	}

	// A second repository on the same Redis should hit the shared cache.
	other := NewQuestionRepository(client, loader, time.Minute)
	got, _ = other.FetchQuestions(context.Background(), domain.LocaleEN, []int{1}, []string{"en-1-0"})
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}
	if len(got) != 2 {
		t.Fatalf("expected excluded question dropped, got %d", len(got))
	}
	if got[0].Correct != domain.OptionA || got[0].Choices[0] != "4" {
		t.Fatalf("cached question lost fields: %+v", got[0])
	}
}

func TestQuestionRepositoryTTLHasJitterBound(t *testing.T) {
	mr := runMiniredis(t)
	repo := NewQuestionRepository(newClient(mr), memory.NewStaticQuestionLoader(sampleBank()), time.Minute)

	if _, err := repo.FetchQuestions(context.Background(), domain.LocaleEN, []int{2}, nil); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	ttl := mr.TTL("trivia:questions:en:2")
	if ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("ttl %v outside [1m, 1m6s]", ttl)
	}
}

func TestProfileStoreRoundTrip(t *testing.T) {
	mr := runMiniredis(t)
	store := NewProfileStore(newClient(mr), 3, time.Hour)
	ctx := context.Background()

	_ = store.RecordPerformance(ctx, "u1", []domain.AnswerRecord{
		{QuestionID: "q1", Topic: "art", IsCorrect: true},
		{QuestionID: "q2", Topic: "music", IsCorrect: false},
	})
	if err := store.RecordPerformance(ctx, "u1", []domain.AnswerRecord{
		{QuestionID: "q3", Topic: "art", IsCorrect: true},
		{QuestionID: "q4", Topic: "film", IsCorrect: true},
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	hints, err := store.GetRecentPerformance(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := fmt.Sprint(hints.RecentQuestionIDs); got != "[q4 q3 q2]" {
		t.Fatalf("unexpected ids %s", got)
	}
	if got := fmt.Sprint(hints.RecentTopics); got != "[film art music]" {
		t.Fatalf("unexpected topics %s", got)
	}
	if mr.TTL("trivia:profile:u1:answers") != time.Hour {
		t.Fatalf("expected profile ttl")
	}
}

type countingLoader struct {
	memory.QuestionLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, locale domain.Locale, level int) ([]domain.Question, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.QuestionLoader.LoadQuestions(ctx, locale, level)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleBank() []domain.Question {
	var bank []domain.Question
	for level := 1; level <= 2; level++ {
		for i := 0; i < 3; i++ {
			bank = append(bank, domain.Question{
				ID:      fmt.Sprintf("en-%d-%d", level, i),
				Topic:   "math",
				Level:   level,
				Locale:  domain.LocaleEN,
				Prompt:  "What is 2 + 2?",
				Choices: [4]string{"4", "3", "5", "22"},
				Correct: domain.OptionA,
			})
		}
	}
	return bank
}
