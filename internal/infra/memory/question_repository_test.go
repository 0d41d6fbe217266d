package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"trivia-session-engine/internal/domain"
)

func TestQuestionRepositoryCachesPerLevel(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticQuestionLoader(sampleBank())}
	repo := NewQuestionRepository(loader, time.Minute)

	got, err := repo.FetchQuestions(context.Background(), domain.LocaleEN, []int{1, 2}, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("expected 6 questions, got %d", len(got))
	}
	if loader.count() != 2 {
		t.Fatalf("expected one load per level, got %d", loader.count())
	}

	if _, err := repo.FetchQuestions(context.Background(), domain.LocaleEN, []int{2}, nil); err != nil {
		t.Fatalf("fetch 2: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
}

func TestQuestionRepositoryReloadsAfterTTL(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticQuestionLoader(sampleBank())}
	repo := NewQuestionRepository(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.FetchQuestions(context.Background(), domain.LocaleEN, []int{1}, nil)
	now = now.Add(2 * time.Minute)
	_, _ = repo.FetchQuestions(context.Background(), domain.LocaleEN, []int{1}, nil)
	if loader.count() != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.count())
	}
}

func TestQuestionRepositoryExcludesIDs(t *testing.T) {
	repo := NewQuestionRepository(NewStaticQuestionLoader(sampleBank()), time.Minute)

	got, err := repo.FetchQuestions(context.Background(), domain.LocaleEN, []int{1}, []string{"en-1-0", "en-1-2"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 || got[0].ID != "en-1-1" {
		t.Fatalf("unexpected questions %+v", got)
	}
}

func TestQuestionRepositorySeparatesLocales(t *testing.T) {
	repo := NewQuestionRepository(NewStaticQuestionLoader(sampleBank()), time.Minute)

	got, _ := repo.FetchQuestions(context.Background(), domain.LocalePT, []int{1, 2}, nil)
	if len(got) != 1 || got[0].Locale != domain.LocalePT {
		t.Fatalf("expected only the pt question, got %+v", got)
	}
}

func TestProfileStoreKeepsRecentWindow(t *testing.T) {
	store := NewProfileStore(3)
	ctx := context.Background()

	_ = store.RecordPerformance(ctx, "u1", []domain.AnswerRecord{
		{QuestionID: "q1", Topic: "art", IsCorrect: true},
		{QuestionID: "q2", Topic: "music", IsCorrect: false},
	})
	_ = store.RecordPerformance(ctx, "u1", []domain.AnswerRecord{
		{QuestionID: "q3", Topic: "art", IsCorrect: true},
		{QuestionID: "q4", Topic: "film", IsCorrect: true},
	})

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
	if acc, n := hints.Accuracy(10); n != 3 || acc < 0.66 || acc > 0.67 {
		t.Fatalf("unexpected accuracy %v over %d", acc, n)
	}

	empty, _ := store.GetRecentPerformance(ctx, "nobody")
	if len(empty.RecentAnswers) != 0 {
		t.Fatalf("expected empty hints, got %+v", empty)
	}
}

type countingLoader struct {
	QuestionLoader
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
	bank = append(bank, domain.Question{ID: "pt-1-0", Topic: "math", Level: 1, Locale: domain.LocalePT, Correct: domain.OptionB})
	return bank
}
