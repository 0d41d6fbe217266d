package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-session-engine/internal/domain"
)

// QuestionLoader loads question banks from the questions table.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, locale domain.Locale, level int) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, topic, prompt, choices, correct, COALESCE(media_ref, '')
		FROM questions
		WHERE locale=$1 AND level=$2
		ORDER BY id`, string(locale), level)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q       domain.Question
			choices []byte
			correct string
		)
		if err := rows.Scan(&q.ID, &q.Topic, &q.Prompt, &choices, &correct, &q.MediaRef); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(choices, &q.Choices); err != nil {
			return nil, fmt.Errorf("unmarshal choices of %s: %w", q.ID, err)
		}
		if q.Correct, err = domain.ParseOption(correct); err != nil {
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		q.Locale = locale
		q.Level = level
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

// SaveQuestions upserts questions, e.g. from a content import or test fixture.
func (l *QuestionLoader) SaveQuestions(ctx context.Context, questions []domain.Question) error {
	for _, q := range questions {
		choices, err := json.Marshal(q.Choices)
		if err != nil {
			return fmt.Errorf("marshal choices of %s: %w", q.ID, err)
		}
		_, err = l.pool.Exec(ctx, `
			INSERT INTO questions (id, locale, level, topic, prompt, choices, correct, media_ref)
			VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, NULLIF($8, ''))
			ON CONFLICT (id) DO UPDATE SET
				locale=EXCLUDED.locale, level=EXCLUDED.level, topic=EXCLUDED.topic,
				prompt=EXCLUDED.prompt, choices=EXCLUDED.choices, correct=EXCLUDED.correct,
				media_ref=EXCLUDED.media_ref`,
			q.ID, string(q.Locale), q.Level, q.Topic, q.Prompt, string(choices), string(q.Correct), q.MediaRef)
		if err != nil {
			return fmt.Errorf("save question %s: %w", q.ID, err)
		}
	}
	return nil
}
