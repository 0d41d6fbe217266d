package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"trivia-session-engine/internal/domain"
)

// OpenDB opens a bun handle over pgdriver.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// PhaseResultRow is one archived phase.
type PhaseResultRow struct {
	bun.BaseModel `bun:"table:phase_results"`

	SessionID      string    `bun:"session_id,pk"`
	UserID         string    `bun:"user_id,nullzero"`
	Phase          int       `bun:"phase"`
	Locale         string    `bun:"locale"`
	QuestionsTotal int       `bun:"questions_total"`
	Correct        int       `bun:"correct"`
	Accuracy       float64   `bun:"accuracy"`
	TotalPoints    int       `bun:"total_points"`
	PerfectBonus   int       `bun:"perfect_bonus"`
	FinalScore     int       `bun:"final_score"`
	AverageTimeMs  int64     `bun:"average_time_ms"`
	MaxStreak      int       `bun:"max_streak"`
	Passed         bool      `bun:"passed"`
	Grade          string    `bun:"grade"`
	Achievements   []string  `bun:"achievements,array"`
	CompletedAt    time.Time `bun:"completed_at"`
}

// ResultArchive stores completed phases in phase_results. It implements app.ResultRecorder.
type ResultArchive struct {
	db *bun.DB
}

func NewResultArchive(db *bun.DB) *ResultArchive {
	return &ResultArchive{db: db}
}

// RecordResult inserts the result of a completed session; re-recording is a no-op.
func (a *ResultArchive) RecordResult(ctx context.Context, session domain.Session) error {
	if session.Result == nil {
		return fmt.Errorf("session %s has no result", session.ID)
	}
	row := newPhaseResultRow(session)
	_, err := a.db.NewInsert().
		Model(&row).
		On("CONFLICT (session_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert phase result: %w", err)
	}
	return nil
}

// RecentResults returns a user's latest archived phases, newest first.
func (a *ResultArchive) RecentResults(ctx context.Context, userID string, limit int) ([]domain.PhaseResult, error) {
	var rows []PhaseResultRow
	err := a.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select phase results: %w", err)
	}
	results := make([]domain.PhaseResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toDomain())
	}
	return results, nil
}

func newPhaseResultRow(session domain.Session) PhaseResultRow {
	r := session.Result
	completedAt := session.LastActivityAt
	if session.CompletedAt != nil {
		completedAt = *session.CompletedAt
	}
	achievements := r.Achievements
	if achievements == nil {
		achievements = []string{}
	}
	return PhaseResultRow{
		SessionID:      session.ID,
		UserID:         session.UserID,
		Phase:          r.Phase,
		Locale:         string(session.Locale),
		QuestionsTotal: r.QuestionsTotal,
		Correct:        r.Correct,
		Accuracy:       r.Accuracy,
		TotalPoints:    r.TotalPoints,
		PerfectBonus:   r.PerfectBonus,
		FinalScore:     r.FinalScore,
		AverageTimeMs:  r.AverageTimeMs,
		MaxStreak:      r.MaxStreak,
		Passed:         r.Passed,
		Grade:          r.Grade,
		Achievements:   achievements,
		CompletedAt:    completedAt,
	}
}

func (row PhaseResultRow) toDomain() domain.PhaseResult {
	return domain.PhaseResult{
		Phase:          row.Phase,
		QuestionsTotal: row.QuestionsTotal,
		Correct:        row.Correct,
		Accuracy:       row.Accuracy,
		TotalPoints:    row.TotalPoints,
		PerfectBonus:   row.PerfectBonus,
		FinalScore:     row.FinalScore,
		AverageTimeMs:  row.AverageTimeMs,
		MaxStreak:      row.MaxStreak,
		Passed:         row.Passed,
		Grade:          row.Grade,
		Achievements:   row.Achievements,
	}
}
