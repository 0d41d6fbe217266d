package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-session-engine/internal/domain"
)

func TestStreakBonusTable(t *testing.T) {
	engine := NewDefaultEngine()
	tests := []struct {
		streak int
		want   int
	}{
		{0, 0},
		{1, 0},
		{2, 0},
		{3, 15},
		{5, 25},
		{10, 50},
		{11, 50},
		{20, 50},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, engine.StreakBonus(tt.streak), "streak %d", tt.streak)
	}
}

func TestSpeedMultiplierTiers(t *testing.T) {
	engine := NewDefaultEngine()
	tests := []struct {
		remaining int64
		want      float64
	}{
		{30000, 2.0},
		{20000, 2.0},
		{19999, 1.5},
		{15000, 1.5},
		{12000, 1.2},
		{10000, 1.2},
		{9999, 1.0},
		{0, 1.0},
		{-1, 1.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, engine.SpeedMultiplier(tt.remaining), "remaining %d", tt.remaining)
	}
}

func TestScoreAnswerCorrectNeverBelowBase(t *testing.T) {
	engine := NewDefaultEngine()
	for level := domain.MinLevel; level <= domain.MaxLevel; level++ {
		for _, remaining := range []int64{0, 5000, 10000, 15000, 20000, 30000} {
			for streak := 0; streak < 12; streak++ {
				b := engine.ScoreAnswer(level, remaining, true, streak, false)
				assert.GreaterOrEqual(t, b.Total, b.BasePoints)
				assert.Equal(t, engine.BasePoints(level), b.BasePoints)
				assert.Zero(t, b.Penalty)
			}
		}
	}
}

func TestScoreAnswerBreakdown(t *testing.T) {
	engine := NewDefaultEngine()

	b := engine.ScoreAnswer(3, 16000, true, 4, false)
	assert.Equal(t, domain.ScoreBreakdown{
		BasePoints:      30,
		SpeedMultiplier: 1.5,
		SpeedBonus:      15,
		StreakBonus:     25,
		Total:           70,
	}, b)

	b = engine.ScoreAnswer(1, 11000, true, 0, false)
	assert.Equal(t, 12, b.Total)
	assert.Equal(t, 2, b.SpeedBonus)
}

func TestScoreAnswerPenalties(t *testing.T) {
	engine := NewDefaultEngine()

	wrong := engine.ScoreAnswer(5, 25000, false, 9, false)
	assert.Equal(t, -5, wrong.Total)
	assert.Equal(t, wrong.Total, wrong.Penalty)
	assert.Zero(t, wrong.BasePoints)
	assert.Zero(t, wrong.StreakBonus)

	timeout := engine.ScoreAnswer(5, 0, true, 9, true)
	assert.Equal(t, -3, timeout.Total)
	assert.LessOrEqual(t, timeout.Total, 0)
	assert.NotEqual(t, wrong.Total, timeout.Total)
}

func TestTimeRemainingClamps(t *testing.T) {
	assert.Equal(t, int64(25000), TimeRemaining(30000, 5000))
	assert.Equal(t, int64(0), TimeRemaining(30000, 30000))
	assert.Equal(t, int64(0), TimeRemaining(30000, 45000))
	assert.Equal(t, int64(30000), TimeRemaining(30000, -10))
}

func TestScorePhasePerfectRun(t *testing.T) {
	engine := NewDefaultEngine()
	answers := make([]domain.AnswerRecord, 0, 10)
	streak := 0
	for i := 0; i < 10; i++ {
		b := engine.ScoreAnswer(1, TimeRemaining(30000, 5000), true, streak, false)
		streak++
		answers = append(answers, domain.AnswerRecord{
			IsCorrect:  true,
			TimeUsedMs: 5000,
			Points:     b.Total,
			Breakdown:  b,
			Topic:      "geography",
			Level:      1,
		})
	}

	result := engine.ScorePhase(1, answers, 50000)
	require.Equal(t, 10, result.QuestionsTotal)
	assert.Equal(t, 10, result.Correct)
	assert.Equal(t, 1.0, result.Accuracy)
	assert.Equal(t, 460, result.TotalPoints)
	assert.Equal(t, 230, result.PerfectBonus)
	assert.Equal(t, 690, result.FinalScore)
	assert.Greater(t, result.FinalScore, 200)
	assert.Equal(t, int64(5000), result.AverageTimeMs)
	assert.True(t, result.Passed)
	assert.Equal(t, "A+", result.Grade)
	assert.Equal(t, 10, result.MaxStreak)
	assert.Equal(t, []string{
		AchievementPerfectPhase,
		AchievementSpeedDemon,
		AchievementStreakMaster,
		AchievementTopicMasterPrefix + "geography",
	}, result.Achievements)
}

func TestScorePhaseFailingRun(t *testing.T) {
	engine := NewDefaultEngine()
	answers := []domain.AnswerRecord{
		{IsCorrect: true, Points: 10, Topic: "art"},
		{IsCorrect: false, Points: -5, Topic: "art"},
		{IsCorrect: true, Points: 10, Topic: "art"},
		{IsCorrect: false, IsTimeout: true, Points: -3, Topic: "music"},
		{IsCorrect: true, Points: 10, Topic: "music"},
	}
	result := engine.ScorePhase(12, answers, 100000)
	assert.Equal(t, 0.6, result.Accuracy)
	assert.Equal(t, 22, result.TotalPoints)
	assert.Zero(t, result.PerfectBonus)
	assert.Equal(t, 22, result.FinalScore)
	assert.False(t, result.Passed, "phase 12 requires 0.7 accuracy")
	assert.Equal(t, "D", result.Grade)
	assert.Equal(t, 1, result.MaxStreak)
	assert.Empty(t, result.Achievements)
}

func TestScorePhaseNoAnswers(t *testing.T) {
	result := NewDefaultEngine().ScorePhase(1, nil, 0)
	assert.Zero(t, result.Accuracy)
	assert.Zero(t, result.FinalScore)
	assert.False(t, result.Passed)
	assert.Equal(t, "F", result.Grade)
}

func TestScorePhasePerfectBelowMinimumQuestions(t *testing.T) {
	answers := []domain.AnswerRecord{
		{IsCorrect: true, Points: 20, Topic: "a"},
		{IsCorrect: true, Points: 20, Topic: "b"},
	}
	result := NewDefaultEngine().ScorePhase(1, answers, 60000)
	assert.Equal(t, 1.0, result.Accuracy)
	assert.Zero(t, result.PerfectBonus)
	assert.NotContains(t, result.Achievements, AchievementPerfectPhase)
}

func TestGradeIsMonotone(t *testing.T) {
	engine := NewDefaultEngine()
	order := map[string]int{"F": 0, "D": 1, "C": 2, "C+": 3, "B": 4, "B+": 5, "A": 6, "A+": 7}
	prev := -1
	for i := 0; i <= 100; i++ {
		rank := order[engine.Grade(float64(i)/100)]
		assert.GreaterOrEqual(t, rank, prev, "accuracy %d%%", i)
		prev = rank
	}
}
