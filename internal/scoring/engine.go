package scoring

import (
	"math"
	"sort"

	"trivia-session-engine/internal/domain"
	"trivia-session-engine/internal/phase"
)

// Engine computes answer and phase scores. It holds configuration only; every method is
// a pure function of its arguments.
type Engine struct {
	config Config
	phases phase.Config
}

// NewEngine creates a scoring engine with the provided tables.
func NewEngine(config Config, phases phase.Config) *Engine {
	return &Engine{config: config, phases: phases}
}

// NewDefaultEngine creates a scoring engine with production defaults.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultConfig(), phase.DefaultConfig())
}

// TimeRemaining returns how much of limitMs is left after usedMs, never below zero.
func TimeRemaining(limitMs, usedMs int64) int64 {
	if usedMs >= limitMs {
		return 0
	}
	if usedMs < 0 {
		return limitMs
	}
	return limitMs - usedMs
}

// ScoreAnswer scores one answer. streakBefore is the correct streak before this answer;
// a correct answer is credited with the streak it completes (streakBefore+1).
func (e *Engine) ScoreAnswer(level int, timeRemainingMs int64, isCorrect bool, streakBefore int, isTimeout bool) domain.ScoreBreakdown {
	if isTimeout {
		return domain.ScoreBreakdown{Penalty: e.config.TimeoutPenalty, Total: e.config.TimeoutPenalty}
	}
	if !isCorrect {
		return domain.ScoreBreakdown{Penalty: e.config.WrongPenalty, Total: e.config.WrongPenalty}
	}

	base := e.BasePoints(level)
	multiplier := e.SpeedMultiplier(timeRemainingMs)
	scaled := int(math.Round(float64(base) * multiplier))
	streakBonus := e.StreakBonus(streakBefore + 1)

	return domain.ScoreBreakdown{
		BasePoints:      base,
		SpeedMultiplier: multiplier,
		SpeedBonus:      scaled - base,
		StreakBonus:     streakBonus,
		Total:           scaled + streakBonus,
	}
}

// BasePoints returns the base value of a correct answer at level, clamping the level
// into the supported range.
func (e *Engine) BasePoints(level int) int {
	level = max(domain.MinLevel, min(domain.MaxLevel, level))
	return e.config.BasePoints[level]
}

// SpeedMultiplier returns the multiplier of the first tier whose threshold is met.
func (e *Engine) SpeedMultiplier(timeRemainingMs int64) float64 {
	for _, tier := range e.config.SpeedTiers {
		if timeRemainingMs >= tier.MinRemainingMs {
			return max(tier.Multiplier, 1.0)
		}
	}
	return 1.0
}

// StreakBonus is zero below the minimum streak and streak*per-answer points after, capped.
func (e *Engine) StreakBonus(streak int) int {
	if streak < e.config.StreakMinimum {
		return 0
	}
	return min(streak*e.config.StreakPerAnswer, e.config.StreakCap)
}

// Grade maps accuracy onto the configured letter bands.
func (e *Engine) Grade(accuracy float64) string {
	for _, band := range e.config.GradeBands {
		if accuracy >= band.MinAccuracy {
			return band.Grade
		}
	}
	return "F"
}

// ScorePhase aggregates the answers of a finished phase.
func (e *Engine) ScorePhase(phaseNumber int, answers []domain.AnswerRecord, totalTimeMs int64) domain.PhaseResult {
	result := domain.PhaseResult{
		Phase:          phaseNumber,
		QuestionsTotal: len(answers),
	}

	streak := 0
	for _, a := range answers {
		result.TotalPoints += a.Points
		if a.IsCorrect {
			result.Correct++
			streak++
			result.MaxStreak = max(result.MaxStreak, streak)
		} else {
			streak = 0
		}
	}

	if result.QuestionsTotal > 0 {
		result.Accuracy = float64(result.Correct) / float64(result.QuestionsTotal)
		result.AverageTimeMs = totalTimeMs / int64(result.QuestionsTotal)
	}

	perfect := result.QuestionsTotal > 0 &&
		result.Correct == result.QuestionsTotal &&
		result.QuestionsTotal >= e.config.PerfectMinQuestions
	if perfect {
		result.PerfectBonus = int(math.Round(float64(result.TotalPoints) * (e.config.PerfectMultiplier - 1)))
	}
	result.FinalScore = result.TotalPoints + result.PerfectBonus
	result.Passed = result.QuestionsTotal > 0 && result.Accuracy >= e.phases.MinimumAccuracy(phaseNumber)
	result.Grade = e.Grade(result.Accuracy)
	result.Achievements = e.achievements(result, answers, perfect)
	return result
}

func (e *Engine) achievements(result domain.PhaseResult, answers []domain.AnswerRecord, perfect bool) []string {
	var tags []string
	if perfect {
		tags = append(tags, AchievementPerfectPhase)
	}
	if result.QuestionsTotal > 0 && result.AverageTimeMs < e.config.FastAverageMs {
		tags = append(tags, AchievementSpeedDemon)
	}
	if result.MaxStreak >= e.config.StreakAchievement {
		tags = append(tags, AchievementStreakMaster)
	}

	type tally struct{ seen, correct int }
	byTopic := make(map[string]*tally)
	for _, a := range answers {
		t, ok := byTopic[a.Topic]
		if !ok {
			t = &tally{}
			byTopic[a.Topic] = t
		}
		t.seen++
		if a.IsCorrect {
			t.correct++
		}
	}
	topics := make([]string, 0, len(byTopic))
	for topic, t := range byTopic {
		if t.seen >= e.config.TopicMasteryMinimum && t.correct == t.seen {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	for _, topic := range topics {
		tags = append(tags, AchievementTopicMasterPrefix+topic)
	}
	return tags
}
