package domain

import (
	"fmt"
	"time"
)

// SessionStatus is the lifecycle state of a play session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
	StatusAbandoned SessionStatus = "abandoned"
	StatusExpired   SessionStatus = "expired"
)

// Terminal reports whether no further transitions are possible from s.
func (s SessionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusAbandoned, StatusExpired:
		return true
	}
	return false
}

// ScoreBreakdown describes how the points of a single answer were composed.
type ScoreBreakdown struct {
	BasePoints      int     `json:"basePoints"`
	SpeedMultiplier float64 `json:"speedMultiplier"`
	SpeedBonus      int     `json:"speedBonus"`
	StreakBonus     int     `json:"streakBonus"`
	Penalty         int     `json:"penalty"`
	Total           int     `json:"total"`
}

// AnswerRecord is the immutable result of one answered question.
type AnswerRecord struct {
	QuestionID string         `json:"questionId"`
	Selected   Option         `json:"selected,omitempty"`
	Correct    Option         `json:"correct"`
	IsCorrect  bool           `json:"isCorrect"`
	IsTimeout  bool           `json:"isTimeout"`
	TimeUsedMs int64          `json:"timeUsedMs"`
	Points     int            `json:"points"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
	Topic      string         `json:"topic"`
	Level      int            `json:"level"`
	AnsweredAt time.Time      `json:"answeredAt"`
}

// PhaseResult is the aggregate score of a completed phase.
type PhaseResult struct {
	Phase          int      `json:"phase"`
	QuestionsTotal int      `json:"questionsTotal"`
	Correct        int      `json:"questionsCorrect"`
	Accuracy       float64  `json:"accuracy"`
	TotalPoints    int      `json:"totalPoints"`
	PerfectBonus   int      `json:"perfectBonus"`
	FinalScore     int      `json:"finalScore"`
	AverageTimeMs  int64    `json:"averageTimeMs"`
	MaxStreak      int      `json:"maxStreak"`
	Passed         bool     `json:"passed"`
	Grade          string   `json:"grade"`
	Achievements   []string `json:"achievements,omitempty"`
}

// Session is the mutable state of one play-through of a phase. It is stored as a whole
// snapshot; every mutation goes through the session service.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId,omitempty"`
	Phase     int        `json:"phase"`
	Locale    Locale     `json:"locale"`
	Questions []Question `json:"questions"`

	CurrentIndex int            `json:"currentIndex"`
	Answers      []AnswerRecord `json:"answers"`
	Score        int            `json:"score"`
	Streak       int            `json:"streak"`
	MaxStreak    int            `json:"maxStreak"`
	TotalTimeMs  int64          `json:"totalTimeMs"`

	Status            SessionStatus `json:"status"`
	FinishReason      string        `json:"finishReason,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	QuestionStartedAt time.Time     `json:"questionStartedAt"`
	PausedAt          *time.Time    `json:"pausedAt,omitempty"`
	CompletedAt       *time.Time    `json:"completedAt,omitempty"`
	LastActivityAt    time.Time     `json:"lastActivityAt"`

	Result *PhaseResult `json:"result,omitempty"`
}

// TotalQuestions is the size of the question snapshot.
func (s *Session) TotalQuestions() int {
	return len(s.Questions)
}

// CorrectCount counts correct answers so far.
func (s *Session) CorrectCount() int {
	n := 0
	for _, a := range s.Answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

// CheckInvariants reports the first violated structural invariant, if any.
func (s *Session) CheckInvariants() error {
	if s.CurrentIndex < 0 || s.CurrentIndex > len(s.Questions) {
		return fmt.Errorf("current index %d outside [0,%d]", s.CurrentIndex, len(s.Questions))
	}
	if len(s.Answers) != s.CurrentIndex {
		return fmt.Errorf("answers %d != current index %d", len(s.Answers), s.CurrentIndex)
	}
	if s.MaxStreak < s.Streak {
		return fmt.Errorf("max streak %d < streak %d", s.MaxStreak, s.Streak)
	}
	return nil
}

// Clone returns a deep copy so stores never share slices with callers.
func (s *Session) Clone() Session {
	out := *s
	out.Questions = append([]Question(nil), s.Questions...)
	out.Answers = append([]AnswerRecord(nil), s.Answers...)
	if s.PausedAt != nil {
		t := *s.PausedAt
		out.PausedAt = &t
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	if s.Result != nil {
		r := *s.Result
		r.Achievements = append([]string(nil), s.Result.Achievements...)
		out.Result = &r
	}
	return out
}
