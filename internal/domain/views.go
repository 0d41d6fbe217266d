package domain

import "time"

// StartedSession is returned to the client when a session starts.
type StartedSession struct {
	SessionID         string `json:"sessionId"`
	Phase             int    `json:"phase"`
	TotalQuestions    int    `json:"totalQuestions"`
	TimePerQuestionMs int64  `json:"timePerQuestionMs"`
}

// SessionSummary is the client-facing progress view of a session.
type SessionSummary struct {
	SessionID         string        `json:"sessionId"`
	Phase             int           `json:"phase"`
	Locale            Locale        `json:"locale"`
	Status            SessionStatus `json:"status"`
	CurrentIndex      int           `json:"currentIndex"`
	TotalQuestions    int           `json:"totalQuestions"`
	Correct           int           `json:"questionsCorrect"`
	Score             int           `json:"score"`
	Streak            int           `json:"streak"`
	MaxStreak         int           `json:"maxStreak"`
	TotalTimeMs       int64         `json:"totalTimeMs"`
	TimePerQuestionMs int64         `json:"timePerQuestionMs"`
	FinishReason      string        `json:"finishReason,omitempty"`
	UpdatedAt         time.Time     `json:"updatedAt"`
	Result            *PhaseResult  `json:"result,omitempty"`
}

// QuestionView is a question as shown to the player; it never carries the correct option.
type QuestionView struct {
	SessionID       string    `json:"sessionId"`
	QuestionID      string    `json:"questionId"`
	Index           int       `json:"index"`
	TotalQuestions  int       `json:"totalQuestions"`
	Topic           string    `json:"topic"`
	Level           int       `json:"level"`
	Prompt          string    `json:"prompt"`
	Choices         [4]string `json:"choices"`
	Options         [4]Option `json:"options"`
	MediaRef        string    `json:"mediaRef,omitempty"`
	TimeRemainingMs int64     `json:"timeRemainingMs"`
}

// AnswerSubmission models the answer signal from clients.
type AnswerSubmission struct {
	Option     string
	TimeUsedMs int64
	IsTimeout  bool
}

// AnswerOutcome carries everything a client needs to render feedback for one answer.
type AnswerOutcome struct {
	Record    AnswerRecord   `json:"record"`
	Breakdown ScoreBreakdown `json:"breakdown"`
	Summary   SessionSummary `json:"summary"`
	Result    *PhaseResult   `json:"result,omitempty"`
}
