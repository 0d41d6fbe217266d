package domain

// RecentAnswer is one entry of a user's rolling answer window.
type RecentAnswer struct {
	QuestionID string `json:"questionId"`
	Topic      string `json:"topic"`
	Level      int    `json:"level"`
	Correct    bool   `json:"correct"`
}

// PerformanceHints summarizes a user's recent play. Slices are ordered most recent first.
type PerformanceHints struct {
	RecentTopics      []string       `json:"recentTopics"`
	RecentAnswers     []RecentAnswer `json:"recentAnswers"`
	RecentQuestionIDs []string       `json:"recentQuestionIds"`
}

// Accuracy returns the share of correct answers among the first window entries of
// RecentAnswers and how many entries were considered. A window <= 0 uses all entries.
func (h PerformanceHints) Accuracy(window int) (float64, int) {
	answers := h.RecentAnswers
	if window > 0 && len(answers) > window {
		answers = answers[:window]
	}
	if len(answers) == 0 {
		return 0, 0
	}
	correct := 0
	for _, a := range answers {
		if a.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(answers)), len(answers)
}

// WeakTopics returns topics answered at least minAnswers times with accuracy below threshold.
func (h PerformanceHints) WeakTopics(minAnswers int, threshold float64) map[string]bool {
	type tally struct{ seen, correct int }
	byTopic := make(map[string]*tally)
	for _, a := range h.RecentAnswers {
		t, ok := byTopic[a.Topic]
		if !ok {
			t = &tally{}
			byTopic[a.Topic] = t
		}
		t.seen++
		if a.Correct {
			t.correct++
		}
	}

	weak := make(map[string]bool)
	for topic, t := range byTopic {
		if t.seen >= minAnswers && float64(t.correct)/float64(t.seen) < threshold {
			weak[topic] = true
		}
	}
	return weak
}

// HintsFromAnswers derives hints from a most-recent-first answer window. RecentTopics
// keeps the first occurrence of each topic.
func HintsFromAnswers(answers []RecentAnswer) PerformanceHints {
	hints := PerformanceHints{RecentAnswers: answers}
	seenTopic := make(map[string]bool)
	for _, a := range answers {
		if a.QuestionID != "" {
			hints.RecentQuestionIDs = append(hints.RecentQuestionIDs, a.QuestionID)
		}
		if a.Topic != "" && !seenTopic[a.Topic] {
			seenTopic[a.Topic] = true
			hints.RecentTopics = append(hints.RecentTopics, a.Topic)
		}
	}
	return hints
}

// RecentAnswersOf converts answer records, oldest first, into a most-recent-first window.
func RecentAnswersOf(records []AnswerRecord) []RecentAnswer {
	out := make([]RecentAnswer, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		out = append(out, RecentAnswer{
			QuestionID: r.QuestionID,
			Topic:      r.Topic,
			Level:      r.Level,
			Correct:    r.IsCorrect,
		})
	}
	return out
}
