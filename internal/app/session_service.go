package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"trivia-session-engine/internal/domain"
	"trivia-session-engine/internal/metrics"
	"trivia-session-engine/internal/scoring"
	"trivia-session-engine/internal/selection"
)

// Settings holds the session timing rules.
type Settings struct {
	QuestionTimeLimit time.Duration
	PauseTimeout      time.Duration
	// TTL is the allowed inactivity of a non-terminal session before it expires.
	TTL time.Duration
	// Retention is how long a terminal session stays readable before eviction.
	Retention time.Duration
	// TimeoutGrace is added to the question limit before a late answer counts as a timeout.
	TimeoutGrace  time.Duration
	SweepInterval time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		QuestionTimeLimit: 30 * time.Second,
		PauseTimeout:      5 * time.Minute,
		TTL:               30 * time.Minute,
		Retention:         30 * time.Minute,
		TimeoutGrace:      2 * time.Second,
		SweepInterval:     time.Minute,
	}
}

// StartRequest is the input of StartSession. UserID is optional.
type StartRequest struct {
	UserID string
	Phase  int
	Locale string
}

// ServiceOption customizes a SessionService.
type ServiceOption func(*SessionService)

// WithClock replaces the wall clock, for deterministic tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *SessionService) { s.now = now }
}

func WithProfileStore(profiles ProfileStore) ServiceOption {
	return func(s *SessionService) { s.profiles = profiles }
}

func WithEventPublisher(events EventPublisher) ServiceOption {
	return func(s *SessionService) { s.events = events }
}

func WithResultRecorder(results ResultRecorder) ServiceOption {
	return func(s *SessionService) { s.results = results }
}

func WithScoringEngine(engine *scoring.Engine) ServiceOption {
	return func(s *SessionService) { s.scorer = engine }
}

func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *SessionService) { s.newID = newID }
}

// SessionService contains the session use cases.
type SessionService struct {
	store    SessionStore
	selector QuestionSelector
	scorer   *scoring.Engine
	settings Settings

	profiles ProfileStore
	events   EventPublisher
	results  ResultRecorder

	now   func() time.Time
	newID func() string
	locks *keyedMutex
	hub   *hub
}

func NewSessionService(store SessionStore, selector QuestionSelector, settings Settings, opts ...ServiceOption) *SessionService {
	s := &SessionService{
		store:    store,
		selector: selector,
		scorer:   scoring.NewDefaultEngine(),
		settings: settings,
		now:      time.Now,
		newID:    uuid.NewString,
		locks:    newKeyedMutex(),
		hub:      newHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession selects the questions of a phase and creates an active session.
func (s *SessionService) StartSession(ctx context.Context, req StartRequest) (domain.StartedSession, error) {
	if err := domain.ValidatePhase(req.Phase); err != nil {
		return domain.StartedSession{}, err
	}
	locale, err := domain.ParseLocale(req.Locale)
	if err != nil {
		return domain.StartedSession{}, err
	}

	selReq := selection.Request{Phase: req.Phase, Locale: locale}
	if hints, ok := s.recentPerformance(ctx, req.UserID); ok {
		selReq.ExcludeIDs = hints.RecentQuestionIDs
		selReq.RecentTopics = hints.RecentTopics
		selReq.Hints = &hints
	}

	questions, err := s.selectQuestions(ctx, selReq)
	if err != nil && errors.Is(err, domain.ErrInsufficientQuestionPool) && len(selReq.ExcludeIDs) > 0 {
		// recently seen questions are a preference; a full phase is not
		selReq.ExcludeIDs = nil
		questions, err = s.selectQuestions(ctx, selReq)
	}
	if err != nil {
		return domain.StartedSession{}, err
	}

	now := s.now()
	session := domain.Session{
		ID:                s.newID(),
		UserID:            req.UserID,
		Phase:             req.Phase,
		Locale:            locale,
		Questions:         questions,
		Answers:           []domain.AnswerRecord{},
		Status:            domain.StatusActive,
		CreatedAt:         now,
		QuestionStartedAt: now,
		LastActivityAt:    now,
	}
	if err := s.store.Put(ctx, session); err != nil {
		return domain.StartedSession{}, fmt.Errorf("save session: %w", err)
	}

	metrics.SessionsStarted.WithLabelValues(string(locale)).Inc()
	s.publish(ctx, &session, domain.EventSessionStarted)
	log.Printf("session %s started: phase=%d locale=%s questions=%d", session.ID, session.Phase, locale, len(questions))

	return domain.StartedSession{
		SessionID:         session.ID,
		Phase:             session.Phase,
		TotalQuestions:    session.TotalQuestions(),
		TimePerQuestionMs: s.limitMs(),
	}, nil
}

// GetSession returns the progress view of a session.
func (s *SessionService) GetSession(ctx context.Context, id string) (domain.SessionSummary, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return domain.SessionSummary{}, err
	}
	return s.summary(&session), nil
}

// GetCurrentQuestion returns the question awaiting an answer and its remaining time.
func (s *SessionService) GetCurrentQuestion(ctx context.Context, id string) (domain.QuestionView, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return domain.QuestionView{}, err
	}
	switch session.Status {
	case domain.StatusActive:
	case domain.StatusCompleted:
		return domain.QuestionView{}, domain.ErrNoMoreQuestions
	default:
		return domain.QuestionView{}, fmt.Errorf("%w: status %s", domain.ErrSessionNotActive, session.Status)
	}
	if session.CurrentIndex >= session.TotalQuestions() {
		return domain.QuestionView{}, domain.ErrNoMoreQuestions
	}

	q := session.Questions[session.CurrentIndex]
	elapsed := s.now().Sub(session.QuestionStartedAt).Milliseconds()
	return domain.QuestionView{
		SessionID:       session.ID,
		QuestionID:      q.ID,
		Index:           session.CurrentIndex,
		TotalQuestions:  session.TotalQuestions(),
		Topic:           q.Topic,
		Level:           q.Level,
		Prompt:          q.Prompt,
		Choices:         q.Choices,
		Options:         domain.Options,
		MediaRef:        q.MediaRef,
		TimeRemainingMs: scoring.TimeRemaining(s.limitMs(), elapsed),
	}, nil
}

// SubmitAnswer scores the answer to the current question and advances the session.
// The last answer completes the phase.
func (s *SessionService) SubmitAnswer(ctx context.Context, id string, submission domain.AnswerSubmission) (domain.AnswerOutcome, error) {
	var selected domain.Option
	if submission.IsTimeout {
		// a timeout may carry whatever option was highlighted; it never counts
		selected, _ = domain.ParseOption(submission.Option)
	} else {
		opt, err := domain.ParseOption(submission.Option)
		if err != nil {
			return domain.AnswerOutcome{}, err
		}
		selected = opt
	}
	limitMs := s.limitMs()
	if submission.TimeUsedMs < 0 || submission.TimeUsedMs > limitMs {
		return domain.AnswerOutcome{}, fmt.Errorf("%w: %dms not in [0, %dms]", domain.ErrInvalidTime, submission.TimeUsedMs, limitMs)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}
	if session.Status != domain.StatusActive {
		return domain.AnswerOutcome{}, fmt.Errorf("%w: status %s", domain.ErrSessionNotActive, session.Status)
	}
	if session.CurrentIndex >= session.TotalQuestions() {
		return domain.AnswerOutcome{}, domain.ErrNoMoreQuestions
	}

	now := s.now()
	q := session.Questions[session.CurrentIndex]
	isTimeout := submission.IsTimeout
	timeUsed := submission.TimeUsedMs
	if !isTimeout && s.settings.QuestionTimeLimit > 0 &&
		now.Sub(session.QuestionStartedAt) > s.settings.QuestionTimeLimit+s.settings.TimeoutGrace {
		isTimeout = true
	}
	if isTimeout {
		timeUsed = limitMs
	}
	isCorrect := !isTimeout && selected == q.Correct

	breakdown := s.scorer.ScoreAnswer(q.Level, scoring.TimeRemaining(limitMs, timeUsed), isCorrect, session.Streak, isTimeout)
	if isCorrect {
		session.Streak++
		if session.Streak > session.MaxStreak {
			session.MaxStreak = session.Streak
		}
	} else {
		session.Streak = 0
	}

	record := domain.AnswerRecord{
		QuestionID: q.ID,
		Selected:   selected,
		Correct:    q.Correct,
		IsCorrect:  isCorrect,
		IsTimeout:  isTimeout,
		TimeUsedMs: timeUsed,
		Points:     breakdown.Total,
		Breakdown:  breakdown,
		Topic:      q.Topic,
		Level:      q.Level,
		AnsweredAt: now,
	}
	session.Answers = append(session.Answers, record)
	session.CurrentIndex++
	session.Score += breakdown.Total
	session.TotalTimeMs += timeUsed
	session.QuestionStartedAt = now
	session.LastActivityAt = now

	completed := session.CurrentIndex == session.TotalQuestions()
	if completed {
		result := s.scorer.ScorePhase(session.Phase, session.Answers, session.TotalTimeMs)
		session.Score += result.PerfectBonus
		session.Result = &result
		s.finish(&session, domain.StatusCompleted, "", now)
	}

	if err := s.store.Put(ctx, session); err != nil {
		return domain.AnswerOutcome{}, fmt.Errorf("save session: %w", err)
	}
	metrics.AnswersSubmitted.WithLabelValues(answerResult(record)).Inc()

	if completed {
		s.completePhase(ctx, &session)
	} else {
		s.hub.broadcast(s.summary(&session))
	}

	return domain.AnswerOutcome{
		Record:    record,
		Breakdown: breakdown,
		Summary:   s.summary(&session),
		Result:    session.Result,
	}, nil
}

// PauseSession stops the question clock of an active session.
func (s *SessionService) PauseSession(ctx context.Context, id string) (domain.SessionSummary, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return domain.SessionSummary{}, err
	}
	if session.Status != domain.StatusActive {
		return domain.SessionSummary{}, fmt.Errorf("%w: status %s", domain.ErrSessionNotActive, session.Status)
	}

	now := s.now()
	session.Status = domain.StatusPaused
	session.PausedAt = &now
	session.LastActivityAt = now
	if err := s.store.Put(ctx, session); err != nil {
		return domain.SessionSummary{}, fmt.Errorf("save session: %w", err)
	}
	s.afterTransition(ctx, &session, domain.EventSessionPaused)
	return s.summary(&session), nil
}

// ResumeSession reactivates a paused session and restarts the current question's clock.
// A pause longer than the pause timeout expires the session instead.
func (s *SessionService) ResumeSession(ctx context.Context, id string) (domain.SessionSummary, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return domain.SessionSummary{}, err
	}
	switch session.Status {
	case domain.StatusPaused:
	case domain.StatusExpired:
		return domain.SessionSummary{}, domain.ErrSessionExpired
	default:
		return domain.SessionSummary{}, fmt.Errorf("%w: status %s", domain.ErrSessionNotPaused, session.Status)
	}

	now := s.now()
	session.Status = domain.StatusActive
	session.PausedAt = nil
	session.QuestionStartedAt = now
	session.LastActivityAt = now
	if err := s.store.Put(ctx, session); err != nil {
		return domain.SessionSummary{}, fmt.Errorf("save session: %w", err)
	}
	s.afterTransition(ctx, &session, domain.EventSessionResumed)
	return s.summary(&session), nil
}

// FinishSession abandons a non-terminal session.
func (s *SessionService) FinishSession(ctx context.Context, id, reason string) (domain.SessionSummary, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return domain.SessionSummary{}, err
	}
	if session.Status.Terminal() {
		return domain.SessionSummary{}, fmt.Errorf("%w: status %s", domain.ErrSessionNotActive, session.Status)
	}
	if reason == "" {
		reason = "quit"
	}

	s.finish(&session, domain.StatusAbandoned, reason, s.now())
	if err := s.store.Put(ctx, session); err != nil {
		return domain.SessionSummary{}, fmt.Errorf("save session: %w", err)
	}
	s.afterTransition(ctx, &session, domain.EventSessionAbandoned)
	log.Printf("session %s abandoned: %s", session.ID, reason)
	return s.summary(&session), nil
}

// Subscribe returns a channel that receives summary updates for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *SessionService) Subscribe(ctx context.Context, id string) (<-chan domain.SessionSummary, func(), error) {
	summary, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.subscribe(id, summary)
	return ch, cancel, nil
}

// load reads a session and expires it when it went stale. The first caller to notice
// gets ErrSessionExpired along with the expired snapshot.
func (s *SessionService) load(ctx context.Context, id string) (domain.Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	now := s.now()
	if reason := s.staleReason(&session, now); reason != "" {
		if err := s.expire(ctx, &session, reason, now); err != nil {
			return domain.Session{}, err
		}
		return session, domain.ErrSessionExpired
	}
	return session, nil
}

// staleReason returns why a non-terminal session must expire at now, or "".
func (s *SessionService) staleReason(session *domain.Session, now time.Time) string {
	if session.Status.Terminal() {
		return ""
	}
	if session.Status == domain.StatusPaused && session.PausedAt != nil &&
		s.settings.PauseTimeout > 0 && now.Sub(*session.PausedAt) > s.settings.PauseTimeout {
		return "pause timeout"
	}
	if s.settings.TTL > 0 && now.Sub(session.LastActivityAt) > s.settings.TTL {
		return "inactivity"
	}
	return ""
}

func (s *SessionService) expire(ctx context.Context, session *domain.Session, reason string, now time.Time) error {
	s.finish(session, domain.StatusExpired, reason, now)
	if err := s.store.Put(ctx, *session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.afterTransition(ctx, session, domain.EventSessionExpired)
	log.Printf("session %s expired: %s", session.ID, reason)
	return nil
}

func (s *SessionService) finish(session *domain.Session, status domain.SessionStatus, reason string, now time.Time) {
	session.Status = status
	session.FinishReason = reason
	session.PausedAt = nil
	session.CompletedAt = &now
}

// completePhase runs the side effects of a completed phase. They never undo the completion.
func (s *SessionService) completePhase(ctx context.Context, session *domain.Session) {
	if s.results != nil {
		if err := s.results.RecordResult(ctx, *session); err != nil {
			log.Printf("archive result of session %s failed: %v", session.ID, err)
		}
	}
	if s.profiles != nil && session.UserID != "" {
		if err := s.profiles.RecordPerformance(ctx, session.UserID, session.Answers); err != nil {
			log.Printf("record performance of user %s failed: %v", session.UserID, err)
		}
	}
	s.afterTransition(ctx, session, domain.EventSessionCompleted)
	log.Printf("session %s completed: score=%d grade=%s passed=%t",
		session.ID, session.Score, session.Result.Grade, session.Result.Passed)
}

func (s *SessionService) afterTransition(ctx context.Context, session *domain.Session, eventType string) {
	if session.Status.Terminal() {
		metrics.SessionsFinished.WithLabelValues(string(session.Status)).Inc()
	}
	s.publish(ctx, session, eventType)
	s.hub.broadcast(s.summary(session))
}

func (s *SessionService) publish(ctx context.Context, session *domain.Session, eventType string) {
	if s.events == nil {
		return
	}
	event := domain.SessionEvent{
		Type:       eventType,
		SessionID:  session.ID,
		UserID:     session.UserID,
		Phase:      session.Phase,
		Locale:     session.Locale,
		Status:     session.Status,
		Score:      session.Score,
		Reason:     session.FinishReason,
		Result:     session.Result,
		OccurredAt: s.now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("publish %s for session %s failed: %v", eventType, session.ID, err)
	}
}

func (s *SessionService) recentPerformance(ctx context.Context, userID string) (domain.PerformanceHints, bool) {
	if s.profiles == nil || userID == "" {
		return domain.PerformanceHints{}, false
	}
	hints, err := s.profiles.GetRecentPerformance(ctx, userID)
	if err != nil {
		log.Printf("load performance of user %s failed: %v", userID, err)
		return domain.PerformanceHints{}, false
	}
	return hints, true
}

func (s *SessionService) selectQuestions(ctx context.Context, req selection.Request) ([]domain.Question, error) {
	started := time.Now()
	questions, err := s.selector.SelectPhaseQuestions(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SelectionDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	return questions, err
}

func (s *SessionService) summary(session *domain.Session) domain.SessionSummary {
	return domain.SessionSummary{
		SessionID:         session.ID,
		Phase:             session.Phase,
		Locale:            session.Locale,
		Status:            session.Status,
		CurrentIndex:      session.CurrentIndex,
		TotalQuestions:    session.TotalQuestions(),
		Correct:           session.CorrectCount(),
		Score:             session.Score,
		Streak:            session.Streak,
		MaxStreak:         session.MaxStreak,
		TotalTimeMs:       session.TotalTimeMs,
		TimePerQuestionMs: s.limitMs(),
		FinishReason:      session.FinishReason,
		UpdatedAt:         session.LastActivityAt,
		Result:            session.Result,
	}
}

func (s *SessionService) limitMs() int64 {
	return s.settings.QuestionTimeLimit.Milliseconds()
}

func answerResult(record domain.AnswerRecord) string {
	switch {
	case record.IsTimeout:
		return metrics.ResultTimeout
	case record.IsCorrect:
		return metrics.ResultCorrect
	default:
		return metrics.ResultWrong
	}
}
