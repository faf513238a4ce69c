package app

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"quiz-play-service/internal/domain"
)

// SessionOptions configures a play session.
type SessionOptions struct {
	Mode         domain.SessionMode
	Tier         domain.ViewerTier
	IsNewest     bool
	MaxQuestions int

	RestrictedCeiling int
	CheckpointEvery   int
	AchievementTTL    time.Duration
	SpeedThreshold    time.Duration
	ThrowbackWeeks    int
	Streaks           []int

	Store      PersistedStore
	Dispatcher Dispatcher
	Emit       func(domain.Event)
	Now        func() time.Time
	NewID      func() string
	Logger     logrus.FieldLogger
}

func (o *SessionOptions) applyDefaults() {
	if o.Mode == "" {
		o.Mode = domain.ModeFull
	}
	if o.Tier == "" {
		o.Tier = domain.TierVisitor
	}
	if o.RestrictedCeiling <= 0 {
		o.RestrictedCeiling = DefaultRestrictedCeiling
	}
	if o.CheckpointEvery <= 0 {
		o.CheckpointEvery = 5
	}
	if o.AchievementTTL <= 0 {
		o.AchievementTTL = 6 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.NewString() }
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Emit == nil {
		o.Emit = func(domain.Event) {}
	}
}

// Session is one playthrough of a quiz. It owns all mutable play state and is
// not safe for concurrent use: every call, including submission callbacks
// delivered by a Dispatcher, must come from the same goroutine.
type Session struct {
	id            string
	quiz          domain.Quiz
	questions     []domain.Question
	rounds        []domain.Round
	expectedTotal int

	opts       SessionOptions
	log        logrus.FieldLogger
	gate       *AccessGate
	nav        *Navigator
	answers    *AnswerTracker
	timer      *Timer
	evaluator  *AchievementEvaluator
	submitter  *CompletionSubmitter
	unlocked   map[string]struct{}
	history    []domain.Achievement
	queue      []domain.Achievement
	completed  bool
	closed     bool
	lastSubErr error
}

// NewSession validates the quiz, applies access policy and restores the timer
// checkpoint. A quiz without questions is a hard error.
func NewSession(quiz domain.Quiz, opts SessionOptions) (*Session, error) {
	opts.applyDefaults()
	if err := quiz.Validate(); err != nil {
		return nil, err
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("completion dispatcher is required")
	}

	gate := NewAccessGate(opts.Mode, opts.Tier, opts.IsNewest, opts.RestrictedCeiling)
	if err := gate.Admit(); err != nil {
		return nil, err
	}

	questions := orderQuestions(quiz.Questions)
	expected := len(questions)
	if gate.Restricted() && opts.MaxQuestions > 0 && opts.MaxQuestions < len(questions) {
		questions = questions[:opts.MaxQuestions]
	}

	s := &Session{
		id:            opts.NewID(),
		quiz:          quiz,
		questions:     questions,
		rounds:        deriveRounds(quiz.Rounds, questions),
		expectedTotal: expected,
		opts:          opts,
		gate:          gate,
		answers:       NewAnswerTracker(questions),
		unlocked:      make(map[string]struct{}),
	}
	s.log = opts.Logger.WithFields(logrus.Fields{"session": s.id, "quiz": quiz.Slug})
	s.nav = NewNavigator(questions, s.allowNavigate)
	s.timer = NewTimer(opts.Store, quiz.Slug, opts.CheckpointEvery, s.log)
	s.evaluator = NewAchievementEvaluator(
		DefaultRules(opts.Streaks, opts.SpeedThreshold, opts.ThrowbackWeeks),
		opts.AchievementTTL,
		opts.NewID,
	)
	s.submitter = NewCompletionSubmitter(quiz.Slug, opts.Store, opts.Dispatcher, s.onSubmission, opts.Now, s.log)
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Quiz() domain.Quiz {
	return s.quiz
}

// Questions returns the loaded questions in play order.
func (s *Session) Questions() []domain.Question {
	return s.questions
}

func (s *Session) Rounds() []domain.Round {
	return s.rounds
}

func (s *Session) Cursor() domain.Cursor {
	return s.nav.Cursor()
}

func (s *Session) Score() int {
	return s.answers.Score()
}

func (s *Session) Total() int {
	return len(s.questions)
}

func (s *Session) Elapsed() int {
	return s.timer.Elapsed()
}

func (s *Session) TimerRunning() bool {
	return s.timer.Running()
}

func (s *Session) Completed() bool {
	return s.completed
}

// Locked reports whether the restricted answer ceiling has been reached.
func (s *Session) Locked() bool {
	return s.gate.Locked()
}

// Current returns the question under the cursor.
func (s *Session) Current() domain.Question {
	return s.nav.Current()
}

func (s *Session) AnswerState(questionID string) domain.AnswerState {
	return s.answers.State(questionID)
}

func (s *Session) AnsweredCount() int {
	return s.answers.AnsweredCount()
}

func (s *Session) Viewed(questionID string) bool {
	return s.answers.Viewed(questionID)
}

func (s *Session) SubmissionState() SubmissionState {
	return s.submitter.State()
}

func (s *Session) SubmissionAttempts() int {
	return s.submitter.Attempts()
}

// SubmissionError is the last submission failure, cleared on success.
func (s *Session) SubmissionError() error {
	return s.lastSubErr
}

// Unlocked returns every achievement unlocked in this session, in order.
func (s *Session) Unlocked() []domain.Achievement {
	out := make([]domain.Achievement, len(s.history))
	copy(out, s.history)
	return out
}

// StartRound dismisses the round intro and starts the timer.
func (s *Session) StartRound() bool {
	if !s.nav.StartRound() {
		return false
	}
	s.startTimer()
	s.cursorMoved()
	return true
}

// Next advances the cursor. On the last question it raises the
// session-complete signal once and stops the timer.
func (s *Session) Next() Advance {
	outcome := s.nav.Next()
	switch outcome {
	case AdvanceStarted:
		s.startTimer()
		s.cursorMoved()
	case AdvanceMoved:
		s.cursorMoved()
	case AdvanceComplete:
		s.complete()
	}
	return outcome
}

func (s *Session) Previous() bool {
	if !s.nav.Previous() {
		return false
	}
	s.cursorMoved()
	return true
}

// JumpTo moves to a 1-based position; rejected moves leave the cursor unchanged.
func (s *Session) JumpTo(position int) bool {
	if !s.nav.JumpTo(position) {
		return false
	}
	s.cursorMoved()
	return true
}

func (s *Session) Reveal(questionID string) error {
	if err := s.admitJudgement(questionID); err != nil {
		return err
	}
	if _, err := s.answers.Reveal(questionID); err != nil {
		return err
	}
	s.answerChanged(questionID, false)
	return nil
}

// Hide conceals a shown answer, which counts as judging it incorrect.
func (s *Session) Hide(questionID string) error {
	if err := s.admitJudgement(questionID); err != nil {
		return err
	}
	if _, err := s.answers.Hide(questionID); err != nil {
		return err
	}
	s.answerChanged(questionID, false)
	return nil
}

// MarkCorrect returns true the first time the question becomes correct.
func (s *Session) MarkCorrect(questionID string) (bool, error) {
	if err := s.admitJudgement(questionID); err != nil {
		return false, err
	}
	first, err := s.answers.MarkCorrect(questionID)
	if err != nil {
		return false, err
	}
	s.answerChanged(questionID, first)
	return first, nil
}

func (s *Session) MarkIncorrect(questionID string) error {
	if err := s.admitJudgement(questionID); err != nil {
		return err
	}
	if err := s.answers.MarkIncorrect(questionID); err != nil {
		return err
	}
	s.answerChanged(questionID, false)
	return nil
}

// RetrySubmission re-runs the answer-state reaction so a failed submission
// can be retried without another mutation.
func (s *Session) RetrySubmission() bool {
	if s.submitter.State() != SubmissionFailed {
		return false
	}
	return s.onAnswerStateChanged()
}

// Tick advances the timer by one second.
func (s *Session) Tick() bool {
	return s.timer.Tick()
}

// PendingAchievements drops expired unlocks and returns the rest.
func (s *Session) PendingAchievements() []domain.Achievement {
	now := s.opts.Now()
	kept := s.queue[:0]
	for _, a := range s.queue {
		if now.Before(a.ExpiresAt) {
			kept = append(kept, a)
		}
	}
	s.queue = kept
	out := make([]domain.Achievement, len(kept))
	copy(out, kept)
	return out
}

// DismissAchievement removes a queued unlock by instance id.
func (s *Session) DismissAchievement(id string) bool {
	for i, a := range s.queue {
		if a.ID == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return true
		}
	}
	return false
}

// Close stops the timer and flushes a final checkpoint. In-flight
// submissions are left to finish on their own.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.timer.Close()
}

func (s *Session) answerChanged(questionID string, first bool) {
	s.opts.Emit(domain.Event{Type: domain.EventAnswerChanged, Payload: domain.AnswerChange{
		QuestionID:   questionID,
		State:        s.answers.State(questionID),
		FirstCorrect: first,
	}})
	s.onAnswerStateChanged()
}

// onAnswerStateChanged runs the reactions to an answer mutation in a fixed
// order within the same call: gate, achievements, completion.
func (s *Session) onAnswerStateChanged() bool {
	if s.gate.Observe(s.answers.AnsweredCount()) {
		s.log.WithField("answered", s.answers.AnsweredCount()).Info("restricted ceiling reached")
		s.opts.Emit(domain.Event{Type: domain.EventUpsell})
	}

	for _, a := range s.evaluator.Evaluate(s.evaluationInput()) {
		s.unlock(a)
	}

	states := s.answers.Snapshot()
	return s.submitter.React(s.answers.AllAnswered(), func() domain.CompletionRecord {
		return BuildCompletionRecord(s.quiz.Slug, s.questions, s.rounds, states, s.timer.Elapsed())
	})
}

func (s *Session) evaluationInput() EvaluationInput {
	return EvaluationInput{
		Questions:     s.questions,
		States:        s.answers.Snapshot(),
		Cursor:        s.nav.Cursor(),
		Elapsed:       s.timer.Elapsed(),
		Unlocked:      s.unlocked,
		Now:           s.opts.Now(),
		ExpectedTotal: s.expectedTotal,
		PublishedAt:   s.quiz.PublishedAt,
	}
}

func (s *Session) unlock(a domain.Achievement) {
	if _, done := s.unlocked[a.DefinitionKey]; done {
		return
	}
	s.unlocked[a.DefinitionKey] = struct{}{}
	s.history = append(s.history, a)
	s.queue = append(s.queue, a)
	s.opts.Emit(domain.Event{Type: domain.EventAchievementUnlocked, Payload: a})
}

func (s *Session) onSubmission(resp domain.CompletionResponse, err error) {
	if err != nil {
		s.lastSubErr = err
		s.opts.Emit(domain.Event{Type: domain.EventSubmissionFailed, Payload: domain.SubmissionFailure{
			Message:   err.Error(),
			Retryable: true,
		}})
		return
	}
	s.lastSubErr = nil
	s.opts.Emit(domain.Event{Type: domain.EventSubmitted, Payload: s.submitter.LastRecord()})
	now := s.opts.Now()
	for _, key := range resp.NewlyUnlockedAchievements {
		s.unlock(domain.Achievement{
			ID:            s.opts.NewID(),
			DefinitionKey: key,
			UnlockedAt:    now,
			ExpiresAt:     now.Add(s.opts.AchievementTTL),
		})
	}
}

func (s *Session) cursorMoved() {
	cursor := s.nav.Cursor()
	if cursor.Screen == domain.ScreenQuestion {
		s.answers.MarkViewed(s.nav.Current().ID)
	}
	s.opts.Emit(domain.Event{Type: domain.EventCursorChanged, Payload: cursor})
}

// startTimer resumes counting unless the session already completed.
func (s *Session) startTimer() {
	if s.completed {
		return
	}
	s.timer.Start()
}

func (s *Session) complete() {
	if s.completed {
		return
	}
	s.completed = true
	s.timer.Stop()
	s.opts.Emit(domain.Event{Type: domain.EventSessionComplete, Payload: domain.SessionSummary{
		Score:          s.answers.Score(),
		TotalQuestions: len(s.questions),
	}})
}

// admitJudgement keeps already-answered questions inspectable after the
// restricted ceiling while refusing new answers.
func (s *Session) admitJudgement(questionID string) error {
	if !s.gate.Locked() || s.answers.IsAnswered(questionID) {
		return nil
	}
	if _, err := s.answers.lookup(questionID); err != nil {
		return err
	}
	return fmt.Errorf("%w: restricted answer limit reached", domain.ErrAccessDenied)
}

func (s *Session) allowNavigate(index int) bool {
	return s.gate.AllowNavigate(s.answers.Viewed(s.questions[index].ID))
}

// orderQuestions groups questions by round, keeping authored order within a round.
func orderQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RoundNumber < out[j].RoundNumber
	})
	return out
}

// deriveRounds lists the distinct rounds present in questions, ascending,
// filling in metadata from the quiz definition where available.
func deriveRounds(defined []domain.Round, questions []domain.Question) []domain.Round {
	meta := make(map[int]domain.Round, len(defined))
	for _, r := range defined {
		meta[r.Number] = r
	}
	var rounds []domain.Round
	for i, q := range questions {
		if i > 0 && questions[i-1].RoundNumber == q.RoundNumber {
			continue
		}
		r, ok := meta[q.RoundNumber]
		if !ok {
			r = domain.Round{Number: q.RoundNumber, Title: fmt.Sprintf("Round %d", q.RoundNumber)}
		}
		if r.Type == "" {
			r.Type = domain.RoundStandard
		}
		rounds = append(rounds, r)
	}
	return rounds
}
