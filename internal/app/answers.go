package app

import "quiz-play-service/internal/domain"

// AnswerTracker holds the judgement state of every question in a session and
// the set of questions that have been shown at least once.
type AnswerTracker struct {
	order       []string
	states      map[string]domain.AnswerState
	viewed      map[string]struct{}
	everCorrect map[string]struct{}
}

func NewAnswerTracker(questions []domain.Question) *AnswerTracker {
	t := &AnswerTracker{
		order:       make([]string, 0, len(questions)),
		states:      make(map[string]domain.AnswerState, len(questions)),
		viewed:      make(map[string]struct{}, len(questions)),
		everCorrect: make(map[string]struct{}),
	}
	for _, q := range questions {
		t.order = append(t.order, q.ID)
		t.states[q.ID] = domain.AnswerIdle
	}
	return t
}

// State returns the current state, or idle for unknown ids.
func (t *AnswerTracker) State(questionID string) domain.AnswerState {
	if s, ok := t.states[questionID]; ok {
		return s
	}
	return domain.AnswerIdle
}

// Reveal moves idle to revealed. It reports whether the state changed.
func (t *AnswerTracker) Reveal(questionID string) (bool, error) {
	state, err := t.lookup(questionID)
	if err != nil {
		return false, err
	}
	t.viewed[questionID] = struct{}{}
	if state != domain.AnswerIdle {
		return false, nil
	}
	t.states[questionID] = domain.AnswerRevealed
	return true, nil
}

// Hide treats hiding a shown answer as an incorrect judgement, overwriting
// a previous correct mark.
func (t *AnswerTracker) Hide(questionID string) (bool, error) {
	state, err := t.judgeable(questionID)
	if err != nil {
		return false, err
	}
	t.states[questionID] = domain.AnswerIncorrect
	return state != domain.AnswerIncorrect, nil
}

// MarkCorrect sets the question to correct. first is true only the first
// time this question has ever become correct in the session.
func (t *AnswerTracker) MarkCorrect(questionID string) (first bool, err error) {
	if _, err := t.judgeable(questionID); err != nil {
		return false, err
	}
	t.states[questionID] = domain.AnswerCorrect
	if _, seen := t.everCorrect[questionID]; seen {
		return false, nil
	}
	t.everCorrect[questionID] = struct{}{}
	return true, nil
}

// MarkIncorrect sets the question to incorrect, clearing any correct mark.
func (t *AnswerTracker) MarkIncorrect(questionID string) error {
	if _, err := t.judgeable(questionID); err != nil {
		return err
	}
	t.states[questionID] = domain.AnswerIncorrect
	return nil
}

func (t *AnswerTracker) IsAnswered(questionID string) bool {
	return t.State(questionID).Terminal()
}

func (t *AnswerTracker) AllAnswered() bool {
	for _, id := range t.order {
		if !t.states[id].Terminal() {
			return false
		}
	}
	return len(t.order) > 0
}

func (t *AnswerTracker) AnsweredCount() int {
	n := 0
	for _, id := range t.order {
		if t.states[id].Terminal() {
			n++
		}
	}
	return n
}

// Score counts correct questions.
func (t *AnswerTracker) Score() int {
	n := 0
	for _, id := range t.order {
		if t.states[id] == domain.AnswerCorrect {
			n++
		}
	}
	return n
}

// MarkViewed records that a question was displayed. The set never shrinks.
func (t *AnswerTracker) MarkViewed(questionID string) {
	if _, ok := t.states[questionID]; ok {
		t.viewed[questionID] = struct{}{}
	}
}

func (t *AnswerTracker) Viewed(questionID string) bool {
	_, ok := t.viewed[questionID]
	return ok
}

func (t *AnswerTracker) ViewedCount() int {
	return len(t.viewed)
}

// Snapshot copies the state map so evaluators never see later mutations.
func (t *AnswerTracker) Snapshot() map[string]domain.AnswerState {
	out := make(map[string]domain.AnswerState, len(t.states))
	for id, s := range t.states {
		out[id] = s
	}
	return out
}

func (t *AnswerTracker) lookup(questionID string) (domain.AnswerState, error) {
	state, ok := t.states[questionID]
	if !ok {
		return "", domain.ErrQuestionNotFound
	}
	return state, nil
}

// judgeable returns the current state of a question that may be judged,
// marking it viewed. Questions still idle have never been revealed.
func (t *AnswerTracker) judgeable(questionID string) (domain.AnswerState, error) {
	state, err := t.lookup(questionID)
	if err != nil {
		return "", err
	}
	if state == domain.AnswerIdle {
		return state, domain.ErrAnswerNotRevealed
	}
	t.viewed[questionID] = struct{}{}
	return state, nil
}
