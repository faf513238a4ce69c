package app

import "quiz-play-service/internal/domain"

// Advance describes what a forward step did.
type Advance int

const (
	// AdvanceMoved means the cursor moved to the next question or its round intro.
	AdvanceMoved Advance = iota
	// AdvanceStarted means a round intro was dismissed in place.
	AdvanceStarted
	// AdvanceComplete means the cursor was already on the last question.
	AdvanceComplete
	// AdvanceBlocked means the navigation guard refused the move.
	AdvanceBlocked
)

// NavigationGuard decides whether the cursor may land on a question index.
type NavigationGuard func(index int) bool

// Navigator sequences rounds and questions through the round-intro and
// question screens.
type Navigator struct {
	questions   []domain.Question
	roundStarts []int
	cursor      domain.Cursor
	guard       NavigationGuard
}

// NewNavigator positions the cursor on the round intro of the first question.
// questions must be ordered by round number and non-empty.
func NewNavigator(questions []domain.Question, guard NavigationGuard) *Navigator {
	if guard == nil {
		guard = func(int) bool { return true }
	}
	n := &Navigator{questions: questions, guard: guard}
	for i, q := range questions {
		if i == 0 || questions[i-1].RoundNumber != q.RoundNumber {
			n.roundStarts = append(n.roundStarts, i)
		}
	}
	n.cursor = domain.Cursor{
		Screen:        domain.ScreenRoundIntro,
		RoundNumber:   questions[0].RoundNumber,
		QuestionIndex: 0,
	}
	return n
}

func (n *Navigator) Cursor() domain.Cursor {
	return n.cursor
}

func (n *Navigator) Total() int {
	return len(n.questions)
}

// Current returns the question the cursor points at.
func (n *Navigator) Current() domain.Question {
	return n.questions[n.cursor.QuestionIndex]
}

// RoundBoundaries lists the index of the first question in each round.
func (n *Navigator) RoundBoundaries() []int {
	out := make([]int, len(n.roundStarts))
	copy(out, n.roundStarts)
	return out
}

// IsLast reports whether the cursor is on the final question.
func (n *Navigator) IsLast() bool {
	return n.cursor.QuestionIndex == len(n.questions)-1
}

// StartRound moves from the round intro to its first question without
// changing the index.
func (n *Navigator) StartRound() bool {
	if n.cursor.Screen != domain.ScreenRoundIntro {
		return false
	}
	n.cursor.Screen = domain.ScreenQuestion
	return true
}

// Next advances one question, stopping on a round intro when the round changes.
// On a round intro it behaves like StartRound.
func (n *Navigator) Next() Advance {
	if n.cursor.Screen == domain.ScreenRoundIntro {
		n.StartRound()
		return AdvanceStarted
	}
	if n.IsLast() {
		return AdvanceComplete
	}
	target := n.cursor.QuestionIndex + 1
	if !n.guard(target) {
		return AdvanceBlocked
	}
	next := n.questions[target]
	screen := domain.ScreenQuestion
	if next.RoundNumber != n.cursor.RoundNumber {
		screen = domain.ScreenRoundIntro
	}
	n.cursor = domain.Cursor{Screen: screen, RoundNumber: next.RoundNumber, QuestionIndex: target}
	return AdvanceMoved
}

// Previous steps back one question. Backward moves never show a round intro.
func (n *Navigator) Previous() bool {
	if n.cursor.QuestionIndex == 0 {
		return false
	}
	n.land(n.cursor.QuestionIndex - 1)
	return true
}

// JumpTo moves to the 1-based question position. Out-of-range or guarded
// targets are rejected without changing the cursor.
func (n *Navigator) JumpTo(position int) bool {
	if position < 1 || position > len(n.questions) {
		return false
	}
	if !n.guard(position - 1) {
		return false
	}
	n.land(position - 1)
	return true
}

func (n *Navigator) land(index int) {
	n.cursor = domain.Cursor{
		Screen:        domain.ScreenQuestion,
		RoundNumber:   n.questions[index].RoundNumber,
		QuestionIndex: index,
	}
}
