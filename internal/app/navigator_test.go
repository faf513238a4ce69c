package app

import (
	"math/rand"
	"testing"

	"quiz-play-service/internal/domain"
)

func TestNavigatorForwardShowsRoundIntros(t *testing.T) {
	// rounds of 2, 1 and 2 questions
	nav := NewNavigator(roundsQuiz(2, 1, 2).Questions, nil)

	want := []domain.Cursor{
		{Screen: domain.ScreenRoundIntro, RoundNumber: 1, QuestionIndex: 0},
		{Screen: domain.ScreenQuestion, RoundNumber: 1, QuestionIndex: 0},
		{Screen: domain.ScreenQuestion, RoundNumber: 1, QuestionIndex: 1},
		{Screen: domain.ScreenRoundIntro, RoundNumber: 2, QuestionIndex: 2},
		{Screen: domain.ScreenQuestion, RoundNumber: 2, QuestionIndex: 2},
		{Screen: domain.ScreenRoundIntro, RoundNumber: 3, QuestionIndex: 3},
		{Screen: domain.ScreenQuestion, RoundNumber: 3, QuestionIndex: 3},
		{Screen: domain.ScreenQuestion, RoundNumber: 3, QuestionIndex: 4},
	}
	for i, w := range want {
		if got := nav.Cursor(); got != w {
			t.Fatalf("step %d: expected %+v, got %+v", i, w, got)
		}
		if i < len(want)-1 {
			if out := nav.Next(); out == AdvanceComplete || out == AdvanceBlocked {
				t.Fatalf("step %d: unexpected outcome %v", i, out)
			}
		}
	}
	if out := nav.Next(); out != AdvanceComplete {
		t.Fatalf("expected complete at last question, got %v", out)
	}
	if nav.Cursor().QuestionIndex != 4 {
		t.Fatalf("complete must not move the cursor")
	}
	if b := nav.RoundBoundaries(); len(b) != 3 || b[0] != 0 || b[1] != 2 || b[2] != 3 {
		t.Fatalf("unexpected boundaries %v", b)
	}
}

func TestNavigatorPreviousSkipsIntro(t *testing.T) {
	nav := NewNavigator(roundsQuiz(2, 2).Questions, nil)
	if nav.Previous() {
		t.Fatalf("previous at index 0 should be rejected")
	}
	nav.JumpTo(3) // first question of round 2
	if !nav.Previous() {
		t.Fatalf("expected previous to move")
	}
	got := nav.Cursor()
	want := domain.Cursor{Screen: domain.ScreenQuestion, RoundNumber: 1, QuestionIndex: 1}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestNavigatorJumpTo(t *testing.T) {
	nav := NewNavigator(roundsQuiz(2, 2).Questions, func(i int) bool { return i != 1 })

	for _, n := range []int{0, 5, -1} {
		if nav.JumpTo(n) {
			t.Fatalf("jump to %d should be rejected", n)
		}
	}
	if nav.JumpTo(2) {
		t.Fatalf("guarded target should be rejected")
	}
	if nav.Cursor().Screen != domain.ScreenRoundIntro {
		t.Fatalf("rejected jumps must not change the cursor")
	}
	if !nav.JumpTo(4) {
		t.Fatalf("expected jump to 4")
	}
	want := domain.Cursor{Screen: domain.ScreenQuestion, RoundNumber: 2, QuestionIndex: 3}
	if nav.Cursor() != want {
		t.Fatalf("expected %+v, got %+v", want, nav.Cursor())
	}
}

func TestNavigatorStartRound(t *testing.T) {
	nav := NewNavigator(roundsQuiz(1).Questions, nil)
	if !nav.StartRound() {
		t.Fatalf("expected start from intro")
	}
	if nav.StartRound() {
		t.Fatalf("start round on question screen should be a no-op")
	}
	if nav.Next() != AdvanceComplete {
		t.Fatalf("single question quiz should complete on next")
	}
}

func TestNavigatorRoundInvariantRandomWalk(t *testing.T) {
	questions := roundsQuiz(3, 1, 4, 2).Questions
	nav := NewNavigator(questions, nil)
	rnd := rand.New(rand.NewSource(7))
	for step := 0; step < 1000; step++ {
		switch rnd.Intn(4) {
		case 0, 1:
			nav.Next()
		case 2:
			nav.Previous()
		case 3:
			nav.JumpTo(rnd.Intn(len(questions)+2) - 1)
		}
		c := nav.Cursor()
		if questions[c.QuestionIndex].RoundNumber != c.RoundNumber {
			t.Fatalf("step %d: cursor %+v points at round %d", step, c, questions[c.QuestionIndex].RoundNumber)
		}
	}
}
