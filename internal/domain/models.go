package domain

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

// RoundType tags how a round is presented.
type RoundType string

const (
	RoundStandard RoundType = "standard"
	RoundFinale   RoundType = "finale"
)

// Round is a numbered, themed group of questions.
type Round struct {
	Number   int       `json:"number"`
	Title    string    `json:"title"`
	Blurb    string    `json:"blurb"`
	Type     RoundType `json:"type,omitempty"`
	Category string    `json:"category,omitempty"`
}

// CategoryName returns the category used for completion reporting.
func (r Round) CategoryName() string {
	if r.Category != "" {
		return r.Category
	}
	return r.Title
}

// Question is a single prompt/answer card owned by a round.
type Question struct {
	ID          string `json:"id"`
	Prompt      string `json:"prompt"`
	Answer      string `json:"answer"`
	RoundNumber int    `json:"roundNumber"`
	SubmittedBy string `json:"submittedBy,omitempty"`
	SubmittedAt string `json:"submittedAt,omitempty"`
}

// Quiz is an immutable quiz definition.
type Quiz struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Color       string     `json:"color"`
	PublishedAt time.Time  `json:"publishedAt"`
	Rounds      []Round    `json:"rounds"`
	Questions   []Question `json:"questions"`
}

// Validate checks the structural rules a quiz must satisfy before a session can start.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return ErrEmptyQuiz
	}
	if !slug.IsSlug(q.Slug) {
		return fmt.Errorf("%w: slug %q", ErrInvalidQuiz, q.Slug)
	}
	seen := make(map[string]struct{}, len(q.Questions))
	for _, question := range q.Questions {
		if question.ID == "" {
			return fmt.Errorf("%w: question without id", ErrInvalidQuiz)
		}
		if _, dup := seen[question.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidQuiz, question.ID)
		}
		if question.RoundNumber < 1 {
			return fmt.Errorf("%w: question %q has round %d", ErrInvalidQuiz, question.ID, question.RoundNumber)
		}
		seen[question.ID] = struct{}{}
	}
	return nil
}

// AnswerState is the per-question judgement state.
type AnswerState string

const (
	AnswerIdle      AnswerState = "idle"
	AnswerRevealed  AnswerState = "revealed"
	AnswerCorrect   AnswerState = "correct"
	AnswerIncorrect AnswerState = "incorrect"
)

// Terminal reports whether the state counts as answered.
func (s AnswerState) Terminal() bool {
	return s == AnswerCorrect || s == AnswerIncorrect
}

// Screen is the visible step of the two-screen flow.
type Screen string

const (
	ScreenRoundIntro Screen = "round-intro"
	ScreenQuestion   Screen = "question"
)

// Cursor locates the session within the quiz. QuestionIndex is zero-based.
type Cursor struct {
	Screen        Screen `json:"screen"`
	RoundNumber   int    `json:"roundNumber"`
	QuestionIndex int    `json:"questionIndex"`
}

// SessionMode selects full or restricted (demo) play.
type SessionMode string

const (
	ModeFull       SessionMode = "full"
	ModeRestricted SessionMode = "restricted"
)

// Valid reports whether m is a known mode. Mode strings are case-sensitive.
func (m SessionMode) Valid() bool {
	return m == ModeFull || m == ModeRestricted
}

// ViewerTier is the account level of the player.
type ViewerTier string

const (
	TierVisitor ViewerTier = "visitor"
	TierFree    ViewerTier = "free"
	TierPremium ViewerTier = "premium"
)

func (t ViewerTier) Valid() bool {
	switch t {
	case TierVisitor, TierFree, TierPremium:
		return true
	}
	return false
}

// Achievement is one unlocked instance of an achievement definition.
type Achievement struct {
	ID            string    `json:"id"`
	DefinitionKey string    `json:"definitionKey"`
	UnlockedAt    time.Time `json:"unlockedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// RoundScore is the per-round slice of a completion record.
type RoundScore struct {
	RoundNumber    int    `json:"roundNumber"`
	Category       string `json:"category"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
}

// CompletionRecord is submitted once all questions are answered.
type CompletionRecord struct {
	QuizSlug              string       `json:"quizSlug"`
	Score                 int          `json:"score"`
	TotalQuestions        int          `json:"totalQuestions"`
	CompletionTimeSeconds int          `json:"completionTimeSeconds"`
	RoundScores           []RoundScore `json:"roundScores"`
	Categories            []string     `json:"categories"`
}

// CompletionResponse is returned by the completion collaborator on success.
type CompletionResponse struct {
	NewlyUnlockedAchievements []string `json:"newlyUnlockedAchievements,omitempty"`
}

// CompletionCache is the locally persisted best result for a quiz.
type CompletionCache struct {
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CompletedAt    time.Time `json:"completedAt"`
}
