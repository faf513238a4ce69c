package app

import (
	"fmt"
	"time"

	"quiz-play-service/internal/domain"
)

// Achievement definition keys. Parameterised rules append their parameter.
const (
	KeyPerfectQuiz  = "perfect_quiz"
	KeySpeedDemon   = "speed_demon"
	KeyThrowback    = "throwback"
	perfectRoundFmt = "perfect_round_%d"
	streakFmt       = "streak_%d"
)

// PerfectRoundKey is the dedup key for a perfect round.
func PerfectRoundKey(round int) string {
	return fmt.Sprintf(perfectRoundFmt, round)
}

// StreakKey is the dedup key for a run of consecutive correct answers.
func StreakKey(length int) string {
	return fmt.Sprintf(streakFmt, length)
}

// EvaluationInput is everything a rule may look at. It is a snapshot; rules
// must not retain it.
type EvaluationInput struct {
	Questions     []domain.Question
	States        map[string]domain.AnswerState
	Cursor        domain.Cursor
	Elapsed       int
	Unlocked      map[string]struct{}
	Now           time.Time
	ExpectedTotal int
	PublishedAt   time.Time
}

func (in EvaluationInput) allAnswered() bool {
	for _, q := range in.Questions {
		if !in.States[q.ID].Terminal() {
			return false
		}
	}
	return len(in.Questions) > 0
}

// Rule yields the dedup keys whose condition currently holds.
type Rule interface {
	Keys(in EvaluationInput) []string
}

// PerfectRoundRule fires for every round whose questions are all correct.
type PerfectRoundRule struct{}

func (PerfectRoundRule) Keys(in EvaluationInput) []string {
	perfect := make(map[int]bool)
	var order []int
	for _, q := range in.Questions {
		ok, seen := perfect[q.RoundNumber]
		if !seen {
			order = append(order, q.RoundNumber)
			ok = true
		}
		perfect[q.RoundNumber] = ok && in.States[q.ID] == domain.AnswerCorrect
	}
	var keys []string
	for _, round := range order {
		if perfect[round] {
			keys = append(keys, PerfectRoundKey(round))
		}
	}
	return keys
}

// PerfectQuizRule fires when every question of the full quiz is correct.
type PerfectQuizRule struct{}

func (PerfectQuizRule) Keys(in EvaluationInput) []string {
	if len(in.Questions) == 0 || len(in.Questions) != in.ExpectedTotal {
		return nil
	}
	for _, q := range in.Questions {
		if in.States[q.ID] != domain.AnswerCorrect {
			return nil
		}
	}
	return []string{KeyPerfectQuiz}
}

// StreakRule fires for each configured length reached by the longest run of
// consecutive correct questions in quiz order.
type StreakRule struct {
	Lengths []int
}

func (r StreakRule) Keys(in EvaluationInput) []string {
	longest, run := 0, 0
	for _, q := range in.Questions {
		if in.States[q.ID] == domain.AnswerCorrect {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	var keys []string
	for _, length := range r.Lengths {
		if length > 0 && longest >= length {
			keys = append(keys, StreakKey(length))
		}
	}
	return keys
}

// SpeedRule fires when the quiz is fully answered within Threshold.
type SpeedRule struct {
	Threshold time.Duration
}

func (r SpeedRule) Keys(in EvaluationInput) []string {
	if r.Threshold <= 0 || !in.allAnswered() {
		return nil
	}
	if time.Duration(in.Elapsed)*time.Second >= r.Threshold {
		return nil
	}
	return []string{KeySpeedDemon}
}

// ThrowbackRule fires when a quiz published at least Weeks weeks ago is completed.
type ThrowbackRule struct {
	Weeks int
}

func (r ThrowbackRule) Keys(in EvaluationInput) []string {
	if r.Weeks <= 0 || in.PublishedAt.IsZero() || !in.allAnswered() {
		return nil
	}
	age := int(in.Now.Sub(in.PublishedAt) / (7 * 24 * time.Hour))
	if age < r.Weeks {
		return nil
	}
	return []string{KeyThrowback}
}

// AchievementEvaluator turns rule matches into new, deduplicated unlocks.
type AchievementEvaluator struct {
	rules []Rule
	ttl   time.Duration
	newID func() string
}

func NewAchievementEvaluator(rules []Rule, ttl time.Duration, newID func() string) *AchievementEvaluator {
	return &AchievementEvaluator{rules: rules, ttl: ttl, newID: newID}
}

// DefaultRules is the standard rule set.
func DefaultRules(streaks []int, speed time.Duration, throwbackWeeks int) []Rule {
	return []Rule{
		PerfectRoundRule{},
		PerfectQuizRule{},
		StreakRule{Lengths: streaks},
		SpeedRule{Threshold: speed},
		ThrowbackRule{Weeks: throwbackWeeks},
	}
}

// Evaluate returns achievements whose keys are not in in.Unlocked. Calling it
// again with the returned keys added to Unlocked yields nothing.
func (e *AchievementEvaluator) Evaluate(in EvaluationInput) []domain.Achievement {
	var out []domain.Achievement
	emitted := make(map[string]struct{})
	for _, rule := range e.rules {
		for _, key := range rule.Keys(in) {
			if _, done := in.Unlocked[key]; done {
				continue
			}
			if _, done := emitted[key]; done {
				continue
			}
			emitted[key] = struct{}{}
			out = append(out, e.instance(key, in.Now))
		}
	}
	return out
}

func (e *AchievementEvaluator) instance(key string, now time.Time) domain.Achievement {
	return domain.Achievement{
		ID:            e.newID(),
		DefinitionKey: key,
		UnlockedAt:    now,
		ExpiresAt:     now.Add(e.ttl),
	}
}
