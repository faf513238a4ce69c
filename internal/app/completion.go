package app

import (
	"time"

	"github.com/sirupsen/logrus"
	"quiz-play-service/internal/domain"
)

// SubmissionState is the completion submitter's guard.
type SubmissionState string

const (
	SubmissionPending    SubmissionState = "pending"
	SubmissionSubmitting SubmissionState = "submitting"
	SubmissionSubmitted  SubmissionState = "submitted"
	SubmissionFailed     SubmissionState = "failed"
)

// SubmissionResult is delivered after a dispatched submission finishes.
type SubmissionResult func(resp domain.CompletionResponse, err error)

// CompletionSubmitter submits the completion record at most once per
// successful round trip. A failure re-arms the guard; the next reaction that
// still sees every question answered tries again.
type CompletionSubmitter struct {
	quiz       string
	store      PersistedStore
	dispatcher Dispatcher
	onResult   SubmissionResult
	now        func() time.Time
	log        logrus.FieldLogger

	state    SubmissionState
	attempts int
	last     domain.CompletionRecord
}

func NewCompletionSubmitter(quizSlug string, store PersistedStore, dispatcher Dispatcher, onResult SubmissionResult, now func() time.Time, log logrus.FieldLogger) *CompletionSubmitter {
	return &CompletionSubmitter{
		quiz:       quizSlug,
		store:      store,
		dispatcher: dispatcher,
		onResult:   onResult,
		now:        now,
		log:        log,
		state:      SubmissionPending,
	}
}

func (c *CompletionSubmitter) State() SubmissionState {
	return c.state
}

// Attempts counts dispatched submissions.
func (c *CompletionSubmitter) Attempts() int {
	return c.attempts
}

// LastRecord is the most recently dispatched record.
func (c *CompletionSubmitter) LastRecord() domain.CompletionRecord {
	return c.last
}

// React runs after every answer-state change. When all questions are
// answered it refreshes the local best-score cache and, if the guard allows,
// dispatches a freshly built record. It reports whether a submission started.
func (c *CompletionSubmitter) React(allAnswered bool, build func() domain.CompletionRecord) bool {
	if !allAnswered {
		return false
	}
	record := build()
	saveBestCompletion(c.store, c.quiz, domain.CompletionCache{
		Score:          record.Score,
		TotalQuestions: record.TotalQuestions,
		CompletedAt:    c.now(),
	}, c.log)

	if c.state != SubmissionPending && c.state != SubmissionFailed {
		return false
	}
	c.state = SubmissionSubmitting
	c.attempts++
	c.last = record
	c.dispatcher.Dispatch(record, c.resolve)
	return true
}

func (c *CompletionSubmitter) resolve(resp domain.CompletionResponse, err error) {
	if c.state != SubmissionSubmitting {
		return
	}
	if err != nil {
		c.state = SubmissionFailed
		c.log.WithError(err).WithField("quiz", c.quiz).Warn("completion submission failed")
	} else {
		c.state = SubmissionSubmitted
	}
	if c.onResult != nil {
		c.onResult(resp, err)
	}
}

// BuildCompletionRecord derives the payload from the answer states at call time.
func BuildCompletionRecord(quizSlug string, questions []domain.Question, rounds []domain.Round, states map[string]domain.AnswerState, elapsed int) domain.CompletionRecord {
	byRound := make(map[int]*domain.RoundScore, len(rounds))
	scores := make([]domain.RoundScore, 0, len(rounds))
	categories := make([]string, 0, len(rounds))
	seenCategory := make(map[string]struct{}, len(rounds))
	for _, r := range rounds {
		category := r.CategoryName()
		scores = append(scores, domain.RoundScore{RoundNumber: r.Number, Category: category})
		if _, ok := seenCategory[category]; !ok && category != "" {
			seenCategory[category] = struct{}{}
			categories = append(categories, category)
		}
	}
	for i := range scores {
		byRound[scores[i].RoundNumber] = &scores[i]
	}

	total := 0
	for _, q := range questions {
		rs, ok := byRound[q.RoundNumber]
		if !ok {
			continue
		}
		rs.TotalQuestions++
		if states[q.ID] == domain.AnswerCorrect {
			rs.Score++
			total++
		}
	}
	return domain.CompletionRecord{
		QuizSlug:              quizSlug,
		Score:                 total,
		TotalQuestions:        len(questions),
		CompletionTimeSeconds: elapsed,
		RoundScores:           scores,
		Categories:            categories,
	}
}
