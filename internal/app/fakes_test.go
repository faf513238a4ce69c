package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"quiz-play-service/internal/domain"
)

type fakeStore struct {
	values map[string][]byte
	sets   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string][]byte)}
}

func (s *fakeStore) Get(key string) ([]byte, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *fakeStore) Set(key string, value []byte) error {
	s.sets++
	s.values[key] = value
	return nil
}

func (s *fakeStore) Remove(key string) error {
	delete(s.values, key)
	return nil
}

type brokenStore struct{}

var errQuota = errors.New("quota exceeded")

func (brokenStore) Get(string) ([]byte, bool, error) { return nil, false, errQuota }
func (brokenStore) Set(string, []byte) error         { return errQuota }
func (brokenStore) Remove(string) error              { return errQuota }

// heldDispatcher keeps submissions in flight until the test resolves them.
type heldDispatcher struct {
	records []domain.CompletionRecord
	dones   []SubmissionResult
}

func (d *heldDispatcher) Dispatch(record domain.CompletionRecord, done SubmissionResult) {
	d.records = append(d.records, record)
	d.dones = append(d.dones, done)
}

func (d *heldDispatcher) resolve(i int, err error) {
	d.dones[i](domain.CompletionResponse{}, err)
}

type scriptedClient struct {
	errs  []error
	calls int
	resp  domain.CompletionResponse
}

func (c *scriptedClient) SubmitCompletion(_ context.Context, _ domain.CompletionRecord) (domain.CompletionResponse, error) {
	c.calls++
	if len(c.errs) >= c.calls && c.errs[c.calls-1] != nil {
		return domain.CompletionResponse{}, c.errs[c.calls-1]
	}
	return c.resp, nil
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// roundsQuiz builds a quiz with the given number of questions per round.
func roundsQuiz(perRound ...int) domain.Quiz {
	quiz := domain.Quiz{Slug: "week-7", Title: "Week 7"}
	n := 0
	for i, count := range perRound {
		round := i + 1
		quiz.Rounds = append(quiz.Rounds, domain.Round{Number: round, Title: fmt.Sprintf("Round %d", round), Category: fmt.Sprintf("cat-%d", round)})
		for j := 0; j < count; j++ {
			n++
			quiz.Questions = append(quiz.Questions, domain.Question{
				ID:          fmt.Sprintf("q%d", n),
				Prompt:      fmt.Sprintf("prompt %d", n),
				Answer:      fmt.Sprintf("answer %d", n),
				RoundNumber: round,
			})
		}
	}
	return quiz
}
