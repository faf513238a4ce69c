package app

import (
	"context"
	"time"

	"quiz-play-service/internal/domain"
)

// CompletionClient sends a completion record to the completion collaborator.
type CompletionClient interface {
	SubmitCompletion(ctx context.Context, record domain.CompletionRecord) (domain.CompletionResponse, error)
}

// Dispatcher runs a submission and reports its outcome through done. done
// must run on the goroutine that owns the session.
type Dispatcher interface {
	Dispatch(record domain.CompletionRecord, done SubmissionResult)
}

// InlineDispatcher submits synchronously on the caller's goroutine.
type InlineDispatcher struct {
	Client  CompletionClient
	Timeout time.Duration
}

func (d InlineDispatcher) Dispatch(record domain.CompletionRecord, done SubmissionResult) {
	ctx, cancel := submissionContext(d.Timeout)
	defer cancel()
	resp, err := d.Client.SubmitCompletion(ctx, record)
	done(resp, err)
}

// AsyncDispatcher submits on its own goroutine and hands the outcome back to
// the session's loop through post. Submissions are detached from the session:
// abandoning the session does not cancel them.
type AsyncDispatcher struct {
	client  CompletionClient
	timeout time.Duration
	post    func(func())
}

func NewAsyncDispatcher(client CompletionClient, timeout time.Duration, post func(func())) *AsyncDispatcher {
	return &AsyncDispatcher{client: client, timeout: timeout, post: post}
}

func (d *AsyncDispatcher) Dispatch(record domain.CompletionRecord, done SubmissionResult) {
	go func() {
		ctx, cancel := submissionContext(d.timeout)
		defer cancel()
		resp, err := d.client.SubmitCompletion(ctx, record)
		d.post(func() { done(resp, err) })
	}()
}

func submissionContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}
