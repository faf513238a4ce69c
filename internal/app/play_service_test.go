package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
	"quiz-play-service/internal/infra/memory"
)

func newPlayService(t *testing.T) (*app.PlayService, *memory.StateStore) {
	t.Helper()
	older := buildQuiz(2)
	older.Slug = "week-11"
	older.PublishedAt = time.Date(2025, 2, 22, 0, 0, 0, 0, time.UTC)
	newest := buildQuiz(2)
	newest.PublishedAt = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	loader := memory.NewStaticQuizLoader(map[string]domain.Quiz{
		older.Slug:  older,
		newest.Slug: newest,
	})
	stores := memory.NewStateStore()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := app.NewPlayService(memory.NewQuizRepository(loader, time.Minute), stores, app.PlaySettings{}, log)
	return svc, stores
}

func TestPlayServiceNewestQuizIsFree(t *testing.T) {
	svc, _ := newPlayService(t)
	client := &recordingClient{}

	_, err := svc.Start(context.Background(), app.StartRequest{
		QuizSlug: "week-12",
		DeviceID: "device-1",
		Mode:     domain.ModeFull,
		Tier:     domain.TierFree,
	}, app.InlineDispatcher{Client: client}, nil)
	if err != nil {
		t.Fatalf("newest quiz should be open to free tier: %v", err)
	}

	_, err = svc.Start(context.Background(), app.StartRequest{
		QuizSlug: "week-11",
		DeviceID: "device-1",
		Mode:     domain.ModeFull,
		Tier:     domain.TierFree,
	}, app.InlineDispatcher{Client: client}, nil)
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected archive to be premium only, got %v", err)
	}

	_, err = svc.Start(context.Background(), app.StartRequest{
		QuizSlug: "week-11",
		DeviceID: "device-1",
		Mode:     domain.ModeRestricted,
		Tier:     domain.TierVisitor,
	}, app.InlineDispatcher{Client: client}, nil)
	if err != nil {
		t.Fatalf("restricted sessions are open to everyone: %v", err)
	}
}

func TestPlayServiceUnknownQuiz(t *testing.T) {
	svc, _ := newPlayService(t)
	_, err := svc.Start(context.Background(), app.StartRequest{QuizSlug: "week-99", DeviceID: "d"},
		app.InlineDispatcher{Client: &recordingClient{}}, nil)
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPlayServiceBestResult(t *testing.T) {
	svc, _ := newPlayService(t)
	session, err := svc.Start(context.Background(), app.StartRequest{
		QuizSlug: "week-12",
		DeviceID: "device-9",
		Tier:     domain.TierPremium,
	}, app.InlineDispatcher{Client: &recordingClient{}}, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, ok := svc.BestResult("device-9", "week-12"); ok {
		t.Fatalf("no result before completion")
	}

	for _, id := range []string{"q1", "q2"} {
		if err := session.Reveal(id); err != nil {
			t.Fatalf("reveal: %v", err)
		}
		if _, err := session.MarkCorrect(id); err != nil {
			t.Fatalf("mark: %v", err)
		}
	}

	best, ok := svc.BestResult("device-9", "week-12")
	if !ok || best.Score != 2 || best.TotalQuestions != 2 {
		t.Fatalf("unexpected best result %+v (found=%v)", best, ok)
	}
	if _, ok := svc.BestResult("device-1", "week-12"); ok {
		t.Fatalf("results are per device")
	}
}
