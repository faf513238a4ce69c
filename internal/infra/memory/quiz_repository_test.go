package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-play-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{
			"week-1": sampleQuiz("week-1", time.Time{}),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "week-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "week-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{
			"week-1": sampleQuiz("week-1", time.Time{}),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "week-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "week-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryNotFound(t *testing.T) {
	repo := NewQuizRepository(NewStaticQuizLoader(nil), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStaticLoaderNewestSlug(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	loader := NewStaticQuizLoader(map[string]domain.Quiz{
		"week-8":  sampleQuiz("week-8", day.AddDate(0, 0, -7)),
		"week-9":  sampleQuiz("week-9", day),
		"week-9b": sampleQuiz("week-9b", day),
	})
	slug, err := loader.NewestSlug(context.Background())
	if err != nil {
		t.Fatalf("newest: %v", err)
	}
	if slug != "week-9b" {
		t.Fatalf("expected week-9b, got %s", slug)
	}

	if _, err := NewStaticQuizLoader(nil).NewestSlug(context.Background()); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found for empty loader, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, slug string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, slug)
}

func sampleQuiz(slug string, published time.Time) domain.Quiz {
	return domain.Quiz{
		Slug:        slug,
		Title:       "Pub quiz",
		PublishedAt: published,
		Rounds:      []domain.Round{{Number: 1, Title: "Warm up"}},
		Questions: []domain.Question{
			{ID: "q1", Prompt: "What is 2 + 2?", Answer: "4", RoundNumber: 1},
		},
	}
}
