package app

import (
	"context"
	"fmt"
	"time"

	"quiz-play-service/internal/domain"
)

// KeyFirstFinish is reported the first time a player completes a quiz.
const KeyFirstFinish = "first_finish"

// CompletionStore persists submitted completion records.
type CompletionStore interface {
	// Record stores the completion and reports whether it is the player's
	// first completion of that quiz.
	Record(ctx context.Context, playerID string, record domain.CompletionRecord, at time.Time) (bool, error)
}

// CompletionService is the receiving side of completion submissions.
type CompletionService struct {
	store CompletionStore
	now   func() time.Time
}

func NewCompletionService(store CompletionStore) *CompletionService {
	return &CompletionService{store: store, now: time.Now}
}

// Submit validates and stores a completion record.
func (s *CompletionService) Submit(ctx context.Context, playerID string, record domain.CompletionRecord) (domain.CompletionResponse, error) {
	if err := validateRecord(record); err != nil {
		return domain.CompletionResponse{}, err
	}
	first, err := s.store.Record(ctx, playerID, record, s.now())
	if err != nil {
		return domain.CompletionResponse{}, fmt.Errorf("record completion: %w", err)
	}
	if first {
		return domain.CompletionResponse{NewlyUnlockedAchievements: []string{KeyFirstFinish}}, nil
	}
	return domain.CompletionResponse{}, nil
}

func validateRecord(r domain.CompletionRecord) error {
	if r.QuizSlug == "" {
		return fmt.Errorf("%w: missing quiz slug", domain.ErrInvalidQuiz)
	}
	if r.TotalQuestions <= 0 || r.Score < 0 || r.Score > r.TotalQuestions || r.CompletionTimeSeconds < 0 {
		return fmt.Errorf("%w: inconsistent score %d/%d", domain.ErrInvalidQuiz, r.Score, r.TotalQuestions)
	}
	sum := 0
	for _, rs := range r.RoundScores {
		if rs.Score < 0 || rs.Score > rs.TotalQuestions {
			return fmt.Errorf("%w: round %d score %d/%d", domain.ErrInvalidQuiz, rs.RoundNumber, rs.Score, rs.TotalQuestions)
		}
		sum += rs.Score
	}
	if len(r.RoundScores) > 0 && sum != r.Score {
		return fmt.Errorf("%w: round scores sum to %d, want %d", domain.ErrInvalidQuiz, sum, r.Score)
	}
	return nil
}
