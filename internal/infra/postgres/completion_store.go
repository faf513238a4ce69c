package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"quiz-play-service/internal/domain"
)

// CompletionRow is one stored completion submission.
type CompletionRow struct {
	bun.BaseModel `bun:"table:quiz_completions"`

	ID                    int64               `bun:"id,pk,autoincrement"`
	PlayerID              string              `bun:"player_id,notnull"`
	QuizSlug              string              `bun:"quiz_slug,notnull"`
	Score                 int                 `bun:"score,notnull"`
	TotalQuestions        int                 `bun:"total_questions,notnull"`
	CompletionTimeSeconds int                 `bun:"completion_time_seconds,notnull"`
	RoundScores           []domain.RoundScore `bun:"round_scores,type:jsonb"`
	Categories            []string            `bun:"categories,type:jsonb"`
	CompletedAt           time.Time           `bun:"completed_at,notnull"`
}

// FirstFinishRow marks the first completion of a quiz by a player.
type FirstFinishRow struct {
	bun.BaseModel `bun:"table:quiz_first_finishes"`

	PlayerID   string    `bun:"player_id,pk"`
	QuizSlug   string    `bun:"quiz_slug,pk"`
	FinishedAt time.Time `bun:"finished_at,notnull"`
}

// CompletionStore persists completions with bun.
type CompletionStore struct {
	db *bun.DB
}

func NewCompletionStore(db *bun.DB) *CompletionStore {
	return &CompletionStore{db: db}
}

// Record inserts the completion and claims the player's first finish of the
// quiz. The claim relies on the (player_id, quiz_slug) primary key, so
// concurrent submissions cannot both see themselves as first.
func (s *CompletionStore) Record(ctx context.Context, playerID string, record domain.CompletionRecord, at time.Time) (bool, error) {
	first := false
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := &CompletionRow{
			PlayerID:              playerID,
			QuizSlug:              record.QuizSlug,
			Score:                 record.Score,
			TotalQuestions:        record.TotalQuestions,
			CompletionTimeSeconds: record.CompletionTimeSeconds,
			RoundScores:           record.RoundScores,
			Categories:            record.Categories,
			CompletedAt:           at,
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}

		res, err := tx.NewInsert().
			Model(&FirstFinishRow{PlayerID: playerID, QuizSlug: record.QuizSlug, FinishedAt: at}).
			On("CONFLICT (player_id, quiz_slug) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("claim first finish: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("claim first finish: %w", err)
		}
		first = n == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return first, nil
}

// BestScore returns the highest recorded score of a player for a quiz.
func (s *CompletionStore) BestScore(ctx context.Context, playerID, quizSlug string) (int, bool, error) {
	var row CompletionRow
	err := s.db.NewSelect().
		Model(&row).
		Where("player_id = ?", playerID).
		Where("quiz_slug = ?", quizSlug).
		Order("score DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return row.Score, true, nil
}
