package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-play-service/internal/domain"
)

// QuizLoader loads quiz JSONB from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, slug string) (domain.Quiz, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE slug=$1`, slug).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}

// NewestSlug returns the slug of the most recently published quiz.
func (l *QuizLoader) NewestSlug(ctx context.Context) (string, error) {
	var slug string
	err := l.pool.QueryRow(ctx, `SELECT slug FROM quizzes ORDER BY published_at DESC, slug DESC LIMIT 1`).Scan(&slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrQuizNotFound
	}
	if err != nil {
		return "", fmt.Errorf("newest quiz: %w", err)
	}
	return slug, nil
}

// SaveQuiz upserts a quiz definition.
func (l *QuizLoader) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO quizzes (slug, title, published_at, data)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (slug) DO UPDATE
		SET title=EXCLUDED.title, published_at=EXCLUDED.published_at, data=EXCLUDED.data`,
		quiz.Slug, quiz.Title, quiz.PublishedAt, string(data))
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}
