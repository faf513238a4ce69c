package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"quiz-play-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, slug string) (domain.Quiz, error)
	NewestSlug(ctx context.Context) (string, error)
}

// QuizRepository caches quiz definitions in Redis as JSON and falls back to a loader on cache miss.
// Quizzes are stored as: SET quiz:{slug}:definition {json} EX ttl
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, slug string) (domain.Quiz, error) {
	if quiz, ok := r.cached(ctx, slug); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(slug, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(ctx, slug); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, slug)
		if err != nil {
			return domain.Quiz{}, err
		}

		if raw, err := json.Marshal(quiz); err == nil {
			// best-effort; a failed write only costs another load
			_ = r.client.Set(ctx, r.definitionKey(slug), raw, r.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// NewestSlug goes straight to the loader.
func (r *QuizRepository) NewestSlug(ctx context.Context) (string, error) {
	return r.loader.NewestSlug(ctx)
}

// Invalidate drops the cached definition, e.g. after an edit.
func (r *QuizRepository) Invalidate(ctx context.Context, slug string) error {
	return r.client.Del(ctx, r.definitionKey(slug)).Err()
}

func (r *QuizRepository) cached(ctx context.Context, slug string) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, r.definitionKey(slug)).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizRepository) definitionKey(slug string) string {
	return "quiz:" + slug + ":definition"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func isMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
