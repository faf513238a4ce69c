package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"quiz-play-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, slug string) (domain.Quiz, error)
	NewestSlug(ctx context.Context) (string, error)
}

// QuizRepository caches quizzes with TTL to avoid repeated DB hits.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, slug string) (domain.Quiz, error) {
	if quiz, ok := r.cached(slug); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(slug, func() (interface{}, error) {
		if quiz, ok := r.cached(slug); ok {
			return quiz, nil
		}
		quiz, err := r.loader.LoadQuiz(ctx, slug)
		if err != nil {
			return domain.Quiz{}, err
		}
		r.mu.Lock()
		r.cache[slug] = cachedQuiz{
			quiz:      quiz,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// NewestSlug is not cached; publishing a quiz must be visible immediately.
func (r *QuizRepository) NewestSlug(ctx context.Context) (string, error) {
	return r.loader.NewestSlug(ctx)
}

func (r *QuizRepository) cached(slug string) (domain.Quiz, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[slug]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuizLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, slug string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[slug]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

// NewestSlug returns the most recently published quiz.
func (l *StaticQuizLoader) NewestSlug(_ context.Context) (string, error) {
	var newest domain.Quiz
	for _, q := range l.quizzes {
		if newest.Slug == "" || q.PublishedAt.After(newest.PublishedAt) ||
			(q.PublishedAt.Equal(newest.PublishedAt) && q.Slug > newest.Slug) {
			newest = q
		}
	}
	if newest.Slug == "" {
		return "", domain.ErrQuizNotFound
	}
	return newest.Slug, nil
}
