package app

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
	"quiz-play-service/internal/domain"
)

// PersistedStore is a durable key/value store scoped to one device session.
// Implementations may fail; callers degrade to no-ops instead of surfacing errors.
type PersistedStore interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// StoreProvider hands out a PersistedStore scoped to a device.
type StoreProvider interface {
	Scope(deviceID string) PersistedStore
}

func timerKey(quizSlug string) string {
	return "timer:" + quizSlug
}

func completionKey(quizSlug string) string {
	return "completion:" + quizSlug
}

// LoadCompletionCache returns the cached best result for a quiz, if any.
func LoadCompletionCache(store PersistedStore, quizSlug string) (domain.CompletionCache, bool) {
	raw, ok, err := store.Get(completionKey(quizSlug))
	if err != nil || !ok {
		return domain.CompletionCache{}, false
	}
	var cache domain.CompletionCache
	if err := json.Unmarshal(raw, &cache); err != nil {
		return domain.CompletionCache{}, false
	}
	return cache, true
}

// saveBestCompletion writes the cache only when no entry exists or the new score is strictly higher.
func saveBestCompletion(store PersistedStore, quizSlug string, next domain.CompletionCache, log logrus.FieldLogger) bool {
	if current, ok := LoadCompletionCache(store, quizSlug); ok && current.Score >= next.Score {
		return false
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return false
	}
	if err := store.Set(completionKey(quizSlug), raw); err != nil {
		log.WithError(err).WithField("quiz", quizSlug).Debug("completion cache write skipped")
		return false
	}
	return true
}
