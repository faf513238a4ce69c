package memory

import (
	"context"
	"sync"
	"time"

	"quiz-play-service/internal/domain"
)

// CompletionStore keeps submitted completions in memory.
type CompletionStore struct {
	mu      sync.Mutex
	records []StoredCompletion
	seen    map[string]struct{}
}

// StoredCompletion is one accepted submission.
type StoredCompletion struct {
	PlayerID    string
	Record      domain.CompletionRecord
	CompletedAt time.Time
}

func NewCompletionStore() *CompletionStore {
	return &CompletionStore{seen: make(map[string]struct{})}
}

func (s *CompletionStore) Record(_ context.Context, playerID string, record domain.CompletionRecord, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, StoredCompletion{PlayerID: playerID, Record: record, CompletedAt: at})
	key := playerID + "|" + record.QuizSlug
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

// Records returns a copy of everything stored.
func (s *CompletionStore) Records() []StoredCompletion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StoredCompletion, len(s.records))
	copy(out, s.records)
	return out
}
