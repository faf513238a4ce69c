package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"quiz-play-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, slug string) (domain.Quiz, error)
	NewestSlug(ctx context.Context) (string, error)
}

// PlaySettings are the service-wide engine tunables.
type PlaySettings struct {
	RestrictedCeiling int
	CheckpointEvery   int
	AchievementTTL    time.Duration
	SpeedThreshold    time.Duration
	ThrowbackWeeks    int
	Streaks           []int
}

// StartRequest carries the per-session construction inputs.
type StartRequest struct {
	QuizSlug     string
	DeviceID     string
	Mode         domain.SessionMode
	Tier         domain.ViewerTier
	MaxQuestions int
}

// PlayService builds play sessions from stored quizzes.
type PlayService struct {
	quizzes  QuizRepository
	stores   StoreProvider
	settings PlaySettings
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewPlayService(quizzes QuizRepository, stores StoreProvider, settings PlaySettings, log logrus.FieldLogger) *PlayService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PlayService{quizzes: quizzes, stores: stores, settings: settings, log: log, now: time.Now}
}

// Start loads the quiz, resolves whether it is the newest one and returns a
// session bound to the device's persisted store.
func (s *PlayService) Start(ctx context.Context, req StartRequest, dispatcher Dispatcher, emit func(domain.Event)) (*Session, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, req.QuizSlug)
	if err != nil {
		return nil, err
	}

	newest := false
	if slug, err := s.quizzes.NewestSlug(ctx); err != nil {
		s.log.WithError(err).Warn("newest quiz lookup failed")
	} else {
		newest = slug == quiz.Slug
	}

	return NewSession(quiz, SessionOptions{
		Mode:              req.Mode,
		Tier:              req.Tier,
		IsNewest:          newest,
		MaxQuestions:      req.MaxQuestions,
		RestrictedCeiling: s.settings.RestrictedCeiling,
		CheckpointEvery:   s.settings.CheckpointEvery,
		AchievementTTL:    s.settings.AchievementTTL,
		SpeedThreshold:    s.settings.SpeedThreshold,
		ThrowbackWeeks:    s.settings.ThrowbackWeeks,
		Streaks:           s.settings.Streaks,
		Store:             s.stores.Scope(req.DeviceID),
		Dispatcher:        dispatcher,
		Emit:              emit,
		Now:               s.now,
		Logger:            s.log,
	})
}

// BestResult returns the device's cached best completion for a quiz.
func (s *PlayService) BestResult(deviceID, quizSlug string) (domain.CompletionCache, bool) {
	return LoadCompletionCache(s.stores.Scope(deviceID), quizSlug)
}
