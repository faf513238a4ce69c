package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"quiz-play-service/internal/app"
	"quiz-play-service/internal/config"
	"quiz-play-service/internal/domain"
	"quiz-play-service/internal/infra/httpclient"
	"quiz-play-service/internal/infra/memory"
	pgstore "quiz-play-service/internal/infra/postgres"
	redisstore "quiz-play-service/internal/infra/redis"
	transport "quiz-play-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz play server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := config.NewLogger(cfg.Log.Level, cfg.Log.Format)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	stateTTL := config.TTLDuration(cfg.Redis.TTL, 30*24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	var completionStore app.CompletionStore = memory.NewCompletionStore()
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
		db := pgstore.OpenBun(cfg.Postgres.URL)
		defer db.Close()
		completionStore = pgstore.NewCompletionStore(db)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var stores app.StoreProvider
	if redisClient != nil {
		stores = redisstore.NewStateStore(redisClient, stateTTL)
	} else {
		stores = memory.NewStateStore()
	}

	playService := app.NewPlayService(quizRepo, stores, app.PlaySettings{
		RestrictedCeiling: cfg.Play.RestrictedCeiling,
		CheckpointEvery:   cfg.Play.CheckpointEvery,
		AchievementTTL:    config.TTLDuration(cfg.Play.AchievementTTL, 6*time.Second),
		SpeedThreshold:    config.TTLDuration(cfg.Play.SpeedThreshold, 20*time.Minute),
		ThrowbackWeeks:    cfg.Play.ThrowbackWeeks,
		Streaks:           cfg.Play.Streaks,
	}, log)

	baseURL := cfg.Completion.BaseURL
	if baseURL == "" {
		baseURL = "http://127.0.0.1:" + finalPort
	}
	submitTimeout := config.TTLDuration(cfg.Completion.Timeout, 10*time.Second)
	completionClient := httpclient.NewCompletionClient(baseURL, submitTimeout)

	playHandler := transport.NewPlayHandler(playService, func(playerID string) app.CompletionClient {
		return completionClient.ForPlayer(playerID)
	}, submitTimeout)
	completionHandler := transport.NewCompletionHandler(app.NewCompletionService(completionStore))

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(playHandler, completionHandler),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Infof("starting quiz play service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides demo data when no Postgres is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"week-1": {
			Slug:        "week-1",
			Title:       "Week 1",
			Color:       "#f97316",
			PublishedAt: time.Date(2024, 11, 22, 0, 0, 0, 0, time.UTC),
			Rounds: []domain.Round{
				{Number: 1, Title: "Warm Up", Blurb: "Easy ones first.", Type: domain.RoundStandard, Category: "General"},
				{Number: 2, Title: "Final", Blurb: "Double or nothing.", Type: domain.RoundFinale, Category: "Science"},
			},
			Questions: []domain.Question{
				{ID: "q1", Prompt: "What is 2 + 2?", Answer: "4", RoundNumber: 1},
				{ID: "q2", Prompt: "Capital of France?", Answer: "Paris", RoundNumber: 1},
				{ID: "q3", Prompt: "Chemical symbol for gold?", Answer: "Au", RoundNumber: 2},
				{ID: "q4", Prompt: "Closest planet to the sun?", Answer: "Mercury", RoundNumber: 2},
			},
		},
	}
}
