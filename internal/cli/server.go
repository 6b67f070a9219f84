package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiztians/internal/app"
	"quiztians/internal/config"
	"quiztians/internal/domain"
	"quiztians/internal/infra/memory"
	pginfra "quiztians/internal/infra/postgres"
	redisinfra "quiztians/internal/infra/redis"
	"quiztians/internal/infra/sqlite"
	"quiztians/internal/session"
	transport "quiztians/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.ChapterLoader = memory.NewStaticChapterLoader(sampleChapters())
	if pool != nil {
		loader = pginfra.NewChapterLoader(pool)
	}

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var bank session.QuestionBank
	if redisClient != nil {
		bank = redisinfra.NewQuestionBank(redisClient, loader, cacheTTL)
	} else {
		bank = memory.NewQuestionBank(loader, cacheTTL)
	}

	// Stage/marker store: sqlite when a path is configured, otherwise
	// redis, otherwise process memory.
	var kv session.KV
	switch {
	case cfg.Stage.Path != "":
		store, err := sqlite.Open(cfg.Stage.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		kv = store
	case redisClient != nil:
		kv = redisinfra.NewKV(redisClient, "quiztians:")
	default:
		kv = memory.NewKV()
	}

	var results session.ResultStore
	var source app.ResultSource
	var feed app.ChangeFeed
	if pool != nil {
		var notifier pginfra.Notifier
		if redisClient != nil {
			redisFeed := redisinfra.NewChangeFeed(redisClient)
			notifier = redisFeed
			feed = redisFeed
		} else {
			localFeed := memory.NewChangeFeed()
			notifier = localFeed
			feed = localFeed
		}
		store := pginfra.NewResultStore(pool, notifier)
		results = store
		source = store
	} else {
		store := memory.NewResultStore()
		results = store
		source = store
		feed = store
	}

	defaults := app.SessionDefaults{
		Duration:     cfg.QuizDuration(10 * time.Minute),
		AdvanceDelay: config.TTLDuration(cfg.Quiz.AdvanceDelay, 2*time.Second),
	}
	sessions := app.NewSessionFactory(bank, results, kv, defaults)
	standings := app.NewStandingsService(source, feed)
	defer standings.Close()

	router := transport.NewRouter(
		transport.NewSessionHandler(sessions),
		transport.NewStandingsHandler(standings),
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiztians on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleChapters provides a minimal chapter set for running without
// Postgres; production loads chapters from the chapters table.
func sampleChapters() map[string]domain.Chapter {
	return map[string]domain.Chapter{
		"chapter-1": {
			ID:    "chapter-1",
			Title: "General Knowledge",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: domain.Localized{English: "What is 2 + 2?", Tamil: "2 + 2 என்ன?"},
					Options: []domain.Localized{
						{English: "3", Tamil: "3"},
						{English: "4", Tamil: "4"},
						{English: "5", Tamil: "5"},
						{English: "6", Tamil: "6"},
					},
					Answer: domain.Localized{English: "4", Tamil: "4"},
				},
			},
		},
	}
}
