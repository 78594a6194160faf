package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhishek622/quizforge/internal/backup"
	"github.com/abhishek622/quizforge/internal/cache"
	"github.com/abhishek622/quizforge/internal/config"
	"github.com/abhishek622/quizforge/internal/controller"
	"github.com/abhishek622/quizforge/internal/database"
	"github.com/abhishek622/quizforge/internal/fetcher"
	"github.com/abhishek622/quizforge/internal/groq"
	"github.com/abhishek622/quizforge/internal/logger"
	"github.com/abhishek622/quizforge/internal/repository"
	"github.com/abhishek622/quizforge/internal/store"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "quizforge",
	Short:         "Fetch, deduplicate and store AI-generated coding-interview questions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type application struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	db      *pgxpool.Pool
	store   *store.Store
	fetcher *fetcher.Fetcher
	backup  *backup.Backup
	llm     *groq.Client
}

// loadEnv builds config and logger for commands that never touch the
// database or the completion API.
func loadEnv() (*config.Config, *zap.SugaredLogger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	zl, err := logger.NewLogger(cfg.Env, verbose)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() { _ = zl.Sync() }
	return cfg, zl.Sugar(), cleanup, nil
}

// newApplication wires the full pipeline: store handles are constructed and
// passed down explicitly, never reached through globals.
func newApplication(ctx context.Context) (*application, func(), error) {
	cfg, sugar, envCleanup, err := loadEnv()
	if err != nil {
		return nil, nil, err
	}

	pool, err := database.Connect(ctx, cfg.DB.DSN, cfg.DB.MaxConns, cfg.DB.MaxConnLifetime)
	if err != nil {
		envCleanup()
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	repo := repository.NewRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		envCleanup()
		return nil, nil, err
	}

	var corpusCache store.CorpusCache
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := cache.Ping(ctx, rdb); err != nil {
			sugar.Warnw("redis unreachable, corpus cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			corpusCache = cache.NewCorpus(rdb, cfg.Redis.TTL)
		}
	}

	llm := groq.NewClient(
		cfg.Groq.APIKey,
		cfg.Groq.Model,
		cfg.Groq.Timeout,
		groq.WithRetry(cfg.Groq.MaxRetries, cfg.Groq.RetryDelay),
	)

	app := &application{
		cfg:     cfg,
		log:     sugar,
		db:      pool,
		store:   store.New(repo.Question, corpusCache, cfg.Topics, sugar),
		fetcher: fetcher.New(llm, sugar),
		backup:  backup.New(cfg.Backup.Dir, sugar),
		llm:     llm,
	}
	cleanup := func() {
		pool.Close()
		envCleanup()
	}
	return app, cleanup, nil
}

// newController builds a session controller from the fetch configuration.
func (app *application) newController() *controller.Controller {
	opts := controller.Options{
		TargetCeiling:          app.cfg.Fetch.TargetCeiling,
		AllowedBatchSizes:      app.cfg.Fetch.AllowedBatchSizes,
		MaxConsecutiveFailures: app.cfg.Fetch.MaxConsecutiveFailures,
		RetryDelay:             app.cfg.Fetch.RetryDelay,
		DelayBetweenBatches:    app.cfg.Fetch.DelayBetweenBatches,
		ProgressInterval:       app.cfg.Fetch.ProgressInterval,
	}
	return controller.New(app.fetcher, app.store, opts, app.log)
}
