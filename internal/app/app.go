package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsCommenter/internal/config"
	"NewsCommenter/internal/infrastructure/gdelt"
	"NewsCommenter/internal/infrastructure/googlenews"
	"NewsCommenter/internal/infrastructure/image"
	"NewsCommenter/internal/infrastructure/llm"
	"NewsCommenter/internal/infrastructure/scheduler"
	"NewsCommenter/internal/infrastructure/storage"
	"NewsCommenter/internal/infrastructure/telegram"
	"NewsCommenter/internal/logging"
	"NewsCommenter/internal/ports"
	"NewsCommenter/internal/source"
	"NewsCommenter/internal/titles"
	"NewsCommenter/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	return &Application{cfg: cfg, logger: baseLogger}
}

// Run connects to storage, initializes the title schema and executes the
// pipeline: once when no cron expression is configured, otherwise once
// immediately and then on the cron cadence until the context is canceled.
func (a *Application) Run(ctx context.Context) error {
	db, err := storage.Open(ctx, a.cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("connect storage: %w", err)
	}
	defer db.Close()

	store := storage.NewPostgresStore(db)
	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	pipeline := a.buildPipeline(store)

	now := time.Now().In(a.cfg.Scheduler.Location())
	if err := pipeline.ProcessDay(ctx, now); err != nil {
		return err
	}

	if a.cfg.Scheduler.CronExpression == "" {
		return nil
	}

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	runner := usecase.NewScheduler(driver, pipeline, a.logger.With("component", "scheduler"))
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression)
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return runner.Stop(stopCtx)
}

func (a *Application) buildPipeline(store ports.TitleStore) *usecase.Pipeline {
	registry := source.NewRegistry()
	registry.Register(gdelt.NewClient(nil))
	registry.Register(googlenews.NewFeed())

	articles := source.NewStrategySource(registry, a.cfg.Search, a.cfg.Feeds, a.logger.With("component", "source"))

	gate := titles.NewGate(store, a.cfg.Dedup.MinSimilarity, a.logger.With("component", "gate"))

	var generator ports.CommentGenerator
	if a.cfg.HuggingFace.TextToken != "" {
		generator = llm.NewHuggingFaceClient(a.cfg.HuggingFace)
	}

	var illustrator ports.ImageGenerator
	if a.cfg.HuggingFace.ImageToken != "" {
		illustrator = image.NewHuggingFaceClient(a.cfg.HuggingFace)
	}

	var publisher ports.Publisher
	if a.cfg.Notifications.Telegram.BotToken != "" {
		publisher = telegram.NewPublisher(
			a.cfg.Notifications.Telegram.BotToken,
			a.cfg.Notifications.Telegram.ChatID,
		)
	}

	return usecase.NewPipeline(usecase.PipelineDeps{
		Source:      articles,
		Gate:        gate,
		Generator:   generator,
		Illustrator: illustrator,
		Publisher:   publisher,
		MaxArticles: a.cfg.Search.MaxArticles,
		Logger:      a.logger.With("component", "pipeline"),
	})
}
