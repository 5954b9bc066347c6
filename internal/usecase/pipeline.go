package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsCommenter/internal/domain"
	"NewsCommenter/internal/ports"
	"NewsCommenter/internal/titles"
)

// TitleGate decides whether a headline is novel enough to publish.
type TitleGate interface {
	AddTitle(ctx context.Context, rawTitle string) (titles.Result, error)
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source      ports.ArticleSource
	Gate        TitleGate
	Generator   ports.CommentGenerator
	Illustrator ports.ImageGenerator
	Publisher   ports.Publisher
	MaxArticles int
	Logger      *slog.Logger
}

// Pipeline implements the fetch-dedup-generate-publish workflow.
type Pipeline struct {
	source      ports.ArticleSource
	gate        TitleGate
	generator   ports.CommentGenerator
	illustrator ports.ImageGenerator
	publisher   ports.Publisher
	maxArticles int
	logger      *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:      deps.Source,
		gate:        deps.Gate,
		generator:   deps.Generator,
		illustrator: deps.Illustrator,
		publisher:   deps.Publisher,
		maxArticles: deps.MaxArticles,
		logger:      deps.Logger,
	}
}

// ProcessDay fetches the day's articles and publishes commentary for every
// title the gate accepts. Per-article failures are logged and skipped so one
// bad article cannot stall the rest of the batch.
func (p *Pipeline) ProcessDay(ctx context.Context, day time.Time) error {
	if p.source == nil || p.gate == nil {
		return fmt.Errorf("pipeline misconfigured: source and gate are required")
	}

	articles, err := p.source.FetchDaily(ctx, day)
	if err != nil {
		return fmt.Errorf("fetch daily: %w", err)
	}

	if p.maxArticles > 0 && len(articles) > p.maxArticles {
		articles = articles[:p.maxArticles]
	}

	published := 0
	for _, article := range articles {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if p.processArticle(ctx, article) {
			published++
		}
	}

	p.info("day processed", "day", day.Format("2006-01-02"), "articles", len(articles), "published", published)
	return nil
}

func (p *Pipeline) processArticle(ctx context.Context, article domain.Article) bool {
	result, err := p.gate.AddTitle(ctx, article.Title)
	if err != nil {
		if errors.Is(err, titles.ErrEmptyTitle) {
			p.warn("skipping article without usable title", "url", article.URL)
		} else {
			p.error("title gate failed", "title", article.Title, "error", err)
		}
		return false
	}

	if !result.Accepted {
		p.info("skipping duplicate title", "title", article.Title, "matches", len(result.Matches))
		return false
	}

	post := article.Title
	if p.generator != nil {
		post, err = p.generator.Generate(ctx, article.Title)
		if err != nil {
			p.error("generate comment failed", "title", article.Title, "error", err)
			return false
		}
	}

	var image []byte
	if p.illustrator != nil {
		image, err = p.illustrator.Generate(ctx, post)
		if err != nil {
			// A missing illustration is not worth dropping the post over.
			p.warn("generate image failed, posting text only", "title", article.Title, "error", err)
			image = nil
		}
	}

	if p.publisher == nil {
		return true
	}

	text := post
	if article.URL != "" {
		text = fmt.Sprintf("%s\n\n%s", post, article.URL)
	}

	if err := p.publisher.Publish(ctx, text, image); err != nil {
		p.error("publish failed", "title", article.Title, "error", err)
		return false
	}

	return true
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) error(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
