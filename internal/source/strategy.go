package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsCommenter/internal/config"
	"NewsCommenter/internal/domain"
	"NewsCommenter/internal/ports"
)

// StrategySource implements ArticleSource via registered provider strategies.
type StrategySource struct {
	registry *Registry
	search   config.SearchConfig
	feeds    []config.FeedConfig
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires the provider registry with config-defined feeds.
func NewStrategySource(reg *Registry, search config.SearchConfig, feeds []config.FeedConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		search:   search,
		feeds:    feeds,
		logger:   log,
	}
}

// FetchDaily iterates over configured feeds and executes their providers.
func (s *StrategySource) FetchDaily(ctx context.Context, day time.Time) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("source registry is not configured")
	}

	s.debug("fetch daily", "feeds", len(s.feeds), "day", day.Format("2006-01-02"))

	var aggregated []domain.Article
	for _, feed := range s.feeds {
		s.debug("process feed", "feed", feed.Name, "source", feed.Source)
		strategy, err := s.registry.Resolve(feed.Source)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", feed.Name, err)
		}

		req := Request{
			Day:       day,
			Keyword:   s.search.Keyword,
			Countries: s.search.Countries,
			Language:  s.search.Language,
			Options:   feed.Options,
		}

		results, err := strategy.Fetch(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("fetch feed %s: %w", feed.Name, err)
		}

		for i := range results {
			if results[i].Source == "" {
				results[i].Source = feed.Name
			}
		}
		s.debug("feed produced articles", "feed", feed.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	s.debug("strategy source done", "total_articles", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
