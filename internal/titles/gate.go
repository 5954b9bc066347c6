package titles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"NewsCommenter/internal/domain"
	"NewsCommenter/internal/ports"
)

// DefaultMinSimilarity is the trigram score above which a stored title counts
// as a duplicate.
const DefaultMinSimilarity = 0.5

// ErrEmptyTitle reports a title that is empty after normalization.
var ErrEmptyTitle = errors.New("title is empty")

// Result is the outcome of a gate decision. When Accepted is true the title
// was persisted and Record holds the stored row. Otherwise Matches carries the
// similar titles that blocked it; an empty Matches on rejection means a
// concurrent insert of the identical normalized title won the race.
type Result struct {
	Accepted bool
	Record   domain.TitleRecord
	Matches  []domain.SimilarityMatch
}

// Gate decides whether a headline is novel enough to post. It normalizes the
// title, checks the store for near-duplicates and inserts on acceptance.
type Gate struct {
	store         ports.TitleStore
	minSimilarity float64
	logger        *slog.Logger
}

// NewGate wires a title store; minSimilarity <= 0 falls back to the default.
func NewGate(store ports.TitleStore, minSimilarity float64, logger *slog.Logger) *Gate {
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}
	return &Gate{store: store, minSimilarity: minSimilarity, logger: logger}
}

// AddTitle accepts a headline if no stored title scores above the similarity
// threshold, persisting it atomically. A lost uniqueness race is reported as a
// rejection, never as an error. The check and the insert are two round-trips,
// so two distinct-but-similar titles arriving concurrently can both pass the
// check; exact duplicates are serialized by the store's unique constraint.
func (g *Gate) AddTitle(ctx context.Context, rawTitle string) (Result, error) {
	normalized := Normalize(rawTitle)
	if normalized == "" {
		return Result{}, fmt.Errorf("%w: %q", ErrEmptyTitle, rawTitle)
	}

	matches, err := g.store.FindSimilar(ctx, normalized, g.minSimilarity)
	if err != nil {
		return Result{}, fmt.Errorf("find similar for %q: %w", rawTitle, err)
	}

	if len(matches) > 0 {
		g.debug("title rejected", "title", rawTitle, "matches", len(matches), "top_score", matches[0].Score)
		return Result{Matches: matches}, nil
	}

	record, err := g.store.Insert(ctx, rawTitle, normalized)
	if err != nil {
		if errors.Is(err, ports.ErrDuplicateTitle) {
			g.debug("lost insert race", "title", rawTitle)
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("insert title %q: %w", rawTitle, err)
	}

	g.debug("title accepted", "title", rawTitle, "id", record.ID)
	return Result{Accepted: true, Record: record}, nil
}

func (g *Gate) debug(msg string, args ...interface{}) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}
