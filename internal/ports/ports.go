package ports

import (
	"context"
	"errors"
	"time"

	"NewsCommenter/internal/domain"
)

// ErrDuplicateTitle reports a normalized title that already exists in storage.
// It signals a lost insert race, not a storage failure.
var ErrDuplicateTitle = errors.New("normalized title already stored")

// ErrStoreUnavailable wraps connectivity or query failures of the title store.
var ErrStoreUnavailable = errors.New("title store unavailable")

// ArticleSource pulls fresh articles from upstream news providers.
type ArticleSource interface {
	FetchDaily(ctx context.Context, day time.Time) ([]domain.Article, error)
}

// TitleStore persists seen titles and answers fuzzy-similarity lookups.
// FindSimilar returns matches with score strictly above minSimilarity, ordered
// by score descending, ties broken by earliest CreatedAt. Insert fails with
// ErrDuplicateTitle when the normalized title is already stored; every other
// failure wraps ErrStoreUnavailable.
type TitleStore interface {
	InitSchema(ctx context.Context) error
	FindSimilar(ctx context.Context, normalizedTitle string, minSimilarity float64) ([]domain.SimilarityMatch, error)
	Insert(ctx context.Context, rawTitle, normalizedTitle string) (domain.TitleRecord, error)
}

// CommentGenerator produces a short humorous post for a headline.
type CommentGenerator interface {
	Generate(ctx context.Context, headline string) (string, error)
}

// ImageGenerator renders PNG bytes illustrating a generated post.
type ImageGenerator interface {
	Generate(ctx context.Context, post string) ([]byte, error)
}

// Publisher delivers a post (optionally with an image) to the channel.
type Publisher interface {
	Publish(ctx context.Context, text string, image []byte) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
