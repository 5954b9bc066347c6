package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsCommenter/internal/domain"
	"NewsCommenter/internal/ports"
)

const uniqueViolationCode = "23505"

// Schema for the title log. The unique index on normalized_title is what makes
// concurrent inserts of the same title race-safe; the GIN trigram index backs
// the similarity() lookup.
const schema = `
CREATE EXTENSION IF NOT EXISTS pg_trgm;

CREATE TABLE IF NOT EXISTS news_titles (
    id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    title TEXT NOT NULL,
    normalized_title TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT TIMEZONE('utc', NOW())
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_news_titles_normalized_title
    ON news_titles (normalized_title);

CREATE INDEX IF NOT EXISTS idx_news_titles_normalized_title_trgm
    ON news_titles USING GIN (normalized_title gin_trgm_ops);
`

// PostgresStore persists seen titles and answers trigram-similarity queries.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.TitleStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// InitSchema creates the table, extension and indexes. Safe to call on an
// already-initialized database.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("%w: no database handle", ports.ErrStoreUnavailable)
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w: %v", ports.ErrStoreUnavailable, err)
	}

	return nil
}

// FindSimilar scores every stored normalized title against the given text with
// pg_trgm similarity() and returns matches strictly above minSimilarity,
// ordered by score descending, ties broken by earliest created_at.
func (s *PostgresStore) FindSimilar(ctx context.Context, normalizedTitle string, minSimilarity float64) ([]domain.SimilarityMatch, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: no database handle", ports.ErrStoreUnavailable)
	}

	query, args, err := s.findSimilarQuery(normalizedTitle, minSimilarity).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build similarity query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query similar titles: %w: %v", ports.ErrStoreUnavailable, err)
	}

	matches := make([]domain.SimilarityMatch, 0)
	for rows.Next() {
		var match domain.SimilarityMatch
		if err := rows.Scan(
			&match.Record.ID,
			&match.Record.RawTitle,
			&match.Record.NormalizedTitle,
			&match.Score,
			&match.Record.CreatedAt,
		); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan match: %w: %v", ports.ErrStoreUnavailable, err)
		}
		matches = append(matches, match)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w: %v", ports.ErrStoreUnavailable, rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w: %v", ports.ErrStoreUnavailable, closeErr)
	}

	return matches, nil
}

func (s *PostgresStore) findSimilarQuery(normalizedTitle string, minSimilarity float64) sq.SelectBuilder {
	return s.builder.
		Select("id", "title", "normalized_title").
		Column(sq.Alias(sq.Expr("similarity(normalized_title, ?)", normalizedTitle), "score")).
		Column("created_at").
		From("news_titles").
		Where(sq.Expr("similarity(normalized_title, ?) > ?", normalizedTitle, minSimilarity)).
		OrderBy("score DESC", "created_at ASC")
}

// Insert appends a title record and returns it with the assigned id and
// timestamp. A normalized-title collision surfaces as ports.ErrDuplicateTitle;
// the uniqueness check happens inside the insert itself, so two concurrent
// inserts of the same normalized text can never both succeed.
func (s *PostgresStore) Insert(ctx context.Context, rawTitle, normalizedTitle string) (domain.TitleRecord, error) {
	if s.db == nil {
		return domain.TitleRecord{}, fmt.Errorf("%w: no database handle", ports.ErrStoreUnavailable)
	}

	query, args, err := s.builder.
		Insert("news_titles").
		Columns("title", "normalized_title").
		Values(rawTitle, normalizedTitle).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return domain.TitleRecord{}, fmt.Errorf("build insert query: %w", err)
	}

	record := domain.TitleRecord{RawTitle: rawTitle, NormalizedTitle: normalizedTitle}
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.TitleRecord{}, fmt.Errorf("title %q: %w", normalizedTitle, ports.ErrDuplicateTitle)
		}
		return domain.TitleRecord{}, fmt.Errorf("insert title: %w: %v", ports.ErrStoreUnavailable, err)
	}

	return record, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}
