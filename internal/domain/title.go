package domain

import "time"

// TitleRecord is a persisted headline used for deduplication. Records are
// append-only: once stored they are never updated or deleted.
type TitleRecord struct {
	ID              int64
	RawTitle        string
	NormalizedTitle string
	CreatedAt       time.Time
}

// SimilarityMatch is a transient result of a fuzzy title lookup. Score is a
// trigram similarity in [0, 1], higher meaning more similar.
type SimilarityMatch struct {
	Record TitleRecord
	Score  float64
}
