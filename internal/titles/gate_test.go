package titles

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"NewsCommenter/internal/domain"
	"NewsCommenter/internal/ports"
)

// fakeStore implements ports.TitleStore in memory. FindSimilar scores 1.0 for
// an exact normalized match and 0 otherwise; the unique constraint is enforced
// inside Insert under a mutex, like the real backend does.
type fakeStore struct {
	mu      sync.Mutex
	records []domain.TitleRecord
	nextID  int64

	findErr    error
	insertErr  error
	skipLookup bool
}

var _ ports.TitleStore = (*fakeStore)(nil)

func (f *fakeStore) InitSchema(ctx context.Context) error {
	return nil
}

func (f *fakeStore) FindSimilar(ctx context.Context, normalizedTitle string, minSimilarity float64) ([]domain.SimilarityMatch, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.skipLookup {
		return nil, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var matches []domain.SimilarityMatch
	for _, record := range f.records {
		if record.NormalizedTitle == normalizedTitle && 1.0 > minSimilarity {
			matches = append(matches, domain.SimilarityMatch{Record: record, Score: 1.0})
		}
	}
	return matches, nil
}

func (f *fakeStore) Insert(ctx context.Context, rawTitle, normalizedTitle string) (domain.TitleRecord, error) {
	if f.insertErr != nil {
		return domain.TitleRecord{}, f.insertErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, record := range f.records {
		if record.NormalizedTitle == normalizedTitle {
			return domain.TitleRecord{}, fmt.Errorf("title %q: %w", normalizedTitle, ports.ErrDuplicateTitle)
		}
	}

	f.nextID++
	record := domain.TitleRecord{
		ID:              f.nextID,
		RawTitle:        rawTitle,
		NormalizedTitle: normalizedTitle,
		CreatedAt:       time.Now().UTC(),
	}
	f.records = append(f.records, record)
	return record, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func TestGateAcceptsNewTitle(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	gate := NewGate(store, 0, nil)

	result, err := gate.AddTitle(context.Background(), "Scientists Discover New Planet")
	if err != nil {
		t.Fatalf("AddTitle error: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("expected acceptance, got %+v", result)
	}
	if result.Record.RawTitle != "Scientists Discover New Planet" {
		t.Fatalf("unexpected raw title: %q", result.Record.RawTitle)
	}
	if result.Record.NormalizedTitle != "scientists discover new planet" {
		t.Fatalf("unexpected normalized title: %q", result.Record.NormalizedTitle)
	}
	if store.count() != 1 {
		t.Fatalf("expected 1 stored record, got %d", store.count())
	}
}

func TestGateRejectsDuplicateTitle(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	gate := NewGate(store, 0, nil)
	ctx := context.Background()

	if _, err := gate.AddTitle(ctx, "Scientists Discover New Planet"); err != nil {
		t.Fatalf("first AddTitle error: %v", err)
	}

	result, err := gate.AddTitle(ctx, "Scientists discover new planet!!")
	if err != nil {
		t.Fatalf("second AddTitle error: %v", err)
	}
	if result.Accepted {
		t.Fatalf("expected rejection for duplicate title")
	}
	if len(result.Matches) == 0 {
		t.Fatalf("expected at least one similarity match")
	}
	if result.Matches[0].Score != 1.0 {
		t.Fatalf("expected exact-match score 1.0, got %v", result.Matches[0].Score)
	}
	if store.count() != 1 {
		t.Fatalf("rejected title must not be persisted, got %d records", store.count())
	}
}

func TestGateAcceptsUnrelatedTitle(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	gate := NewGate(store, 0, nil)
	ctx := context.Background()

	seeded := []string{
		"Climate Change Threatens Coastal Cities",
		"Global Warming Hits New Record",
	}
	for _, title := range seeded {
		if _, err := gate.AddTitle(ctx, title); err != nil {
			t.Fatalf("seed %q: %v", title, err)
		}
	}

	result, err := gate.AddTitle(ctx, "Totally unrelated headline about sports")
	if err != nil {
		t.Fatalf("AddTitle error: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("expected acceptance of unrelated title, got %+v", result)
	}
}

func TestGateEmptyTitle(t *testing.T) {
	t.Parallel()

	gate := NewGate(&fakeStore{}, 0, nil)

	for _, input := range []string{"", "   ", "?!..."} {
		_, err := gate.AddTitle(context.Background(), input)
		if !errors.Is(err, ErrEmptyTitle) {
			t.Fatalf("AddTitle(%q): expected ErrEmptyTitle, got %v", input, err)
		}
	}
}

func TestGatePropagatesStoreFailure(t *testing.T) {
	t.Parallel()

	storeErr := fmt.Errorf("query timeout: %w", ports.ErrStoreUnavailable)
	gate := NewGate(&fakeStore{findErr: storeErr}, 0, nil)

	_, err := gate.AddTitle(context.Background(), "Some Headline")
	if !errors.Is(err, ports.ErrStoreUnavailable) {
		t.Fatalf("expected store failure to propagate, got %v", err)
	}
}

func TestGatePropagatesInsertFailure(t *testing.T) {
	t.Parallel()

	storeErr := fmt.Errorf("connection reset: %w", ports.ErrStoreUnavailable)
	gate := NewGate(&fakeStore{insertErr: storeErr}, 0, nil)

	_, err := gate.AddTitle(context.Background(), "Some Headline")
	if !errors.Is(err, ports.ErrStoreUnavailable) {
		t.Fatalf("expected insert failure to propagate, got %v", err)
	}
}

func TestGateTreatsLostRaceAsRejection(t *testing.T) {
	t.Parallel()

	store := &fakeStore{insertErr: fmt.Errorf("dup: %w", ports.ErrDuplicateTitle)}
	gate := NewGate(store, 0, nil)

	result, err := gate.AddTitle(context.Background(), "Some Headline")
	if err != nil {
		t.Fatalf("lost race must not surface as error, got %v", err)
	}
	if result.Accepted {
		t.Fatalf("lost race must be a rejection")
	}
	if len(result.Matches) != 0 {
		t.Fatalf("lost race carries no matches, got %d", len(result.Matches))
	}
}

func TestGateConcurrentIdenticalTitles(t *testing.T) {
	t.Parallel()

	// skipLookup makes every contender pass the similarity check, modelling
	// the window between the check and the insert. The store's uniqueness
	// constraint must still let exactly one insert through.
	store := &fakeStore{skipLookup: true}
	gate := NewGate(store, 0, nil)

	const contenders = 8
	results := make([]Result, contenders)
	errs := make([]error, contenders)

	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = gate.AddTitle(context.Background(), "Scientists Discover New Planet")
		}(i)
	}
	wg.Wait()

	accepted := 0
	for i := 0; i < contenders; i++ {
		if errs[i] != nil {
			t.Fatalf("contender %d returned error: %v", i, errs[i])
		}
		if results[i].Accepted {
			accepted++
		}
	}

	if accepted != 1 {
		t.Fatalf("expected exactly one acceptance, got %d", accepted)
	}
	if store.count() != 1 {
		t.Fatalf("expected exactly one stored record, got %d", store.count())
	}
}
