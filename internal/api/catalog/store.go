package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-journeymate/app/observability/metrics"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// ErrCatalogLoad matches every *LoadError with errors.Is.
var ErrCatalogLoad = errors.New("catalog load failed")

// LoadError reports a failed fetch from the tour or category collaborator.
// The store never retries; callers offer a manual retry.
type LoadError struct {
	Op  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("catalog load failed (%s): %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrCatalogLoad }

// Source fetches tours and categories from the remote API.
type Source interface {
	Tours(ctx context.Context, categoryID *int64) ([]types.Tour, error)
	Categories(ctx context.Context) ([]types.Category, error)
}

// Store holds the last successfully fetched catalog.
type Store struct {
	source Source
	logger *slog.Logger

	mu         sync.RWMutex
	tours      []types.Tour
	categories []types.Category
	byID       map[int64]int
	loadedAt   time.Time
}

func NewStore(source Source, logger *slog.Logger) *Store {
	return &Store{
		source:     source,
		logger:     logger,
		tours:      []types.Tour{},
		categories: []types.Category{},
		byID:       map[int64]int{},
	}
}

// LoadCatalog fetches tours and categories concurrently and replaces the held
// lists. On failure the previous catalog is kept.
func (s *Store) LoadCatalog(ctx context.Context) ([]types.Tour, []types.Category, error) {
	ctx, span := otel.Tracer("CatalogStore").Start(ctx, "LoadCatalog")
	defer span.End()

	l := s.logger.With(slog.String("method", "LoadCatalog"))
	m := metrics.Get()

	var (
		tours      []types.Tour
		categories []types.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tours, err = s.source.Tours(gctx, nil); err != nil {
			return &LoadError{Op: "tours", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if categories, err = s.source.Categories(gctx); err != nil {
			return &LoadError{Op: "categories", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		m.CatalogLoadErrorsTotal.Add(ctx, 1)
		l.ErrorContext(ctx, "Failed to load catalog", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog load failed")
		return nil, nil, err
	}

	if tours == nil {
		tours = []types.Tour{}
	}
	if categories == nil {
		categories = []types.Category{}
	}
	byID := make(map[int64]int, len(tours))
	for i, t := range tours {
		byID[t.ID] = i
	}

	s.mu.Lock()
	s.tours = tours
	s.categories = categories
	s.byID = byID
	s.loadedAt = time.Now()
	s.mu.Unlock()

	m.CatalogLoadsTotal.Add(ctx, 1)
	span.SetAttributes(attribute.Int("tours.count", len(tours)), attribute.Int("categories.count", len(categories)))
	span.SetStatus(codes.Ok, "catalog loaded")
	l.InfoContext(ctx, "Catalog loaded", slog.Int("tours", len(tours)), slog.Int("categories", len(categories)))
	return tours, categories, nil
}

// LoadByCategory fetches one category's tours without touching the held catalog.
func (s *Store) LoadByCategory(ctx context.Context, categoryID int64) ([]types.Tour, error) {
	ctx, span := otel.Tracer("CatalogStore").Start(ctx, "LoadByCategory", trace.WithAttributes(
		attribute.Int64("category.id", categoryID),
	))
	defer span.End()

	tours, err := s.source.Tours(ctx, &categoryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "category load failed")
		return nil, &LoadError{Op: "tours by category", Err: err}
	}
	return tours, nil
}

// Tours returns the held tours. Callers must not modify the elements.
func (s *Store) Tours() []types.Tour {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tours
}

// Categories returns the held categories.
func (s *Store) Categories() []types.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories
}

// Tour looks a tour up by id in the held catalog.
func (s *Store) Tour(id int64) (types.Tour, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return types.Tour{}, false
	}
	return s.tours[i], true
}

// LoadedAt is the time of the last successful load, zero before the first.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Loaded reports whether a catalog has been loaded at least once.
func (s *Store) Loaded() bool {
	return !s.LoadedAt().IsZero()
}
