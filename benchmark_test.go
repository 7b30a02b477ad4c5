package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/go-journeymate/internal/api/catalog"
	"github.com/FACorreiaa/go-journeymate/internal/api/interactions"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// staticCatalog serves a fixed tour list to the catalog store and handler.
type staticCatalog struct {
	tours []types.Tour
}

func (s staticCatalog) Tours(context.Context, *int64) ([]types.Tour, error) { return s.tours, nil }

func (s staticCatalog) Categories(context.Context) ([]types.Category, error) {
	return []types.Category{{ID: 1, Name: "Nile"}, {ID: 2, Name: "Desert"}}, nil
}

func (s staticCatalog) Tour(_ context.Context, id int64) (types.Tour, error) {
	for _, t := range s.tours {
		if t.ID == id {
			return t, nil
		}
	}
	return types.Tour{}, types.ErrNotFound
}

func (s staticCatalog) DiscountedTours(context.Context) ([]types.Tour, error)  { return s.tours, nil }
func (s staticCatalog) LeavingSoonTours(context.Context) ([]types.Tour, error) { return s.tours, nil }

type noFavourites struct{}

func (noFavourites) FavouriteChecker(context.Context) func(int64) bool {
	return func(int64) bool { return false }
}

func benchmarkTours(n int) []types.Tour {
	rng := rand.New(rand.NewSource(42))
	cities := []string{"Cairo", "Luxor", "Aswan", "Hurghada", "Siwa"}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tours := make([]types.Tour, n)
	for i := range tours {
		category := int64(rng.Intn(4) + 1)
		tours[i] = types.Tour{
			ID:              int64(i + 1),
			Title:           fmt.Sprintf("Tour %d", i+1),
			DestinationCity: cities[rng.Intn(len(cities))],
			Price:           float64(rng.Intn(12000)),
			Rating:          float64(rng.Intn(50)) / 10,
			CreationDate:    base.Add(time.Duration(rng.Intn(365*24)) * time.Hour),
			StartDate:       base.Add(time.Duration(rng.Intn(365*24)) * time.Hour),
			CategoryID:      &category,
		}
	}
	return tours
}

func setupBenchmarkRouter(b *testing.B, tours []types.Tour) http.Handler {
	b.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := staticCatalog{tours: tours}
	store := catalog.NewStore(source, logger)
	if _, _, err := store.LoadCatalog(context.Background()); err != nil {
		b.Fatalf("load catalog: %v", err)
	}
	h := catalog.NewCatalogHandler(store, catalog.NewSessions(store, 5, time.Minute), source, noFavourites{}, 5, logger)

	r := chi.NewRouter()
	r.Get("/tours", h.ListTours)
	r.Get("/destinations", h.ListDestinations)
	return r
}

func BenchmarkDerive(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		tours := benchmarkTours(n)
		criteria := catalog.DefaultCriteria()
		criteria.SearchTerm = "cairo"
		criteria.Sort = catalog.SortPriceAsc

		b.Run(strconv.Itoa(n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = catalog.Derive(tours, criteria, 2, 5)
			}
		})
	}
}

func BenchmarkListToursEndpoint(b *testing.B) {
	r := setupBenchmarkRouter(b, benchmarkTours(1000))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tours?sort=rating-desc&minPrice=100&maxPrice=5000&page=3", nil))
		if rr.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rr.Code)
		}
	}
}

func BenchmarkListToursEndpointParallel(b *testing.B) {
	r := setupBenchmarkRouter(b, benchmarkTours(1000))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tours?search=luxor", nil))
			if rr.Code != http.StatusOK {
				b.Errorf("unexpected status %d", rr.Code)
			}
		}
	})
}

func BenchmarkDestinationsEndpoint(b *testing.B) {
	r := setupBenchmarkRouter(b, benchmarkTours(1000))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/destinations", nil))
		if rr.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rr.Code)
		}
	}
}

func BenchmarkMemoryStoreSave(b *testing.B) {
	store := interactions.NewMemoryStore()
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rec := interactions.WithTotal(types.Interaction{
			UserID:   "bench-user",
			ID:       strconv.Itoa(i % 500),
			Type:     types.SubjectTravel,
			Checkout: i % 7,
			Like:     i%2 == 0,
		})
		if err := store.Save(ctx, rec); err != nil {
			b.Fatal(err)
		}
	}
}
