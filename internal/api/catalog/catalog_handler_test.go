package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// MockLister is a mock implementation of Lister
type MockLister struct {
	mock.Mock
}

func (m *MockLister) Tour(ctx context.Context, id int64) (types.Tour, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Tour), args.Error(1)
}

func (m *MockLister) DiscountedTours(ctx context.Context) ([]types.Tour, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Tour), args.Error(1)
}

func (m *MockLister) LeavingSoonTours(ctx context.Context) ([]types.Tour, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Tour), args.Error(1)
}

type staticFavourites map[int64]bool

func (f staticFavourites) FavouriteChecker(context.Context) func(int64) bool {
	return func(id int64) bool { return f[id] }
}

func handlerTours() []types.Tour {
	return []types.Tour{
		{ID: 1, Title: "Karnak Temple", DestinationCity: "Luxor", Price: 100, CreationDate: date("2024-01-01"),
			StartDate: date("2025-01-01"), EndDate: date("2025-01-04")},
		{ID: 2, Title: "Felucca Ride", DestinationCity: "Aswan", Price: 50, CreationDate: date("2024-02-01")},
		{ID: 3, Title: "Luxor Balloon", DestinationCity: "Luxor", Price: 200, CreationDate: date("2024-03-01"), CategoryID: int64Ptr(2)},
	}
}

func setupCatalogHandlerTest(t *testing.T) (*chi.Mux, *MockSource, *MockLister) {
	t.Helper()
	source := new(MockSource)
	lister := new(MockLister)
	logger := slog.Default()
	store := NewStore(source, logger)
	sessions := NewSessions(store, 2, time.Minute)
	h := NewCatalogHandler(store, sessions, lister, staticFavourites{3: true}, 2, logger)

	r := chi.NewRouter()
	r.Get("/tours", h.ListTours)
	r.Get("/tours/discounted", h.ListDiscounted)
	r.Get("/tours/leaving-soon", h.ListLeavingSoon)
	r.Get("/tours/{id}", h.GetTour)
	r.Post("/catalog/reload", h.ReloadCatalog)
	r.Get("/categories", h.ListCategories)
	r.Get("/destinations", h.ListDestinations)
	r.Get("/destinations/{city}", h.GetDestination)
	r.Get("/browse", h.GetBrowse)
	r.Patch("/browse", h.UpdateBrowse)
	return r, source, lister
}

func expectCatalog(source *MockSource) {
	source.On("Tours", mock.Anything, (*int64)(nil)).Return(handlerTours(), nil).Once()
	source.On("Categories", mock.Anything).Return([]types.Category{{ID: 2, Name: "Adventure"}}, nil).Once()
}

func doRequest(r http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestCatalogHandler_ListTours(t *testing.T) {
	r, source, _ := setupCatalogHandlerTest(t)
	expectCatalog(source)

	rr := doRequest(r, http.MethodGet, "/tours?sort=price-asc&pageSize=2", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp PageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, 3, resp.TotalItems)
	require.Len(t, resp.Tours, 2)
	assert.Equal(t, int64(2), resp.Tours[0].ID)
	assert.Equal(t, int64(1), resp.Tours[1].ID)
	assert.Equal(t, 3, resp.Tours[1].DurationDays)

	rr = doRequest(r, http.MethodGet, "/tours?search=luxor&minPrice=150", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Tours, 1)
	assert.Equal(t, int64(3), resp.Tours[0].ID)
	assert.True(t, resp.Tours[0].IsFavourite)

	source.AssertExpectations(t)
}

func TestCatalogHandler_ListTours_BadQuery(t *testing.T) {
	r, _, _ := setupCatalogHandlerTest(t)
	for _, q := range []string{"minPrice=cheap", "maxPrice=x", "category=one", "page=first", "pageSize=big"} {
		rr := doRequest(r, http.MethodGet, "/tours?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestCatalogHandler_LoadFailure(t *testing.T) {
	r, source, _ := setupCatalogHandlerTest(t)
	source.On("Tours", mock.Anything, (*int64)(nil)).Return(nil, errors.New("down")).Once()
	source.On("Categories", mock.Anything).Return([]types.Category{}, nil).Maybe()

	rr := doRequest(r, http.MethodGet, "/tours", "", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["retryable"])
}

func TestCatalogHandler_Reload(t *testing.T) {
	r, source, _ := setupCatalogHandlerTest(t)
	expectCatalog(source)

	rr := doRequest(r, http.MethodPost, "/catalog/reload", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"tours":3,"categories":1}`, rr.Body.String())

	rr = doRequest(r, http.MethodGet, "/categories", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"id":2,"categoryName":"Adventure"}]`, rr.Body.String())
}

func TestCatalogHandler_GetTour(t *testing.T) {
	r, source, lister := setupCatalogHandlerTest(t)
	expectCatalog(source)
	doRequest(r, http.MethodPost, "/catalog/reload", "", nil)

	t.Run("held tour", func(t *testing.T) {
		rr := doRequest(r, http.MethodGet, "/tours/3", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var view types.TourView
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
		assert.Equal(t, "Luxor Balloon", view.Title)
		assert.True(t, view.IsFavourite)
	})

	t.Run("falls back to remote", func(t *testing.T) {
		lister.On("Tour", mock.Anything, int64(40)).Return(types.Tour{ID: 40, Title: "Siwa"}, nil).Once()
		rr := doRequest(r, http.MethodGet, "/tours/40", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Siwa")
	})

	t.Run("not found", func(t *testing.T) {
		lister.On("Tour", mock.Anything, int64(41)).Return(types.Tour{}, types.ErrNotFound).Once()
		rr := doRequest(r, http.MethodGet, "/tours/41", "", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rr := doRequest(r, http.MethodGet, "/tours/abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
	lister.AssertExpectations(t)
}

func TestCatalogHandler_RemoteLists(t *testing.T) {
	r, _, lister := setupCatalogHandlerTest(t)
	lister.On("DiscountedTours", mock.Anything).Return([]types.Tour{
		{ID: 8, Price: 80, DiscountPercentage: 20},
		{ID: 9, Price: 40, DiscountPercentage: 50},
	}, nil).Once()
	lister.On("LeavingSoonTours", mock.Anything).Return(nil, errors.New("timeout")).Once()

	rr := doRequest(r, http.MethodGet, "/tours/discounted?sort=price-asc", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp PageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Tours, 2)
	assert.Equal(t, int64(9), resp.Tours[0].ID)

	rr = doRequest(r, http.MethodGet, "/tours/leaving-soon", "", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	lister.AssertExpectations(t)
}

func TestCatalogHandler_Destinations(t *testing.T) {
	r, source, _ := setupCatalogHandlerTest(t)
	expectCatalog(source)

	rr := doRequest(r, http.MethodGet, "/destinations", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var destinations []types.Destination
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &destinations))
	require.Len(t, destinations, 2)
	assert.Equal(t, "Luxor", destinations[0].City)
	assert.Equal(t, 2, destinations[0].TourCount)

	rr = doRequest(r, http.MethodGet, "/destinations/luxor?sort=price-desc", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp PageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Tours, 2)
	assert.Equal(t, int64(3), resp.Tours[0].ID)

	rr = doRequest(r, http.MethodGet, "/destinations/Alexandria", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCatalogHandler_Browse(t *testing.T) {
	r, source, _ := setupCatalogHandlerTest(t)
	expectCatalog(source)

	rr := doRequest(r, http.MethodGet, "/browse", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	sessionID := rr.Header().Get(SessionHeader)
	require.NotEmpty(t, sessionID)

	header := map[string]string{SessionHeader: sessionID}
	rr = doRequest(r, http.MethodPatch, "/browse", `{"page": 2}`, header)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp BrowseResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, sessionID, resp.SessionID)
	assert.Equal(t, 2, resp.Page)
	require.Len(t, resp.Tours, 1)

	rr = doRequest(r, http.MethodPatch, "/browse", `{"sort": "price-desc"}`, header)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, SortPriceDesc, resp.Criteria.Sort)
	require.Len(t, resp.Tours, 2)
	assert.Equal(t, int64(3), resp.Tours[0].ID)

	rr = doRequest(r, http.MethodPatch, "/browse", `{"unknown": true}`, header)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
