package catalog

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// fakeCatalog counts reads so tests can tell when a View re-derives.
type fakeCatalog struct {
	mu       sync.Mutex
	tours    []types.Tour
	loadedAt time.Time
	reads    int
}

func (f *fakeCatalog) Tours() []types.Tour {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.tours
}

func (f *fakeCatalog) LoadedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadedAt
}

func (f *fakeCatalog) replace(tours []types.Tour) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tours = tours
	f.loadedAt = f.loadedAt.Add(time.Second)
}

func newFakeCatalog(n int) *fakeCatalog {
	tours := make([]types.Tour, 0, n)
	for i := 1; i <= n; i++ {
		tours = append(tours, types.Tour{
			ID:              int64(i),
			Title:           "Tour",
			DestinationCity: map[bool]string{true: "Luxor", false: "Cairo"}[i%2 == 0],
			Price:           float64(i * 10),
		})
	}
	return &fakeCatalog{tours: tours, loadedAt: time.Unix(1000, 0)}
}

func TestView_CriteriaChangeResetsPage(t *testing.T) {
	catalog := newFakeCatalog(12)
	view := NewView(catalog, 5)

	view.SetPage(3)
	require.Equal(t, 3, view.Page())
	assert.Len(t, view.Result().Visible, 2)

	view.SetSearchTerm("luxor")
	assert.Equal(t, 1, view.Page())
	res := view.Result()
	assert.Equal(t, 6, res.TotalItems)
	assert.Equal(t, 2, res.TotalPages)

	view.SetPage(2)
	view.SetSort(SortPriceDesc)
	assert.Equal(t, 1, view.Page())

	view.SetPage(2)
	view.SetPriceRange(0, 50)
	assert.Equal(t, 1, view.Page())

	view.SetPage(2)
	view.SetCategory(int64Ptr(4))
	assert.Equal(t, 1, view.Page())
	assert.Empty(t, view.Result().Visible)
}

func TestView_PageChangeDoesNotRederive(t *testing.T) {
	catalog := newFakeCatalog(12)
	view := NewView(catalog, 5)

	view.Result()
	require.Equal(t, 1, catalog.reads)

	view.SetPage(2)
	view.Result()
	view.SetPage(3)
	view.Result()
	assert.Equal(t, 1, catalog.reads)

	view.SetSort(SortPriceAsc)
	view.Result()
	assert.Equal(t, 2, catalog.reads)
}

func TestView_CatalogReloadRederives(t *testing.T) {
	catalog := newFakeCatalog(3)
	view := NewView(catalog, 5)
	assert.Equal(t, 3, view.Result().TotalItems)

	catalog.replace(newFakeCatalog(8).tours)
	assert.Equal(t, 8, view.Result().TotalItems)
}

func TestView_SetCategoryCopiesValue(t *testing.T) {
	view := NewView(newFakeCatalog(1), 5)
	id := int64(2)
	view.SetCategory(&id)
	id = 9

	require.NotNil(t, view.Criteria().CategoryID)
	assert.Equal(t, int64(2), *view.Criteria().CategoryID)

	view.SetCategory(nil)
	assert.Nil(t, view.Criteria().CategoryID)
}

func TestSessions_Get(t *testing.T) {
	sessions := NewSessions(newFakeCatalog(4), 2, time.Minute)

	id, view := sessions.Get("")
	require.NotEmpty(t, id)
	view.SetSearchTerm("cairo")

	sameID, same := sessions.Get(id)
	assert.Equal(t, id, sameID)
	assert.Same(t, view, same)
	assert.Equal(t, "cairo", same.Criteria().SearchTerm)

	otherID, other := sessions.Get("unknown-session")
	assert.NotEqual(t, "unknown-session", otherID)
	assert.NotSame(t, view, other)
	assert.Equal(t, DefaultCriteria(), other.Criteria())
}
