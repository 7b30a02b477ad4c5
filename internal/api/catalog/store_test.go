package catalog

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// MockSource is a mock implementation of Source
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Tours(ctx context.Context, categoryID *int64) ([]types.Tour, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Tour), args.Error(1)
}

func (m *MockSource) Categories(ctx context.Context) ([]types.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Category), args.Error(1)
}

func setupStoreTest() (*Store, *MockSource) {
	source := new(MockSource)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewStore(source, logger), source
}

func TestStore_LoadCatalog(t *testing.T) {
	ctx := context.Background()
	tours := []types.Tour{{ID: 1, Title: "Abu Simbel"}, {ID: 2, Title: "White Desert"}}
	categories := []types.Category{{ID: 1, Name: "Culture"}}

	t.Run("success replaces held lists", func(t *testing.T) {
		store, source := setupStoreTest()
		source.On("Tours", mock.Anything, (*int64)(nil)).Return(tours, nil).Once()
		source.On("Categories", mock.Anything).Return(categories, nil).Once()

		assert.False(t, store.Loaded())
		gotTours, gotCategories, err := store.LoadCatalog(ctx)
		require.NoError(t, err)

		assert.Equal(t, tours, gotTours)
		assert.Equal(t, categories, gotCategories)
		assert.Equal(t, tours, store.Tours())
		assert.Equal(t, categories, store.Categories())
		assert.True(t, store.Loaded())

		tour, ok := store.Tour(2)
		assert.True(t, ok)
		assert.Equal(t, "White Desert", tour.Title)
		_, ok = store.Tour(99)
		assert.False(t, ok)
		source.AssertExpectations(t)
	})

	t.Run("tour failure is a typed load error", func(t *testing.T) {
		store, source := setupStoreTest()
		cause := errors.New("connection refused")
		source.On("Tours", mock.Anything, (*int64)(nil)).Return(nil, cause).Once()
		source.On("Categories", mock.Anything).Return(categories, nil).Maybe()

		_, _, err := store.LoadCatalog(ctx)
		require.Error(t, err)

		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, "tours", loadErr.Op)
		assert.ErrorIs(t, err, ErrCatalogLoad)
		assert.ErrorIs(t, err, cause)
		assert.False(t, store.Loaded())
		assert.Empty(t, store.Tours())
	})

	t.Run("failure keeps the previous catalog", func(t *testing.T) {
		store, source := setupStoreTest()
		source.On("Tours", mock.Anything, (*int64)(nil)).Return(tours, nil).Once()
		source.On("Categories", mock.Anything).Return(categories, nil).Once()
		_, _, err := store.LoadCatalog(ctx)
		require.NoError(t, err)

		source.On("Tours", mock.Anything, (*int64)(nil)).Return(tours[:1], nil).Maybe()
		source.On("Categories", mock.Anything).Return(nil, errors.New("timeout")).Once()
		_, _, err = store.LoadCatalog(ctx)
		require.ErrorIs(t, err, ErrCatalogLoad)

		assert.Equal(t, tours, store.Tours())
	})

	t.Run("nil lists become empty", func(t *testing.T) {
		store, source := setupStoreTest()
		source.On("Tours", mock.Anything, (*int64)(nil)).Return([]types.Tour(nil), nil).Once()
		source.On("Categories", mock.Anything).Return([]types.Category(nil), nil).Once()

		gotTours, gotCategories, err := store.LoadCatalog(ctx)
		require.NoError(t, err)
		assert.NotNil(t, gotTours)
		assert.NotNil(t, gotCategories)
	})
}

func TestStore_LoadByCategory(t *testing.T) {
	ctx := context.Background()
	store, source := setupStoreTest()
	filtered := []types.Tour{{ID: 7, CategoryID: int64Ptr(3)}}

	source.On("Tours", mock.Anything, mock.MatchedBy(func(id *int64) bool {
		return id != nil && *id == 3
	})).Return(filtered, nil).Once()

	got, err := store.LoadByCategory(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, filtered, got)
	assert.False(t, store.Loaded(), "category fetch must not replace the catalog")

	source.On("Tours", mock.Anything, mock.Anything).Return(nil, errors.New("502")).Once()
	_, err = store.LoadByCategory(ctx, 4)
	assert.ErrorIs(t, err, ErrCatalogLoad)
	source.AssertExpectations(t)
}
