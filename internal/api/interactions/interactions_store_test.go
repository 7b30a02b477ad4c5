package interactions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-journeymate/internal/types"
)

func TestMemoryStore_KeysDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := WithTotal(types.Interaction{UserID: "a", ID: "b:c", Type: types.SubjectTravel, Booked: true})
	second := WithTotal(types.Interaction{UserID: "a:b", ID: "c", Type: types.SubjectTravel, Checkout: 1})
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	assert.Equal(t, 2, store.Len())

	got, err := store.ListByUser(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first, got[0])

	got, err = store.ListByUser(ctx, "a:b")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second, got[0])

	rec, ok, err := store.Get(ctx, first.Key())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rec.Booked)

	require.NoError(t, store.MarkFlushed(ctx, "a:b", []types.Interaction{second}))
	_, ok, err = store.Get(ctx, first.Key())
	require.NoError(t, err)
	assert.True(t, ok, "flushing one user must not drop another's record")
	_, ok, err = store.Get(ctx, second.Key())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInteractionKey_String(t *testing.T) {
	a := types.InteractionKey{UserID: "a", ID: "b:c"}
	b := types.InteractionKey{UserID: "a:b", ID: "c"}
	assert.NotEqual(t, a.String(), b.String())
	assert.Equal(t, "1:a:b:c", a.String())
}
