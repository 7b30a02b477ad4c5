package interactions

import (
	"context"
	"sort"
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-journeymate/internal/types"
)

var _ Store = (*MemoryStore)(nil)

// Store persists interactions keyed by (UserID, ID).
type Store interface {
	// Save inserts or replaces the record with the same key.
	Save(ctx context.Context, i types.Interaction) error
	Get(ctx context.Context, key types.InteractionKey) (types.Interaction, bool, error)
	ListByUser(ctx context.Context, userID string) ([]types.Interaction, error)
	// MarkFlushed removes the transmitted records after a successful flush.
	// A record saved again since it was sent is kept.
	MarkFlushed(ctx context.Context, userID string, sent []types.Interaction) error
}

// MemoryStore keeps interactions in process memory without expiry.
type MemoryStore struct {
	// mu serialises Save against MarkFlushed's compare-and-delete
	mu    sync.Mutex
	items *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStore) Save(_ context.Context, i types.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Set(i.Key().String(), i, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key types.InteractionKey) (types.Interaction, bool, error) {
	v, ok := s.items.Get(key.String())
	if !ok {
		return types.Interaction{}, false, nil
	}
	return v.(types.Interaction), true, nil
}

// ListByUser returns the user's records ordered by subject id.
func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]types.Interaction, error) {
	out := make([]types.Interaction, 0)
	for _, item := range s.items.Items() {
		i := item.Object.(types.Interaction)
		if i.UserID == userID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (s *MemoryStore) MarkFlushed(_ context.Context, _ string, sent []types.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range sent {
		key := i.Key().String()
		v, ok := s.items.Get(key)
		if ok && sameInteraction(v.(types.Interaction), i) {
			s.items.Delete(key)
		}
	}
	return nil
}

func sameInteraction(a, b types.Interaction) bool {
	if (a.Total == nil) != (b.Total == nil) {
		return false
	}
	if a.Total != nil && *a.Total != *b.Total {
		return false
	}
	a.Total, b.Total = nil, nil
	return a == b
}

// Len reports the number of held records.
func (s *MemoryStore) Len() int {
	return s.items.ItemCount()
}
