package catalog

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// Catalog is the read side of Store that a View derives from.
type Catalog interface {
	Tours() []types.Tour
	LoadedAt() time.Time
}

// View is the browse state of one UI session. Changing any criterion moves
// back to page 1 and drops the cached ordering; changing only the page
// re-slices the cached ordering.
type View struct {
	catalog  Catalog
	pageSize int

	mu       sync.Mutex
	criteria FilterCriteria
	page     int
	sorted   []types.Tour
	sortedAt time.Time
	valid    bool
}

func NewView(catalog Catalog, pageSize int) *View {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &View{
		catalog:  catalog,
		pageSize: pageSize,
		criteria: DefaultCriteria(),
		page:     1,
	}
}

func (v *View) Criteria() FilterCriteria {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.criteria
}

func (v *View) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

func (v *View) SetSearchTerm(term string) {
	v.update(func(c *FilterCriteria) { c.SearchTerm = term })
}

func (v *View) SetPriceRange(lo, hi float64) {
	v.update(func(c *FilterCriteria) { c.PriceMin, c.PriceMax = lo, hi })
}

// SetCategory selects a category; nil selects all categories.
func (v *View) SetCategory(id *int64) {
	v.update(func(c *FilterCriteria) {
		if id == nil {
			c.CategoryID = nil
			return
		}
		cp := *id
		c.CategoryID = &cp
	})
}

func (v *View) SetSort(key SortKey) {
	v.update(func(c *FilterCriteria) { c.Sort = ParseSortKey(string(key)) })
}

// SetCriteria replaces every criterion at once.
func (v *View) SetCriteria(next FilterCriteria) {
	v.update(func(c *FilterCriteria) { *c = next })
}

// SetPage moves to page p without recomputing the ordering.
func (v *View) SetPage(p int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = p
}

// Result returns the current page. The filtered ordering is recomputed only
// after a criteria change or a catalog reload.
func (v *View) Result() Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	loadedAt := v.catalog.LoadedAt()
	if !v.valid || !loadedAt.Equal(v.sortedAt) {
		v.sorted = FilterAndSort(v.catalog.Tours(), v.criteria)
		v.sortedAt = loadedAt
		v.valid = true
	}
	return Paginate(v.sorted, v.page, v.pageSize)
}

func (v *View) update(fn func(c *FilterCriteria)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(&v.criteria)
	v.page = 1
	v.valid = false
}

// Sessions keeps browse views keyed by session id, expiring idle ones.
type Sessions struct {
	catalog  Catalog
	pageSize int
	cache    *cache.Cache
}

func NewSessions(catalog Catalog, pageSize int, idle time.Duration) *Sessions {
	return &Sessions{
		catalog:  catalog,
		pageSize: pageSize,
		cache:    cache.New(idle, 2*idle),
	}
}

// Get returns the view for id, creating a fresh session when id is empty or
// unknown. The returned id is the one the caller should send next time.
func (s *Sessions) Get(id string) (string, *View) {
	if id != "" {
		if v, ok := s.cache.Get(id); ok {
			// touch to extend the idle window
			s.cache.SetDefault(id, v)
			return id, v.(*View)
		}
	}
	id = uuid.NewString()
	view := NewView(s.catalog, s.pageSize)
	s.cache.SetDefault(id, view)
	return id, view
}
