package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// SortKey selects the ordering applied by Derive.
type SortKey string

const (
	SortCreationDateDesc SortKey = "creationDate-desc"
	SortPriceAsc         SortKey = "price-asc"
	SortPriceDesc        SortKey = "price-desc"
	SortRatingDesc       SortKey = "rating-desc"
	SortStartDateAsc     SortKey = "startDate-asc"
)

const (
	DefaultPriceMin = 0
	DefaultPriceMax = 10000
	DefaultPageSize = 5
)

var epoch = time.Unix(0, 0).UTC()

// ParseSortKey maps a query value to a SortKey. Unknown values select
// creationDate-desc.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case SortPriceAsc, SortPriceDesc, SortRatingDesc, SortStartDateAsc, SortCreationDateDesc:
		return k
	}
	return SortCreationDateDesc
}

// FilterCriteria is the UI-held filter state of a listing.
type FilterCriteria struct {
	SearchTerm string  `json:"searchTerm"`
	PriceMin   float64 `json:"priceMin"`
	PriceMax   float64 `json:"priceMax"`
	CategoryID *int64  `json:"categoryId,omitempty"`
	Sort       SortKey `json:"sort"`
}

// DefaultCriteria matches every tour priced within the default range.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{
		PriceMin: DefaultPriceMin,
		PriceMax: DefaultPriceMax,
		Sort:     SortCreationDateDesc,
	}
}

// Matches reports whether the tour passes every filter of c.
func (c FilterCriteria) Matches(t types.Tour) bool {
	if c.SearchTerm != "" {
		term := strings.ToLower(c.SearchTerm)
		if !strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.DestinationCity), term) {
			return false
		}
	}
	if t.Price < c.PriceMin || t.Price > c.PriceMax {
		return false
	}
	if c.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *c.CategoryID) {
		return false
	}
	return true
}

// Result is one derived page of tours.
type Result struct {
	Visible    []types.Tour `json:"visible"`
	TotalPages int          `json:"totalPages"`
	TotalItems int          `json:"totalItems"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
}

// Derive filters, sorts and paginates tours. The input slice is left untouched.
func Derive(tours []types.Tour, c FilterCriteria, page, pageSize int) Result {
	return Paginate(FilterAndSort(tours, c), page, pageSize)
}

// FilterAndSort returns a new slice holding the matching tours in c.Sort order.
func FilterAndSort(tours []types.Tour, c FilterCriteria) []types.Tour {
	out := Filter(tours, c)
	SortTours(out, c.Sort)
	return out
}

// Filter returns the tours matching c in their original order.
func Filter(tours []types.Tour, c FilterCriteria) []types.Tour {
	out := make([]types.Tour, 0, len(tours))
	for _, t := range tours {
		if c.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// SortTours stable-sorts tours in place.
func SortTours(tours []types.Tour, key SortKey) {
	slices.SortStableFunc(tours, comparator(ParseSortKey(string(key))))
}

func comparator(key SortKey) func(a, b types.Tour) int {
	switch key {
	case SortPriceAsc:
		return func(a, b types.Tour) int { return compareFloat(a.Price, b.Price) }
	case SortPriceDesc:
		return func(a, b types.Tour) int { return compareFloat(b.Price, a.Price) }
	case SortRatingDesc:
		return func(a, b types.Tour) int { return compareFloat(b.Rating, a.Rating) }
	case SortStartDateAsc:
		return func(a, b types.Tour) int { return orEpoch(a.StartDate).Compare(orEpoch(b.StartDate)) }
	default:
		return func(a, b types.Tour) int { return orEpoch(b.CreationDate).Compare(orEpoch(a.CreationDate)) }
	}
}

// Paginate slices an already filtered and sorted list. Pages are 1-based;
// pages outside [1, TotalPages] produce an empty Visible slice.
func Paginate(sorted []types.Tour, page, pageSize int) Result {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	n := len(sorted)
	pages := n / pageSize
	if n%pageSize != 0 {
		pages++
	}
	res := Result{
		Visible:    []types.Tour{},
		TotalPages: max(1, pages),
		TotalItems: n,
		Page:       page,
		PageSize:   pageSize,
	}
	// checked before multiplying so huge page values cannot overflow
	if page < 1 || page > pages {
		return res
	}
	start := (page - 1) * pageSize
	end := start + min(pageSize, n-start)
	res.Visible = slices.Clone(sorted[start:end])
	return res
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func orEpoch(t time.Time) time.Time {
	if t.IsZero() {
		return epoch
	}
	return t
}
