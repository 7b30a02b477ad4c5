package catalog

import (
	"sort"
	"strings"

	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// Destinations groups tours by destination city, most tours first, then by
// city name. Tours without a city are skipped.
func Destinations(tours []types.Tour) []types.Destination {
	byCity := map[string]*types.Destination{}
	var order []string
	for _, t := range tours {
		city := strings.TrimSpace(t.DestinationCity)
		if city == "" {
			continue
		}
		key := strings.ToLower(city)
		d, ok := byCity[key]
		if !ok {
			d = &types.Destination{City: city, MinPrice: t.Price}
			byCity[key] = d
			order = append(order, key)
		}
		d.TourCount++
		if t.Price < d.MinPrice {
			d.MinPrice = t.Price
		}
		if d.CoverImageURL == "" {
			d.CoverImageURL = t.Cover()
		}
	}

	out := make([]types.Destination, 0, len(order))
	for _, key := range order {
		out = append(out, *byCity[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TourCount != out[j].TourCount {
			return out[i].TourCount > out[j].TourCount
		}
		return out[i].City < out[j].City
	})
	return out
}

// InCity keeps the tours whose destination equals city, ignoring case.
func InCity(tours []types.Tour, city string) []types.Tour {
	city = strings.TrimSpace(city)
	out := make([]types.Tour, 0)
	for _, t := range tours {
		if strings.EqualFold(strings.TrimSpace(t.DestinationCity), city) {
			out = append(out, t)
		}
	}
	return out
}
