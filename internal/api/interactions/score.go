package interactions

import (
	"math"

	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// Score weights.
const (
	CheckoutWeight  = 1
	FavouriteWeight = 3
	LikeWeight      = 2
	BookedWeight    = 5
)

// CalculateScore is the weighted sum of the interaction's signals rounded to
// three decimals.
func CalculateScore(i types.Interaction) float64 {
	score := float64(i.Checkout * CheckoutWeight)
	if i.Favourite {
		score += FavouriteWeight
	}
	if i.Like {
		score += LikeWeight
	}
	if i.Booked {
		score += BookedWeight
	}
	return math.Round(score*1000) / 1000
}

// WithTotal returns a copy of i carrying its computed score.
func WithTotal(i types.Interaction) types.Interaction {
	total := CalculateScore(i)
	i.Total = &total
	return i
}
