package interactions

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// The methods below turn favourite, checkout and payment events into tour
// interactions. Each starts from the stored record, so signals accumulate.

// FavouriteToggled records the favourite flag after a toggle.
func (r *Recorder) FavouriteToggled(ctx context.Context, userID string, tourID int64, favourite bool) {
	r.update(ctx, "FavouriteToggled", userID, tourID, func(i *types.Interaction) {
		i.Favourite = favourite
	})
}

// CheckoutStarted counts one more checkout attempt.
func (r *Recorder) CheckoutStarted(ctx context.Context, userID string, tourID int64) {
	r.update(ctx, "CheckoutStarted", userID, tourID, func(i *types.Interaction) {
		i.Checkout++
	})
}

// Booked marks the tour as paid for.
func (r *Recorder) Booked(ctx context.Context, userID string, tourID int64) {
	r.update(ctx, "Booked", userID, tourID, func(i *types.Interaction) {
		i.Booked = true
	})
}

func (r *Recorder) update(ctx context.Context, method, userID string, tourID int64, apply func(*types.Interaction)) {
	if userID == "" {
		return
	}
	l := r.logger.With(slog.String("method", method), slog.String("userID", userID), slog.Int64("tourID", tourID))

	key := types.InteractionKey{UserID: userID, ID: strconv.FormatInt(tourID, 10)}
	current, ok, err := r.store.Get(ctx, key)
	if err != nil {
		l.WarnContext(ctx, "Failed to read interaction", slog.Any("error", err))
		return
	}
	if !ok {
		current = types.Interaction{UserID: key.UserID, ID: key.ID, Type: types.SubjectTravel}
	}
	apply(&current)
	if _, err := r.Record(ctx, current); err != nil {
		l.WarnContext(ctx, "Failed to record interaction", slog.Any("error", err))
	}
}
