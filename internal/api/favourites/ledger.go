package favourites

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-journeymate/app/observability/metrics"
	"github.com/FACorreiaa/go-journeymate/internal/api/auth"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// ErrAuthRequired is returned by Toggle for anonymous callers. Nothing is
// changed and no remote call is made; the UI should send the user to sign in.
var ErrAuthRequired = errors.New("sign in to manage favourites")

// Remote is the favourites collaborator of the remote API.
type Remote interface {
	Like(ctx context.Context, token string, tourID int64) error
	Unlike(ctx context.Context, token string, tourID int64) error
	FavouriteTours(ctx context.Context, token string) ([]types.Tour, error)
}

// Ledger mirrors one user's favourite tours. Toggles are applied locally
// first and then sent to the remote API.
type Ledger struct {
	oracle   auth.Oracle
	remote   Remote
	rollback bool
	logger   *slog.Logger

	mu     sync.RWMutex
	set    map[int64]struct{}
	loaded bool
}

// NewLedger creates an empty ledger. With rollback set, a failed remote call
// restores the previous local state; otherwise the optimistic flip is kept.
func NewLedger(oracle auth.Oracle, remote Remote, rollback bool, logger *slog.Logger) *Ledger {
	return &Ledger{
		oracle:   oracle,
		remote:   remote,
		rollback: rollback,
		logger:   logger,
		set:      map[int64]struct{}{},
	}
}

func (l *Ledger) IsFavourite(tourID int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.set[tourID]
	return ok
}

// Favourites returns the favourite tour ids in ascending order.
func (l *Ledger) Favourites() []int64 {
	l.mu.RLock()
	out := make([]int64, 0, len(l.set))
	for id := range l.set {
		out = append(out, id)
	}
	l.mu.RUnlock()
	slices.Sort(out)
	return out
}

// Loaded reports whether Load has succeeded at least once.
func (l *Ledger) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Load replaces the local set with the authoritative remote one.
func (l *Ledger) Load(ctx context.Context) error {
	ctx, span := otel.Tracer("FavouritesLedger").Start(ctx, "Load")
	defer span.End()

	user, ok := l.oracle.CurrentUser(ctx)
	if !ok {
		return ErrAuthRequired
	}
	tours, err := l.remote.FavouriteTours(ctx, user.Token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "favourites load failed")
		return err
	}

	set := make(map[int64]struct{}, len(tours))
	for _, t := range tours {
		set[t.ID] = struct{}{}
	}
	l.mu.Lock()
	l.set = set
	l.loaded = true
	l.mu.Unlock()

	span.SetAttributes(attribute.Int("favourites.count", len(set)))
	return nil
}

// Toggle flips the favourite state of tour and returns the resulting state.
// Remote failures are logged and not returned.
func (l *Ledger) Toggle(ctx context.Context, tour types.Tour) (bool, error) {
	ctx, span := otel.Tracer("FavouritesLedger").Start(ctx, "Toggle", trace.WithAttributes(
		attribute.Int64("tour.id", tour.ID),
	))
	defer span.End()

	log := l.logger.With(slog.String("method", "Toggle"), slog.Int64("tourID", tour.ID))
	m := metrics.Get()

	if !l.oracle.IsAuthenticated(ctx) {
		m.FavouriteTogglesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "refused")))
		log.DebugContext(ctx, "Refusing favourite toggle for anonymous caller")
		return l.IsFavourite(tour.ID), ErrAuthRequired
	}
	user, _ := l.oracle.CurrentUser(ctx)

	l.mu.Lock()
	_, was := l.set[tour.ID]
	if was {
		delete(l.set, tour.ID)
	} else {
		l.set[tour.ID] = struct{}{}
	}
	l.mu.Unlock()
	now := !was

	var err error
	if now {
		err = l.remote.Like(ctx, user.Token, tour.ID)
	} else {
		err = l.remote.Unlike(ctx, user.Token, tour.ID)
	}
	if err == nil {
		m.FavouriteTogglesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))
		span.SetStatus(codes.Ok, "toggled")
		return now, nil
	}

	m.FavouriteTogglesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "remote_failed")))
	span.RecordError(err)
	log.WarnContext(ctx, "Remote favourite update failed",
		slog.Bool("favourite", now),
		slog.Bool("rollback", l.rollback),
		slog.Any("error", err))
	if !l.rollback {
		return now, nil
	}

	l.mu.Lock()
	if was {
		l.set[tour.ID] = struct{}{}
	} else {
		delete(l.set, tour.ID)
	}
	l.mu.Unlock()
	return was, nil
}
