package favourites

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-journeymate/internal/api/auth"
)

// Registry hands out one Ledger per signed-in user. Ledgers of users idle
// for longer than the configured expiry are dropped and reloaded on next use.
type Registry struct {
	oracle    auth.Oracle
	remote    Remote
	rollback  bool
	logger    *slog.Logger
	ledgers   *cache.Cache
	anonymous *Ledger
}

func NewRegistry(oracle auth.Oracle, remote Remote, rollback bool, idle time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		oracle:    oracle,
		remote:    remote,
		rollback:  rollback,
		logger:    logger,
		ledgers:   cache.New(idle, idle/2+time.Minute),
		anonymous: NewLedger(oracle, remote, rollback, logger),
	}
}

// For returns the caller's ledger. Anonymous callers share an empty ledger
// that refuses every toggle. A user's ledger is loaded from the remote API
// on first use; a failed load is retried on the next call.
func (r *Registry) For(ctx context.Context) *Ledger {
	userID, ok := r.oracle.StateKey(ctx)
	if !ok {
		return r.anonymous
	}

	var ledger *Ledger
	if v, found := r.ledgers.Get(userID); found {
		ledger = v.(*Ledger)
	} else {
		fresh := NewLedger(r.oracle, r.remote, r.rollback, r.logger)
		if err := r.ledgers.Add(userID, fresh, cache.DefaultExpiration); err != nil {
			// lost the race; use the winner
			if v, found := r.ledgers.Get(userID); found {
				fresh = v.(*Ledger)
			}
		}
		ledger = fresh
	}
	r.ledgers.SetDefault(userID, ledger)

	if !ledger.Loaded() {
		if err := ledger.Load(ctx); err != nil {
			r.logger.WarnContext(ctx, "Failed to load favourites", slog.String("userID", userID), slog.Any("error", err))
		}
	}
	return ledger
}

// FavouriteChecker returns a membership test over the caller's favourites.
func (r *Registry) FavouriteChecker(ctx context.Context) func(tourID int64) bool {
	return r.For(ctx).IsFavourite
}

// Forget drops a user's ledger, e.g. after sign-out.
func (r *Registry) Forget(userID string) {
	r.ledgers.Delete(userID)
}
