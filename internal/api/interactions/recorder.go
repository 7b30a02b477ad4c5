package interactions

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-journeymate/app/observability/metrics"
	"github.com/FACorreiaa/go-journeymate/internal/api/auth"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// Poster sends a batch to the remote interaction aggregator.
type Poster interface {
	PostInteractions(ctx context.Context, token string, batch types.InteractionBatch) error
}

// Recorder scores user interactions, keeps them in a Store and flushes them
// to the remote aggregator.
type Recorder struct {
	store  Store
	poster Poster
	oracle auth.Oracle
	logger *slog.Logger
}

func NewRecorder(store Store, poster Poster, oracle auth.Oracle, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		poster: poster,
		oracle: oracle,
		logger: logger,
	}
}

// SaveInteraction stores i as given, replacing any record with the same key.
func (r *Recorder) SaveInteraction(ctx context.Context, i types.Interaction) error {
	if i.UserID == "" || i.ID == "" {
		return fmt.Errorf("%w: interaction needs a user and a subject id", types.ErrInvalidInput)
	}
	if err := r.store.Save(ctx, i); err != nil {
		return fmt.Errorf("failed to save interaction %s: %w", i.Key(), err)
	}
	return nil
}

// Record computes the total of i and saves it.
func (r *Recorder) Record(ctx context.Context, i types.Interaction) (types.Interaction, error) {
	scored := WithTotal(i)
	if err := r.SaveInteraction(ctx, scored); err != nil {
		return types.Interaction{}, err
	}
	return scored, nil
}

// Get returns the stored record for key.
func (r *Recorder) Get(ctx context.Context, key types.InteractionKey) (types.Interaction, bool, error) {
	return r.store.Get(ctx, key)
}

// Pending lists the user's held records.
func (r *Recorder) Pending(ctx context.Context, userID string) ([]types.Interaction, error) {
	return r.store.ListByUser(ctx, userID)
}

// Flush posts the user's scored records to the aggregator and, on success,
// clears exactly the records that were sent. It reports whether a batch was
// delivered. Failures are logged and leave the data in place.
func (r *Recorder) Flush(ctx context.Context, userID string) bool {
	ctx, span := otel.Tracer("InteractionRecorder").Start(ctx, "Flush", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()
	l := r.logger.With(slog.String("method", "Flush"), slog.String("userID", userID))
	m := metrics.Get()
	outcome := func(o string) {
		m.InteractionFlushesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", o)))
	}

	records, err := r.store.ListByUser(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list interactions", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "store read failed")
		outcome("error")
		return false
	}

	sent := make([]types.Interaction, 0, len(records))
	batch := types.InteractionBatch{UserID: userID, UserInteraction: make([]types.InteractionSummary, 0, len(records))}
	for _, i := range records {
		if i.Total == nil {
			continue
		}
		sent = append(sent, i)
		batch.UserInteraction = append(batch.UserInteraction, types.InteractionSummary{
			ID:    i.ID,
			Type:  i.Type,
			Total: *i.Total,
		})
	}
	if len(sent) == 0 {
		l.DebugContext(ctx, "Nothing to flush")
		outcome("empty")
		return false
	}

	// userID is the caller's state key; the aggregator is told the claimed id.
	var token string
	if user, ok := r.oracle.CurrentUser(ctx); ok && user.StateKey() == userID {
		token = user.Token
		batch.UserID = user.ID
	}
	if err := r.poster.PostInteractions(ctx, token, batch); err != nil {
		l.WarnContext(ctx, "Interaction flush failed, keeping records",
			slog.Int("count", len(sent)),
			slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregator post failed")
		outcome("error")
		return false
	}

	if err := r.store.MarkFlushed(ctx, userID, sent); err != nil {
		// Delivered but not cleared: the next flush resends the same totals.
		l.ErrorContext(ctx, "Failed to clear flushed interactions", slog.Any("error", err))
		span.RecordError(err)
	}
	outcome("ok")
	span.SetStatus(codes.Ok, "flushed")
	l.InfoContext(ctx, "Flushed interactions", slog.Int("count", len(sent)))
	return true
}
