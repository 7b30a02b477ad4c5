package interactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-journeymate/internal/types"
)

var _ Store = (*PostgresStore)(nil)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore keeps interactions in the user_interactions table so they
// survive restarts between flushes.
type PostgresStore struct {
	pgpool DB
	logger *slog.Logger
}

func NewPostgresStore(pgpool DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		pgpool: pgpool,
		logger: logger,
	}
}

func (r *PostgresStore) Save(ctx context.Context, i types.Interaction) error {
	ctx, span := otel.Tracer("InteractionsRepository").Start(ctx, "Save", trace.WithAttributes(
		attribute.String("interaction.key", i.Key().String()),
	))
	defer span.End()

	query := `
		INSERT INTO user_interactions (user_id, subject_id, subject, checkout, favourite, liked, booked, total, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (user_id, subject_id) DO UPDATE SET
			subject    = EXCLUDED.subject,
			checkout   = EXCLUDED.checkout,
			favourite  = EXCLUDED.favourite,
			liked      = EXCLUDED.liked,
			booked     = EXCLUDED.booked,
			total      = EXCLUDED.total,
			updated_at = NOW()
	`
	_, err := r.pgpool.Exec(ctx, query, i.UserID, i.ID, string(i.Type), i.Checkout, i.Favourite, i.Like, i.Booked, i.Total)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to save interaction", slog.String("method", "Save"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database exec failed")
		return fmt.Errorf("failed to save interaction: %w", err)
	}
	return nil
}

func (r *PostgresStore) Get(ctx context.Context, key types.InteractionKey) (types.Interaction, bool, error) {
	ctx, span := otel.Tracer("InteractionsRepository").Start(ctx, "Get")
	defer span.End()

	query := `
		SELECT user_id, subject_id, subject, checkout, favourite, liked, booked, total
		FROM user_interactions
		WHERE user_id = $1 AND subject_id = $2
	`
	i, err := scanInteraction(r.pgpool.QueryRow(ctx, query, key.UserID, key.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Interaction{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return types.Interaction{}, false, fmt.Errorf("failed to get interaction %s: %w", key, err)
	}
	return i, true, nil
}

func (r *PostgresStore) ListByUser(ctx context.Context, userID string) ([]types.Interaction, error) {
	ctx, span := otel.Tracer("InteractionsRepository").Start(ctx, "ListByUser")
	defer span.End()
	l := r.logger.With(slog.String("method", "ListByUser"))

	query := `
		SELECT user_id, subject_id, subject, checkout, favourite, liked, booked, total
		FROM user_interactions
		WHERE user_id = $1
		ORDER BY subject_id
	`
	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query interactions", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	out := make([]types.Interaction, 0)
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			l.ErrorContext(ctx, "Failed to scan interaction row", slog.Any("error", err))
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	span.SetAttributes(attribute.Int("interactions.count", len(out)))
	return out, nil
}

func (r *PostgresStore) MarkFlushed(ctx context.Context, userID string, sent []types.Interaction) error {
	ctx, span := otel.Tracer("InteractionsRepository").Start(ctx, "MarkFlushed", trace.WithAttributes(
		attribute.Int("interactions.sent", len(sent)),
	))
	defer span.End()
	l := r.logger.With(slog.String("method", "MarkFlushed"))

	if len(sent) == 0 {
		return nil
	}
	var (
		ids        = make([]string, 0, len(sent))
		subjects   = make([]string, 0, len(sent))
		checkouts  = make([]int, 0, len(sent))
		favourites = make([]bool, 0, len(sent))
		likes      = make([]bool, 0, len(sent))
		booked     = make([]bool, 0, len(sent))
		totals     = make([]float64, 0, len(sent))
	)
	for _, i := range sent {
		if i.Total == nil {
			continue
		}
		ids = append(ids, i.ID)
		subjects = append(subjects, string(i.Type))
		checkouts = append(checkouts, i.Checkout)
		favourites = append(favourites, i.Favourite)
		likes = append(likes, i.Like)
		booked = append(booked, i.Booked)
		totals = append(totals, *i.Total)
	}

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		DELETE FROM user_interactions ui
		USING unnest($2::text[], $3::text[], $4::int[], $5::bool[], $6::bool[], $7::bool[], $8::numeric[])
			AS f(subject_id, subject, checkout, favourite, liked, booked, total)
		WHERE ui.user_id = $1 AND ui.subject_id = f.subject_id AND ui.subject = f.subject
			AND ui.checkout = f.checkout AND ui.favourite = f.favourite AND ui.liked = f.liked
			AND ui.booked = f.booked AND ui.total = f.total
	`, userID, ids, subjects, checkouts, favourites, likes, booked, totals)
	if err != nil {
		l.ErrorContext(ctx, "Failed to delete flushed interactions", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database exec failed")
		return fmt.Errorf("failed to delete flushed interactions: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO interaction_flushes (id, user_id, item_count, flushed_at)
		VALUES ($1, $2, $3, NOW())
	`, uuid.New(), userID, len(ids)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to record flush: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to commit flush: %w", err)
	}
	l.DebugContext(ctx, "Cleared flushed interactions",
		slog.String("userID", userID),
		slog.Int64("deleted", tag.RowsAffected()))
	return nil
}

func scanInteraction(row pgx.Row) (types.Interaction, error) {
	var i types.Interaction
	var subject string
	err := row.Scan(&i.UserID, &i.ID, &subject, &i.Checkout, &i.Favourite, &i.Like, &i.Booked, &i.Total)
	i.Type = types.SubjectType(subject)
	return i, err
}
