package favourites

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-journeymate/internal/api"
	"github.com/FACorreiaa/go-journeymate/internal/api/auth"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// TourResolver finds a tour in the held catalog.
type TourResolver interface {
	Tour(id int64) (types.Tour, bool)
}

// ToggleObserver is told about every accepted toggle.
type ToggleObserver interface {
	FavouriteToggled(ctx context.Context, userID string, tourID int64, favourite bool)
}

type FavouritesHandler struct {
	registry *Registry
	tours    TourResolver
	observer ToggleObserver
	oracle   auth.Oracle
	logger   *slog.Logger
}

func NewFavouritesHandler(registry *Registry, tours TourResolver, observer ToggleObserver, oracle auth.Oracle, logger *slog.Logger) *FavouritesHandler {
	return &FavouritesHandler{
		registry: registry,
		tours:    tours,
		observer: observer,
		oracle:   oracle,
		logger:   logger,
	}
}

// FavouritesResponse lists the caller's favourites.
type FavouritesResponse struct {
	TourIDs []int64      `json:"tourIds"`
	Tours   []types.Tour `json:"tours"`
}

// ToggleResponse is the state of a tour after a toggle.
type ToggleResponse struct {
	TourID      int64 `json:"tourId"`
	IsFavourite bool  `json:"isFavourite"`
}

// ListFavourites godoc
// @Summary      List favourites
// @Description  Favourite tour ids of the signed-in user, with the tours found in the catalog.
// @Tags         Favourites
// @Produce      json
// @Param        refresh query bool false "Reload from the remote API first"
// @Security     BearerAuth
// @Success      200 {object} FavouritesResponse
// @Failure      401 {object} types.Response
// @Failure      502 {object} types.Response
// @Router       /favourites [get]
func (h *FavouritesHandler) ListFavourites(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FavouritesHandler").Start(r.Context(), "ListFavourites", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/favourites"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListFavourites"))

	ledger := h.registry.For(ctx)
	if r.URL.Query().Get("refresh") == "true" || !ledger.Loaded() {
		if err := ledger.Load(ctx); err != nil {
			if errors.Is(err, ErrAuthRequired) {
				api.ErrorResponseWith(w, r, http.StatusUnauthorized, err.Error(), map[string]any{"redirect": auth.SignInPath})
				return
			}
			l.ErrorContext(ctx, "Failed to load favourites", slog.Any("error", err))
			api.ErrorResponseWith(w, r, http.StatusBadGateway, "Failed to load favourites", map[string]any{"retryable": true})
			return
		}
	}

	ids := ledger.Favourites()
	tours := make([]types.Tour, 0, len(ids))
	for _, id := range ids {
		if t, ok := h.tours.Tour(id); ok {
			tours = append(tours, t)
		}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, FavouritesResponse{TourIDs: ids, Tours: tours})
}

// ToggleFavourite godoc
// @Summary      Toggle favourite
// @Description  Flips the favourite state of a tour. Anonymous callers get 401 with a sign-in redirect.
// @Tags         Favourites
// @Produce      json
// @Param        tourID path int true "Tour id"
// @Security     BearerAuth
// @Success      200 {object} ToggleResponse
// @Failure      400 {object} types.Response
// @Failure      401 {object} types.Response
// @Router       /favourites/{tourID}/toggle [post]
func (h *FavouritesHandler) ToggleFavourite(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FavouritesHandler").Start(r.Context(), "ToggleFavourite", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/favourites/{tourID}/toggle"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ToggleFavourite"))

	tourID, err := strconv.ParseInt(chi.URLParam(r, "tourID"), 10, 64)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid tour id")
		return
	}
	tour, ok := h.tours.Tour(tourID)
	if !ok {
		tour = types.Tour{ID: tourID}
	}

	favourite, err := h.registry.For(ctx).Toggle(ctx, tour)
	if errors.Is(err, ErrAuthRequired) {
		api.ErrorResponseWith(w, r, http.StatusUnauthorized, err.Error(), map[string]any{"redirect": auth.SignInPath})
		return
	}
	if err != nil {
		l.ErrorContext(ctx, "Favourite toggle failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Favourite toggle failed")
		return
	}

	if userID, ok := h.oracle.StateKey(ctx); ok && h.observer != nil {
		h.observer.FavouriteToggled(ctx, userID, tourID, favourite)
	}
	api.WriteJSONResponse(w, r, http.StatusOK, ToggleResponse{TourID: tourID, IsFavourite: favourite})
}
