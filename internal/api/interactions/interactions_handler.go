package interactions

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-journeymate/internal/api"
	"github.com/FACorreiaa/go-journeymate/internal/api/auth"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

type InteractionsHandler struct {
	recorder  *Recorder
	scheduler *Scheduler
	oracle    auth.Oracle
	logger    *slog.Logger
}

func NewInteractionsHandler(recorder *Recorder, scheduler *Scheduler, oracle auth.Oracle, logger *slog.Logger) *InteractionsHandler {
	return &InteractionsHandler{
		recorder:  recorder,
		scheduler: scheduler,
		oracle:    oracle,
		logger:    logger,
	}
}

// FlushResponse reports whether a batch reached the aggregator.
type FlushResponse struct {
	Flushed bool `json:"flushed"`
	Armed   bool `json:"armed,omitempty"`
}

// PendingResponse lists the caller's held interactions.
type PendingResponse struct {
	Interactions []types.Interaction `json:"interactions"`
}

func (h *InteractionsHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := h.oracle.StateKey(r.Context())
	if !ok {
		api.ErrorResponseWith(w, r, http.StatusUnauthorized, "Sign in to record interactions", map[string]any{"redirect": auth.SignInPath})
		return "", false
	}
	return userID, true
}

// RecordInteraction godoc
// @Summary      Record an interaction
// @Description  Scores and stores the caller's interaction with a tour or event, replacing any earlier record for it.
// @Tags         Interactions
// @Accept       json
// @Produce      json
// @Param        interaction body types.RecordInteractionRequest true "Interaction"
// @Security     BearerAuth
// @Success      201 {object} types.Interaction
// @Failure      400 {object} types.Response
// @Failure      401 {object} types.Response
// @Router       /interactions [post]
func (h *InteractionsHandler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("InteractionsHandler").Start(r.Context(), "RecordInteraction", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/interactions"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "RecordInteraction"))

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req types.RecordInteractionRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID == "" || !req.Type.Valid() || req.Checkout < 0 {
		api.ErrorResponse(w, r, http.StatusBadRequest, "id, a type of event or travel and a non-negative checkout are required")
		return
	}

	saved, err := h.recorder.Record(ctx, types.Interaction{
		UserID:    userID,
		ID:        req.ID,
		Type:      req.Type,
		Checkout:  req.Checkout,
		Favourite: req.Favourite,
		Like:      req.Like,
		Booked:    req.Booked,
	})
	if errors.Is(err, types.ErrInvalidInput) {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		l.ErrorContext(ctx, "Failed to record interaction", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to record interaction")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, saved)
}

// ListPending godoc
// @Summary      Pending interactions
// @Description  Interactions held for the caller that have not been flushed yet.
// @Tags         Interactions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} PendingResponse
// @Failure      401 {object} types.Response
// @Router       /interactions [get]
func (h *InteractionsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("InteractionsHandler").Start(r.Context(), "ListPending", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/interactions"),
	))
	defer span.End()

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	pending, err := h.recorder.Pending(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list interactions", slog.String("handler", "ListPending"), slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list interactions")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, PendingResponse{Interactions: pending})
}

// FlushInteractions godoc
// @Summary      Flush interactions
// @Description  Sends the caller's scored interactions to the aggregator now.
// @Tags         Interactions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} FlushResponse
// @Failure      401 {object} types.Response
// @Router       /interactions/flush [post]
func (h *InteractionsHandler) FlushInteractions(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("InteractionsHandler").Start(r.Context(), "FlushInteractions", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/interactions/flush"),
	))
	defer span.End()

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, FlushResponse{Flushed: h.recorder.Flush(ctx, userID)})
}

// StartSession godoc
// @Summary      Start interaction session
// @Description  Flushes once and schedules a recurring flush for the caller. Calling it again replaces the schedule.
// @Tags         Interactions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} FlushResponse
// @Failure      401 {object} types.Response
// @Router       /interactions/session [post]
func (h *InteractionsHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("InteractionsHandler").Start(r.Context(), "StartSession", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/interactions/session"),
	))
	defer span.End()

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	flushed := h.scheduler.Arm(ctx, userID)
	api.WriteJSONResponse(w, r, http.StatusOK, FlushResponse{Flushed: flushed, Armed: h.scheduler.Armed(userID)})
}
