package company

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-journeymate/internal/api"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

type CompanyHandler struct {
	service Service
	logger  *slog.Logger
}

func NewCompanyHandler(service Service, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{
		service: service,
		logger:  logger,
	}
}

// GetCompany godoc
// @Summary      Company profile
// @Description  A tour operator with the tours it runs.
// @Tags         Companies
// @Produce      json
// @Param        id path int true "Company id"
// @Success      200 {object} types.CompanyProfile
// @Failure      400 {object} types.Response
// @Failure      404 {object} types.Response
// @Failure      502 {object} types.Response
// @Router       /companies/{id} [get]
func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CompanyHandler").Start(r.Context(), "GetCompany", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/companies/{id}"),
	))
	defer span.End()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid company id")
		return
	}

	profile, err := h.service.Profile(ctx, id)
	switch {
	case errors.Is(err, types.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "Company not found")
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "Failed to load company", slog.String("handler", "GetCompany"), slog.Any("error", err))
		api.ErrorResponseWith(w, r, http.StatusBadGateway, "Failed to load company", map[string]any{"retryable": true})
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}
