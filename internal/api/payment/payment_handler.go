package payment

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-journeymate/internal/api"
	"github.com/FACorreiaa/go-journeymate/internal/api/auth"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

const maxWebhookBytes = 64 << 10

type PaymentHandler struct {
	service Service
	oracle  auth.Oracle
	logger  *slog.Logger
}

// NewPaymentHandler builds the handler. A nil service means payments are not
// configured and every route answers 503.
func NewPaymentHandler(service Service, oracle auth.Oracle, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		oracle:  oracle,
		logger:  logger,
	}
}

// CreateCheckout godoc
// @Summary      Start a checkout
// @Description  Creates a provider payment link for a tour.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        checkout body types.CheckoutRequest true "Checkout"
// @Security     BearerAuth
// @Success      201 {object} types.CheckoutSession
// @Failure      400 {object} types.Response
// @Failure      401 {object} types.Response
// @Failure      502 {object} types.Response
// @Failure      503 {object} types.Response
// @Router       /payments/checkout [post]
func (h *PaymentHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PaymentHandler").Start(r.Context(), "CreateCheckout", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/payments/checkout"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "CreateCheckout"))

	if h.service == nil {
		api.ErrorResponse(w, r, http.StatusServiceUnavailable, "Payments are not available")
		return
	}
	userID, ok := h.oracle.StateKey(ctx)
	if !ok {
		api.ErrorResponseWith(w, r, http.StatusUnauthorized, "Sign in to book a tour", map[string]any{"redirect": auth.SignInPath})
		return
	}
	var req types.CheckoutRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.CreateCheckout(ctx, userID, req)
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		l.ErrorContext(ctx, "Checkout failed", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponseWith(w, r, http.StatusBadGateway, "Payment provider unavailable", map[string]any{"retryable": true})
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, session)
}

// Webhook godoc
// @Summary      Payment webhook
// @Description  Receives signed payment notifications from the provider.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Success      200 {object} types.PaymentResult
// @Failure      400 {object} types.Response
// @Failure      422 {object} types.Response
// @Router       /payments/webhook [post]
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PaymentHandler").Start(r.Context(), "Webhook", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/payments/webhook"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "Webhook"))

	if h.service == nil {
		api.ErrorResponse(w, r, http.StatusServiceUnavailable, "Payments are not available")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Failed to read request body")
		return
	}

	result, err := h.service.HandleWebhook(ctx, body)
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid webhook payload")
		return
	case err != nil:
		l.WarnContext(ctx, "Webhook rejected", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusUnprocessableEntity, "Failed to verify webhook data")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}
