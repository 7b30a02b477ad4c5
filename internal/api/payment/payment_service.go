package payment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-journeymate/app/observability/metrics"
	"github.com/FACorreiaa/go-journeymate/config"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

const (
	pendingOrderTTL = 24 * time.Hour
	// payOS sends this order code when a webhook URL is confirmed.
	confirmationOrderCode = 123
)

// BookingObserver is told about checkout attempts and confirmed payments.
type BookingObserver interface {
	CheckoutStarted(ctx context.Context, userID string, tourID int64)
	Booked(ctx context.Context, userID string, tourID int64)
}

type pendingOrder struct {
	UserID string
	TourID int64
	Amount int
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	CreateCheckout(ctx context.Context, userID string, req types.CheckoutRequest) (*types.CheckoutSession, error)
	HandleWebhook(ctx context.Context, body []byte) (types.PaymentResult, error)
}

type ServiceImpl struct {
	gateway  Gateway
	observer BookingObserver
	cfg      config.PaymentConfig
	orders   *cache.Cache
	logger   *slog.Logger
}

func NewService(gateway Gateway, observer BookingObserver, cfg config.PaymentConfig, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		gateway:  gateway,
		observer: observer,
		cfg:      cfg,
		orders:   cache.New(pendingOrderTTL, time.Hour),
		logger:   logger,
	}
}

// newOrderCode keeps codes within the 13 digits payOS accepts.
func newOrderCode() int64 {
	return time.Now().Unix()%1_000_000_000*10_000 + int64(rand.IntN(9000)+1000)
}

func (s *ServiceImpl) CreateCheckout(ctx context.Context, userID string, req types.CheckoutRequest) (*types.CheckoutSession, error) {
	ctx, span := otel.Tracer("PaymentService").Start(ctx, "CreateCheckout", trace.WithAttributes(
		attribute.Int64("tour.id", req.TourID),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "CreateCheckout"), slog.Int64("tourID", req.TourID))

	if req.TourID <= 0 {
		return nil, fmt.Errorf("%w: tourId is required", types.ErrInvalidInput)
	}
	amount := int(math.Round(req.Amount))
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", types.ErrInvalidInput)
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	description := req.Description
	if strings.TrimSpace(description) == "" {
		description = fmt.Sprintf("Tour %d", req.TourID)
	}

	order := CheckoutOrder{
		OrderCode:   newOrderCode(),
		Amount:      amount,
		ItemName:    description,
		Quantity:    quantity,
		Description: description,
		ReturnURL:   s.cfg.ReturnURL,
		CancelURL:   s.cfg.CancelURL,
	}
	url, err := s.gateway.CreateCheckout(ctx, order)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create payment link", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment link failed")
		return nil, fmt.Errorf("%w: %w", types.ErrUpstream, err)
	}

	s.orders.Set(fmt.Sprint(order.OrderCode), pendingOrder{UserID: userID, TourID: req.TourID, Amount: amount}, cache.DefaultExpiration)
	metrics.Get().PaymentCheckoutsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", s.gateway.Name())))
	if s.observer != nil {
		s.observer.CheckoutStarted(ctx, userID, req.TourID)
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "VND"
	}
	l.InfoContext(ctx, "Created checkout", slog.Int64("orderCode", order.OrderCode), slog.Int("amount", amount))
	return &types.CheckoutSession{
		OrderCode:   order.OrderCode,
		CheckoutURL: url,
		Amount:      float64(amount),
		Currency:    currency,
		Provider:    s.gateway.Name(),
	}, nil
}

// HandleWebhook verifies a provider notification. A successful payment of a
// known order marks the tour as booked for the paying user, once.
// Unknown orders are acknowledged so the provider stops retrying.
func (s *ServiceImpl) HandleWebhook(ctx context.Context, body []byte) (types.PaymentResult, error) {
	ctx, span := otel.Tracer("PaymentService").Start(ctx, "HandleWebhook")
	defer span.End()
	l := s.logger.With(slog.String("method", "HandleWebhook"))

	result, err := s.gateway.VerifyWebhook(ctx, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook verification failed")
		return types.PaymentResult{}, err
	}
	span.SetAttributes(attribute.Int64("payment.order_code", result.OrderCode), attribute.Bool("payment.success", result.Success))

	if result.OrderCode == confirmationOrderCode {
		l.InfoContext(ctx, "Webhook confirmation received")
		return result, nil
	}

	key := fmt.Sprint(result.OrderCode)
	v, ok := s.orders.Get(key)
	if !ok {
		l.WarnContext(ctx, "Webhook for unknown order", slog.Int64("orderCode", result.OrderCode))
		return result, nil
	}
	order := v.(pendingOrder)
	if !result.Success {
		l.InfoContext(ctx, "Payment not completed", slog.Int64("orderCode", result.OrderCode))
		return result, nil
	}
	if result.Amount != 0 && result.Amount != order.Amount {
		l.WarnContext(ctx, "Paid amount differs from order",
			slog.Int64("orderCode", result.OrderCode),
			slog.Int("expected", order.Amount),
			slog.Int("paid", result.Amount))
	}

	s.orders.Delete(key)
	if s.observer != nil {
		s.observer.Booked(ctx, order.UserID, order.TourID)
	}
	l.InfoContext(ctx, "Payment confirmed", slog.Int64("orderCode", result.OrderCode), slog.Int64("tourID", order.TourID))
	return result, nil
}
