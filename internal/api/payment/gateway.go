package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/payOSHQ/payos-lib-golang"

	"github.com/FACorreiaa/go-journeymate/config"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// payOS rejects descriptions longer than this.
const maxDescriptionLen = 25

var ErrMissingCredentials = errors.New("missing payOS credentials")

// CheckoutOrder is a provider-neutral payment link request.
type CheckoutOrder struct {
	OrderCode   int64
	Amount      int
	ItemName    string
	Quantity    int
	Description string
	ReturnURL   string
	CancelURL   string
}

// Gateway creates payment links and verifies provider webhooks.
type Gateway interface {
	Name() string
	CreateCheckout(ctx context.Context, order CheckoutOrder) (checkoutURL string, err error)
	VerifyWebhook(ctx context.Context, body []byte) (types.PaymentResult, error)
}

var _ Gateway = (*PayOSGateway)(nil)

// PayOSGateway talks to payOS through its SDK.
type PayOSGateway struct {
	name string
}

// NewPayOSGateway registers the credentials with the SDK.
func NewPayOSGateway(cfg config.PaymentConfig) (*PayOSGateway, error) {
	if cfg.ClientID == "" || cfg.APIKey == "" || cfg.ChecksumKey == "" {
		return nil, ErrMissingCredentials
	}
	if err := payos.Key(cfg.ClientID, cfg.APIKey, cfg.ChecksumKey); err != nil {
		return nil, fmt.Errorf("payos client init: %w", err)
	}
	name := cfg.Provider
	if name == "" {
		name = "payos"
	}
	return &PayOSGateway{name: name}, nil
}

func (g *PayOSGateway) Name() string {
	return g.name
}

func (g *PayOSGateway) CreateCheckout(_ context.Context, order CheckoutOrder) (string, error) {
	body := payos.CheckoutRequestType{
		OrderCode: int(order.OrderCode),
		Amount:    order.Amount,
		Items: []payos.Item{{
			Name:     order.ItemName,
			Price:    order.Amount / order.Quantity,
			Quantity: order.Quantity,
		}},
		Description: truncate(order.Description, maxDescriptionLen),
		CancelUrl:   order.CancelURL,
		ReturnUrl:   order.ReturnURL,
	}
	resp, err := payos.CreatePaymentLink(body)
	if err != nil {
		return "", fmt.Errorf("payos create link: %w", err)
	}
	return resp.CheckoutUrl, nil
}

func (g *PayOSGateway) VerifyWebhook(_ context.Context, raw []byte) (types.PaymentResult, error) {
	var body payos.WebhookType
	if err := json.Unmarshal(raw, &body); err != nil {
		return types.PaymentResult{}, fmt.Errorf("%w: invalid webhook payload: %v", types.ErrInvalidInput, err)
	}
	data, err := payos.VerifyPaymentWebhookData(body)
	if err != nil {
		return types.PaymentResult{}, fmt.Errorf("payos verify webhook: %w", err)
	}
	return types.PaymentResult{
		OrderCode: int64(data.OrderCode),
		Amount:    data.Amount,
		Success:   data.Code == "00",
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
