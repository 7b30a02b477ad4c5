package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-journeymate/app/observability/metrics"
	"github.com/FACorreiaa/go-journeymate/config"
)

// Events and methods of the chat channel.
const (
	MethodSendMessage    = "SendMessage"
	EventReceiveMessage  = "ReceiveMessage"
	connectAttempts      = 5
	connectAttemptsDelay = 2 * time.Second
)

// Transport is the publish/subscribe surface of the push channel.
type Transport interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func() error, err error)
}

// NatsTransport adapts a NATS connection to Transport.
type NatsTransport struct {
	conn *nats.Conn
}

func NewNatsTransport(conn *nats.Conn) *NatsTransport {
	return &NatsTransport{conn: conn}
}

func (t *NatsTransport) Publish(subject string, data []byte) error {
	return t.conn.Publish(subject, data)
}

func (t *NatsTransport) Subscribe(subject string, handler func(data []byte)) (func() error, error) {
	sub, err := t.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return sub.Unsubscribe, nil
}

// Connect dials NATS, retrying while the server comes up. Once connected the
// connection reconnects forever.
func Connect(cfg config.ChatConfig, logger *slog.Logger) (*nats.Conn, error) {
	l := logger.With(slog.String("component", "chat"))
	opts := []nats.Option{
		nats.Name("journeymate-bff"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			l.Warn("Chat channel disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			l.Info("Chat channel reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			l.Info("Chat channel closed")
		}),
	}

	var conn *nats.Conn
	var err error
	for i := 0; i < connectAttempts; i++ {
		conn, err = nats.Connect(cfg.URL, opts...)
		if err == nil {
			l.Info("Connected to chat channel", slog.String("url", conn.ConnectedUrl()))
			return conn, nil
		}
		l.Warn("Waiting for chat channel", slog.Int("attempt", i+1), slog.Any("error", err))
		time.Sleep(connectAttemptsDelay)
	}
	return nil, fmt.Errorf("failed to connect to chat channel after %d attempts: %w", connectAttempts, err)
}

// Client invokes hub methods and listens to per-user events.
type Client struct {
	transport Transport
	prefix    string
	logger    *slog.Logger
}

func NewClient(transport Transport, prefix string, logger *slog.Logger) *Client {
	return &Client{
		transport: transport,
		prefix:    prefix,
		logger:    logger,
	}
}

// Invoke publishes payload as JSON on <prefix>.<method>.
func (c *Client) Invoke(ctx context.Context, method string, payload any) error {
	subject := c.prefix + "." + method
	_, span := otel.Tracer("ChatClient").Start(ctx, "Invoke", trace.WithAttributes(
		attribute.String("messaging.destination.name", subject),
	))
	defer span.End()

	data, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to encode %s payload: %w", method, err)
	}
	if err := c.transport.Publish(subject, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		return fmt.Errorf("failed to publish %s: %w", method, err)
	}
	metrics.Get().ChatMessagesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("direction", "out")))
	return nil
}

// On calls handler for every event pushed to the user on
// <prefix>.<event>.<userID>. The returned function unsubscribes.
func (c *Client) On(event, userID string, handler func(Message)) (func() error, error) {
	subject := c.prefix + "." + event + "." + userID
	unsubscribe, err := c.transport.Subscribe(subject, func(data []byte) {
		metrics.Get().ChatMessagesTotal.Add(context.Background(), 1, metric.WithAttributes(attribute.String("direction", "in")))
		handler(DecodeMessage(data))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	c.logger.Debug("Subscribed to chat event", slog.String("subject", subject))
	return unsubscribe, nil
}
