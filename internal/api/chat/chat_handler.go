package chat

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-journeymate/internal/api"
	"github.com/FACorreiaa/go-journeymate/internal/api/auth"
)

const (
	EventTypeMessage = "message"
	heartbeatEvery   = 20 * time.Second
)

// StreamEvent is one Server-Sent Event of the chat stream.
type StreamEvent struct {
	Type      string    `json:"type"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	EventID   string    `json:"eventId"`
}

type ChatHandler struct {
	client *Client
	oracle auth.Oracle
	logger *slog.Logger
}

// NewChatHandler builds the handler. A nil client means chat is disabled and
// every route answers 503.
func NewChatHandler(client *Client, oracle auth.Oracle, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		client: client,
		oracle: oracle,
		logger: logger,
	}
}

func (h *ChatHandler) ready(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.client == nil {
		api.ErrorResponse(w, r, http.StatusServiceUnavailable, "Chat is not available")
		return "", false
	}
	userID, ok := h.oracle.UserIDFromToken(r.Context())
	if !ok {
		api.ErrorResponseWith(w, r, http.StatusUnauthorized, "Sign in to chat", map[string]any{"redirect": auth.SignInPath})
		return "", false
	}
	return userID, true
}

// SendMessage godoc
// @Summary      Send a chat message
// @Description  Publishes the caller's message to the chat bot. Replies arrive on the stream.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        message body SendMessageRequest true "Message"
// @Security     BearerAuth
// @Success      202 {object} types.Response
// @Failure      400 {object} types.Response
// @Failure      401 {object} types.Response
// @Failure      502 {object} types.Response
// @Failure      503 {object} types.Response
// @Router       /chat/messages [post]
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "SendMessage", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/chat/messages"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "SendMessage"))

	userID, ok := h.ready(w, r)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "message is required")
		return
	}

	if err := h.client.Invoke(ctx, MethodSendMessage, OutgoingMessage{UserID: userID, Message: req.Message}); err != nil {
		l.ErrorContext(ctx, "Failed to send chat message", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponseWith(w, r, http.StatusBadGateway, "Failed to reach the chat bot", map[string]any{"retryable": true})
		return
	}
	api.WriteJSONResponse(w, r, http.StatusAccepted, map[string]any{"success": true, "message": "sent"})
}

// Stream godoc
// @Summary      Chat reply stream
// @Description  Server-Sent Events carrying the chat bot replies for the caller.
// @Tags         Chat
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200 {object} StreamEvent
// @Failure      401 {object} types.Response
// @Failure      503 {object} types.Response
// @Router       /chat/stream [get]
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "Stream", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/chat/stream"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "Stream"))

	userID, ok := h.ready(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	messages := make(chan Message, 16)
	unsubscribe, err := h.client.On(EventReceiveMessage, userID, func(m Message) {
		select {
		case messages <- m:
		default:
			l.Warn("Dropping chat message for slow reader", slog.String("userID", userID))
		}
	})
	if err != nil {
		l.ErrorContext(ctx, "Failed to subscribe to chat replies", slog.Any("error", err))
		api.ErrorResponseWith(w, r, http.StatusBadGateway, "Failed to reach the chat bot", map[string]any{"retryable": true})
		return
	}
	defer func() {
		if err := unsubscribe(); err != nil {
			l.WarnContext(ctx, "Failed to unsubscribe from chat replies", slog.Any("error", err))
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatEvery)
	defer heartbeat.Stop()
	for {
		select {
		case m := <-messages:
			if err := writeEvent(w, StreamEvent{Type: EventTypeMessage, Message: &m}); err != nil {
				l.WarnContext(ctx, "Skipping chat message", slog.String("userID", userID), slog.Any("error", err))
				continue
			}
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case <-ctx.Done():
			l.DebugContext(ctx, "Chat stream closed", slog.String("userID", userID))
			return
		}
	}
}

// writeEvent frames one SSE event. Nothing is written when the event cannot be encoded.
func writeEvent(w io.Writer, event StreamEvent) error {
	event.Timestamp = time.Now()
	event.EventID = uuid.New().String()
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode stream event: %w", err)
	}
	fmt.Fprintf(w, "id: %s\n", event.EventID)
	fmt.Fprintf(w, "event: %s\n", event.Type)
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
