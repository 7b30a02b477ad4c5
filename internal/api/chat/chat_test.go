package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-journeymate/internal/api/auth"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// memoryTransport delivers published payloads to in-process subscribers.
type memoryTransport struct {
	mu         sync.Mutex
	subs       map[string]func([]byte)
	published  map[string][][]byte
	subscribed chan string
	publishErr error
}

func newMemoryTransport() *memoryTransport {
	return &memoryTransport{
		subs:       map[string]func([]byte){},
		published:  map[string][][]byte{},
		subscribed: make(chan string, 4),
	}
}

func (m *memoryTransport) Publish(subject string, data []byte) error {
	m.mu.Lock()
	if m.publishErr != nil {
		m.mu.Unlock()
		return m.publishErr
	}
	m.published[subject] = append(m.published[subject], data)
	handler := m.subs[subject]
	m.mu.Unlock()
	if handler != nil {
		handler(data)
	}
	return nil
}

func (m *memoryTransport) Subscribe(subject string, handler func([]byte)) (func() error, error) {
	m.mu.Lock()
	m.subs[subject] = handler
	m.mu.Unlock()
	m.subscribed <- subject
	return func() error {
		m.mu.Lock()
		delete(m.subs, subject)
		m.mu.Unlock()
		return nil
	}, nil
}

func withUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithCurrentUser(req.Context(), &types.CurrentUser{ID: userID, Token: "t"}))
}

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantText    string
		wantTravels int
		wantEvents  int
	}{
		{name: "object", payload: `{"response":"Try Luxor","travels":[{"id":3,"title":"Luxor","price":"120"}],"events":[{"id":1,"title":"Sound and light"}]}`, wantText: "Try Luxor", wantTravels: 1, wantEvents: 1},
		{name: "object with wrapped lists", payload: `{"message":"Here","tours":{"$values":[{"id":1},{"id":2}]}}`, wantText: "Here", wantTravels: 2},
		{name: "json string", payload: `"Hello traveller"`, wantText: "Hello traveller"},
		{name: "raw text", payload: "Hello, plain text", wantText: "Hello, plain text"},
		{name: "number", payload: `42`, wantText: "42"},
		{name: "empty", payload: "  ", wantText: ""},
		{name: "malformed lists", payload: `{"response":"x","travels":"none","events":[1,2]}`, wantText: "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DecodeMessage([]byte(tt.payload))
			assert.Equal(t, tt.wantText, m.Response)
			assert.Len(t, m.Travels, tt.wantTravels)
			assert.Len(t, m.Events, tt.wantEvents)
			assert.NotNil(t, m.Travels)
			assert.NotNil(t, m.Events)
		})
	}

	m := DecodeMessage([]byte(`{"travels":[{"id":3,"price":"120"}]}`))
	assert.Equal(t, int64(3), m.Travels[0].ID)
	assert.Equal(t, 120.0, m.Travels[0].Price)
}

func TestClient_InvokeAndOn(t *testing.T) {
	transport := newMemoryTransport()
	client := NewClient(transport, "chat", slog.Default())

	var got []Message
	unsubscribe, err := client.On(EventReceiveMessage, "u1", func(m Message) { got = append(got, m) })
	require.NoError(t, err)

	require.NoError(t, client.Invoke(context.Background(), MethodSendMessage, OutgoingMessage{UserID: "u1", Message: "hi"}))
	sent := transport.published["chat.SendMessage"]
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"userId":"u1","message":"hi"}`, string(sent[0]))

	require.NoError(t, transport.Publish("chat.ReceiveMessage.u1", []byte(`"welcome"`)))
	require.NoError(t, transport.Publish("chat.ReceiveMessage.u2", []byte(`"not yours"`)))
	require.Len(t, got, 1)
	assert.Equal(t, "welcome", got[0].Response)

	require.NoError(t, unsubscribe())
	require.NoError(t, transport.Publish("chat.ReceiveMessage.u1", []byte(`"late"`)))
	assert.Len(t, got, 1)
}

func setupChatHandlerTest() (*chi.Mux, *memoryTransport) {
	transport := newMemoryTransport()
	h := NewChatHandler(NewClient(transport, "chat", slog.Default()), auth.NewOracle(), slog.Default())
	r := chi.NewRouter()
	r.Post("/chat/messages", h.SendMessage)
	r.Get("/chat/stream", h.Stream)
	return r, transport
}

func TestChatHandler_SendMessage(t *testing.T) {
	t.Run("publishes", func(t *testing.T) {
		r, transport := setupChatHandlerTest()
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(`{"message":"cruise?"}`)), "u1"))

		assert.Equal(t, http.StatusAccepted, rr.Code)
		assert.Len(t, transport.published["chat.SendMessage"], 1)
	})

	t.Run("empty message", func(t *testing.T) {
		r, _ := setupChatHandlerTest()
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(`{"message":" "}`)), "u1"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("publish failure", func(t *testing.T) {
		r, transport := setupChatHandlerTest()
		transport.publishErr = errors.New("closed")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(`{"message":"hi"}`)), "u1"))
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		r, _ := setupChatHandlerTest()
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(`{"message":"hi"}`)))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		h := NewChatHandler(nil, auth.NewOracle(), slog.Default())
		rr := httptest.NewRecorder()
		h.SendMessage(rr, withUser(httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(`{"message":"hi"}`)), "u1"))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestChatHandler_Stream(t *testing.T) {
	r, transport := setupChatHandlerTest()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.ServeHTTP(w, withUser(req, "u1"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/chat/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	select {
	case subject := <-transport.subscribed:
		assert.Equal(t, "chat.ReceiveMessage.u1", subject)
	case <-ctx.Done():
		t.Fatal("stream never subscribed")
	}
	require.NoError(t, transport.Publish("chat.ReceiveMessage.u1", []byte(`{"response":"Abu Simbel at dawn"}`)))

	reader := bufio.NewReader(resp.Body)
	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
		}
	}
	var event StreamEvent
	require.NoError(t, json.Unmarshal([]byte(data), &event))
	assert.Equal(t, EventTypeMessage, event.Type)
	require.NotNil(t, event.Message)
	assert.Equal(t, "Abu Simbel at dawn", event.Message.Response)
}

func TestWriteEvent(t *testing.T) {
	t.Run("frames a message", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeEvent(&buf, StreamEvent{Type: EventTypeMessage, Message: &Message{Response: "hi"}}))

		out := buf.String()
		assert.Contains(t, out, "event: message\n")
		assert.Contains(t, out, `"response":"hi"`)
		assert.True(t, strings.HasSuffix(out, "\n\n"))
	})

	t.Run("unencodable event writes nothing", func(t *testing.T) {
		var buf bytes.Buffer
		m := &Message{Travels: []types.Tour{{ID: 1, Price: math.Inf(1)}}}
		err := writeEvent(&buf, StreamEvent{Type: EventTypeMessage, Message: m})
		assert.ErrorContains(t, err, "failed to encode stream event")
		assert.Zero(t, buf.Len())
	})
}
