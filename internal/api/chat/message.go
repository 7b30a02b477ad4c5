package chat

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/FACorreiaa/go-journeymate/internal/api/remote"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// Message is a bot reply pushed to a user.
type Message struct {
	Response string        `json:"response"`
	Travels  []types.Tour  `json:"travels"`
	Events   []types.Event `json:"events"`
}

// OutgoingMessage is what the service publishes on behalf of a user.
type OutgoingMessage struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// SendMessageRequest is the body of POST /chat/messages.
type SendMessageRequest struct {
	Message string `json:"message" example:"Which Nile cruises leave next week?"`
}

// DecodeMessage reads a pushed payload. A JSON object is read field by
// field, a JSON string becomes the response text and anything else is kept
// as raw text.
func DecodeMessage(data []byte) Message {
	msg := Message{Travels: []types.Tour{}, Events: []types.Event{}}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return msg
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil || dec.More() {
		msg.Response = string(trimmed)
		return msg
	}

	switch v := raw.(type) {
	case string:
		msg.Response = v
	case map[string]any:
		msg.Response = types.StringField(v, "response", "message", "text", "answer")
		msg.Travels = types.ToursFromRecords(remote.RecordList(firstOf(v, "travels", "tours")))
		for _, rec := range remote.RecordList(firstOf(v, "events")) {
			msg.Events = append(msg.Events, types.EventFromRecord(rec))
		}
	default:
		msg.Response = strings.TrimSpace(string(trimmed))
	}
	return msg
}

func firstOf(r types.Record, keys ...string) any {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
