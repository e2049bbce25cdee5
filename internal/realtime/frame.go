package realtime

import (
	"encoding/json"
	"fmt"
)

// Event names on the socket.
const (
	EventPresenceUpdate = "presence:update"
	EventJoin           = "join"
	EventLeave          = "leave"
	EventTyping         = "typing"
	EventChatMessage    = "chat message"
)

// Frame is the wire shape of every socket message in both directions.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return json.Marshal(Frame{Type: event, Data: data})
}

type roomPayload struct {
	ConversationID string `json:"conversationId"`
}

type typingPayload struct {
	ConversationID string `json:"conversationId"`
	From           string `json:"from"`
	IsTyping       bool   `json:"isTyping"`
}

type chatPayload struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type presencePayload struct {
	Online []string `json:"online"`
}
