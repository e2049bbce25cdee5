package model

import (
	"time"
)

type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversationId"`
	SenderID       string    `db:"sender_id" json:"from"`
	RecipientID    string    `db:"recipient_id" json:"to"`
	Text           string    `db:"text" json:"text"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

type CreateMessageParams struct {
	ConversationID string
	SenderID       string
	RecipientID    string
	Text           string
}

// DirectNotification is pushed to the recipient's personal channel.
type DirectNotification struct {
	ConversationID string    `json:"conversationId"`
	From           string    `json:"from"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

// GlobalMessage is an entry of the legacy single-room chat log.
type GlobalMessage struct {
	ID        string    `db:"id" json:"id"`
	Sender    string    `db:"sender" json:"sender"`
	Text      string    `db:"text" json:"text"`
	Timestamp string    `db:"timestamp" json:"timestamp"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateGlobalMessageParams struct {
	Sender    string
	Text      string
	Timestamp string
}
