package model

import (
	"time"
)

// Conversation is a two-party dialogue. ParticipantA < ParticipantB always,
// and ParticipantsKey is unique across the table.
type Conversation struct {
	ID              string    `db:"id" json:"id"`
	ParticipantA    string    `db:"participant_a" json:"-"`
	ParticipantB    string    `db:"participant_b" json:"-"`
	ParticipantsKey string    `db:"participants_key" json:"-"`
	LastMessageAt   time.Time `db:"last_message_at" json:"lastMessageAt"`
	LastMessageText string    `db:"last_message_text" json:"lastMessageText"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

func (c *Conversation) Participants() []string {
	return []string{c.ParticipantA, c.ParticipantB}
}

func (c *Conversation) HasParticipant(personID string) bool {
	return personID != "" && (c.ParticipantA == personID || c.ParticipantB == personID)
}

// Other returns the participant that is not personID.
func (c *Conversation) Other(personID string) string {
	if c.ParticipantA == personID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// ConversationView is the JSON shape of a conversation.
type ConversationView struct {
	*Conversation
	Participants []string `json:"participants"`
}

func (c *Conversation) View() ConversationView {
	return ConversationView{Conversation: c, Participants: c.Participants()}
}

// Peer is the display identity of the other participant.
type Peer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type ConversationSummary struct {
	ConversationView
	Peer Peer `json:"peer"`
}

// PeerIdentity is the branding row joined for a conversation peer.
type PeerIdentity struct {
	PersonID     string  `db:"person_id"`
	PersonName   *string `db:"person_name"`
	PersonAvatar *string `db:"person_avatar"`
	TutorName    *string `db:"tutor_name"`
	TutorAvatar  *string `db:"tutor_avatar"`
}

// CanonicalPair orders two person ids and derives the pair's uniqueness key,
// so (a, b) and (b, a) map to the same conversation.
func CanonicalPair(a, b string) (first, second, key string) {
	if b < a {
		a, b = b, a
	}
	return a, b, a + ":" + b
}
