package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/peerpresence/server-go/internal/model"
)

type ConversationRepository interface {
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	// StartOrGet returns the conversation for the pair, creating it if needed.
	// a and b must already be in canonical order.
	StartOrGet(ctx context.Context, a, b, key string) (*model.Conversation, error)
	FindByParticipant(ctx context.Context, personID string) ([]model.Conversation, error)
	PeerIdentities(ctx context.Context, personIDs []string) ([]model.PeerIdentity, error)
}

type conversationRepo struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT * FROM conversations WHERE id = $1`, id)
	return HandleNotFound(&conv, err)
}

func (r *conversationRepo) StartOrGet(ctx context.Context, a, b, key string) (*model.Conversation, error) {
	var conv model.Conversation
	// The no-op update makes RETURNING yield the existing row on conflict.
	err := r.db.GetContext(ctx, &conv, `
		INSERT INTO conversations (participant_a, participant_b, participants_key)
		VALUES ($1, $2, $3)
		ON CONFLICT (participants_key) DO UPDATE SET
			participants_key = EXCLUDED.participants_key
		RETURNING *
	`, a, b, key)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) FindByParticipant(ctx context.Context, personID string) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.SelectContext(ctx, &convs, `
		SELECT * FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY last_message_at DESC
	`, personID)
	return convs, err
}

func (r *conversationRepo) PeerIdentities(ctx context.Context, personIDs []string) ([]model.PeerIdentity, error) {
	var peers []model.PeerIdentity
	err := r.db.SelectContext(ctx, &peers, `
		SELECT ids.id::text AS person_id,
			p.name AS person_name,
			p.avatar_url AS person_avatar,
			t.name AS tutor_name,
			t.avatar_url AS tutor_avatar
		FROM unnest($1::uuid[]) AS ids(id)
		LEFT JOIN persons p ON p.id = ids.id
		LEFT JOIN tutors t ON t.person_id = ids.id
	`, pq.Array(personIDs))
	return peers, err
}
