package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/peerpresence/server-go/internal/model"
)

type MessageRepository interface {
	// Create stores the message and advances the conversation's last activity
	// and preview in the same statement.
	Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error)
	FindByConversationID(ctx context.Context, conversationID string) ([]model.Message, error)
}

type messageRepo struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		WITH inserted AS (
			INSERT INTO messages (conversation_id, sender_id, recipient_id, text)
			VALUES ($1, $2, $3, $4)
			RETURNING *
		), touched AS (
			UPDATE conversations c SET
				last_message_at = GREATEST(c.last_message_at, i.created_at),
				last_message_text = CASE
					WHEN i.created_at >= c.last_message_at THEN i.text
					ELSE c.last_message_text
				END,
				updated_at = NOW()
			FROM inserted i
			WHERE c.id = i.conversation_id
		)
		SELECT * FROM inserted
	`, params.ConversationID, params.SenderID, params.RecipientID, params.Text)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepo) FindByConversationID(ctx context.Context, conversationID string) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`, conversationID)
	return msgs, err
}

// Global chat repository

type GlobalMessageRepository interface {
	Create(ctx context.Context, params model.CreateGlobalMessageParams) (*model.GlobalMessage, error)
	FindAll(ctx context.Context) ([]model.GlobalMessage, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

type globalMessageRepo struct {
	db *sqlx.DB
}

func NewGlobalMessageRepository(db *sqlx.DB) GlobalMessageRepository {
	return &globalMessageRepo{db: db}
}

func (r *globalMessageRepo) Create(ctx context.Context, params model.CreateGlobalMessageParams) (*model.GlobalMessage, error) {
	var msg model.GlobalMessage
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO global_messages (sender, text, timestamp)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.Sender, params.Text, params.Timestamp)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *globalMessageRepo) FindAll(ctx context.Context) ([]model.GlobalMessage, error) {
	var msgs []model.GlobalMessage
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM global_messages ORDER BY created_at ASC
	`)
	return msgs, err
}

func (r *globalMessageRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM global_messages
		WHERE created_at < NOW() - INTERVAL '1 day' * $1::int
	`, days)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
