package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/peerpresence/server-go/internal/config"
	apperrors "github.com/peerpresence/server-go/internal/errors"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/repository"
)

// Realtime event names emitted after a message is stored.
const (
	EventMessageNew = "message:new"
	EventNotifyDM   = "notify:dm"
)

// Notifier pushes events to realtime subscribers. Rooms are keyed by
// conversation id; personal channels by person id.
type Notifier interface {
	EmitToRoom(ctx context.Context, room, event string, payload any) error
	EmitToPerson(ctx context.Context, personID, event string, payload any) error
}

type MessageService struct {
	repo          repository.MessageRepository
	conversations *ConversationService
	notifier      Notifier
}

func NewMessageService(
	repo repository.MessageRepository,
	conversations *ConversationService,
	notifier Notifier,
) *MessageService {
	return &MessageService{
		repo:          repo,
		conversations: conversations,
		notifier:      notifier,
	}
}

// Append validates and stores a message. Text is trimmed and silently
// truncated to the length bound. The conversation's last activity and
// preview advance with the insert.
func (s *MessageService) Append(ctx context.Context, conversationID, senderID, text string) (*model.Message, error) {
	text = normalizeText(text)
	if text == "" {
		return nil, apperrors.MissingRequired("text")
	}

	conv, err := s.conversations.FindForParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	msg, err := s.repo.Create(ctx, model.CreateMessageParams{
		ConversationID: conv.ID,
		SenderID:       senderID,
		RecipientID:    conv.Other(senderID),
		Text:           text,
	})
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	log.Debug().
		Str("messageId", msg.ID).
		Str("conversationId", conv.ID).
		Str("senderId", senderID).
		Msg("message stored")

	return msg, nil
}

// Send appends the message and then fans it out to the conversation room and
// the recipient's personal channel. Fan-out failures are logged only.
func (s *MessageService) Send(ctx context.Context, conversationID, senderID, text string) (*model.Message, error) {
	msg, err := s.Append(ctx, conversationID, senderID, text)
	if err != nil {
		return nil, err
	}

	if s.notifier == nil {
		return msg, nil
	}

	if err := s.notifier.EmitToRoom(ctx, msg.ConversationID, EventMessageNew, msg); err != nil {
		log.Warn().Err(err).Str("conversationId", msg.ConversationID).Msg("failed to emit message to room")
	}
	notice := model.DirectNotification{
		ConversationID: msg.ConversationID,
		From:           msg.SenderID,
		Text:           msg.Text,
		CreatedAt:      msg.CreatedAt,
	}
	if err := s.notifier.EmitToPerson(ctx, msg.RecipientID, EventNotifyDM, notice); err != nil {
		log.Warn().Err(err).Str("recipientId", msg.RecipientID).Msg("failed to notify recipient")
	}

	return msg, nil
}

// ListForConversation returns the conversation's messages oldest first after
// checking that requester is a participant.
func (s *MessageService) ListForConversation(ctx context.Context, conversationID, requester string) ([]model.Message, error) {
	conv, err := s.conversations.FindForParticipant(ctx, conversationID, requester)
	if err != nil {
		return nil, err
	}

	msgs, err := s.repo.FindByConversationID(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

func normalizeText(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= config.MessageMaxLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:config.MessageMaxLength])
}
