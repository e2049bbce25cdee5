package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/peerpresence/server-go/internal/config"
	apperrors "github.com/peerpresence/server-go/internal/errors"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/repository"
)

const defaultGlobalSender = "User"

// GlobalChatService keeps the legacy single-room chat log.
type GlobalChatService struct {
	repo    repository.GlobalMessageRepository
	limiter Limiter
}

// NewGlobalChatService accepts a nil limiter, which disables flood control.
func NewGlobalChatService(repo repository.GlobalMessageRepository, limiter Limiter) *GlobalChatService {
	return &GlobalChatService{repo: repo, limiter: limiter}
}

// Post stores a chat line on behalf of the connection identified by
// sourceKey. A blank sender is recorded as "User".
func (s *GlobalChatService) Post(ctx context.Context, sourceKey, sender, text, timestamp string) (*model.GlobalMessage, error) {
	text = normalizeText(text)
	if text == "" {
		return nil, apperrors.MissingRequired("text")
	}
	sender = strings.TrimSpace(sender)
	if sender == "" {
		sender = defaultGlobalSender
	}

	if s.limiter != nil {
		allowed, resetAt := s.limiter.Allow(ctx, "chat:"+sourceKey, config.GlobalChatPerMinLimit, time.Minute)
		if !allowed {
			return nil, apperrors.RateLimitExceeded().WithDetails(map[string]interface{}{
				"resetAt": resetAt.UTC().Format(time.RFC3339),
			})
		}
	}

	msg, err := s.repo.Create(ctx, model.CreateGlobalMessageParams{
		Sender:    sender,
		Text:      text,
		Timestamp: strings.TrimSpace(timestamp),
	})
	if err != nil {
		return nil, fmt.Errorf("create global message: %w", err)
	}
	return msg, nil
}

func (s *GlobalChatService) History(ctx context.Context) ([]model.GlobalMessage, error) {
	msgs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list global messages: %w", err)
	}
	if msgs == nil {
		msgs = []model.GlobalMessage{}
	}
	return msgs, nil
}

// Prune deletes chat lines older than days. Zero or negative keeps
// everything.
func (s *GlobalChatService) Prune(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	n, err := s.repo.DeleteOlderThan(ctx, days)
	if err != nil {
		return 0, fmt.Errorf("prune global messages: %w", err)
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Int("days", days).Msg("pruned global chat")
	}
	return n, nil
}
