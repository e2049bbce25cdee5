package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	apperrors "github.com/peerpresence/server-go/internal/errors"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/repository"
	"github.com/peerpresence/server-go/internal/util"
)

// PeerResolver turns a person or tutor listing reference into a person id.
type PeerResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

type ConversationService struct {
	repo     repository.ConversationRepository
	resolver PeerResolver
}

func NewConversationService(repo repository.ConversationRepository, resolver PeerResolver) *ConversationService {
	return &ConversationService{repo: repo, resolver: resolver}
}

// StartOrGet returns the single conversation between two persons, creating
// it on first contact. Argument order does not matter.
func (s *ConversationService) StartOrGet(ctx context.Context, personA, personB string) (*model.Conversation, error) {
	if personA == "" || personB == "" {
		return nil, apperrors.MissingRequired("participants")
	}
	if personA == personB {
		return nil, apperrors.ValidationError("Cannot start a conversation with yourself")
	}

	a, b, key := model.CanonicalPair(personA, personB)
	conv, err := s.repo.StartOrGet(ctx, a, b, key)
	if err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}
	return conv, nil
}

// Start resolves peerRef, which may name a person or a tutor listing, and
// opens the conversation between it and me.
func (s *ConversationService) Start(ctx context.Context, me, peerRef string) (*model.Conversation, error) {
	if peerRef == "" {
		return nil, apperrors.MissingRequired("userId")
	}
	peer, err := s.resolver.Resolve(ctx, peerRef)
	if err != nil {
		return nil, err
	}

	conv, err := s.StartOrGet(ctx, me, peer)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("conversationId", conv.ID).
		Str("personId", me).
		Str("peerId", peer).
		Msg("conversation started")

	return conv, nil
}

// FindForParticipant loads a conversation and checks that personID takes
// part in it.
func (s *ConversationService) FindForParticipant(ctx context.Context, conversationID, personID string) (*model.Conversation, error) {
	id, ok := util.NormalizeUUID(conversationID)
	if !ok {
		return nil, apperrors.InvalidInput("conversation id", "must be a UUID")
	}

	conv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	if conv == nil {
		return nil, apperrors.NotFound("Conversation")
	}
	if !conv.HasParticipant(personID) {
		return nil, apperrors.Forbidden("Not a participant in this conversation")
	}
	return conv, nil
}

// ListForPerson returns one entry per peer, most recently active first, each
// decorated with the peer's display identity.
func (s *ConversationService) ListForPerson(ctx context.Context, personID string) ([]model.ConversationSummary, error) {
	convs, err := s.repo.FindByParticipant(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	latest := make([]*model.Conversation, 0, len(convs))
	byPeer := make(map[string]int, len(convs))
	for i := range convs {
		c := &convs[i]
		peer := c.Other(personID)
		if peer == "" || peer == personID {
			continue
		}
		if idx, seen := byPeer[peer]; seen {
			if c.LastMessageAt.After(latest[idx].LastMessageAt) {
				latest[idx] = c
			}
			continue
		}
		byPeer[peer] = len(latest)
		latest = append(latest, c)
	}

	if len(latest) == 0 {
		return []model.ConversationSummary{}, nil
	}

	// Most recent activity first.
	sort.SliceStable(latest, func(i, j int) bool {
		return latest[i].LastMessageAt.After(latest[j].LastMessageAt)
	})

	peerIDs := make([]string, 0, len(latest))
	for _, c := range latest {
		peerIDs = append(peerIDs, c.Other(personID))
	}
	identities, err := s.repo.PeerIdentities(ctx, peerIDs)
	if err != nil {
		return nil, fmt.Errorf("load peer identities: %w", err)
	}
	branding := make(map[string]model.PeerIdentity, len(identities))
	for _, p := range identities {
		// A person is linked to at most one listing; keep the first row seen.
		if _, ok := branding[p.PersonID]; !ok {
			branding[p.PersonID] = p
		}
	}

	result := make([]model.ConversationSummary, 0, len(latest))
	for _, c := range latest {
		peerID := c.Other(personID)
		result = append(result, model.ConversationSummary{
			ConversationView: c.View(),
			Peer:             displayPeer(peerID, branding[peerID]),
		})
	}
	return result, nil
}

// displayPeer prefers tutor listing branding, then the person, then a
// generic name.
func displayPeer(peerID string, id model.PeerIdentity) model.Peer {
	return model.Peer{
		ID:     peerID,
		Name:   firstNonEmpty(id.TutorName, id.PersonName, strPtr("User")),
		Avatar: firstNonEmpty(id.TutorAvatar, id.PersonAvatar),
	}
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

func strPtr(s string) *string {
	return &s
}
