package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/peerpresence/server-go/internal/errors"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/repository"
	"github.com/peerpresence/server-go/internal/util"
)

// PostService handles the social feed. Vote and favorite toggles are
// read-modify-write without locking; concurrent toggles may lose an update.
type PostService struct {
	repo repository.PostRepository
}

func NewPostService(repo repository.PostRepository) *PostService {
	return &PostService{repo: repo}
}

func (s *PostService) List(ctx context.Context, viewerID string) ([]model.PostView, error) {
	posts, err := s.repo.List(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if posts == nil {
		posts = []model.PostView{}
	}
	return posts, nil
}

func (s *PostService) Saved(ctx context.Context, personID string) ([]model.PostView, error) {
	posts, err := s.repo.ListSaved(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("list saved posts: %w", err)
	}
	if posts == nil {
		posts = []model.PostView{}
	}
	return posts, nil
}

func (s *PostService) Create(ctx context.Context, authorID, title, description, imageURL string) (*model.Post, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return nil, apperrors.MissingRequired("title")
	}
	if description == "" {
		return nil, apperrors.MissingRequired("description")
	}

	var createdBy *string
	if authorID != "" {
		createdBy = &authorID
	}
	post, err := s.repo.Create(ctx, model.CreatePostParams{
		Title:       title,
		Description: description,
		ImageURL:    strings.TrimSpace(imageURL),
		CreatedBy:   createdBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	log.Info().Str("postId", post.ID).Str("authorId", authorID).Msg("post created")
	return post, nil
}

// Vote applies toggle semantics: repeating the current vote removes it, the
// opposite value flips it.
func (s *PostService) Vote(ctx context.Context, postID, personID string, value model.VoteValue) (*model.VoteResult, error) {
	if !value.Valid() {
		return nil, apperrors.InvalidInput("value", "must be 1 or -1")
	}
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.FindVote(ctx, post.ID, personID)
	if err != nil {
		return nil, fmt.Errorf("find vote: %w", err)
	}

	myVote := value
	if current == value {
		myVote = model.VoteNone
		err = s.repo.DeleteVote(ctx, post.ID, personID)
	} else {
		err = s.repo.SetVote(ctx, post.ID, personID, value)
	}
	if err != nil {
		return nil, fmt.Errorf("update vote: %w", err)
	}

	score, err := s.repo.Score(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("score post: %w", err)
	}

	return &model.VoteResult{ID: post.ID, Score: score, MyVote: myVote}, nil
}

// ToggleFavorite saves the post for personID, or unsaves it if already saved.
func (s *PostService) ToggleFavorite(ctx context.Context, postID, personID string) (*model.FavoriteResult, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	already, err := s.repo.IsFavorite(ctx, post.ID, personID)
	if err != nil {
		return nil, fmt.Errorf("check favorite: %w", err)
	}
	if already {
		err = s.repo.RemoveFavorite(ctx, post.ID, personID)
	} else {
		err = s.repo.AddFavorite(ctx, post.ID, personID)
	}
	if err != nil {
		return nil, fmt.Errorf("toggle favorite: %w", err)
	}

	count, err := s.repo.CountFavorites(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("count favorites: %w", err)
	}

	return &model.FavoriteResult{Saved: !already, FavoritesCount: count}, nil
}

func (s *PostService) findPost(ctx context.Context, postID string) (*model.Post, error) {
	id, ok := util.NormalizeUUID(postID)
	if !ok {
		return nil, apperrors.InvalidInput("post id", "must be a UUID")
	}
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	if post == nil {
		return nil, apperrors.NotFound("Post")
	}
	return post, nil
}
