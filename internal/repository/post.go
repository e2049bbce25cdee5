package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/peerpresence/server-go/internal/model"
)

type PostRepository interface {
	FindByID(ctx context.Context, id string) (*model.Post, error)
	// List returns all posts newest first. viewerID may be empty, in which
	// case myVote and saved are zero.
	List(ctx context.Context, viewerID string) ([]model.PostView, error)
	ListSaved(ctx context.Context, personID string) ([]model.PostView, error)
	Create(ctx context.Context, params model.CreatePostParams) (*model.Post, error)
	FindVote(ctx context.Context, postID, personID string) (model.VoteValue, error)
	SetVote(ctx context.Context, postID, personID string, value model.VoteValue) error
	DeleteVote(ctx context.Context, postID, personID string) error
	Score(ctx context.Context, postID string) (int, error)
	IsFavorite(ctx context.Context, postID, personID string) (bool, error)
	AddFavorite(ctx context.Context, postID, personID string) error
	RemoveFavorite(ctx context.Context, postID, personID string) error
	CountFavorites(ctx context.Context, postID string) (int, error)
}

type postRepo struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepo{db: db}
}

const postViewColumns = `
	p.*,
	COALESCE((SELECT SUM(v.value) FROM post_votes v WHERE v.post_id = p.id), 0) AS score,
	COALESCE((SELECT v.value FROM post_votes v WHERE v.post_id = p.id AND v.person_id::text = $1), 0) AS my_vote,
	EXISTS (SELECT 1 FROM post_favorites f WHERE f.post_id = p.id AND f.person_id::text = $1) AS saved,
	(SELECT COUNT(*) FROM post_favorites f WHERE f.post_id = p.id) AS favorites_count
`

func (r *postRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := r.db.GetContext(ctx, &post, `SELECT * FROM posts WHERE id = $1`, id)
	return HandleNotFound(&post, err)
}

func (r *postRepo) List(ctx context.Context, viewerID string) ([]model.PostView, error) {
	var posts []model.PostView
	err := r.db.SelectContext(ctx, &posts, `
		SELECT `+postViewColumns+`
		FROM posts p
		ORDER BY p.created_at DESC
	`, viewerID)
	return posts, err
}

func (r *postRepo) ListSaved(ctx context.Context, personID string) ([]model.PostView, error) {
	var posts []model.PostView
	err := r.db.SelectContext(ctx, &posts, `
		SELECT `+postViewColumns+`
		FROM posts p
		JOIN post_favorites mine ON mine.post_id = p.id AND mine.person_id::text = $1
		ORDER BY p.created_at DESC
	`, personID)
	return posts, err
}

func (r *postRepo) Create(ctx context.Context, params model.CreatePostParams) (*model.Post, error) {
	var post model.Post
	err := r.db.GetContext(ctx, &post, `
		INSERT INTO posts (title, description, image_url, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.Title, params.Description, params.ImageURL, params.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) FindVote(ctx context.Context, postID, personID string) (model.VoteValue, error) {
	var value model.VoteValue
	err := r.db.GetContext(ctx, &value, `
		SELECT COALESCE((SELECT value FROM post_votes WHERE post_id = $1 AND person_id = $2), 0)
	`, postID, personID)
	return value, err
}

func (r *postRepo) SetVote(ctx context.Context, postID, personID string, value model.VoteValue) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO post_votes (post_id, person_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, person_id) DO UPDATE SET value = EXCLUDED.value
	`, postID, personID, value)
	return err
}

func (r *postRepo) DeleteVote(ctx context.Context, postID, personID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM post_votes WHERE post_id = $1 AND person_id = $2
	`, postID, personID)
	return err
}

func (r *postRepo) Score(ctx context.Context, postID string) (int, error) {
	var score int
	err := r.db.GetContext(ctx, &score, `
		SELECT COALESCE(SUM(value), 0) FROM post_votes WHERE post_id = $1
	`, postID)
	return score, err
}

func (r *postRepo) IsFavorite(ctx context.Context, postID, personID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM post_favorites WHERE post_id = $1 AND person_id = $2)
	`, postID, personID)
	return exists, err
}

func (r *postRepo) AddFavorite(ctx context.Context, postID, personID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO post_favorites (post_id, person_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, postID, personID)
	return err
}

func (r *postRepo) RemoveFavorite(ctx context.Context, postID, personID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM post_favorites WHERE post_id = $1 AND person_id = $2
	`, postID, personID)
	return err
}

func (r *postRepo) CountFavorites(ctx context.Context, postID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM post_favorites WHERE post_id = $1
	`, postID)
	return count, err
}
