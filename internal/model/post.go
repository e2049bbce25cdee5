package model

import (
	"time"
)

type Post struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	ImageURL    string    `db:"image_url" json:"imageUrl"`
	CreatedBy   *string   `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// PostView is a post decorated with vote and favorite aggregates, relative to
// the viewer when one is known.
type PostView struct {
	Post
	Score          int       `db:"score" json:"score"`
	MyVote         VoteValue `db:"my_vote" json:"myVote"`
	Saved          bool      `db:"saved" json:"saved"`
	FavoritesCount int       `db:"favorites_count" json:"favoritesCount"`
}

type CreatePostParams struct {
	Title       string
	Description string
	ImageURL    string
	CreatedBy   *string
}

type VoteResult struct {
	ID     string    `json:"id"`
	Score  int       `json:"score"`
	MyVote VoteValue `json:"myVote"`
}

type FavoriteResult struct {
	Saved          bool `json:"saved"`
	FavoritesCount int  `json:"favoritesCount"`
}
