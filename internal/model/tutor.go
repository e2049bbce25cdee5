package model

import (
	"time"

	"github.com/lib/pq"
)

// Tutor is a public tutor listing. PersonID links it to the Person used for
// messaging and is set at most once.
type Tutor struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Email        string         `db:"email" json:"email,omitempty"`
	AvatarURL    string         `db:"avatar_url" json:"avatar"`
	Bio          string         `db:"bio" json:"bio"`
	Subjects     pq.StringArray `db:"subjects" json:"subjects"`
	Rating       float64        `db:"rating" json:"rating"`
	ReviewsCount int            `db:"reviews_count" json:"reviewsCount"`
	PersonID     *string        `db:"person_id" json:"userId,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

type TutorDetail struct {
	*Tutor
	RatingAvg   float64 `json:"ratingAvg"`
	RatingCount int     `json:"ratingCount"`
}

type RankedTutor struct {
	*Tutor
	Score int `json:"score"`
}

type RatingStats struct {
	RatingAvg   float64 `db:"rating_avg"`
	RatingCount int     `db:"rating_count"`
}

type TutorReview struct {
	ID           string    `db:"id" json:"id"`
	TutorID      string    `db:"tutor_id" json:"tutorId"`
	AuthorID     string    `db:"author_id" json:"authorId"`
	AuthorName   string    `db:"author_name" json:"authorName"`
	AuthorAvatar string    `db:"author_avatar" json:"authorAvatar"`
	Rating       int       `db:"rating" json:"rating"`
	Comment      string    `db:"comment" json:"comment"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type UpsertReviewParams struct {
	TutorID  string
	AuthorID string
	Rating   int
	Comment  string
}
