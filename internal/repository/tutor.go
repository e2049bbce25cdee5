package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/peerpresence/server-go/internal/model"
)

type TutorRepository interface {
	FindByID(ctx context.Context, id string) (*model.Tutor, error)
	FindByPersonID(ctx context.Context, personID string) (*model.Tutor, error)
	List(ctx context.Context, query string) ([]model.Tutor, error)
	SearchBySubject(ctx context.Context, term string, limit int) ([]model.Tutor, error)
	SearchCandidates(ctx context.Context, term string, limit int) ([]model.Tutor, error)
	// LinkPerson sets the listing's person link only if it is still unset.
	// It reports whether this call made the link.
	LinkPerson(ctx context.Context, id, personID string) (bool, error)
	RatingStats(ctx context.Context, id string) (*model.RatingStats, error)
	ListReviews(ctx context.Context, tutorID string) ([]model.TutorReview, error)
	UpsertReview(ctx context.Context, params model.UpsertReviewParams) (*model.TutorReview, error)
	WithTx(tx *sqlx.Tx) TutorRepository
}

type tutorRepo struct {
	db sqlxDB
}

func NewTutorRepository(db *sqlx.DB) TutorRepository {
	return &tutorRepo{db: db}
}

func (r *tutorRepo) WithTx(tx *sqlx.Tx) TutorRepository {
	return &tutorRepo{db: tx}
}

func (r *tutorRepo) FindByID(ctx context.Context, id string) (*model.Tutor, error) {
	var tutor model.Tutor
	err := r.db.GetContext(ctx, &tutor, `SELECT * FROM tutors WHERE id = $1`, id)
	return HandleNotFound(&tutor, err)
}

func (r *tutorRepo) FindByPersonID(ctx context.Context, personID string) (*model.Tutor, error) {
	var tutor model.Tutor
	err := r.db.GetContext(ctx, &tutor, `SELECT * FROM tutors WHERE person_id = $1`, personID)
	return HandleNotFound(&tutor, err)
}

func (r *tutorRepo) List(ctx context.Context, query string) ([]model.Tutor, error) {
	var tutors []model.Tutor
	if query == "" {
		err := r.db.SelectContext(ctx, &tutors, `SELECT * FROM tutors ORDER BY name ASC`)
		return tutors, err
	}
	err := r.db.SelectContext(ctx, &tutors, `
		SELECT * FROM tutors
		WHERE name ILIKE $1
			OR bio ILIKE $1
			OR EXISTS (SELECT 1 FROM unnest(subjects) s WHERE s ILIKE $1)
		ORDER BY name ASC
	`, containsPattern(query))
	return tutors, err
}

func (r *tutorRepo) SearchBySubject(ctx context.Context, term string, limit int) ([]model.Tutor, error) {
	var tutors []model.Tutor
	err := r.db.SelectContext(ctx, &tutors, `
		SELECT * FROM tutors
		WHERE EXISTS (SELECT 1 FROM unnest(subjects) s WHERE s ILIKE $1)
		ORDER BY rating DESC, name ASC
		LIMIT $2
	`, containsPattern(term), limit)
	return tutors, err
}

func (r *tutorRepo) SearchCandidates(ctx context.Context, term string, limit int) ([]model.Tutor, error) {
	var tutors []model.Tutor
	err := r.db.SelectContext(ctx, &tutors, `
		SELECT * FROM tutors
		WHERE name ILIKE $1
			OR bio ILIKE $1
			OR EXISTS (SELECT 1 FROM unnest(subjects) s WHERE s ILIKE $1)
		LIMIT $2
	`, containsPattern(term), limit)
	return tutors, err
}

func (r *tutorRepo) LinkPerson(ctx context.Context, id, personID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tutors SET person_id = $2, updated_at = NOW()
		WHERE id = $1 AND person_id IS NULL
	`, id, personID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n == 1, err
}

func (r *tutorRepo) RatingStats(ctx context.Context, id string) (*model.RatingStats, error) {
	var stats model.RatingStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT COALESCE(AVG(rating), 0)::float8 AS rating_avg, COUNT(*) AS rating_count
		FROM tutor_reviews WHERE tutor_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *tutorRepo) ListReviews(ctx context.Context, tutorID string) ([]model.TutorReview, error) {
	var reviews []model.TutorReview
	err := r.db.SelectContext(ctx, &reviews, `
		SELECT tr.*, p.name AS author_name, p.avatar_url AS author_avatar
		FROM tutor_reviews tr
		JOIN persons p ON p.id = tr.author_id
		WHERE tr.tutor_id = $1
		ORDER BY tr.created_at DESC
	`, tutorID)
	return reviews, err
}

func (r *tutorRepo) UpsertReview(ctx context.Context, params model.UpsertReviewParams) (*model.TutorReview, error) {
	var review model.TutorReview
	err := r.db.GetContext(ctx, &review, `
		WITH upserted AS (
			INSERT INTO tutor_reviews (tutor_id, author_id, rating, comment)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (tutor_id, author_id) DO UPDATE SET
				rating = EXCLUDED.rating,
				comment = EXCLUDED.comment,
				updated_at = NOW()
			RETURNING *
		)
		SELECT u.*, p.name AS author_name, p.avatar_url AS author_avatar
		FROM upserted u
		JOIN persons p ON p.id = u.author_id
	`, params.TutorID, params.AuthorID, params.Rating, params.Comment)
	if err != nil {
		return nil, err
	}
	return &review, nil
}
