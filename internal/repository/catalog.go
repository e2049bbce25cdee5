package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/peerpresence/server-go/internal/model"
)

type CatalogRepository interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	ListSubjects(ctx context.Context) ([]model.Subject, error)
	SearchSubjects(ctx context.Context, term string, limit int) ([]model.Subject, error)
}

type catalogRepo struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) CatalogRepository {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) ListCourses(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.SelectContext(ctx, &courses, `SELECT * FROM courses ORDER BY title ASC`)
	return courses, err
}

func (r *catalogRepo) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.db.SelectContext(ctx, &subjects, `SELECT * FROM subjects ORDER BY name ASC`)
	return subjects, err
}

func (r *catalogRepo) SearchSubjects(ctx context.Context, term string, limit int) ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.db.SelectContext(ctx, &subjects, `
		SELECT * FROM subjects
		WHERE name ILIKE $1 OR description ILIKE $1
		ORDER BY name ASC
		LIMIT $2
	`, containsPattern(term), limit)
	return subjects, err
}
