package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/peerpresence/server-go/internal/model"
)

type PersonRepository interface {
	FindByID(ctx context.Context, id string) (*model.Person, error)
	FindByEmail(ctx context.Context, email string) (*model.Person, error)
	Create(ctx context.Context, params model.CreatePersonParams) (*model.Person, error)
	Update(ctx context.Context, id string, params model.UpdatePersonParams) (*model.Person, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	ListSubjects(ctx context.Context, personID string) ([]model.PersonSubject, error)
	UpsertSubject(ctx context.Context, params model.UpsertSubjectParams) (*model.PersonSubject, error)
	UpdateSubjectSession(ctx context.Context, personID, name, date, clock, timezone string, duration int) error
	DeleteSubject(ctx context.Context, personID, name string) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) PersonRepository
}

type personRepo struct {
	db sqlxDB
}

func NewPersonRepository(db *sqlx.DB) PersonRepository {
	return &personRepo{db: db}
}

func (r *personRepo) WithTx(tx *sqlx.Tx) PersonRepository {
	return &personRepo{db: tx}
}

func (r *personRepo) FindByID(ctx context.Context, id string) (*model.Person, error) {
	var person model.Person
	err := r.db.GetContext(ctx, &person, `SELECT * FROM persons WHERE id = $1`, id)
	return HandleNotFound(&person, err)
}

func (r *personRepo) FindByEmail(ctx context.Context, email string) (*model.Person, error) {
	var person model.Person
	err := r.db.GetContext(ctx, &person, `SELECT * FROM persons WHERE email = $1`, email)
	return HandleNotFound(&person, err)
}

func (r *personRepo) Create(ctx context.Context, params model.CreatePersonParams) (*model.Person, error) {
	var person model.Person
	err := r.db.GetContext(ctx, &person, `
		INSERT INTO persons (name, email, password_hash, role, bio, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.Name, params.Email, params.PasswordHash, params.Role, params.Bio, params.AvatarURL)
	if err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *personRepo) Update(ctx context.Context, id string, params model.UpdatePersonParams) (*model.Person, error) {
	var person model.Person
	err := r.db.GetContext(ctx, &person, `
		UPDATE persons SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			bio = COALESCE($4, bio),
			avatar_url = COALESCE($5, avatar_url),
			updated_at = $6
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.Email, params.Bio, params.AvatarURL, time.Now())
	return HandleNotFound(&person, err)
}

func (r *personRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE persons SET password_hash = $2, updated_at = $3 WHERE id = $1
	`, id, passwordHash, time.Now())
	return err
}

func (r *personRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
	return err
}

func (r *personRepo) ListSubjects(ctx context.Context, personID string) ([]model.PersonSubject, error) {
	var subjects []model.PersonSubject
	err := r.db.SelectContext(ctx, &subjects, `
		SELECT * FROM person_subjects
		WHERE person_id = $1
		ORDER BY last_booked_at DESC
	`, personID)
	return subjects, err
}

func (r *personRepo) UpsertSubject(ctx context.Context, params model.UpsertSubjectParams) (*model.PersonSubject, error) {
	var subject model.PersonSubject
	err := r.db.GetContext(ctx, &subject, `
		INSERT INTO person_subjects
			(person_id, name, count, last_booked_at, last_booking_id, last_tutor_id,
			 last_tutor_name, last_tutor_avatar, last_date, last_time, last_timezone, last_duration)
		VALUES ($1, $2, 1, NOW(), $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (person_id, name) DO UPDATE SET
			count = person_subjects.count + 1,
			last_booked_at = NOW(),
			last_booking_id = EXCLUDED.last_booking_id,
			last_tutor_id = EXCLUDED.last_tutor_id,
			last_tutor_name = EXCLUDED.last_tutor_name,
			last_tutor_avatar = EXCLUDED.last_tutor_avatar,
			last_date = EXCLUDED.last_date,
			last_time = EXCLUDED.last_time,
			last_timezone = EXCLUDED.last_timezone,
			last_duration = EXCLUDED.last_duration
		RETURNING *
	`, params.PersonID, params.Name, params.BookingID, params.TutorID, params.TutorName,
		params.TutorAvatar, params.Date, params.Time, params.Timezone, params.Duration)
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *personRepo) UpdateSubjectSession(ctx context.Context, personID, name, date, clock, timezone string, duration int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE person_subjects SET
			last_booked_at = NOW(),
			last_date = $3,
			last_time = $4,
			last_timezone = $5,
			last_duration = $6
		WHERE person_id = $1 AND name = $2
	`, personID, name, date, clock, timezone, duration)
	return err
}

func (r *personRepo) DeleteSubject(ctx context.Context, personID, name string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM person_subjects WHERE person_id = $1 AND name = $2
	`, personID, name)
	return err
}
