package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/peerpresence/server-go/internal/model"
)

type BookingRepository interface {
	Create(ctx context.Context, params model.CreateBookingParams) (*model.Booking, error)
	FindByIDForStudent(ctx context.Context, id, studentID string) (*model.Booking, error)
	UpdateSchedule(ctx context.Context, id, date, clock, timezone string) (*model.Booking, error)
	DeleteForStudent(ctx context.Context, id, studentID string) (*model.Booking, error)
	WithTx(tx *sqlx.Tx) BookingRepository
}

type bookingRepo struct {
	db sqlxDB
}

func NewBookingRepository(db *sqlx.DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) WithTx(tx *sqlx.Tx) BookingRepository {
	return &bookingRepo{db: tx}
}

func (r *bookingRepo) Create(ctx context.Context, params model.CreateBookingParams) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, `
		INSERT INTO bookings
			(student_id, tutor_id, subject, date, time, timezone, duration, topic,
			 signature_name, signature_date, currency, base, discount, service_fee, tax, total,
			 payment_method, name_on_card, card_last4, expiry, postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21)
		RETURNING *
	`, params.StudentID, params.TutorID, params.Subject, params.Date, params.Time,
		params.Timezone, params.Duration, params.Topic, params.SignatureName, params.SignatureDate,
		params.Pricing.Currency, params.Pricing.Base, params.Pricing.Discount,
		params.Pricing.ServiceFee, params.Pricing.Tax, params.Pricing.Total,
		params.Payment.Method, params.Payment.NameOnCard, params.Payment.CardLast4,
		params.Payment.Expiry, params.Payment.PostalCode)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepo) FindByIDForStudent(ctx context.Context, id, studentID string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, `
		SELECT * FROM bookings WHERE id = $1 AND student_id = $2
	`, id, studentID)
	return HandleNotFound(&booking, err)
}

func (r *bookingRepo) UpdateSchedule(ctx context.Context, id, date, clock, timezone string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, `
		UPDATE bookings SET
			date = $2,
			time = $3,
			timezone = $4,
			updated_at = $5
		WHERE id = $1
		RETURNING *
	`, id, date, clock, timezone, time.Now())
	return HandleNotFound(&booking, err)
}

func (r *bookingRepo) DeleteForStudent(ctx context.Context, id, studentID string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, `
		DELETE FROM bookings WHERE id = $1 AND student_id = $2
		RETURNING *
	`, id, studentID)
	return HandleNotFound(&booking, err)
}
