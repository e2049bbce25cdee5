package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/peerpresence/server-go/internal/audit"
	apperrors "github.com/peerpresence/server-go/internal/errors"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/repository"
	"github.com/peerpresence/server-go/internal/util"
)

type ConfirmBookingInput struct {
	TutorID       string
	Subject       string
	Date          string
	Time          string
	Timezone      string
	Duration      string
	Topic         string
	SignatureName string
	SignatureDate string
	Currency      string
	PromoCode     string
	Method        string
	NameOnCard    string
	CardNumber    string
	Expiry        string
	PostalCode    string
}

type BookingSummary struct {
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
	Duration int    `json:"duration"`
}

type BookingTutor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BookingConfirmation struct {
	OK      bool           `json:"ok"`
	ID      string         `json:"id"`
	Booking BookingSummary `json:"booking"`
	Pricing model.Pricing  `json:"pricing"`
	Tutor   BookingTutor   `json:"tutor"`
}

type RescheduleInput struct {
	Date     string
	Time     string
	Timezone string
}

type BookingService struct {
	tx       Transactor
	bookings repository.BookingRepository
	persons  repository.PersonRepository
	tutors   repository.TutorRepository
}

func NewBookingService(
	tx Transactor,
	bookings repository.BookingRepository,
	persons repository.PersonRepository,
	tutors repository.TutorRepository,
) *BookingService {
	return &BookingService{
		tx:       tx,
		bookings: bookings,
		persons:  persons,
		tutors:   tutors,
	}
}

// Confirm stores a booking with its computed pricing and refreshes the
// student's subject-interest record for that subject.
func (s *BookingService) Confirm(ctx context.Context, studentID string, in ConfirmBookingInput) (*BookingConfirmation, error) {
	tutorID, ok := util.NormalizeUUID(in.TutorID)
	if !ok {
		return nil, apperrors.InvalidInput("tutor id", "must be a UUID")
	}
	if strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Time) == "" {
		return nil, apperrors.ValidationError("Missing required fields (subject, date, time)")
	}
	duration, err := strconv.Atoi(strings.TrimSpace(in.Duration))
	if err != nil || duration <= 0 {
		return nil, apperrors.InvalidInput("duration", "must be a positive number of minutes")
	}

	tutor, err := s.tutors.FindByID(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("find tutor: %w", err)
	}
	if tutor == nil {
		return nil, apperrors.NotFound("Tutor")
	}

	pricing := Quote(in.Duration, in.PromoCode)
	if c := strings.TrimSpace(in.Currency); c != "" {
		pricing.Currency = c
	}
	method := in.Method
	if method == "" {
		method = "card"
	}

	var booking *model.Booking
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		booking, err = s.bookings.WithTx(tx).Create(ctx, model.CreateBookingParams{
			StudentID:     studentID,
			TutorID:       tutor.ID,
			Subject:       in.Subject,
			Date:          in.Date,
			Time:          in.Time,
			Timezone:      in.Timezone,
			Duration:      duration,
			Topic:         in.Topic,
			SignatureName: in.SignatureName,
			SignatureDate: in.SignatureDate,
			Pricing:       pricing,
			Payment: model.PaymentMeta{
				Method:     method,
				NameOnCard: in.NameOnCard,
				CardLast4:  util.CardLast4(in.CardNumber),
				Expiry:     in.Expiry,
				PostalCode: in.PostalCode,
			},
		})
		if err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		_, err = s.persons.WithTx(tx).UpsertSubject(ctx, model.UpsertSubjectParams{
			PersonID:    studentID,
			Name:        in.Subject,
			BookingID:   booking.ID,
			TutorID:     tutor.ID,
			TutorName:   tutor.Name,
			TutorAvatar: tutor.AvatarURL,
			Date:        in.Date,
			Time:        in.Time,
			Timezone:    in.Timezone,
			Duration:    duration,
		})
		if err != nil {
			return fmt.Errorf("upsert subject: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("bookingId", booking.ID).
		Str("studentId", studentID).
		Str("tutorId", tutor.ID).
		Float64("total", pricing.Total).
		Msg("booking confirmed")

	audit.Log(ctx, audit.Event{
		Type:     audit.EventBookingConfirm,
		PersonID: studentID,
		TargetID: booking.ID,
	})

	return &BookingConfirmation{
		OK: true,
		ID: booking.ID,
		Booking: BookingSummary{
			Subject:  booking.Subject,
			Date:     booking.Date,
			Time:     booking.Time,
			Timezone: booking.Timezone,
			Duration: booking.Duration,
		},
		Pricing: pricing,
		Tutor:   BookingTutor{ID: tutor.ID, Name: tutor.Name},
	}, nil
}

// Reschedule moves a booking owned by studentID. Blank fields keep their
// previous values.
func (s *BookingService) Reschedule(ctx context.Context, id, studentID string, in RescheduleInput) (*model.Booking, error) {
	bookingID, ok := util.NormalizeUUID(id)
	if !ok {
		return nil, apperrors.InvalidInput("booking id", "must be a UUID")
	}

	var updated *model.Booking
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		bookings := s.bookings.WithTx(tx)
		current, err := bookings.FindByIDForStudent(ctx, bookingID, studentID)
		if err != nil {
			return fmt.Errorf("find booking: %w", err)
		}
		if current == nil {
			return apperrors.NotFound("Booking")
		}

		updated, err = bookings.UpdateSchedule(ctx, current.ID,
			keepIfBlank(in.Date, current.Date),
			keepIfBlank(in.Time, current.Time),
			keepIfBlank(in.Timezone, current.Timezone))
		if err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		if updated == nil {
			return apperrors.NotFound("Booking")
		}

		err = s.persons.WithTx(tx).UpdateSubjectSession(ctx, studentID, updated.Subject,
			updated.Date, updated.Time, updated.Timezone, updated.Duration)
		if err != nil {
			return fmt.Errorf("update subject session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("bookingId", updated.ID).
		Str("studentId", studentID).
		Msg("booking rescheduled")

	return updated, nil
}

// Cancel deletes a booking owned by studentID and drops the matching
// subject-interest record.
func (s *BookingService) Cancel(ctx context.Context, id, studentID string) error {
	bookingID, ok := util.NormalizeUUID(id)
	if !ok {
		return apperrors.InvalidInput("booking id", "must be a UUID")
	}

	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		booking, err := s.bookings.WithTx(tx).DeleteForStudent(ctx, bookingID, studentID)
		if err != nil {
			return fmt.Errorf("delete booking: %w", err)
		}
		if booking == nil {
			return apperrors.NotFound("Booking")
		}
		if err := s.persons.WithTx(tx).DeleteSubject(ctx, studentID, booking.Subject); err != nil {
			return fmt.Errorf("delete subject: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventBookingCancel,
		PersonID: studentID,
		TargetID: bookingID,
	})
	return nil
}

func keepIfBlank(next, prev string) string {
	if strings.TrimSpace(next) == "" {
		return prev
	}
	return next
}
