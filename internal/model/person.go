package model

import (
	"time"
)

type Person struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	Bio          string    `db:"bio" json:"bio"`
	AvatarURL    string    `db:"avatar_url" json:"avatarUrl"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type CreatePersonParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Bio          string
	AvatarURL    string
}

type UpdatePersonParams struct {
	Name      *string
	Email     *string
	Bio       *string
	AvatarURL *string
}

// PersonSubject is a subject-interest record, refreshed by every booking
// confirmation for that subject.
type PersonSubject struct {
	PersonID        string    `db:"person_id" json:"-"`
	Name            string    `db:"name" json:"name"`
	Count           int       `db:"count" json:"count"`
	LastBookedAt    time.Time `db:"last_booked_at" json:"lastBookedAt"`
	LastBookingID   *string   `db:"last_booking_id" json:"-"`
	LastTutorID     *string   `db:"last_tutor_id" json:"-"`
	LastTutorName   string    `db:"last_tutor_name" json:"-"`
	LastTutorAvatar string    `db:"last_tutor_avatar" json:"-"`
	LastDate        string    `db:"last_date" json:"-"`
	LastTime        string    `db:"last_time" json:"-"`
	LastTimezone    string    `db:"last_timezone" json:"-"`
	LastDuration    int       `db:"last_duration" json:"-"`
}

// SubjectSession is the flattened view of a subject's last booked session.
type SubjectSession struct {
	BookingID   *string   `json:"bookingId,omitempty"`
	Subject     string    `json:"subject"`
	TutorID     *string   `json:"tutorId,omitempty"`
	TutorName   string    `json:"tutorName"`
	TutorAvatar string    `json:"tutorAvatar"`
	LastDate    string    `json:"lastDate"`
	LastTime    string    `json:"lastTime"`
	Timezone    string    `json:"timezone"`
	Duration    int       `json:"duration"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *PersonSubject) Session() SubjectSession {
	return SubjectSession{
		BookingID:   s.LastBookingID,
		Subject:     s.Name,
		TutorID:     s.LastTutorID,
		TutorName:   s.LastTutorName,
		TutorAvatar: s.LastTutorAvatar,
		LastDate:    s.LastDate,
		LastTime:    s.LastTime,
		Timezone:    s.LastTimezone,
		Duration:    s.LastDuration,
		UpdatedAt:   s.LastBookedAt,
	}
}

// Profile is the account view returned to its owner.
type Profile struct {
	*Person
	Subjects []PersonSubject `json:"subjects"`
}
