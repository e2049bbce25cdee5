package model

import (
	"time"
)

type Pricing struct {
	Currency   string  `db:"currency" json:"currency"`
	Base       float64 `db:"base" json:"base"`
	Discount   float64 `db:"discount" json:"discount"`
	ServiceFee float64 `db:"service_fee" json:"serviceFee"`
	Tax        float64 `db:"tax" json:"tax"`
	Total      float64 `db:"total" json:"total"`
}

// PaymentMeta holds what is kept of the mock payment. Only the last four card
// digits are ever stored.
type PaymentMeta struct {
	Method     string `db:"payment_method" json:"method"`
	NameOnCard string `db:"name_on_card" json:"nameOnCard"`
	CardLast4  string `db:"card_last4" json:"cardLast4"`
	Expiry     string `db:"expiry" json:"expiry"`
	PostalCode string `db:"postal_code" json:"postalCode"`
}

type Booking struct {
	ID            string `db:"id" json:"id"`
	StudentID     string `db:"student_id" json:"studentId"`
	TutorID       string `db:"tutor_id" json:"tutorId"`
	Subject       string `db:"subject" json:"subject"`
	Date          string `db:"date" json:"date"`
	Time          string `db:"time" json:"time"`
	Timezone      string `db:"timezone" json:"timezone"`
	Duration      int    `db:"duration" json:"duration"`
	Topic         string `db:"topic" json:"topic"`
	SignatureName string `db:"signature_name" json:"signatureName"`
	SignatureDate string `db:"signature_date" json:"signatureDate"`
	Pricing
	PaymentMeta
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateBookingParams struct {
	StudentID     string
	TutorID       string
	Subject       string
	Date          string
	Time          string
	Timezone      string
	Duration      int
	Topic         string
	SignatureName string
	SignatureDate string
	Pricing       Pricing
	Payment       PaymentMeta
}

type UpsertSubjectParams struct {
	PersonID    string
	Name        string
	BookingID   string
	TutorID     string
	TutorName   string
	TutorAvatar string
	Date        string
	Time        string
	Timezone    string
	Duration    int
}
