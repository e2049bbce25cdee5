package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peerpresence/server-go/internal/service"
)

type BookingHandler struct {
	bookingService *service.BookingService
}

func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// Routes must be mounted behind the auth middleware.
func (h *BookingHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/confirm", h.Confirm)
	r.Patch("/{id}", h.Reschedule)
	r.Delete("/{id}", h.Cancel)

	return r
}

// confirmBookingRequest mirrors the checkout form. Duration arrives either as
// a number or a numeric string. The card number is reduced to its last four
// digits before storage and the CVC is never read.
type confirmBookingRequest struct {
	TutorID       string      `json:"tutorId"`
	Subject       string      `json:"subject" validate:"max=200"`
	Date          string      `json:"date" validate:"max=32"`
	Time          string      `json:"time" validate:"max=32"`
	Timezone      string      `json:"timezone" validate:"max=64"`
	Duration      json.Number `json:"duration"`
	Topic         string      `json:"topic" validate:"max=2000"`
	SignatureName string      `json:"signatureName" validate:"max=200"`
	SignatureDate string      `json:"signatureDate" validate:"max=32"`
	Currency      string      `json:"currency" validate:"omitempty,len=3,alpha"`
	PromoCode     string      `json:"promoCode" validate:"max=64"`
	Method        string      `json:"method" validate:"max=32"`
	NameOnCard    string      `json:"nameOnCard" validate:"max=200"`
	CardNumber    string      `json:"cardNumber" validate:"max=32"`
	Expiry        string      `json:"expiry" validate:"max=16"`
	PostalCode    string      `json:"postalCode" validate:"max=16"`
}

// POST /api/bookings/confirm
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	var req confirmBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	confirmation, err := h.bookingService.Confirm(r.Context(), person.ID, service.ConfirmBookingInput{
		TutorID:       req.TutorID,
		Subject:       req.Subject,
		Date:          req.Date,
		Time:          req.Time,
		Timezone:      req.Timezone,
		Duration:      req.Duration.String(),
		Topic:         req.Topic,
		SignatureName: req.SignatureName,
		SignatureDate: req.SignatureDate,
		Currency:      req.Currency,
		PromoCode:     req.PromoCode,
		Method:        req.Method,
		NameOnCard:    req.NameOnCard,
		CardNumber:    req.CardNumber,
		Expiry:        req.Expiry,
		PostalCode:    req.PostalCode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, confirmation)
}

type rescheduleRequest struct {
	Date     string `json:"date" validate:"max=32"`
	Time     string `json:"time" validate:"max=32"`
	Timezone string `json:"timezone" validate:"max=64"`
}

// PATCH /api/bookings/{id}
func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	var req rescheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	booking, err := h.bookingService.Reschedule(r.Context(), chi.URLParam(r, "id"), person.ID, service.RescheduleInput{
		Date:     req.Date,
		Time:     req.Time,
		Timezone: req.Timezone,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"booking": booking,
	})
}

// DELETE /api/bookings/{id}
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	if err := h.bookingService.Cancel(r.Context(), chi.URLParam(r, "id"), person.ID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Booking cancelled. Refund will be processed shortly.",
	})
}
