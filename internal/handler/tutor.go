package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peerpresence/server-go/internal/config"
	"github.com/peerpresence/server-go/internal/service"
)

type TutorHandler struct {
	tutorService *service.TutorService
	requireAuth  func(http.Handler) http.Handler
}

// NewTutorHandler takes the auth middleware guarding review submission;
// every other route is public.
func NewTutorHandler(tutorService *service.TutorService, requireAuth func(http.Handler) http.Handler) *TutorHandler {
	return &TutorHandler{
		tutorService: tutorService,
		requireAuth:  requireAuth,
	}
}

func (h *TutorHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/search", h.SearchBySubject)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/reviews", h.Reviews)
	r.With(h.requireAuth).Post("/{id}/reviews", h.CreateReview)

	return r
}

// GET /api/tutors?q=
func (h *TutorHandler) List(w http.ResponseWriter, r *http.Request) {
	tutors, err := h.tutorService.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tutors)
}

// GET /api/tutors/search?subject=&limit=
// q is accepted in place of subject.
func (h *TutorHandler) SearchBySubject(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("subject")
	if term == "" {
		term = r.URL.Query().Get("q")
	}
	limit := parseLimit(r, config.SubjectSearchMaxRows, config.SubjectSearchMaxRows)

	tutors, err := h.tutorService.SearchBySubject(r.Context(), term, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tutors)
}

// GET /api/tutors/{id}
func (h *TutorHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.tutorService.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GET /api/tutors/{id}/reviews
func (h *TutorHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.tutorService.Reviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"max=2000"`
}

// POST /api/tutors/{id}/reviews
// A second review by the same author replaces the first.
func (h *TutorHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	review, err := h.tutorService.Review(r.Context(), chi.URLParam(r, "id"), person.ID, req.Rating, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}
