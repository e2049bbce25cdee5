package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peerpresence/server-go/internal/config"
	"github.com/peerpresence/server-go/internal/service"
)

type SearchHandler struct {
	tutorService   *service.TutorService
	catalogService *service.CatalogService
}

func NewSearchHandler(tutorService *service.TutorService, catalogService *service.CatalogService) *SearchHandler {
	return &SearchHandler{
		tutorService:   tutorService,
		catalogService: catalogService,
	}
}

func (h *SearchHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/tutors", h.Tutors)
	r.Get("/subjects", h.Subjects)

	return r
}

// GET /api/search/tutors?q=&limit=
func (h *SearchHandler) Tutors(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, config.SubjectSearchMaxRows, config.SearchMaxRows)

	tutors, err := h.tutorService.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tutors)
}

// GET /api/search/subjects?q=&limit=
func (h *SearchHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, config.SubjectSearchMaxRows, config.SearchMaxRows)

	subjects, err := h.catalogService.SearchSubjects(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}
