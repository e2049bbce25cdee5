package handler

import (
	"net/http"

	"github.com/peerpresence/server-go/internal/service"
)

// CatalogHandler serves the read-only course and subject lists. Each is
// mounted at its own path, so it exposes handlers rather than a router.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// GET /api/courses
func (h *CatalogHandler) Courses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalogService.Courses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// GET /api/subjects
func (h *CatalogHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.catalogService.Subjects(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}
