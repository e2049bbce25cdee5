package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peerpresence/server-go/internal/middleware"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/service"
)

type PostHandler struct {
	postService  *service.PostService
	requireAuth  func(http.Handler) http.Handler
	optionalAuth func(http.Handler) http.Handler
}

func NewPostHandler(
	postService *service.PostService,
	requireAuth func(http.Handler) http.Handler,
	optionalAuth func(http.Handler) http.Handler,
) *PostHandler {
	return &PostHandler{
		postService:  postService,
		requireAuth:  requireAuth,
		optionalAuth: optionalAuth,
	}
}

func (h *PostHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.optionalAuth).Get("/", h.List)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/", h.Create)
		r.Get("/saved", h.Saved)
		r.Patch("/{id}/vote", h.Vote)
		r.Patch("/{id}/favorite", h.ToggleFavorite)
	})

	return r
}

// GET /api/posts
// myVote and saved are filled in when the caller is signed in.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.List(r.Context(), middleware.PersonID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

type createPostRequest struct {
	Title       string `json:"title" validate:"max=200"`
	Description string `json:"description" validate:"max=5000"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,max=2048"`
}

// POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	post, err := h.postService.Create(r.Context(), person.ID, req.Title, req.Description, req.ImageURL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// GET /api/posts/saved
func (h *PostHandler) Saved(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	posts, err := h.postService.Saved(r.Context(), person.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

type voteRequest struct {
	Value int `json:"value"`
}

// PATCH /api/posts/{id}/vote
// Repeating the current vote removes it; the opposite value flips it.
func (h *PostHandler) Vote(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.postService.Vote(r.Context(), chi.URLParam(r, "id"), person.ID, model.VoteValue(req.Value))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PATCH /api/posts/{id}/favorite
func (h *PostHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	result, err := h.postService.ToggleFavorite(r.Context(), chi.URLParam(r, "id"), person.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
