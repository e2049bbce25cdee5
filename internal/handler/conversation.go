package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peerpresence/server-go/internal/service"
)

type ConversationHandler struct {
	convService *service.ConversationService
}

func NewConversationHandler(convService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

// Routes must be mounted behind the auth middleware.
func (h *ConversationHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/start", h.Start)
	r.Get("/mine", h.Mine)

	return r
}

type startConversationRequest struct {
	// UserID names the peer by person id or tutor listing id.
	UserID string `json:"userId" validate:"max=64"`
}

// POST /api/conversations/start
// Starting a conversation that already exists returns it unchanged.
func (h *ConversationHandler) Start(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	var req startConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	conv, err := h.convService.Start(r.Context(), person.ID, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, conv.View())
}

// GET /api/conversations/mine
func (h *ConversationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	summaries, err := h.convService.ListForPerson(r.Context(), person.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}
