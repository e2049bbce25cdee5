package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peerpresence/server-go/internal/service"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Routes must be mounted behind the auth middleware.
func (h *MessageHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{conversationId}", h.List)
	r.Post("/{conversationId}", h.Send)

	return r
}

// GET /api/messages/{conversationId}
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	msgs, err := h.messageService.ListForConversation(r.Context(), chi.URLParam(r, "conversationId"), person.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, msgs)
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// POST /api/messages/{conversationId}
// The stored message is pushed to the conversation room and to the
// recipient before the response is written.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	msg, err := h.messageService.Send(r.Context(), chi.URLParam(r, "conversationId"), person.ID, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}
