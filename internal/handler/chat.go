package handler

import (
	"net/http"

	"github.com/peerpresence/server-go/internal/service"
)

type ChatHandler struct {
	chatService *service.GlobalChatService
}

func NewChatHandler(chatService *service.GlobalChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// GET /api/chat/messages
// History of the legacy single-room chat, oldest first.
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chatService.History(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
