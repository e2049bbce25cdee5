package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/peerpresence/server-go/internal/auth"
	"github.com/peerpresence/server-go/internal/config"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/service"
)

type AuthHandler struct {
	accountService *service.AccountService
	tokens         *auth.JWT
}

func NewAuthHandler(accountService *service.AccountService, tokens *auth.JWT) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
		tokens:         tokens,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)

	return r
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=student tutor admin"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	person, err := h.accountService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.tokens.Sign(person.ID, config.AuthTokenTTL)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Info().Str("personId", person.ID).Str("role", string(person.Role)).Msg("person registered")

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":  person,
		"token": token,
	})
}
