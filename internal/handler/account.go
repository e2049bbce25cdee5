package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peerpresence/server-go/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// Routes must be mounted behind the auth middleware.
func (h *AccountHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/me", h.GetMe)
	r.Patch("/me", h.UpdateMe)
	r.Delete("/me", h.DeleteMe)
	r.Patch("/password", h.ChangePassword)
	r.Get("/subjects", h.Subjects)

	return r
}

// GET /api/account/me
func (h *AccountHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	profile, err := h.accountService.Profile(r.Context(), person.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=100"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	Bio       *string `json:"bio" validate:"omitempty,max=2000"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,max=2048"`
}

// PATCH /api/account/me
// Only the fields present in the body are changed.
func (h *AccountHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.accountService.UpdateProfile(r.Context(), person.ID, service.UpdateProfileInput{
		Name:      req.Name,
		Email:     req.Email,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": updated,
	})
}

// DELETE /api/account/me
func (h *AccountHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	if err := h.accountService.Delete(r.Context(), person.ID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,min=8,max=72"`
}

// PATCH /api/account/password
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.accountService.ChangePassword(r.Context(), person.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GET /api/account/subjects
func (h *AccountHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	person := currentPerson(w, r)
	if person == nil {
		return
	}

	sessions, err := h.accountService.SubjectHistory(r.Context(), person.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}
