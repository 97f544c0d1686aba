package handlers

import (
	"net/http"

	"github.com/mingunC/renovationPlatform-sub000/models"
)

type accountInput struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	DisplayName string `json:"displayName" validate:"max=100"`
}

// SaveMyAccountHandler handles PUT /api/accounts/me. The id and role come
// from the token.
func (h *Handler) SaveMyAccountHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r)
	if !ok {
		return
	}
	var in accountInput
	if err := readJSON(w, r, &in, false); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	account := &models.Account{
		ID:          actor.ID,
		Email:       in.Email,
		DisplayName: in.DisplayName,
		Role:        string(actor.Role),
	}
	if err := h.Accounts.SaveAccount(r.Context(), account); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// GetMyAccountHandler handles GET /api/accounts/me.
func (h *Handler) GetMyAccountHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r)
	if !ok {
		return
	}

	account, err := h.Accounts.GetAccount(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}
