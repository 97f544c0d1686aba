package handlers

import (
	"net/http"

	"github.com/mingunC/renovationPlatform-sub000/internal/auth"
	"github.com/mingunC/renovationPlatform-sub000/models"
)

type interestInput struct {
	WillParticipate *bool `json:"willParticipate" validate:"required"`
}

// SetInterestHandler handles PUT /api/requests/{requestId}/interest.
func (h *Handler) SetInterestHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, auth.RoleContractor)
	if !ok {
		return
	}
	id, err := pathID(r, "requestId")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var in interestInput
	if err := readJSON(w, r, &in, false); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	interest, err := h.Svc.SetInterest(r.Context(), id, actor.ID, *in.WillParticipate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, interest)
}

type participantsView struct {
	RequestID    int64                       `json:"requestId"`
	Count        int                         `json:"count"`
	Participants []models.InspectionInterest `json:"participants"`
}

// ListParticipantsHandler handles GET /api/requests/{requestId}/participants.
func (h *Handler) ListParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r); !ok {
		return
	}
	id, err := pathID(r, "requestId")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	participants, err := h.Svc.ListParticipants(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, participantsView{
		RequestID:    id,
		Count:        len(participants),
		Participants: participants,
	})
}
