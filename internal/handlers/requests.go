package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mingunC/renovationPlatform-sub000/internal/auth"
	"github.com/mingunC/renovationPlatform-sub000/internal/marketplace"
	"github.com/mingunC/renovationPlatform-sub000/models"
)

type createRequestInput struct {
	Category     models.Category     `json:"category" validate:"required"`
	PropertyType models.PropertyType `json:"propertyType" validate:"required"`
	BudgetRange  models.BudgetRange  `json:"budgetRange" validate:"required"`
	Timeline     models.Timeline     `json:"timeline" validate:"required"`
	PostalCode   string              `json:"postalCode" validate:"required,max=16"`
	Address      string              `json:"address" validate:"required,max=255"`
	Description  string              `json:"description" validate:"required,max=4000"`
	Photos       []string            `json:"photos" validate:"max=20,dive,required,max=512"`
}

// CreateRequestHandler handles POST /api/requests.
func (h *Handler) CreateRequestHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, auth.RoleCustomer)
	if !ok {
		return
	}

	var in createRequestInput
	if err := readJSON(w, r, &in, false); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req, err := h.Svc.CreateRequest(r.Context(), actor.ID, marketplace.NewRequest{
		Category:     in.Category,
		PropertyType: in.PropertyType,
		BudgetRange:  in.BudgetRange,
		Timeline:     in.Timeline,
		PostalCode:   in.PostalCode,
		Address:      in.Address,
		Description:  in.Description,
		Photos:       in.Photos,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// ListRequestsHandler handles GET /api/requests. mine=true limits a customer
// to their own requests.
func (h *Handler) ListRequestsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r)
	if !ok {
		return
	}
	params := parsePaginationParams(r)

	filter := models.RequestFilter{
		Status: models.RequestStatus(r.URL.Query().Get("status")),
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if mine, _ := strconv.ParseBool(r.URL.Query().Get("mine")); mine {
		if actor.Role != auth.RoleCustomer {
			writeMessage(w, r, http.StatusBadRequest, "mine is only available to customers")
			return
		}
		filter.CustomerID = actor.ID
	}

	reqs, err := h.Svc.ListRequests(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// GetRequestHandler handles GET /api/requests/{requestId}.
func (h *Handler) GetRequestHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r); !ok {
		return
	}
	id, err := pathID(r, "requestId")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req, err := h.Svc.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// AdvanceHandler handles PUT /api/requests/{requestId}/advance.
func (h *Handler) AdvanceHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	id, err := pathID(r, "requestId")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req, err := h.Svc.AdvanceToInspectionPending(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type scheduleInspectionInput struct {
	InspectionDate time.Time `json:"inspectionDate" validate:"required"`
	Notes          string    `json:"notes" validate:"max=1000"`
}

// ScheduleInspectionHandler handles PUT /api/requests/{requestId}/inspection.
func (h *Handler) ScheduleInspectionHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	id, err := pathID(r, "requestId")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var in scheduleInspectionInput
	if err := readJSON(w, r, &in, false); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req, err := h.Svc.ScheduleInspection(r.Context(), id, in.InspectionDate, in.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type openBiddingInput struct {
	BiddingEndDate *time.Time `json:"biddingEndDate"`
}

// OpenBiddingHandler handles PUT /api/requests/{requestId}/bidding/open. The
// body is optional; without an end date the default window applies.
func (h *Handler) OpenBiddingHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	id, err := pathID(r, "requestId")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var in openBiddingInput
	if err := readJSON(w, r, &in, true); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var end time.Time
	if in.BiddingEndDate != nil {
		end = *in.BiddingEndDate
	}
	req, err := h.Svc.OpenBidding(r.Context(), id, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// CloseBiddingHandler handles PUT /api/requests/{requestId}/bidding/close.
func (h *Handler) CloseBiddingHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	id, err := pathID(r, "requestId")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req, err := h.Svc.CloseBidding(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// CompleteHandler handles PUT /api/requests/{requestId}/complete.
func (h *Handler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedRequest(w, r)
	if !ok {
		return
	}

	req, err := h.Svc.Complete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type cancelInput struct {
	Reason string `json:"reason" validate:"max=500"`
}

// CancelHandler handles PUT /api/requests/{requestId}/cancel.
func (h *Handler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedRequest(w, r)
	if !ok {
		return
	}
	var in cancelInput
	if err := readJSON(w, r, &in, true); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req, err := h.Svc.Cancel(r.Context(), id, in.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ownedRequest admits admins and the customer who created the request.
func (h *Handler) ownedRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	actor, ok := requireRole(w, r, auth.RoleAdmin, auth.RoleCustomer)
	if !ok {
		return 0, false
	}
	id, err := pathID(r, "requestId")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return 0, false
	}
	if actor.Role == auth.RoleAdmin {
		return id, true
	}

	req, err := h.Svc.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return 0, false
	}
	if req.CustomerID != actor.ID {
		writeMessage(w, r, http.StatusForbidden, "request belongs to another customer")
		return 0, false
	}
	return id, true
}
