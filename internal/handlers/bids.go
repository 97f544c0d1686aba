package handlers

import (
	"net/http"
	"time"

	"github.com/mingunC/renovationPlatform-sub000/internal/auth"
	"github.com/mingunC/renovationPlatform-sub000/internal/marketplace"
	"github.com/mingunC/renovationPlatform-sub000/models"
)

// submitBidInput has no total: it is always derived from the breakdown, and a
// totalAmount sent by the client is dropped on decode.
type submitBidInput struct {
	LaborCost     *float64  `json:"laborCost" validate:"required,gte=0,lte=9999999999.99"`
	MaterialCost  *float64  `json:"materialCost" validate:"required,gte=0,lte=9999999999.99"`
	PermitCost    *float64  `json:"permitCost" validate:"required,gte=0,lte=9999999999.99"`
	DisposalCost  *float64  `json:"disposalCost" validate:"required,gte=0,lte=9999999999.99"`
	TimelineWeeks int       `json:"timelineWeeks" validate:"required,gte=1,lte=520"`
	StartDate     time.Time `json:"startDate" validate:"required"`
	IncludedItems []string  `json:"includedItems" validate:"required,min=1,dive,required,max=200"`
	ExcludedItems []string  `json:"excludedItems" validate:"dive,required,max=200"`
	Notes         string    `json:"notes" validate:"max=2000"`
	EstimateFile  string    `json:"estimateFile" validate:"max=512"`
}

// SubmitBidHandler handles POST /api/requests/{requestId}/bids. Resubmitting
// revises the contractor's active bid.
func (h *Handler) SubmitBidHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, auth.RoleContractor)
	if !ok {
		return
	}
	id, err := pathID(r, "requestId")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var in submitBidInput
	if err := readJSON(w, r, &in, false); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	bid, err := h.Svc.SubmitBid(r.Context(), marketplace.BidInput{
		RequestID:    id,
		ContractorID: actor.ID,
		Breakdown: models.CostBreakdown{
			LaborCost:    *in.LaborCost,
			MaterialCost: *in.MaterialCost,
			PermitCost:   *in.PermitCost,
			DisposalCost: *in.DisposalCost,
		},
		TimelineWeeks: in.TimelineWeeks,
		StartDate:     in.StartDate,
		IncludedItems: in.IncludedItems,
		ExcludedItems: in.ExcludedItems,
		Notes:         in.Notes,
		EstimateFile:  in.EstimateFile,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bid)
}

// ListBidsHandler handles GET /api/requests/{requestId}/bids. sort=total
// orders cheapest first. Customers see the bids on their own requests and
// contractors see only their own bid.
func (h *Handler) ListBidsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "requestId")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if actor.Role == auth.RoleCustomer {
		req, err := h.Svc.GetRequest(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if req.CustomerID != actor.ID {
			writeMessage(w, r, http.StatusForbidden, "request belongs to another customer")
			return
		}
	}

	bids, err := h.Svc.ListBids(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if actor.Role == auth.RoleContractor {
		bids = ownBids(bids, actor.ID)
	}
	switch r.URL.Query().Get("sort") {
	case "", "submitted":
	case "total":
		marketplace.SortByTotal(bids)
	default:
		writeMessage(w, r, http.StatusBadRequest, "sort must be total or submitted")
		return
	}
	writeJSON(w, http.StatusOK, bids)
}

// ownBids filters the ledger down to one contractor's bids.
func ownBids(bids []models.Bid, contractorID int64) []models.Bid {
	out := bids[:0]
	for _, b := range bids {
		if b.ContractorID == contractorID {
			out = append(out, b)
		}
	}
	return out
}

// GetUserBidsHandler handles GET /api/bids/my.
func (h *Handler) GetUserBidsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, auth.RoleContractor)
	if !ok {
		return
	}
	params := parsePaginationParams(r)

	bids, err := h.Svc.ListContractorBids(r.Context(), actor.ID, params.Limit, params.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bids)
}

// WithdrawBidHandler handles DELETE /api/bids/{bidId}.
func (h *Handler) WithdrawBidHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, auth.RoleContractor)
	if !ok {
		return
	}
	id, err := pathID(r, "bidId")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	bid, err := h.Svc.WithdrawBid(r.Context(), id, actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bid)
}

type selectionView struct {
	Request *models.RenovationRequest `json:"request"`
	Bid     *models.Bid               `json:"bid"`
}

// AcceptBidHandler handles PUT /api/bids/{bidId}/accept.
func (h *Handler) AcceptBidHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, auth.RoleCustomer)
	if !ok {
		return
	}
	id, err := pathID(r, "bidId")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req, bid, err := h.Svc.AcceptBid(r.Context(), id, actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionView{Request: req, Bid: bid})
}
