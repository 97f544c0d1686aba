package models

import (
	"math"
	"time"

	"github.com/lib/pq"
)

// Renovation request entity
type RenovationRequest struct {
	ID                   int64          `db:"id" json:"id"`
	CustomerID           int64          `db:"customer_id" json:"customerId"`
	Category             Category       `db:"category" json:"category"`
	PropertyType         PropertyType   `db:"property_type" json:"propertyType"`
	BudgetRange          BudgetRange    `db:"budget_range" json:"budgetRange"`
	Timeline             Timeline       `db:"timeline" json:"timeline"`
	PostalCode           string         `db:"postal_code" json:"postalCode"`
	Address              string         `db:"address" json:"address"`
	Description          string         `db:"description" json:"description"`
	Photos               pq.StringArray `db:"photos" json:"photos"`
	Status               RequestStatus  `db:"status" json:"status"`
	InspectionDate       *time.Time     `db:"inspection_date" json:"inspectionDate,omitempty"`
	InspectionNotes      string         `db:"inspection_notes" json:"inspectionNotes,omitempty"`
	BiddingEndDate       *time.Time     `db:"bidding_end_date" json:"biddingEndDate,omitempty"`
	SelectedContractorID *int64         `db:"selected_contractor_id" json:"selectedContractorId,omitempty"`
	SelectedBidID        *int64         `db:"selected_bid_id" json:"selectedBidId,omitempty"`
	CloseReason          string         `db:"close_reason" json:"closeReason,omitempty"`
	Version              int            `db:"version" json:"version"`
	CreatedAt            time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updatedAt"`
}

// Contractor's intent to attend the site inspection
type InspectionInterest struct {
	ID              int64     `db:"id" json:"id"`
	RequestID       int64     `db:"request_id" json:"requestId"`
	ContractorID    int64     `db:"contractor_id" json:"contractorId"`
	WillParticipate bool      `db:"will_participate" json:"willParticipate"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// Cost components of a bid. The total is always derived from these.
type CostBreakdown struct {
	LaborCost    float64 `db:"labor_cost" json:"laborCost"`
	MaterialCost float64 `db:"material_cost" json:"materialCost"`
	PermitCost   float64 `db:"permit_cost" json:"permitCost"`
	DisposalCost float64 `db:"disposal_cost" json:"disposalCost"`
}

// Total returns the sum of all cost components, rounded to cents.
func (c CostBreakdown) Total() float64 {
	return roundCents(c.LaborCost + c.MaterialCost + c.PermitCost + c.DisposalCost)
}

// Rounded returns the breakdown with every component rounded to cents.
func (c CostBreakdown) Rounded() CostBreakdown {
	return CostBreakdown{
		LaborCost:    roundCents(c.LaborCost),
		MaterialCost: roundCents(c.MaterialCost),
		PermitCost:   roundCents(c.PermitCost),
		DisposalCost: roundCents(c.DisposalCost),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Contractor's priced proposal
type Bid struct {
	ID           int64 `db:"id" json:"id"`
	RequestID    int64 `db:"request_id" json:"requestId"`
	ContractorID int64 `db:"contractor_id" json:"contractorId"`
	CostBreakdown
	TotalAmount   float64        `db:"total_amount" json:"totalAmount"`
	TimelineWeeks int            `db:"timeline_weeks" json:"timelineWeeks"`
	StartDate     time.Time      `db:"start_date" json:"startDate"`
	IncludedItems pq.StringArray `db:"included_items" json:"includedItems"`
	ExcludedItems pq.StringArray `db:"excluded_items" json:"excludedItems,omitempty"`
	Notes         string         `db:"notes" json:"notes,omitempty"`
	EstimateFile  string         `db:"estimate_file" json:"estimateFile,omitempty"`
	Status        BidStatus      `db:"status" json:"status"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// Account is a platform user; used as the contact directory for notifications.
type Account struct {
	ID          int64     `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	DisplayName string    `db:"display_name" json:"displayName"`
	Role        string    `db:"role" json:"role"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// RequestFilter narrows ListRequests. Zero values mean "any".
type RequestFilter struct {
	Status     RequestStatus
	CustomerID int64
	Limit      int
	Offset     int
}
