package marketplace

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mingunC/renovationPlatform-sub000/models"
)

// BidInput is what a contractor submits. There is no total: the ledger
// derives it from the breakdown.
type BidInput struct {
	RequestID     int64
	ContractorID  int64
	Breakdown     models.CostBreakdown
	TimelineWeeks int
	StartDate     time.Time
	IncludedItems []string
	ExcludedItems []string
	Notes         string
	EstimateFile  string
}

// MaxAmount is the largest cost, and the largest total, a bid can carry.
const MaxAmount = 9_999_999_999.99

func (in BidInput) validate(now time.Time) error {
	var problems []string
	costs := map[string]float64{
		"labor cost":    in.Breakdown.LaborCost,
		"material cost": in.Breakdown.MaterialCost,
		"permit cost":   in.Breakdown.PermitCost,
		"disposal cost": in.Breakdown.DisposalCost,
	}
	for _, name := range []string{"labor cost", "material cost", "permit cost", "disposal cost"} {
		v := costs[name]
		switch {
		case v < 0 || math.IsNaN(v) || math.IsInf(v, 0):
			problems = append(problems, name+" must be a non-negative amount")
		case v > MaxAmount:
			problems = append(problems, name+" is too large")
		case !wholeCents(v):
			problems = append(problems, name+" must not have more than two decimal places")
		}
	}
	if len(problems) == 0 && in.Breakdown.Total() > MaxAmount {
		problems = append(problems, "total amount is too large")
	}
	if in.TimelineWeeks < 1 {
		problems = append(problems, "timeline must be at least one week")
	}
	if in.StartDate.IsZero() {
		problems = append(problems, "start date is required")
	} else if in.StartDate.Before(startOfDay(now)) {
		problems = append(problems, "start date is in the past")
	}
	if len(nonEmpty(in.IncludedItems)) == 0 {
		problems = append(problems, "at least one included item is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// SubmitBid places or revises the contractor's bid on a request that is
// accepting bids. A contractor holds at most one active bid per request, so a
// second submission updates the first.
func (s *Service) SubmitBid(ctx context.Context, in BidInput) (*models.Bid, error) {
	var (
		out      models.Bid
		customer int64
		revised  bool
	)
	err := s.store.WithRequest(ctx, in.RequestID, func(tx Tx, req *models.RenovationRequest) error {
		if err := requireStatus(req, "submit bid on", models.StatusBiddingOpen); err != nil {
			return err
		}
		now := s.now()
		if err := in.validate(now); err != nil {
			return err
		}
		if s.cfg.RequireInspectionInterest {
			interest, err := tx.GetInterest(ctx, in.RequestID, in.ContractorID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			if interest == nil || !interest.WillParticipate {
				return fmt.Errorf("%w: contractor %d did not join the inspection of request %d", ErrForbidden, in.ContractorID, in.RequestID)
			}
		}

		bid, err := tx.GetActiveBid(ctx, in.RequestID, in.ContractorID)
		switch {
		case errors.Is(err, ErrNotFound):
			bid = &models.Bid{
				RequestID:    in.RequestID,
				ContractorID: in.ContractorID,
				Status:       models.BidPending,
				CreatedAt:    now,
			}
		case err != nil:
			return err
		default:
			revised = true
		}

		bid.CostBreakdown = in.Breakdown.Rounded()
		bid.TotalAmount = bid.CostBreakdown.Total()
		bid.TimelineWeeks = in.TimelineWeeks
		bid.StartDate = in.StartDate
		bid.IncludedItems = nonEmpty(in.IncludedItems)
		bid.ExcludedItems = nonEmpty(in.ExcludedItems)
		bid.Notes = in.Notes
		bid.EstimateFile = in.EstimateFile
		bid.UpdatedAt = now

		if revised {
			err = tx.UpdateBid(ctx, bid)
		} else {
			err = tx.CreateBid(ctx, bid)
		}
		if err != nil {
			return err
		}
		out, customer = *bid, req.CustomerID
		return nil
	})
	if err != nil {
		return nil, wrap("submit bid", err)
	}

	s.publish(ctx, Event{
		Type:       EventBidSubmitted,
		RequestID:  in.RequestID,
		BidID:      out.ID,
		Recipients: recipients(customer),
		Data: map[string]string{
			"contractorId": strconv.FormatInt(out.ContractorID, 10),
			"totalAmount":  strconv.FormatFloat(out.TotalAmount, 'f', 2, 64),
			"revised":      strconv.FormatBool(revised),
		},
	})
	return &out, nil
}

// WithdrawBid removes a pending bid from the active ledger. The row is kept
// with status WITHDRAWN.
func (s *Service) WithdrawBid(ctx context.Context, bidID, contractorID int64) (*models.Bid, error) {
	current, err := s.store.GetBid(ctx, bidID)
	if err != nil {
		return nil, wrap("withdraw bid", err)
	}

	var (
		out      models.Bid
		customer int64
	)
	err = s.store.WithRequest(ctx, current.RequestID, func(tx Tx, req *models.RenovationRequest) error {
		bid, err := tx.GetBid(ctx, bidID)
		if err != nil {
			return err
		}
		if bid.ContractorID != contractorID {
			return fmt.Errorf("%w: bid %d belongs to another contractor", ErrForbidden, bidID)
		}
		if bid.Status != models.BidPending {
			return fmt.Errorf("%w: bid %d is %s", ErrInvalidTransition, bidID, bid.Status)
		}
		bid.Status = models.BidWithdrawn
		bid.UpdatedAt = s.now()
		if err := tx.UpdateBid(ctx, bid); err != nil {
			return err
		}
		out, customer = *bid, req.CustomerID
		return nil
	})
	if err != nil {
		return nil, wrap("withdraw bid", err)
	}

	s.publish(ctx, Event{
		Type:       EventBidWithdrawn,
		RequestID:  out.RequestID,
		BidID:      out.ID,
		Recipients: recipients(customer),
		Data:       map[string]string{"contractorId": strconv.FormatInt(out.ContractorID, 10)},
	})
	return &out, nil
}

// AcceptBid is the customer's selection of a bid on their own request.
func (s *Service) AcceptBid(ctx context.Context, bidID, customerID int64) (*models.RenovationRequest, *models.Bid, error) {
	bid, err := s.store.GetBid(ctx, bidID)
	if err != nil {
		return nil, nil, wrap("accept bid", err)
	}
	req, err := s.store.GetRequest(ctx, bid.RequestID)
	if err != nil {
		return nil, nil, wrap("accept bid", err)
	}
	if req.CustomerID != customerID {
		return nil, nil, fmt.Errorf("accept bid: %w: request %d belongs to another customer", ErrForbidden, req.ID)
	}
	return s.SelectContractor(ctx, bid.RequestID, bidID)
}

// ListBids returns the non-withdrawn bids on a request in ledger order.
func (s *Service) ListBids(ctx context.Context, requestID int64) ([]models.Bid, error) {
	if _, err := s.store.GetRequest(ctx, requestID); err != nil {
		return nil, wrap("list bids", err)
	}
	bids, err := s.store.ListBids(ctx, requestID)
	if err != nil {
		return nil, wrap("list bids", err)
	}
	return bids, nil
}

func (s *Service) ListContractorBids(ctx context.Context, contractorID int64, limit, offset int) ([]models.Bid, error) {
	if err := checkPage(limit, offset); err != nil {
		return nil, wrap("list contractor bids", err)
	}
	bids, err := s.store.ListContractorBids(ctx, contractorID, limit, offset)
	if err != nil {
		return nil, wrap("list contractor bids", err)
	}
	return bids, nil
}

func checkPage(limit, offset int) error {
	if limit < 0 || offset < 0 {
		return fmt.Errorf("%w: limit and offset must not be negative", ErrValidation)
	}
	return nil
}

// SortByTotal orders bids cheapest first, keeping submission order for ties.
func SortByTotal(bids []models.Bid) {
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].TotalAmount < bids[j].TotalAmount
	})
}

// wholeCents reports whether v has at most two decimal places, allowing for
// binary representation error.
func wholeCents(v float64) bool {
	return math.Abs(v-math.Round(v*100)/100) < 1e-5
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
