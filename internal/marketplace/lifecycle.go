package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mingunC/renovationPlatform-sub000/models"
	"github.com/mingunC/renovationPlatform-sub000/pkg/logger"
)

// setStatus is the only place a request status is written.
func (s *Service) setStatus(ctx context.Context, tx Tx, op string, req *models.RenovationRequest, to models.RequestStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: undefined status %q", ErrInvalidTransition, to)
	}
	from := req.Status
	req.Status = to
	req.UpdatedAt = s.now()
	if err := tx.UpdateRequest(ctx, req); err != nil {
		req.Status = from
		return err
	}
	logger.Info(ctx, "request status changed", "op", op, "request", req.ID, "from", from, "to", to)
	return nil
}

// advance moves an OPEN request to INSPECTION_PENDING. Shared by the admin
// override and the first participating interest.
func (s *Service) advance(ctx context.Context, tx Tx, req *models.RenovationRequest) error {
	if err := requireStatus(req, "advance to inspection pending", models.StatusOpen); err != nil {
		return err
	}
	return s.setStatus(ctx, tx, "advance to inspection pending", req, models.StatusInspectionPending)
}

// AdvanceToInspectionPending is the admin override for OPEN → INSPECTION_PENDING.
func (s *Service) AdvanceToInspectionPending(ctx context.Context, requestID int64) (*models.RenovationRequest, error) {
	var out models.RenovationRequest
	err := s.store.WithRequest(ctx, requestID, func(tx Tx, req *models.RenovationRequest) error {
		if err := s.advance(ctx, tx, req); err != nil {
			return err
		}
		out = *req
		return nil
	})
	if err != nil {
		return nil, wrap("advance to inspection pending", err)
	}

	s.publish(ctx, Event{
		Type:       EventInspectionPending,
		RequestID:  requestID,
		Recipients: recipients(out.CustomerID),
	})
	return &out, nil
}

// ScheduleInspection sets or moves the inspection date.
func (s *Service) ScheduleInspection(ctx context.Context, requestID int64, date time.Time, notes string) (*models.RenovationRequest, error) {
	var (
		out          models.RenovationRequest
		participants []models.InspectionInterest
	)
	err := s.store.WithRequest(ctx, requestID, func(tx Tx, req *models.RenovationRequest) error {
		if err := requireStatus(req, "schedule inspection", models.StatusInspectionPending, models.StatusInspectionScheduled); err != nil {
			return err
		}
		if !date.After(s.now()) {
			return fmt.Errorf("%w: inspection date must be in the future", ErrValidation)
		}

		d := date
		req.InspectionDate = &d
		req.InspectionNotes = notes
		if err := s.setStatus(ctx, tx, "schedule inspection", req, models.StatusInspectionScheduled); err != nil {
			return err
		}

		var err error
		participants, err = tx.ListParticipants(ctx, requestID)
		if err != nil {
			return err
		}
		out = *req
		return nil
	})
	if err != nil {
		return nil, wrap("schedule inspection", err)
	}

	s.publish(ctx, Event{
		Type:       EventInspectionScheduled,
		RequestID:  requestID,
		Recipients: recipients(append([]int64{out.CustomerID}, participantIDs(participants)...)...),
		Data:       map[string]string{"inspectionDate": date.Format(time.RFC3339), "notes": notes},
	})
	return &out, nil
}

// OpenBidding starts the bidding window. A zero endDate uses the configured
// default window.
func (s *Service) OpenBidding(ctx context.Context, requestID int64, endDate time.Time) (*models.RenovationRequest, error) {
	var (
		out          models.RenovationRequest
		participants []models.InspectionInterest
	)
	err := s.store.WithRequest(ctx, requestID, func(tx Tx, req *models.RenovationRequest) error {
		if err := requireStatus(req, "open bidding", models.StatusInspectionScheduled); err != nil {
			return err
		}
		now := s.now()
		end := endDate
		if end.IsZero() {
			end = now.Add(s.cfg.DefaultBiddingWindow)
		}
		if !end.After(now) {
			return fmt.Errorf("%w: bidding end date must be in the future", ErrValidation)
		}

		req.BiddingEndDate = &end
		if err := s.setStatus(ctx, tx, "open bidding", req, models.StatusBiddingOpen); err != nil {
			return err
		}

		var err error
		participants, err = tx.ListParticipants(ctx, requestID)
		if err != nil {
			return err
		}
		out = *req
		return nil
	})
	if err != nil {
		return nil, wrap("open bidding", err)
	}

	s.publish(ctx, Event{
		Type:       EventBiddingOpened,
		RequestID:  requestID,
		Recipients: recipients(append([]int64{out.CustomerID}, participantIDs(participants)...)...),
		Data:       map[string]string{"biddingEndDate": out.BiddingEndDate.Format(time.RFC3339)},
	})
	return &out, nil
}

// CloseBidding ends the bidding window, either by admin action or by the
// expiry sweep.
func (s *Service) CloseBidding(ctx context.Context, requestID int64) (*models.RenovationRequest, error) {
	var (
		out  models.RenovationRequest
		bids []models.Bid
	)
	err := s.store.WithRequest(ctx, requestID, func(tx Tx, req *models.RenovationRequest) error {
		if err := s.closeBidding(ctx, tx, req); err != nil {
			return err
		}
		var err error
		bids, err = tx.ListBids(ctx, requestID)
		if err != nil {
			return err
		}
		out = *req
		return nil
	})
	if err != nil {
		return nil, wrap("close bidding", err)
	}

	s.publish(ctx, Event{
		Type:       EventBiddingClosed,
		RequestID:  requestID,
		Recipients: recipients(append([]int64{out.CustomerID}, bidderIDs(bids)...)...),
		Data:       map[string]string{"bids": strconv.Itoa(len(bids))},
	})
	return &out, nil
}

func (s *Service) closeBidding(ctx context.Context, tx Tx, req *models.RenovationRequest) error {
	if err := requireStatus(req, "close bidding", models.StatusBiddingOpen); err != nil {
		return err
	}
	return s.setStatus(ctx, tx, "close bidding", req, models.StatusBiddingClosed)
}

// SelectContractor accepts bidID and rejects every other pending bid on the
// request in the same transaction.
func (s *Service) SelectContractor(ctx context.Context, requestID, bidID int64) (*models.RenovationRequest, *models.Bid, error) {
	var (
		out      models.RenovationRequest
		accepted models.Bid
		rejected []models.Bid
		early    bool
	)
	err := s.store.WithRequest(ctx, requestID, func(tx Tx, req *models.RenovationRequest) error {
		allowed := []models.RequestStatus{models.StatusBiddingClosed}
		if s.cfg.AllowEarlySelection {
			allowed = append(allowed, models.StatusBiddingOpen)
		}
		if err := requireStatus(req, "select contractor", allowed...); err != nil {
			return err
		}

		bid, err := tx.GetBid(ctx, bidID)
		if err != nil {
			return err
		}
		if bid.RequestID != requestID {
			return fmt.Errorf("%w: bid %d does not belong to request %d", ErrNotFound, bidID, requestID)
		}
		if bid.Status != models.BidPending {
			return fmt.Errorf("%w: bid %d is %s", ErrInvalidTransition, bidID, bid.Status)
		}

		now := s.now()
		bid.Status = models.BidAccepted
		bid.UpdatedAt = now
		if err := tx.UpdateBid(ctx, bid); err != nil {
			return err
		}
		rejected, err = tx.RejectPendingBids(ctx, requestID, bidID, now)
		if err != nil {
			return err
		}

		early = req.Status == models.StatusBiddingOpen
		contractor, selected := bid.ContractorID, bid.ID
		req.SelectedContractorID = &contractor
		req.SelectedBidID = &selected
		if err := s.setStatus(ctx, tx, "select contractor", req, models.StatusContractorSelected); err != nil {
			return err
		}
		out, accepted = *req, *bid
		return nil
	})
	if err != nil {
		return nil, nil, wrap("select contractor", err)
	}

	data := map[string]string{
		"contractorId": strconv.FormatInt(accepted.ContractorID, 10),
		"totalAmount":  strconv.FormatFloat(accepted.TotalAmount, 'f', 2, 64),
	}
	if early {
		data["early"] = "true"
	}
	s.publish(ctx, Event{
		Type:       EventContractorSelected,
		RequestID:  requestID,
		BidID:      accepted.ID,
		Recipients: recipients(append([]int64{out.CustomerID, accepted.ContractorID}, bidderIDs(rejected)...)...),
		Data:       data,
	})
	return &out, &accepted, nil
}

// Complete marks the work on a request finished.
func (s *Service) Complete(ctx context.Context, requestID int64) (*models.RenovationRequest, error) {
	var out models.RenovationRequest
	err := s.store.WithRequest(ctx, requestID, func(tx Tx, req *models.RenovationRequest) error {
		if err := requireStatus(req, "complete", models.StatusContractorSelected); err != nil {
			return err
		}
		if err := s.setStatus(ctx, tx, "complete", req, models.StatusCompleted); err != nil {
			return err
		}
		out = *req
		return nil
	})
	if err != nil {
		return nil, wrap("complete", err)
	}

	var contractor int64
	if out.SelectedContractorID != nil {
		contractor = *out.SelectedContractorID
	}
	s.publish(ctx, Event{
		Type:       EventRequestCompleted,
		RequestID:  requestID,
		Recipients: recipients(out.CustomerID, contractor),
	})
	return &out, nil
}

// Cancel closes a request from any non-terminal status. Pending bids are
// rejected so the ledger holds no live offers on a closed request.
func (s *Service) Cancel(ctx context.Context, requestID int64, reason string) (*models.RenovationRequest, error) {
	var (
		out      models.RenovationRequest
		rejected []models.Bid
	)
	err := s.store.WithRequest(ctx, requestID, func(tx Tx, req *models.RenovationRequest) error {
		if req.Status.Terminal() {
			return fmt.Errorf("%w: request %d is already %s", ErrInvalidTransition, req.ID, req.Status)
		}
		var err error
		rejected, err = tx.RejectPendingBids(ctx, requestID, 0, s.now())
		if err != nil {
			return err
		}
		req.CloseReason = reason
		if err := s.setStatus(ctx, tx, "cancel", req, models.StatusClosed); err != nil {
			return err
		}
		out = *req
		return nil
	})
	if err != nil {
		return nil, wrap("cancel", err)
	}

	s.publish(ctx, Event{
		Type:       EventRequestClosed,
		RequestID:  requestID,
		Recipients: recipients(append([]int64{out.CustomerID}, bidderIDs(rejected)...)...),
		Data:       map[string]string{"reason": reason},
	})
	return &out, nil
}

// CloseExpiredBidding closes every request whose bidding window has ended.
// Requests that moved on concurrently are skipped.
func (s *Service) CloseExpiredBidding(ctx context.Context) (int, error) {
	ids, err := s.store.ListBiddingExpired(ctx, s.now())
	if err != nil {
		return 0, wrap("close expired bidding", err)
	}

	closed := 0
	for _, id := range ids {
		if _, err := s.CloseBidding(ctx, id); err != nil {
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
				logger.Debug(ctx, "skipping expired bidding", "request", id, "error", err)
				continue
			}
			return closed, err
		}
		closed++
	}
	return closed, nil
}
