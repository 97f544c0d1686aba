package marketplace

import (
	"context"
	"errors"
	"strconv"

	"github.com/mingunC/renovationPlatform-sub000/models"
)

// SetInterest records whether a contractor will attend the inspection. The
// record is created once and flipped afterwards, never deleted.
//
// The first participating contractor advances an OPEN request to
// INSPECTION_PENDING. With RevertOnZeroInterest, withdrawing the last
// participant of an INSPECTION_PENDING request moves it back to OPEN.
func (s *Service) SetInterest(ctx context.Context, requestID, contractorID int64, willParticipate bool) (*models.InspectionInterest, error) {
	var (
		out    models.InspectionInterest
		events []Event
	)
	err := s.store.WithRequest(ctx, requestID, func(tx Tx, req *models.RenovationRequest) error {
		events = nil
		if err := requireStatus(req, "declare interest on", models.StatusOpen, models.StatusInspectionPending, models.StatusInspectionScheduled); err != nil {
			return err
		}

		now := s.now()
		interest, err := tx.GetInterest(ctx, requestID, contractorID)
		switch {
		case errors.Is(err, ErrNotFound):
			interest = &models.InspectionInterest{
				RequestID:    requestID,
				ContractorID: contractorID,
				CreatedAt:    now,
			}
		case err != nil:
			return err
		}
		interest.WillParticipate = willParticipate
		interest.UpdatedAt = now
		if err := tx.SaveInterest(ctx, interest); err != nil {
			return err
		}
		out = *interest

		events = append(events, Event{
			Type:       EventInterestRecorded,
			RequestID:  requestID,
			Recipients: recipients(req.CustomerID),
			Data: map[string]string{
				"contractorId":    strconv.FormatInt(contractorID, 10),
				"willParticipate": strconv.FormatBool(willParticipate),
			},
		})

		switch {
		case willParticipate && req.Status == models.StatusOpen:
			if err := s.advance(ctx, tx, req); err != nil {
				return err
			}
			events = append(events, Event{
				Type:       EventInspectionPending,
				RequestID:  requestID,
				Recipients: recipients(req.CustomerID),
			})
		case !willParticipate && req.Status == models.StatusInspectionPending && s.cfg.RevertOnZeroInterest:
			participants, err := tx.ListParticipants(ctx, requestID)
			if err != nil {
				return err
			}
			if len(participants) > 0 {
				return nil
			}
			if err := s.setStatus(ctx, tx, "set interest", req, models.StatusOpen); err != nil {
				return err
			}
			events = append(events, Event{
				Type:       EventRequestReopened,
				RequestID:  requestID,
				Recipients: recipients(req.CustomerID),
			})
		}
		return nil
	})
	if err != nil {
		return nil, wrap("set interest", err)
	}

	s.publish(ctx, events...)
	return &out, nil
}

// ListParticipants returns the participating contractors, earliest first.
func (s *Service) ListParticipants(ctx context.Context, requestID int64) ([]models.InspectionInterest, error) {
	if _, err := s.store.GetRequest(ctx, requestID); err != nil {
		return nil, wrap("list participants", err)
	}
	participants, err := s.store.ListParticipants(ctx, requestID)
	if err != nil {
		return nil, wrap("list participants", err)
	}
	return participants, nil
}

func (s *Service) CountParticipants(ctx context.Context, requestID int64) (int, error) {
	if _, err := s.store.GetRequest(ctx, requestID); err != nil {
		return 0, wrap("count participants", err)
	}
	n, err := s.store.CountParticipants(ctx, requestID)
	if err != nil {
		return 0, wrap("count participants", err)
	}
	return n, nil
}
