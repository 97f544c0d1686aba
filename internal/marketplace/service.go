package marketplace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mingunC/renovationPlatform-sub000/models"
	"github.com/mingunC/renovationPlatform-sub000/pkg/logger"
)

// Config holds the policy switches left open by the product rules.
type Config struct {
	// AllowEarlySelection lets a customer accept a bid while bidding is still open.
	AllowEarlySelection bool
	// RevertOnZeroInterest moves an INSPECTION_PENDING request back to OPEN
	// when its last participant withdraws.
	RevertOnZeroInterest bool
	// RequireInspectionInterest restricts bidding to contractors that
	// declared they would attend the inspection.
	RequireInspectionInterest bool
	// DefaultBiddingWindow is used when OpenBidding gets a zero end date.
	DefaultBiddingWindow time.Duration
}

// Service is the coordination core: request lifecycle, inspection interest
// registry and bid ledger over a single Store.
type Service struct {
	store    Store
	notifier Notifier
	cfg      Config
	now      func() time.Time
}

func NewService(store Store, notifier Notifier, cfg Config) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if cfg.DefaultBiddingWindow <= 0 {
		cfg.DefaultBiddingWindow = 7 * 24 * time.Hour
	}
	return &Service{store: store, notifier: notifier, cfg: cfg, now: time.Now}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Config() Config {
	return s.cfg
}

// NewRequest is the customer-supplied part of a renovation request.
type NewRequest struct {
	Category     models.Category
	PropertyType models.PropertyType
	BudgetRange  models.BudgetRange
	Timeline     models.Timeline
	PostalCode   string
	Address      string
	Description  string
	Photos       []string
}

func (n NewRequest) validate() error {
	var problems []string
	if !n.Category.Valid() {
		problems = append(problems, "category")
	}
	if !n.PropertyType.Valid() {
		problems = append(problems, "property type")
	}
	if !n.BudgetRange.Valid() {
		problems = append(problems, "budget range")
	}
	if !n.Timeline.Valid() {
		problems = append(problems, "timeline")
	}
	if strings.TrimSpace(n.PostalCode) == "" {
		problems = append(problems, "postal code")
	}
	if strings.TrimSpace(n.Address) == "" {
		problems = append(problems, "address")
	}
	if strings.TrimSpace(n.Description) == "" {
		problems = append(problems, "description")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: invalid or missing %s", ErrValidation, strings.Join(problems, ", "))
	}
	return nil
}

// CreateRequest stores a new request in status OPEN.
func (s *Service) CreateRequest(ctx context.Context, customerID int64, in NewRequest) (*models.RenovationRequest, error) {
	if customerID <= 0 {
		return nil, fmt.Errorf("create request: %w: customer id must be positive", ErrValidation)
	}
	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	now := s.now()
	req := &models.RenovationRequest{
		CustomerID:   customerID,
		Category:     in.Category,
		PropertyType: in.PropertyType,
		BudgetRange:  in.BudgetRange,
		Timeline:     in.Timeline,
		PostalCode:   strings.TrimSpace(in.PostalCode),
		Address:      strings.TrimSpace(in.Address),
		Description:  strings.TrimSpace(in.Description),
		Photos:       append([]string{}, in.Photos...),
		Status:       models.StatusOpen,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, wrap("create request", err)
	}

	s.publish(ctx, Event{
		Type:       EventRequestCreated,
		RequestID:  req.ID,
		Recipients: []int64{customerID},
		Data:       map[string]string{"category": string(req.Category), "postalCode": req.PostalCode},
	})
	return req, nil
}

func (s *Service) GetRequest(ctx context.Context, requestID int64) (*models.RenovationRequest, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, wrap("get request", err)
	}
	return req, nil
}

func (s *Service) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.RenovationRequest, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("list requests: %w: unknown status %q", ErrValidation, filter.Status)
	}
	if err := checkPage(filter.Limit, filter.Offset); err != nil {
		return nil, wrap("list requests", err)
	}
	reqs, err := s.store.ListRequests(ctx, filter)
	if err != nil {
		return nil, wrap("list requests", err)
	}
	return reqs, nil
}

// publish hands committed events to the notifier. It never fails the caller.
func (s *Service) publish(ctx context.Context, events ...Event) {
	for _, e := range events {
		if e.OccurredAt.IsZero() {
			e.OccurredAt = s.now()
		}
		logger.Info(ctx, "marketplace event", "type", e.Type, "request", e.RequestID, "bid", e.BidID)
		s.notifier.Notify(ctx, e)
	}
}

// wrap prefixes err with the operation. Errors that are not one of the core
// kinds are reported as storage failures.
func wrap(op string, err error) error {
	if isKind(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: storage: %w", op, err)
}

func requireStatus(req *models.RenovationRequest, op string, allowed ...models.RequestStatus) error {
	for _, st := range allowed {
		if req.Status == st {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s request %d in status %s", ErrInvalidTransition, op, req.ID, req.Status)
}

func recipients(ids ...int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func participantIDs(interests []models.InspectionInterest) []int64 {
	ids := make([]int64, 0, len(interests))
	for _, i := range interests {
		ids = append(ids, i.ContractorID)
	}
	return ids
}

func bidderIDs(bids []models.Bid) []int64 {
	ids := make([]int64, 0, len(bids))
	for _, b := range bids {
		ids = append(ids, b.ContractorID)
	}
	return ids
}
