// Package memstore is an in-memory marketplace.Store. WithRequest runs under
// a single mutex and stages writes, so it gives the same all-or-nothing
// behaviour as the PostgreSQL store.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mingunC/renovationPlatform-sub000/internal/marketplace"
	"github.com/mingunC/renovationPlatform-sub000/models"
)

type interestKey struct {
	requestID    int64
	contractorID int64
}

type Store struct {
	mu        sync.Mutex
	requests  map[int64]models.RenovationRequest
	interests map[interestKey]models.InspectionInterest
	bids      map[int64]models.Bid
	accounts  map[int64]models.Account

	nextRequestID  int64
	nextInterestID int64
	nextBidID      int64
}

func New() *Store {
	return &Store{
		requests:  make(map[int64]models.RenovationRequest),
		interests: make(map[interestKey]models.InspectionInterest),
		bids:      make(map[int64]models.Bid),
		accounts:  make(map[int64]models.Account),
	}
}

// SaveAccount inserts or replaces the contact for a.ID.
func (s *Store) SaveAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.accounts[a.ID]; ok {
		a.CreatedAt = prev.CreatedAt
	} else if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	s.accounts[a.ID] = *a
	return nil
}

func (s *Store) GetAccount(_ context.Context, accountID int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %d", marketplace.ErrNotFound, accountID)
	}
	return &a, nil
}

// ContactEmail implements notify.Directory.
func (s *Store) ContactEmail(_ context.Context, accountID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return "", fmt.Errorf("%w: account %d", marketplace.ErrNotFound, accountID)
	}
	return a.Email, nil
}

func (s *Store) CreateRequest(_ context.Context, r *models.RenovationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRequestID++
	r.ID = s.nextRequestID
	if r.Version == 0 {
		r.Version = 1
	}
	s.requests[r.ID] = cloneRequest(*r)
	return nil
}

func (s *Store) GetRequest(_ context.Context, requestID int64) (*models.RenovationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("%w: request %d", marketplace.ErrNotFound, requestID)
	}
	out := cloneRequest(r)
	return &out, nil
}

func (s *Store) ListRequests(_ context.Context, filter models.RequestFilter) ([]models.RenovationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.RenovationRequest{}
	for _, r := range s.requests {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.CustomerID != 0 && r.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, cloneRequest(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (s *Store) ListBiddingExpired(_ context.Context, now time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, r := range s.requests {
		if r.Status == models.StatusBiddingOpen && r.BiddingEndDate != nil && r.BiddingEndDate.Before(now) {
			ids = append(ids, r.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) GetBid(_ context.Context, bidID int64) (*models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bids[bidID]
	if !ok {
		return nil, fmt.Errorf("%w: bid %d", marketplace.ErrNotFound, bidID)
	}
	out := cloneBid(b)
	return &out, nil
}

func (s *Store) ListBids(_ context.Context, requestID int64) ([]models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return activeBids(s.bids, requestID), nil
}

func (s *Store) ListContractorBids(_ context.Context, contractorID int64, limit, offset int) ([]models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Bid{}
	for _, b := range s.bids {
		if b.ContractorID == contractorID {
			out = append(out, cloneBid(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), nil
}

func (s *Store) ListParticipants(_ context.Context, requestID int64) ([]models.InspectionInterest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return participants(s.interests, requestID), nil
}

func (s *Store) CountParticipants(_ context.Context, requestID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(participants(s.interests, requestID)), nil
}

// WithRequest holds the store lock for the whole of fn. Writes go to a
// staging tx and are applied only when fn succeeds.
func (s *Store) WithRequest(ctx context.Context, requestID int64, fn func(tx marketplace.Tx, req *models.RenovationRequest) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[requestID]
	if !ok {
		return fmt.Errorf("%w: request %d", marketplace.ErrNotFound, requestID)
	}

	tx := &stagedTx{
		store:     s,
		requestID: requestID,
		interests: make(map[interestKey]models.InspectionInterest),
		bids:      make(map[int64]models.Bid),
	}
	for k, v := range s.interests {
		if k.requestID == requestID {
			tx.interests[k] = v
		}
	}
	for id, b := range s.bids {
		if b.RequestID == requestID {
			tx.bids[id] = cloneBid(b)
		}
	}
	tx.request = cloneRequest(r)

	req := cloneRequest(r)
	if err := fn(tx, &req); err != nil {
		return err
	}

	s.requests[requestID] = tx.request
	for k, v := range tx.interests {
		s.interests[k] = v
	}
	for id, b := range tx.bids {
		s.bids[id] = b
	}
	s.nextInterestID, s.nextBidID = tx.nextInterestID(), tx.nextBidID()
	return nil
}

type stagedTx struct {
	store      *Store
	requestID  int64
	request    models.RenovationRequest
	interests  map[interestKey]models.InspectionInterest
	bids       map[int64]models.Bid
	interestSq int64
	bidSq      int64
}

func (t *stagedTx) nextInterestID() int64 { return t.store.nextInterestID + t.interestSq }
func (t *stagedTx) nextBidID() int64      { return t.store.nextBidID + t.bidSq }

func (t *stagedTx) UpdateRequest(_ context.Context, r *models.RenovationRequest) error {
	if r.ID != t.requestID {
		return fmt.Errorf("request %d is not locked by this transaction", r.ID)
	}
	if r.Version != t.request.Version {
		return fmt.Errorf("%w: request %d changed (version %d, have %d)", marketplace.ErrConflict, r.ID, t.request.Version, r.Version)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("invalid request status %q", r.Status)
	}
	r.Version++
	t.request = cloneRequest(*r)
	return nil
}

func (t *stagedTx) GetInterest(_ context.Context, requestID, contractorID int64) (*models.InspectionInterest, error) {
	i, ok := t.interests[interestKey{requestID, contractorID}]
	if !ok {
		return nil, fmt.Errorf("%w: interest of contractor %d on request %d", marketplace.ErrNotFound, contractorID, requestID)
	}
	return &i, nil
}

func (t *stagedTx) SaveInterest(_ context.Context, i *models.InspectionInterest) error {
	if i.RequestID != t.requestID {
		return fmt.Errorf("request %d is not locked by this transaction", i.RequestID)
	}
	key := interestKey{i.RequestID, i.ContractorID}
	if existing, ok := t.interests[key]; ok {
		i.ID = existing.ID
		i.CreatedAt = existing.CreatedAt
	} else {
		t.interestSq++
		i.ID = t.nextInterestID()
	}
	t.interests[key] = *i
	return nil
}

func (t *stagedTx) ListParticipants(_ context.Context, requestID int64) ([]models.InspectionInterest, error) {
	return participants(t.interests, requestID), nil
}

func (t *stagedTx) GetBid(_ context.Context, bidID int64) (*models.Bid, error) {
	if b, ok := t.bids[bidID]; ok {
		out := cloneBid(b)
		return &out, nil
	}
	// bids of other requests are readable but not writable here
	if b, ok := t.store.bids[bidID]; ok {
		out := cloneBid(b)
		return &out, nil
	}
	return nil, fmt.Errorf("%w: bid %d", marketplace.ErrNotFound, bidID)
}

func (t *stagedTx) GetActiveBid(_ context.Context, requestID, contractorID int64) (*models.Bid, error) {
	for _, b := range t.bids {
		if b.RequestID == requestID && b.ContractorID == contractorID && b.Status != models.BidWithdrawn {
			out := cloneBid(b)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: active bid of contractor %d on request %d", marketplace.ErrNotFound, contractorID, requestID)
}

func (t *stagedTx) ListBids(_ context.Context, requestID int64) ([]models.Bid, error) {
	return activeBids(t.bids, requestID), nil
}

func (t *stagedTx) CreateBid(ctx context.Context, b *models.Bid) error {
	if b.RequestID != t.requestID {
		return fmt.Errorf("request %d is not locked by this transaction", b.RequestID)
	}
	if _, err := t.GetActiveBid(ctx, b.RequestID, b.ContractorID); err == nil {
		return fmt.Errorf("%w: contractor %d already has an active bid on request %d", marketplace.ErrConflict, b.ContractorID, b.RequestID)
	}
	t.bidSq++
	b.ID = t.nextBidID()
	t.bids[b.ID] = cloneBid(*b)
	return nil
}

func (t *stagedTx) UpdateBid(_ context.Context, b *models.Bid) error {
	if _, ok := t.bids[b.ID]; !ok {
		return fmt.Errorf("%w: bid %d on request %d", marketplace.ErrNotFound, b.ID, t.requestID)
	}
	if !b.Status.Valid() {
		return fmt.Errorf("invalid bid status %q", b.Status)
	}
	t.bids[b.ID] = cloneBid(*b)
	return nil
}

func (t *stagedTx) RejectPendingBids(_ context.Context, requestID, exceptBidID int64, at time.Time) ([]models.Bid, error) {
	var rejected []models.Bid
	for id, b := range t.bids {
		if b.RequestID != requestID || id == exceptBidID || b.Status != models.BidPending {
			continue
		}
		b.Status = models.BidRejected
		b.UpdatedAt = at
		t.bids[id] = b
		rejected = append(rejected, cloneBid(b))
	}
	sort.Slice(rejected, func(i, j int) bool { return rejected[i].ID < rejected[j].ID })
	return rejected, nil
}

func participants(interests map[interestKey]models.InspectionInterest, requestID int64) []models.InspectionInterest {
	out := []models.InspectionInterest{}
	for k, v := range interests {
		if k.requestID == requestID && v.WillParticipate {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func activeBids(bids map[int64]models.Bid, requestID int64) []models.Bid {
	out := []models.Bid{}
	for _, b := range bids {
		if b.RequestID == requestID && b.Status != models.BidWithdrawn {
			out = append(out, cloneBid(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneRequest(r models.RenovationRequest) models.RenovationRequest {
	r.Photos = append(r.Photos[:0:0], r.Photos...)
	r.InspectionDate = clonePtr(r.InspectionDate)
	r.BiddingEndDate = clonePtr(r.BiddingEndDate)
	r.SelectedContractorID = clonePtr(r.SelectedContractorID)
	r.SelectedBidID = clonePtr(r.SelectedBidID)
	return r
}

func cloneBid(b models.Bid) models.Bid {
	b.IncludedItems = append(b.IncludedItems[:0:0], b.IncludedItems...)
	b.ExcludedItems = append(b.ExcludedItems[:0:0], b.ExcludedItems...)
	return b
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
