package marketplace

import (
	"context"
	"time"

	"github.com/mingunC/renovationPlatform-sub000/models"
)

// Store is the persistence collaborator. Implementations return ErrNotFound
// for missing rows and ErrConflict when a concurrent writer won.
type Store interface {
	CreateRequest(ctx context.Context, r *models.RenovationRequest) error
	GetRequest(ctx context.Context, requestID int64) (*models.RenovationRequest, error)
	ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.RenovationRequest, error)
	// ListBiddingExpired returns ids of BIDDING_OPEN requests whose bidding end date is before now.
	ListBiddingExpired(ctx context.Context, now time.Time) ([]int64, error)

	GetBid(ctx context.Context, bidID int64) (*models.Bid, error)
	ListBids(ctx context.Context, requestID int64) ([]models.Bid, error)
	ListContractorBids(ctx context.Context, contractorID int64, limit, offset int) ([]models.Bid, error)

	ListParticipants(ctx context.Context, requestID int64) ([]models.InspectionInterest, error)
	CountParticipants(ctx context.Context, requestID int64) (int, error)

	// WithRequest runs fn in a single transaction that holds the request's
	// row lock. Nothing fn wrote is kept if fn returns an error.
	WithRequest(ctx context.Context, requestID int64, fn func(tx Tx, req *models.RenovationRequest) error) error
}

// Tx is the set of writes available while a request is locked.
type Tx interface {
	// UpdateRequest is a check-and-set on r.Version; it bumps the version on success.
	UpdateRequest(ctx context.Context, r *models.RenovationRequest) error

	GetInterest(ctx context.Context, requestID, contractorID int64) (*models.InspectionInterest, error)
	SaveInterest(ctx context.Context, i *models.InspectionInterest) error
	ListParticipants(ctx context.Context, requestID int64) ([]models.InspectionInterest, error)

	GetBid(ctx context.Context, bidID int64) (*models.Bid, error)
	GetActiveBid(ctx context.Context, requestID, contractorID int64) (*models.Bid, error)
	ListBids(ctx context.Context, requestID int64) ([]models.Bid, error)
	CreateBid(ctx context.Context, b *models.Bid) error
	UpdateBid(ctx context.Context, b *models.Bid) error
	// RejectPendingBids marks every PENDING bid on the request other than
	// exceptBidID (0 for none) REJECTED as of at and returns them.
	RejectPendingBids(ctx context.Context, requestID, exceptBidID int64, at time.Time) ([]models.Bid, error)
}
