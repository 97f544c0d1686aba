// Package db is the PostgreSQL implementation of marketplace.Store.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mingunC/renovationPlatform-sub000/internal/marketplace"
	"github.com/mingunC/renovationPlatform-sub000/models"
)

const (
	requestColumns = `id, customer_id, category, property_type, budget_range, timeline, postal_code,
        address, description, photos, status, inspection_date, inspection_notes, bidding_end_date,
        selected_contractor_id, selected_bid_id, close_reason, version, created_at, updated_at`

	interestColumns = `id, request_id, contractor_id, will_participate, created_at, updated_at`

	bidColumns = `id, request_id, contractor_id, labor_cost, material_cost, permit_cost, disposal_cost,
        total_amount, timeline_weeks, start_date, included_items, excluded_items, notes, estimate_file,
        status, created_at, updated_at`

	uniqueViolation = "23505"
	checkViolation  = "23514"
	numericOverflow = "22003"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Connect opens the pool and checks the connection.
func Connect(ctx context.Context, conn string, maxOpen, maxIdle int, maxLifetime time.Duration) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", conn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)
	return db, nil
}

// queryer is the part of sqlx shared by *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

// mapError translates driver errors into the marketplace error kinds.
func mapError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", marketplace.ErrNotFound, what)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s: %s", marketplace.ErrConflict, what, pqErr.Constraint)
		case numericOverflow, checkViolation:
			return fmt.Errorf("%w: %s: %s", marketplace.ErrValidation, what, pqErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Account

func (s *Storage) SaveAccount(ctx context.Context, a *models.Account) error {
	query := `
        INSERT INTO account (id, email, display_name, role)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE
            SET email = EXCLUDED.email, display_name = EXCLUDED.display_name, role = EXCLUDED.role
        RETURNING created_at`
	err := s.db.QueryRowxContext(ctx, query, a.ID, a.Email, a.DisplayName, a.Role).Scan(&a.CreatedAt)
	return mapError(err, "save account %d", a.ID)
}

func (s *Storage) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	a := &models.Account{}
	query := `SELECT id, email, display_name, role, created_at FROM account WHERE id = $1`
	if err := s.db.GetContext(ctx, a, query, accountID); err != nil {
		return nil, mapError(err, "account %d", accountID)
	}
	return a, nil
}

// ContactEmail implements notify.Directory.
func (s *Storage) ContactEmail(ctx context.Context, accountID int64) (string, error) {
	var email string
	err := s.db.GetContext(ctx, &email, `SELECT email FROM account WHERE id = $1`, accountID)
	if err != nil {
		return "", mapError(err, "account %d", accountID)
	}
	return email, nil
}

// RenovationRequest

func (s *Storage) CreateRequest(ctx context.Context, r *models.RenovationRequest) error {
	query := `
        INSERT INTO renovation_request
            (customer_id, category, property_type, budget_range, timeline, postal_code, address,
             description, photos, status, version, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id`
	if r.Version == 0 {
		r.Version = 1
	}
	err := s.db.QueryRowxContext(ctx, query,
		r.CustomerID, r.Category, r.PropertyType, r.BudgetRange, r.Timeline, r.PostalCode, r.Address,
		r.Description, pq.StringArray(r.Photos), r.Status, r.Version, r.CreatedAt, r.UpdatedAt).
		Scan(&r.ID)
	return mapError(err, "create request")
}

func (s *Storage) GetRequest(ctx context.Context, requestID int64) (*models.RenovationRequest, error) {
	return getRequest(ctx, s.db, requestID, false)
}

func getRequest(ctx context.Context, q queryer, requestID int64, forUpdate bool) (*models.RenovationRequest, error) {
	r := &models.RenovationRequest{}
	query := `SELECT ` + requestColumns + ` FROM renovation_request WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	if err := q.GetContext(ctx, r, query, requestID); err != nil {
		return nil, mapError(err, "request %d", requestID)
	}
	return r, nil
}

func (s *Storage) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.RenovationRequest, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CustomerID != 0 {
		args = append(args, filter.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}

	query := `SELECT ` + requestColumns + ` FROM renovation_request`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	requests := []models.RenovationRequest{}
	if err := s.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, mapError(err, "list requests")
	}
	return requests, nil
}

func (s *Storage) ListBiddingExpired(ctx context.Context, now time.Time) ([]int64, error) {
	query := `
        SELECT id FROM renovation_request
        WHERE status = $1 AND bidding_end_date IS NOT NULL AND bidding_end_date < $2
        ORDER BY bidding_end_date ASC`
	ids := []int64{}
	if err := s.db.SelectContext(ctx, &ids, query, models.StatusBiddingOpen, now); err != nil {
		return nil, mapError(err, "list expired bidding")
	}
	return ids, nil
}

// Bid

func (s *Storage) GetBid(ctx context.Context, bidID int64) (*models.Bid, error) {
	return getBid(ctx, s.db, bidID)
}

func getBid(ctx context.Context, q queryer, bidID int64) (*models.Bid, error) {
	b := &models.Bid{}
	if err := q.GetContext(ctx, b, `SELECT `+bidColumns+` FROM bid WHERE id = $1`, bidID); err != nil {
		return nil, mapError(err, "bid %d", bidID)
	}
	return b, nil
}

func (s *Storage) ListBids(ctx context.Context, requestID int64) ([]models.Bid, error) {
	return listBids(ctx, s.db, requestID)
}

func listBids(ctx context.Context, q queryer, requestID int64) ([]models.Bid, error) {
	query := `
        SELECT ` + bidColumns + ` FROM bid
        WHERE request_id = $1 AND status <> $2
        ORDER BY created_at ASC, id ASC`
	bids := []models.Bid{}
	if err := q.SelectContext(ctx, &bids, query, requestID, models.BidWithdrawn); err != nil {
		return nil, mapError(err, "list bids of request %d", requestID)
	}
	return bids, nil
}

func (s *Storage) ListContractorBids(ctx context.Context, contractorID int64, limit, offset int) ([]models.Bid, error) {
	query := `
        SELECT ` + bidColumns + ` FROM bid
        WHERE contractor_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT NULLIF($2, 0) OFFSET $3`
	bids := []models.Bid{}
	if err := s.db.SelectContext(ctx, &bids, query, contractorID, limit, offset); err != nil {
		return nil, mapError(err, "list bids of contractor %d", contractorID)
	}
	return bids, nil
}

// InspectionInterest

func (s *Storage) ListParticipants(ctx context.Context, requestID int64) ([]models.InspectionInterest, error) {
	return listParticipants(ctx, s.db, requestID)
}

func listParticipants(ctx context.Context, q queryer, requestID int64) ([]models.InspectionInterest, error) {
	query := `
        SELECT ` + interestColumns + ` FROM inspection_interest
        WHERE request_id = $1 AND will_participate
        ORDER BY created_at ASC, id ASC`
	interests := []models.InspectionInterest{}
	if err := q.SelectContext(ctx, &interests, query, requestID); err != nil {
		return nil, mapError(err, "list participants of request %d", requestID)
	}
	return interests, nil
}

func (s *Storage) CountParticipants(ctx context.Context, requestID int64) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM inspection_interest WHERE request_id = $1 AND will_participate`
	if err := s.db.GetContext(ctx, &count, query, requestID); err != nil {
		return 0, mapError(err, "count participants of request %d", requestID)
	}
	return count, nil
}

// WithRequest locks the request row for the lifetime of fn.
func (s *Storage) WithRequest(ctx context.Context, requestID int64, fn func(tx marketplace.Tx, req *models.RenovationRequest) error) (err error) {
	sqlTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	req, err := getRequest(ctx, sqlTx, requestID, true)
	if err != nil {
		return err
	}
	if err = fn(&tx{tx: sqlTx}, req); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type tx struct {
	tx *sqlx.Tx
}

func (t *tx) UpdateRequest(ctx context.Context, r *models.RenovationRequest) error {
	query := `
        UPDATE renovation_request
        SET status = $1, inspection_date = $2, inspection_notes = $3, bidding_end_date = $4,
            selected_contractor_id = $5, selected_bid_id = $6, close_reason = $7,
            updated_at = $8, version = version + 1
        WHERE id = $9 AND version = $10
        RETURNING version`
	var version int
	err := t.tx.QueryRowxContext(ctx, query,
		r.Status, r.InspectionDate, r.InspectionNotes, r.BiddingEndDate,
		r.SelectedContractorID, r.SelectedBidID, r.CloseReason,
		r.UpdatedAt, r.ID, r.Version).
		Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: request %d changed since version %d", marketplace.ErrConflict, r.ID, r.Version)
	}
	if err != nil {
		return mapError(err, "update request %d", r.ID)
	}
	r.Version = version
	return nil
}

func (t *tx) GetInterest(ctx context.Context, requestID, contractorID int64) (*models.InspectionInterest, error) {
	i := &models.InspectionInterest{}
	query := `SELECT ` + interestColumns + ` FROM inspection_interest WHERE request_id = $1 AND contractor_id = $2`
	if err := t.tx.GetContext(ctx, i, query, requestID, contractorID); err != nil {
		return nil, mapError(err, "interest of contractor %d in request %d", contractorID, requestID)
	}
	return i, nil
}

func (t *tx) SaveInterest(ctx context.Context, i *models.InspectionInterest) error {
	query := `
        INSERT INTO inspection_interest (request_id, contractor_id, will_participate, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (request_id, contractor_id) DO UPDATE
            SET will_participate = EXCLUDED.will_participate, updated_at = EXCLUDED.updated_at
        RETURNING id, created_at`
	err := t.tx.QueryRowxContext(ctx, query,
		i.RequestID, i.ContractorID, i.WillParticipate, i.CreatedAt, i.UpdatedAt).
		Scan(&i.ID, &i.CreatedAt)
	return mapError(err, "save interest of contractor %d in request %d", i.ContractorID, i.RequestID)
}

func (t *tx) ListParticipants(ctx context.Context, requestID int64) ([]models.InspectionInterest, error) {
	return listParticipants(ctx, t.tx, requestID)
}

func (t *tx) GetBid(ctx context.Context, bidID int64) (*models.Bid, error) {
	return getBid(ctx, t.tx, bidID)
}

func (t *tx) GetActiveBid(ctx context.Context, requestID, contractorID int64) (*models.Bid, error) {
	b := &models.Bid{}
	query := `
        SELECT ` + bidColumns + ` FROM bid
        WHERE request_id = $1 AND contractor_id = $2 AND status <> $3`
	if err := t.tx.GetContext(ctx, b, query, requestID, contractorID, models.BidWithdrawn); err != nil {
		return nil, mapError(err, "active bid of contractor %d on request %d", contractorID, requestID)
	}
	return b, nil
}

func (t *tx) ListBids(ctx context.Context, requestID int64) ([]models.Bid, error) {
	return listBids(ctx, t.tx, requestID)
}

func (t *tx) CreateBid(ctx context.Context, b *models.Bid) error {
	query := `
        INSERT INTO bid
            (request_id, contractor_id, labor_cost, material_cost, permit_cost, disposal_cost,
             total_amount, timeline_weeks, start_date, included_items, excluded_items, notes,
             estimate_file, status, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        RETURNING id`
	err := t.tx.QueryRowxContext(ctx, query,
		b.RequestID, b.ContractorID, b.LaborCost, b.MaterialCost, b.PermitCost, b.DisposalCost,
		b.TotalAmount, b.TimelineWeeks, b.StartDate, pq.StringArray(b.IncludedItems), pq.StringArray(b.ExcludedItems), b.Notes,
		b.EstimateFile, b.Status, b.CreatedAt, b.UpdatedAt).
		Scan(&b.ID)
	return mapError(err, "create bid of contractor %d on request %d", b.ContractorID, b.RequestID)
}

func (t *tx) UpdateBid(ctx context.Context, b *models.Bid) error {
	query := `
        UPDATE bid
        SET labor_cost = $1, material_cost = $2, permit_cost = $3, disposal_cost = $4,
            total_amount = $5, timeline_weeks = $6, start_date = $7, included_items = $8,
            excluded_items = $9, notes = $10, estimate_file = $11, status = $12, updated_at = $13
        WHERE id = $14`
	res, err := t.tx.ExecContext(ctx, query,
		b.LaborCost, b.MaterialCost, b.PermitCost, b.DisposalCost,
		b.TotalAmount, b.TimelineWeeks, b.StartDate, pq.StringArray(b.IncludedItems),
		pq.StringArray(b.ExcludedItems), b.Notes, b.EstimateFile, b.Status, b.UpdatedAt, b.ID)
	if err != nil {
		return mapError(err, "update bid %d", b.ID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: bid %d", marketplace.ErrNotFound, b.ID)
	}
	return nil
}

func (t *tx) RejectPendingBids(ctx context.Context, requestID, exceptBidID int64, at time.Time) ([]models.Bid, error) {
	query := `
        UPDATE bid SET status = $1, updated_at = $2
        WHERE request_id = $3 AND status = $4 AND id <> $5
        RETURNING ` + bidColumns
	rejected := []models.Bid{}
	err := t.tx.SelectContext(ctx, &rejected, query, models.BidRejected, at, requestID, models.BidPending, exceptBidID)
	if err != nil {
		return nil, mapError(err, "reject pending bids of request %d", requestID)
	}
	return rejected, nil
}
