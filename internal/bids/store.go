// Package bids is the Postgres-backed Bid Store. Placing a bid inserts the
// bid and bumps the job's bid_count in one transaction.
package bids

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"jobsync/marketplace-service/internal/jobs"
	"jobsync/marketplace-service/internal/marketplace"
)

// Store encapsulates all bid persistence.
type Store struct {
	db   jobs.DB
	jobs *jobs.Store
	log  *zap.Logger
}

// NewStore returns a Store. jobStore is rebound to each place-bid
// transaction.
func NewStore(db jobs.DB, jobStore *jobs.Store, log *zap.Logger) *Store {
	return &Store{db: db, jobs: jobStore, log: log}
}

const bidColumns = `id::text, job_id::text, email, category, job_title, buyer_email,
	price, comment, deadline, status, attributes, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBid(row scanner) (marketplace.Bid, error) {
	var (
		b      marketplace.Bid
		status string
		attrs  []byte
	)
	err := row.Scan(
		&b.ID, &b.JobID, &b.Email, &b.Category, &b.JobTitle, &b.BuyerEmail,
		&b.Price, &b.Comment, &b.Deadline, &status, &attrs, &b.CreatedAt,
	)
	b.Status = marketplace.BidStatus(status)
	if len(attrs) > 0 {
		b.Attributes = append([]byte(nil), attrs...)
	}
	return b, err
}

// Place records bid unless the bidder already bid on the job.
//
// The existence check is a fast path for a friendly answer; the
// UNIQUE (email, job_id) constraint, hit through ON CONFLICT DO NOTHING
// inside the transaction, is what actually prevents duplicates under
// concurrent submissions.
func (s *Store) Place(ctx context.Context, bid marketplace.Bid) (marketplace.BidResult, error) {
	if err := marketplace.ValidateBid(&bid); err != nil {
		return marketplace.BidResult{}, err
	}
	jobID, err := marketplace.ParseID(bid.JobID)
	if err != nil {
		return marketplace.BidResult{}, err
	}
	bid.JobID = jobID
	attrs, err := marketplace.NormalizeAttributes(bid.Attributes)
	if err != nil {
		return marketplace.BidResult{}, err
	}

	exists, err := s.exists(ctx, bid.Email, bid.JobID)
	if err != nil {
		return marketplace.BidResult{}, err
	}
	if exists {
		return marketplace.BidResult{Duplicate: true}, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return marketplace.BidResult{}, marketplace.StorageError("place begin", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	// Lock the job row: serialises bids on the same job and supplies the
	// denormalised fields.
	var jobCategory, jobTitle, buyerEmail string
	err = tx.QueryRow(ctx,
		`SELECT category, title, buyer_email FROM jobs WHERE id = $1 FOR UPDATE`,
		bid.JobID,
	).Scan(&jobCategory, &jobTitle, &buyerEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return marketplace.BidResult{}, fmt.Errorf("job %s: %w", bid.JobID, marketplace.ErrNotFound)
	}
	if err != nil {
		return marketplace.BidResult{}, marketplace.StorageError("place lock job", err)
	}
	if bid.Category == "" {
		bid.Category = jobCategory
	}

	id := marketplace.NewID()
	var insertedID string
	err = tx.QueryRow(ctx,
		`INSERT INTO bids (id, job_id, email, category, job_title, buyer_email,
		                   price, comment, deadline, status, attributes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb)
		 ON CONFLICT (email, job_id) DO NOTHING
		 RETURNING id::text`,
		id, bid.JobID, bid.Email, bid.Category, jobTitle, buyerEmail,
		bid.Price, bid.Comment, bid.Deadline, string(marketplace.StatusPending), string(attrs),
	).Scan(&insertedID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race against a concurrent identical bid.
		return marketplace.BidResult{Duplicate: true}, nil
	}
	if err != nil {
		return marketplace.BidResult{}, marketplace.StorageError("place insert", err)
	}

	if err := s.jobs.WithTx(tx).IncrementBidCount(ctx, bid.JobID, 1); err != nil {
		return marketplace.BidResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return marketplace.BidResult{}, marketplace.StorageError("place commit", err)
	}

	s.log.Info("bid placed",
		zap.String("bidId", insertedID),
		zap.String("jobId", bid.JobID),
		zap.String("bidder", bid.Email),
	)
	return marketplace.BidResult{ID: insertedID}, nil
}

func (s *Store) exists(ctx context.Context, email, jobID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bids WHERE email = $1 AND job_id = $2)`,
		email, jobID,
	).Scan(&exists)
	if err != nil {
		return false, marketplace.StorageError("bid exists", err)
	}
	return exists, nil
}

func (s *Store) list(ctx context.Context, op, sql string, args ...any) ([]marketplace.Bid, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, marketplace.StorageError(op+" query", err)
	}
	defer rows.Close()

	bids := make([]marketplace.Bid, 0)
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, marketplace.StorageError(op+" scan", err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, marketplace.StorageError(op, err)
	}
	return bids, nil
}

// ListByFilter returns the bids placed by ownerEmail, newest first. A
// non-empty category restricts the result to that category.
func (s *Store) ListByFilter(ctx context.Context, ownerEmail, category string) ([]marketplace.Bid, error) {
	const base = `SELECT ` + bidColumns + ` FROM bids WHERE email = $1`
	if category != "" {
		return s.list(ctx, "listByFilter", base+` AND category = $2 ORDER BY created_at DESC`, ownerEmail, category)
	}
	return s.list(ctx, "listByFilter", base+` ORDER BY created_at DESC`, ownerEmail)
}

// ListRequests returns the bids received on jobs posted by buyerEmail.
func (s *Store) ListRequests(ctx context.Context, buyerEmail string) ([]marketplace.Bid, error) {
	return s.list(ctx, "listRequests",
		`SELECT `+bidColumns+` FROM bids WHERE buyer_email = $1 ORDER BY created_at DESC`, buyerEmail)
}

// GetByID returns one bid.
func (s *Store) GetByID(ctx context.Context, id string) (*marketplace.Bid, error) {
	id, err := marketplace.ParseID(id)
	if err != nil {
		return nil, err
	}
	b, err := scanBid(s.db.QueryRow(ctx, `SELECT `+bidColumns+` FROM bids WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, marketplace.ErrNotFound
	}
	if err != nil {
		return nil, marketplace.StorageError("bid getById", err)
	}
	return &b, nil
}

// UpdateStatus moves a bid from one status to the next. The update only
// applies while the stored status still equals from, so two concurrent
// moves cannot both succeed.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to marketplace.BidStatus) error {
	id, err := marketplace.ParseID(id)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE bids SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), id, string(from),
	)
	if err != nil {
		return marketplace.StorageError("bid updateStatus", err)
	}
	if tag.RowsAffected() == 0 {
		return &marketplace.ValidationError{Msg: fmt.Sprintf("bid is no longer %s", from)}
	}
	return nil
}
