// Package jobs is the Postgres-backed Job Store: CRUD, search and the
// bid_count counter maintained by the Bid Store.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"jobsync/marketplace-service/internal/marketplace"
)

// DB is the subset of pgxpool.Pool used by the stores. pgx.Tx satisfies it
// too, which lets the Bid Store run job updates inside its transaction.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store encapsulates all job persistence.
type Store struct {
	db  DB
	log *zap.Logger
}

// NewStore returns a Store reading and writing through db.
func NewStore(db DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// WithTx returns a Store bound to tx.
func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{db: tx, log: s.log}
}

const jobColumns = `id::text, title, category, deadline, description, min_price, max_price,
	buyer_email, buyer_name, buyer_photo, bid_count, attributes, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (marketplace.Job, error) {
	var (
		j     marketplace.Job
		attrs []byte
	)
	err := row.Scan(
		&j.ID, &j.Title, &j.Category, &j.Deadline, &j.Description, &j.MinPrice, &j.MaxPrice,
		&j.Buyer.Email, &j.Buyer.Name, &j.Buyer.Photo, &j.BidCount, &attrs,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if len(attrs) > 0 {
		j.Attributes = append([]byte(nil), attrs...)
	}
	return j, err
}

func (s *Store) list(ctx context.Context, op, sql string, args ...any) ([]marketplace.Job, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, marketplace.StorageError(op+" query", err)
	}
	defer rows.Close()

	jobs := make([]marketplace.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, marketplace.StorageError(op+" scan", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, marketplace.StorageError(op, err)
	}
	return jobs, nil
}

// ListAll returns every job in insertion order.
func (s *Store) ListAll(ctx context.Context) ([]marketplace.Job, error) {
	return s.list(ctx, "listAll", `SELECT `+jobColumns+` FROM jobs ORDER BY seq`)
}

// GetByID returns one job. A malformed id fails with ErrInvalidID before any
// query runs.
func (s *Store) GetByID(ctx context.Context, id string) (*marketplace.Job, error) {
	id, err := marketplace.ParseID(id)
	if err != nil {
		return nil, err
	}
	j, err := scanJob(s.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, marketplace.ErrNotFound
	}
	if err != nil {
		return nil, marketplace.StorageError("getById", err)
	}
	return &j, nil
}

// ListByBuyerEmail returns the jobs posted by email. Callers gate it with
// access.AuthorizeOwner.
func (s *Store) ListByBuyerEmail(ctx context.Context, email string) ([]marketplace.Job, error) {
	return s.list(ctx, "listByBuyerEmail",
		`SELECT `+jobColumns+` FROM jobs WHERE buyer_email = $1 ORDER BY seq`, email)
}

// Create validates and inserts a new job with bid_count 0.
func (s *Store) Create(ctx context.Context, j marketplace.Job) (string, error) {
	if err := marketplace.ValidateJob(&j); err != nil {
		return "", err
	}
	attrs, err := marketplace.NormalizeAttributes(j.Attributes)
	if err != nil {
		return "", err
	}

	id := marketplace.NewID()
	_, err = s.db.Exec(ctx,
		`INSERT INTO jobs (id, title, category, deadline, description, min_price, max_price,
		                   buyer_email, buyer_name, buyer_photo, attributes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb)`,
		id, j.Title, j.Category, j.Deadline, j.Description, j.MinPrice, j.MaxPrice,
		j.Buyer.Email, j.Buyer.Name, j.Buyer.Photo, string(attrs),
	)
	if err != nil {
		return "", marketplace.StorageError("create", err)
	}
	s.log.Info("job created", zap.String("jobId", id), zap.String("buyer", j.Buyer.Email))
	return id, nil
}

// Upsert replaces the job stored under id, creating it when absent. The
// bid counter of an existing job is preserved, and its bids pick up the new
// title and buyer email in the same statement.
func (s *Store) Upsert(ctx context.Context, id string, j marketplace.Job) (marketplace.UpsertResult, error) {
	id, err := marketplace.ParseID(id)
	if err != nil {
		return marketplace.UpsertResult{}, err
	}
	if err := marketplace.ValidateJob(&j); err != nil {
		return marketplace.UpsertResult{}, err
	}
	attrs, err := marketplace.NormalizeAttributes(j.Attributes)
	if err != nil {
		return marketplace.UpsertResult{}, err
	}

	var created bool
	err = s.db.QueryRow(ctx,
		`WITH up AS (
		 INSERT INTO jobs (id, title, category, deadline, description, min_price, max_price,
		                   buyer_email, buyer_name, buyer_photo, attributes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb)
		 ON CONFLICT (id) DO UPDATE
		 SET title       = EXCLUDED.title,
		     category    = EXCLUDED.category,
		     deadline    = EXCLUDED.deadline,
		     description = EXCLUDED.description,
		     min_price   = EXCLUDED.min_price,
		     max_price   = EXCLUDED.max_price,
		     buyer_email = EXCLUDED.buyer_email,
		     buyer_name  = EXCLUDED.buyer_name,
		     buyer_photo = EXCLUDED.buyer_photo,
		     attributes  = EXCLUDED.attributes,
		     updated_at  = NOW()
		 RETURNING id, title, buyer_email, (xmax = 0) AS created
		 ), synced AS (
		 UPDATE bids b
		 SET buyer_email = up.buyer_email,
		     job_title   = up.title
		 FROM up
		 WHERE b.job_id = up.id
		   AND NOT up.created
		   AND (b.buyer_email <> up.buyer_email OR b.job_title <> up.title)
		 )
		 SELECT created FROM up`,
		id, j.Title, j.Category, j.Deadline, j.Description, j.MinPrice, j.MaxPrice,
		j.Buyer.Email, j.Buyer.Name, j.Buyer.Photo, string(attrs),
	).Scan(&created)
	if err != nil {
		return marketplace.UpsertResult{}, marketplace.StorageError("upsert", err)
	}
	return marketplace.UpsertResult{ID: id, Created: created}, nil
}

// DeleteByID removes a job and its bids. Deleting a missing job reports 0.
func (s *Store) DeleteByID(ctx context.Context, id string) (int64, error) {
	id, err := marketplace.ParseID(id)
	if err != nil {
		return 0, err
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return 0, marketplace.StorageError("deleteById", err)
	}
	return tag.RowsAffected(), nil
}

// IncrementBidCount adds delta to the job's bid_count, never going below 0.
func (s *Store) IncrementBidCount(ctx context.Context, id string, delta int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE jobs SET bid_count = GREATEST(bid_count + $2, 0) WHERE id = $1`,
		id, delta,
	)
	if err != nil {
		return marketplace.StorageError("incrementBidCount", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("incrementBidCount %s: %w", id, marketplace.ErrNotFound)
	}
	return nil
}

// RecountBids resets bid_count to the number of stored bids wherever the two
// disagree and returns how many jobs were corrected.
func (s *Store) RecountBids(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE jobs j
		 SET bid_count = c.n
		 FROM (
		   SELECT j2.id, COUNT(b.id)::int AS n
		   FROM jobs j2
		   LEFT JOIN bids b ON b.job_id = j2.id
		   GROUP BY j2.id
		 ) c
		 WHERE j.id = c.id
		   AND j.bid_count <> c.n`,
	)
	if err != nil {
		return 0, marketplace.StorageError("recountBids", err)
	}
	return tag.RowsAffected(), nil
}
