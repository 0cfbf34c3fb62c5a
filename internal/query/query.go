// Package query turns raw search parameters (page, size, category, sort,
// text) into validated Job Store searches.
package query

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"jobsync/marketplace-service/internal/marketplace"
)

// MaxPageSize bounds the size of one search page.
const MaxPageSize = 100

// MaxOffset bounds the computed offset so (page-1)*size never overflows.
const MaxOffset = math.MaxInt32

// JobSearcher is the part of the Job Store the query service drives.
type JobSearcher interface {
	Search(ctx context.Context, f marketplace.Filter, sort marketplace.SortOrder, w marketplace.Window) ([]marketplace.Job, error)
	Count(ctx context.Context, f marketplace.Filter) (int64, error)
}

// Service composes filters, sorting and pagination over a JobSearcher.
type Service struct {
	jobs JobSearcher
	log  *zap.Logger
}

// NewService returns a configured Service.
func NewService(jobs JobSearcher, log *zap.Logger) *Service {
	return &Service{jobs: jobs, log: log}
}

// Search returns page p.Page (1-based) of p.Size jobs matching p.Filter.
func (s *Service) Search(ctx context.Context, p marketplace.SearchParams) ([]marketplace.Job, error) {
	w, err := ResolveWindow(p.Page, p.Size)
	if err != nil {
		return nil, err
	}
	sort, err := ParseSort(p.Sort)
	if err != nil {
		return nil, err
	}
	f := normalize(p.Filter)
	s.log.Debug("job search",
		zap.String("category", f.Category),
		zap.String("text", f.Text),
		zap.String("sort", string(sort)),
		zap.Int("offset", w.Offset),
		zap.Int("limit", w.Limit),
	)
	return s.jobs.Search(ctx, f, sort, w)
}

// Count returns the number of jobs matching f, ignoring pagination.
func (s *Service) Count(ctx context.Context, f marketplace.Filter) (int64, error) {
	return s.jobs.Count(ctx, normalize(f))
}

// ResolveWindow converts a 1-based page and a size into an offset/limit
// pair. Non-positive values and sizes above MaxPageSize are rejected rather
// than defaulted.
func ResolveWindow(page, size int) (marketplace.Window, error) {
	if page <= 0 {
		return marketplace.Window{}, fmt.Errorf("%w: page must be >= 1, got %d", marketplace.ErrInvalidPagination, page)
	}
	if size <= 0 || size > MaxPageSize {
		return marketplace.Window{}, fmt.Errorf("%w: size must be between 1 and %d, got %d",
			marketplace.ErrInvalidPagination, MaxPageSize, size)
	}
	if page-1 > MaxOffset/size {
		return marketplace.Window{}, fmt.Errorf("%w: page %d is beyond the last possible page",
			marketplace.ErrInvalidPagination, page)
	}
	return marketplace.Window{Offset: (page - 1) * size, Limit: size}, nil
}

// ParseSort maps the sort query value onto a SortOrder. "dsc" is kept as an
// alias of "desc" for existing clients.
func ParseSort(raw string) (marketplace.SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return marketplace.SortNatural, nil
	case "asc":
		return marketplace.SortAsc, nil
	case "desc", "dsc":
		return marketplace.SortDesc, nil
	}
	return "", &marketplace.ValidationError{Msg: fmt.Sprintf("unknown sort order %q", raw)}
}

func normalize(f marketplace.Filter) marketplace.Filter {
	return marketplace.Filter{
		Category: strings.TrimSpace(f.Category),
		Text:     strings.TrimSpace(f.Text),
	}
}
