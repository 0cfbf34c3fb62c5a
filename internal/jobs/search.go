package jobs

import (
	"context"
	"fmt"
	"strings"

	"jobsync/marketplace-service/internal/marketplace"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause builds the WHERE fragment shared by Search and Count. Title
// matching is a case-insensitive substring match; an empty text matches all.
func whereClause(f marketplace.Filter) (string, []any) {
	var (
		args  []any
		conds []string
	)
	nextArg := func() string { return fmt.Sprintf("$%d", len(args)+1) }

	if f.Text != "" {
		conds = append(conds, "title ILIKE '%' || "+nextArg()+" || '%'")
		args = append(args, likeEscaper.Replace(f.Text))
	}
	if f.Category != "" {
		conds = append(conds, "category = "+nextArg())
		args = append(args, f.Category)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(sort marketplace.SortOrder) string {
	switch sort {
	case marketplace.SortAsc:
		return " ORDER BY deadline ASC, seq"
	case marketplace.SortDesc:
		return " ORDER BY deadline DESC, seq"
	default:
		return " ORDER BY seq"
	}
}

// Search returns one window of the jobs matching f.
func (s *Store) Search(ctx context.Context, f marketplace.Filter, sort marketplace.SortOrder, w marketplace.Window) ([]marketplace.Job, error) {
	where, args := whereClause(f)
	sql := fmt.Sprintf(`SELECT %s FROM jobs%s%s LIMIT $%d OFFSET $%d`,
		jobColumns, where, orderClause(sort), len(args)+1, len(args)+2)
	args = append(args, w.Limit, w.Offset)
	return s.list(ctx, "search", sql, args...)
}

// Count returns the number of jobs matching f.
func (s *Store) Count(ctx context.Context, f marketplace.Filter) (int64, error) {
	where, args := whereClause(f)
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`+where, args...).Scan(&n); err != nil {
		return 0, marketplace.StorageError("count", err)
	}
	return n, nil
}
