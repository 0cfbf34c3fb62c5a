package query_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"jobsync/marketplace-service/internal/marketplace"
	"jobsync/marketplace-service/internal/query"
)

// memJobs is an in-memory JobSearcher with the same filter semantics as the
// Postgres store, kept in insertion order.
type memJobs struct {
	jobs     []marketplace.Job
	searches int
}

func (m *memJobs) match(f marketplace.Filter) []marketplace.Job {
	out := make([]marketplace.Job, 0)
	for _, j := range m.jobs {
		if f.Category != "" && j.Category != f.Category {
			continue
		}
		if !strings.Contains(strings.ToLower(j.Title), strings.ToLower(f.Text)) {
			continue
		}
		out = append(out, j)
	}
	return out
}

func (m *memJobs) Search(_ context.Context, f marketplace.Filter, order marketplace.SortOrder, w marketplace.Window) ([]marketplace.Job, error) {
	m.searches++
	all := m.match(f)
	switch order {
	case marketplace.SortAsc:
		sort.SliceStable(all, func(i, k int) bool { return all[i].Deadline.Before(all[k].Deadline.Time) })
	case marketplace.SortDesc:
		sort.SliceStable(all, func(i, k int) bool { return all[i].Deadline.After(all[k].Deadline.Time) })
	}
	if w.Offset >= len(all) {
		return []marketplace.Job{}, nil
	}
	end := w.Offset + w.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[w.Offset:end], nil
}

func (m *memJobs) Count(_ context.Context, f marketplace.Filter) (int64, error) {
	return int64(len(m.match(f))), nil
}

func seed(n int) *memJobs {
	m := &memJobs{}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		category := "web"
		if i%3 == 0 {
			category = "design"
		}
		m.jobs = append(m.jobs, marketplace.Job{
			ID:       fmt.Sprintf("job-%02d", i),
			Title:    fmt.Sprintf("Job %02d", i),
			Category: category,
			Deadline: marketplace.DateOf(base.AddDate(0, 0, (i*7)%n)),
		})
	}
	return m
}

func TestResolveWindow(t *testing.T) {
	w, err := query.ResolveWindow(3, 10)
	if err != nil || w.Offset != 20 || w.Limit != 10 {
		t.Errorf("ResolveWindow(3, 10) = %+v, %v", w, err)
	}
	if w, err := query.ResolveWindow(query.MaxOffset/100+1, 100); err != nil || w.Offset > query.MaxOffset {
		t.Errorf("last page = %+v, %v", w, err)
	}
	for _, c := range [][2]int{
		{0, 10}, {-1, 10}, {1, 0}, {1, -5}, {1, query.MaxPageSize + 1},
		{math.MaxInt/50 + 2, 100}, {math.MaxInt, 1}, {query.MaxOffset/100 + 2, 100},
	} {
		if _, err := query.ResolveWindow(c[0], c[1]); !errors.Is(err, marketplace.ErrInvalidPagination) {
			t.Errorf("ResolveWindow(%d, %d) err = %v, want ErrInvalidPagination", c[0], c[1], err)
		}
	}
}

func TestParseSort(t *testing.T) {
	cases := map[string]marketplace.SortOrder{
		"":     marketplace.SortNatural,
		"asc":  marketplace.SortAsc,
		"ASC":  marketplace.SortAsc,
		"desc": marketplace.SortDesc,
		"dsc":  marketplace.SortDesc,
	}
	for raw, want := range cases {
		got, err := query.ParseSort(raw)
		if err != nil || got != want {
			t.Errorf("ParseSort(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	var ve *marketplace.ValidationError
	if _, err := query.ParseSort("random"); !errors.As(err, &ve) {
		t.Errorf("ParseSort(random) err = %v, want ValidationError", err)
	}
}

func TestSearch_InvalidPaginationNeverQueries(t *testing.T) {
	store := seed(5)
	svc := query.NewService(store, zap.NewNop())
	_, err := svc.Search(context.Background(), marketplace.SearchParams{Page: 0, Size: 10})
	if !errors.Is(err, marketplace.ErrInvalidPagination) {
		t.Errorf("err = %v, want ErrInvalidPagination", err)
	}
	if store.searches != 0 {
		t.Errorf("store was queried %d times", store.searches)
	}
}

func TestSearch_PagesHaveNoOverlapOrGap(t *testing.T) {
	store := seed(25)
	svc := query.NewService(store, zap.NewNop())
	ctx := context.Background()

	p1, err := svc.Search(ctx, marketplace.SearchParams{Page: 1, Size: 10})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	p2, err := svc.Search(ctx, marketplace.SearchParams{Page: 2, Size: 10})
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(p1) != 10 || len(p2) != 10 {
		t.Fatalf("page sizes = %d, %d", len(p1), len(p2))
	}
	for i, j := range append(p1, p2...) {
		if want := fmt.Sprintf("job-%02d", i); j.ID != want {
			t.Errorf("position %d = %s, want %s", i, j.ID, want)
		}
	}
}

func TestCount_EqualsSumOfPages(t *testing.T) {
	store := seed(40)
	svc := query.NewService(store, zap.NewNop())
	ctx := context.Background()
	f := marketplace.Filter{Category: "design"}

	want, err := svc.Count(ctx, f)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	var got int64
	for page := 1; ; page++ {
		jobs, err := svc.Search(ctx, marketplace.SearchParams{Page: page, Size: 4, Filter: f})
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if len(jobs) == 0 {
			break
		}
		got += int64(len(jobs))
	}
	if got != want || want == 0 {
		t.Errorf("sum over pages = %d, Count = %d", got, want)
	}
}

func TestSearch_SortAndTrim(t *testing.T) {
	store := seed(12)
	svc := query.NewService(store, zap.NewNop())

	jobs, err := svc.Search(context.Background(), marketplace.SearchParams{
		Page: 1, Size: 100, Sort: "dsc", Filter: marketplace.Filter{Category: "  design ", Text: " JOB "},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(jobs) != 4 {
		t.Fatalf("got %d design jobs, want 4", len(jobs))
	}
	for i := 1; i < len(jobs); i++ {
		if jobs[i].Deadline.After(jobs[i-1].Deadline.Time) {
			t.Errorf("results not sorted by deadline desc at %d", i)
		}
	}
}
