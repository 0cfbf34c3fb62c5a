package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"jobsync/marketplace-service/internal/access"
	"jobsync/marketplace-service/internal/marketplace"
	"jobsync/marketplace-service/internal/session"
)

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.ListAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, jobs)
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, job)
}

func (h *Handler) listJobsByOwner(w http.ResponseWriter, r *http.Request) {
	caller, _ := session.IdentityFrom(r.Context())
	owner := mux.Vars(r)["email"]
	if err := access.AuthorizeOwner(caller, owner); err != nil {
		h.writeError(w, r, err)
		return
	}

	jobs, err := h.jobs.ListByBuyerEmail(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, jobs)
}

func (h *Handler) createJob(w http.ResponseWriter, r *http.Request) {
	var job marketplace.Job
	if err := decodeJSON(w, r, &job); err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.jobs.Create(r.Context(), job)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, map[string]string{"insertedId": id})
}

func (h *Handler) upsertJob(w http.ResponseWriter, r *http.Request) {
	var job marketplace.Job
	if err := decodeJSON(w, r, &job); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.jobs.Upsert(r.Context(), mux.Vars(r)["id"], job)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, res)
}

func (h *Handler) deleteJob(w http.ResponseWriter, r *http.Request) {
	n, err := h.jobs.DeleteByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, map[string]int64{"deletedCount": n})
}

// searchJobs handles GET /all-jobs?page=&size=&filter=&sort=&search=
func (h *Handler) searchJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	size, err := intParam(q.Get("size"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	jobs, err := h.search.Search(r.Context(), marketplace.SearchParams{
		Page:   page,
		Size:   size,
		Filter: marketplace.Filter{Category: q.Get("filter"), Text: q.Get("search")},
		Sort:   q.Get("sort"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, jobs)
}

// countJobs handles GET /jobs-count?filter=&search=
func (h *Handler) countJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, err := h.search.Count(r.Context(), marketplace.Filter{Category: q.Get("filter"), Text: q.Get("search")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, map[string]int64{"count": n})
}

// intParam parses a pagination parameter; a missing value is 0 and is
// rejected by the query service.
func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, marketplace.ErrInvalidPagination
	}
	return v, nil
}
