// Package httpapi exposes the marketplace over HTTP.
//
// Routes:
//
//	POST   /jwt                   → issue session cookie
//	GET    /logout                → clear session cookie
//	GET    /jobs                  → list all jobs
//	GET    /job/{id}              → get one job
//	GET    /jobs/{email}          → jobs posted by the caller (session)
//	POST   /job                   → create job
//	PUT    /job/{id}              → upsert job
//	DELETE /job/{id}              → delete job
//	POST   /bid                   → place bid
//	GET    /my-bids/{email}       → bids placed by the caller (session)
//	GET    /bid-requests/{email}  → bids received on the caller's jobs (session)
//	PATCH  /bid-status/{id}       → move a bid along its lifecycle (session)
//	GET    /all-jobs              → paginated search
//	GET    /jobs-count            → search result count
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"jobsync/marketplace-service/internal/marketplace"
	"jobsync/marketplace-service/internal/session"
)

// Jobs is the Job Store as seen by the handlers.
type Jobs interface {
	ListAll(ctx context.Context) ([]marketplace.Job, error)
	GetByID(ctx context.Context, id string) (*marketplace.Job, error)
	ListByBuyerEmail(ctx context.Context, email string) ([]marketplace.Job, error)
	Create(ctx context.Context, j marketplace.Job) (string, error)
	Upsert(ctx context.Context, id string, j marketplace.Job) (marketplace.UpsertResult, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
}

// Bids is the Bid Store as seen by the handlers.
type Bids interface {
	Place(ctx context.Context, b marketplace.Bid) (marketplace.BidResult, error)
	ListByFilter(ctx context.Context, ownerEmail, category string) ([]marketplace.Bid, error)
	ListRequests(ctx context.Context, buyerEmail string) ([]marketplace.Bid, error)
	GetByID(ctx context.Context, id string) (*marketplace.Bid, error)
	UpdateStatus(ctx context.Context, id string, from, to marketplace.BidStatus) error
}

// Searcher is the query service.
type Searcher interface {
	Search(ctx context.Context, p marketplace.SearchParams) ([]marketplace.Job, error)
	Count(ctx context.Context, f marketplace.Filter) (int64, error)
}

// Handler holds shared dependencies.
type Handler struct {
	jobs   Jobs
	bids   Bids
	search Searcher
	auth   *session.Authenticator
	log    *zap.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(jobs Jobs, bids Bids, search Searcher, auth *session.Authenticator, log *zap.Logger) *Handler {
	return &Handler{jobs: jobs, bids: bids, search: search, auth: auth, log: log}
}

// RegisterRoutes mounts all marketplace routes on r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Use(h.instrument)

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/jwt", h.issueSession).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.revokeSession).Methods(http.MethodGet)

	r.HandleFunc("/jobs", h.listJobs).Methods(http.MethodGet)
	r.HandleFunc("/job/{id}", h.getJob).Methods(http.MethodGet)
	r.Handle("/jobs/{email}", h.requireSession(h.listJobsByOwner)).Methods(http.MethodGet)
	r.HandleFunc("/job", h.createJob).Methods(http.MethodPost)
	r.HandleFunc("/job/{id}", h.upsertJob).Methods(http.MethodPut)
	r.HandleFunc("/job/{id}", h.deleteJob).Methods(http.MethodDelete)

	r.HandleFunc("/bid", h.placeBid).Methods(http.MethodPost)
	r.Handle("/my-bids/{email}", h.requireSession(h.listMyBids)).Methods(http.MethodGet)
	r.Handle("/bid-requests/{email}", h.requireSession(h.listBidRequests)).Methods(http.MethodGet)
	r.Handle("/bid-status/{id}", h.requireSession(h.updateBidStatus)).Methods(http.MethodPatch)

	r.HandleFunc("/all-jobs", h.searchJobs).Methods(http.MethodGet)
	r.HandleFunc("/jobs-count", h.countJobs).Methods(http.MethodGet)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, map[string]string{
		"status":  "ok",
		"service": "marketplace-service",
	})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return &marketplace.ValidationError{Msg: "invalid JSON body"}
	}
	return nil
}
