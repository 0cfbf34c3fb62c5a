package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"jobsync/marketplace-service/internal/access"
	"jobsync/marketplace-service/internal/marketplace"
	"jobsync/marketplace-service/internal/metrics"
	"jobsync/marketplace-service/internal/session"
)

func (h *Handler) placeBid(w http.ResponseWriter, r *http.Request) {
	var bid marketplace.Bid
	if err := decodeJSON(w, r, &bid); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.bids.Place(r.Context(), bid)
	if err != nil {
		metrics.BidsPlacedTotal.WithLabelValues("error").Inc()
		h.writeError(w, r, err)
		return
	}
	if res.Duplicate {
		metrics.BidsPlacedTotal.WithLabelValues("duplicate").Inc()
		h.log.Info("duplicate bid rejected", zap.String("jobId", bid.JobID), zap.String("bidder", bid.Email))
		h.writeError(w, r, marketplace.ErrDuplicateBid)
		return
	}
	metrics.BidsPlacedTotal.WithLabelValues("created").Inc()
	jsonOK(w, map[string]string{"insertedId": res.ID})
}

// listMyBids handles GET /my-bids/{email}?category=
func (h *Handler) listMyBids(w http.ResponseWriter, r *http.Request) {
	caller, _ := session.IdentityFrom(r.Context())
	owner := mux.Vars(r)["email"]
	if err := access.AuthorizeOwner(caller, owner); err != nil {
		h.writeError(w, r, err)
		return
	}

	bids, err := h.bids.ListByFilter(r.Context(), owner, r.URL.Query().Get("category"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, bids)
}

// listBidRequests handles GET /bid-requests/{email}
func (h *Handler) listBidRequests(w http.ResponseWriter, r *http.Request) {
	caller, _ := session.IdentityFrom(r.Context())
	owner := mux.Vars(r)["email"]
	if err := access.AuthorizeOwner(caller, owner); err != nil {
		h.writeError(w, r, err)
		return
	}

	bids, err := h.bids.ListRequests(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, bids)
}

// updateBidStatus handles PATCH /bid-status/{id} with body {"status": "..."}
func (h *Handler) updateBidStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	next, err := marketplace.ParseStatus(body.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	bid, err := h.bids.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	caller, _ := session.IdentityFrom(r.Context())
	if err := access.AuthorizeStatusChange(caller, bid, next); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.bids.UpdateStatus(r.Context(), bid.ID, bid.Status, next); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info("bid status changed",
		zap.String("bidId", bid.ID),
		zap.String("from", string(bid.Status)),
		zap.String("to", string(next)),
		zap.String("by", caller.Email),
	)
	jsonOK(w, map[string]bool{"success": true})
}
