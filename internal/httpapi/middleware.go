package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"jobsync/marketplace-service/internal/metrics"
	"jobsync/marketplace-service/internal/session"
)

// requireSession verifies the session cookie and stores the caller identity
// in the request context. Requests without a valid session get 401.
func (h *Handler) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.auth.FromRequest(r)
		if err != nil {
			h.log.Debug("session rejected", zap.String("path", r.URL.Path), zap.Error(err))
			h.writeError(w, r, err)
			return
		}
		next(w, r.WithContext(session.WithIdentity(r.Context(), id)))
	})
}

// ─── Access log + metrics ────────────────────────────────────────────────────

type statusRW struct {
	http.ResponseWriter
	status int
}

func (w *statusRW) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// instrument logs METHOD PATH -> STATUS (duration) and records the request
// under its route template.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusRW{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		took := time.Since(start)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route).Observe(took.Seconds())

		h.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("took", took.Truncate(time.Microsecond)),
		)
	})
}
