package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"jobsync/marketplace-service/internal/marketplace"
	"jobsync/marketplace-service/internal/metrics"
)

// statusFor maps a domain error onto its HTTP status and public message.
func statusFor(err error) (int, string) {
	var ve *marketplace.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Msg
	case errors.Is(err, marketplace.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized access"
	case errors.Is(err, marketplace.ErrForbidden):
		return http.StatusForbidden, "forbidden access"
	case errors.Is(err, marketplace.ErrInvalidID):
		return http.StatusBadRequest, "invalid id"
	case errors.Is(err, marketplace.ErrInvalidPagination):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, marketplace.ErrDuplicateBid):
		return http.StatusBadRequest, marketplace.ErrDuplicateBid.Error()
	case errors.Is(err, marketplace.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, marketplace.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError answers with the status of err and logs server-side failures.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := statusFor(err)
	switch code {
	case http.StatusUnauthorized:
		metrics.AuthFailuresTotal.WithLabelValues("unauthorized").Inc()
	case http.StatusForbidden:
		metrics.AuthFailuresTotal.WithLabelValues("forbidden").Inc()
	}
	if code >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	jsonError(w, msg, code)
}
