package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/trailpost/tours-api/pkg/logger"
)

// RequestID tags each request with an ID for log correlation, honoring
// an inbound X-Request-ID from a proxy.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), logger.RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
