package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/annisahuljannah/cadoobag/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID attaches a request id to the context logger, honouring one
// supplied by an upstream proxy.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)
			ctx := logg.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
