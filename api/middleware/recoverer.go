package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/annisahuljannah/cadoobag/api/responses"
	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
)

// Recoverer converts handler panics into 500 responses instead of
// tearing down the connection.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					ctx := logg.WithField(r.Context(), "stack", string(debug.Stack()))
					err := pkgerrors.Wrap(pkgerrors.CodeInternal, fmt.Errorf("panic: %v", rec), "panic recovered")
					responses.WriteError(ctx, logg, w, err)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
