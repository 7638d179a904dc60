// Package requesttime pins a single "now" for the whole request. Every
// time-range validation inside one booking operation compares against the
// same snapshot, so the clock cannot advance between the start and end
// checks.
package requesttime

import (
	"net/http"
	"time"

	"fleetpool/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and
// stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
