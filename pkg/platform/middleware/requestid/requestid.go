// Package requestid assigns each request a correlation id.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"docauth/pkg/requestcontext"
)

// Header is the inbound/outbound correlation id header.
const Header = "X-Request-ID"

// Middleware propagates the caller's request id, or generates one, and
// echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
