package middleware

import (
	"net/http"
	"strings"
)

// NoStore keeps API responses out of shared caches. Lookups change as
// reports arrive and expire, so a cached "no reports" is misleading.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store, max-age=0")
			w.Header().Set("Pragma", "no-cache")
		}
		next.ServeHTTP(w, r)
	})
}
