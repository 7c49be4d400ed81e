package middleware

import "net/http"

// NoStore marks every response as uncacheable. Cart state changes on every
// mutation, so intermediaries must never serve a stale copy.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
