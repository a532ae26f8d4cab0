package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
)

// APIKey requires the X-API-Key header on every route except the health
// check. Keys are compared as SHA-256 digests in constant time. An empty
// configured key disables the check (local dev mode).
func APIKey(key string) func(http.Handler) http.Handler {
	expected := sha256.Sum256([]byte(key))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if key == "" || req.URL.Path == "/api/v1/health" {
				next.ServeHTTP(w, req)
				return
			}
			provided := req.Header.Get("X-API-Key")
			if provided == "" {
				http.Error(w, "missing X-API-Key header", http.StatusUnauthorized)
				return
			}
			got := sha256.Sum256([]byte(provided))
			if subtle.ConstantTimeCompare(got[:], expected[:]) != 1 {
				http.Error(w, "invalid API key", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
