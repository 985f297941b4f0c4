package middleware

import (
	"crypto/subtle"
	"net/http"
)

const apiKeyHeader = "X-API-Key"

// APIKeyAuth rejects requests lacking the shared client key. Comparison is
// constant-time so the key cannot be probed byte by byte.
func APIKeyAuth(validKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := r.Header.Get(apiKeyHeader)

			if clientKey == "" || subtle.ConstantTimeCompare([]byte(clientKey), []byte(validKey)) != 1 {
				http.Error(w, "Unauthorized: Invalid or missing API Key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
