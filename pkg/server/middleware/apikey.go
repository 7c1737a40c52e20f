package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

const apiKeyHeader = "X-API-Key"

// APIKey rejects requests whose X-API-Key header does not match the
// configured key. An empty configured key disables the check, which is the
// local development default.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if key == "" {
				next.ServeHTTP(w, req)
				return
			}

			provided := req.Header.Get(apiKeyHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid or missing API key"})
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}
