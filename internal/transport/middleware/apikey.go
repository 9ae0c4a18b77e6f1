package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/hr-portal/internal"
)

// APIKeyHeader carries the public client key on unauthenticated calls.
const APIKeyHeader = "apikey"

// RequireAPIKey guards endpoints reachable before a session exists. The key
// must arrive in the apikey header; a bearer Authorization header, when sent,
// must carry the same key.
func RequireAPIKey(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !validAPIKey(r, expected) {
				logger.Warn("rejected request with invalid api key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				status, body := internal.ErrInvalidAPIKey.ToHTTPResponse()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validAPIKey(r *http.Request, expected string) bool {
	if expected == "" {
		return false
	}
	if !equalKey(r.Header.Get(APIKeyHeader), expected) {
		return false
	}
	if authz := r.Header.Get("Authorization"); authz != "" {
		token, ok := strings.CutPrefix(authz, "Bearer ")
		if !ok || !equalKey(token, expected) {
			return false
		}
	}
	return true
}

func equalKey(got, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}
