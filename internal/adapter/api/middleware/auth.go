package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/user/logging-api/pkg/util"
)

// RequireToken is a middleware factory that gates an endpoint behind a valid
// bearer credential carrying an application identity claim. The claim itself
// is not threaded further; query endpoints take the application name as an
// explicit filter.
func RequireToken(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				logger.Warn("bearer credential missing", "remote_addr", r.RemoteAddr,
					"correlation_id", CorrelationID(r.Context()))
				writeUnauthorized(w)
				return
			}

			claims, err := util.ValidateToken(token, secret)
			if err != nil || claims.ApplicationName == "" {
				logger.Warn("bearer credential rejected", "remote_addr", r.RemoteAddr,
					"correlation_id", CorrelationID(r.Context()), "error", err)
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the credential from the Authorization header, or ""
// when absent or malformed.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": "A valid bearer credential is required",
	})
}
