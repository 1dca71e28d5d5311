package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recover converts an uncaught panic into a generic 500 response carrying the
// request's correlation id. The panic detail is logged server-side only.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					correlationID := CorrelationID(r.Context())
					logger.Error("panic while handling request",
						"correlation_id", correlationID,
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"success":       false,
						"message":       "An error occurred while processing your request",
						"correlationId": correlationID,
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
