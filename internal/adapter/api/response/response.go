package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the standard response shape for every endpoint.
type Envelope struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	Data          any      `json:"data,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	CorrelationID string   `json:"correlationId,omitempty"`
}

// WriteSuccess sends a success envelope with the given status and data.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// WriteError sends a failure envelope. The errors list carries field-level
// detail when there is any; correlationID gives the caller a handle for
// operators.
func WriteError(w http.ResponseWriter, status int, message string, errs []string, correlationID string) {
	writeJSON(w, status, Envelope{
		Success:       false,
		Message:       message,
		Errors:        errs,
		CorrelationID: correlationID,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response body", "error", err)
	}
}
