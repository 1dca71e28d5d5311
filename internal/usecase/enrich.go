package usecase

import (
	"time"

	"github.com/google/uuid"

	"github.com/user/logging-api/internal/domain"
)

// RequestMeta carries the ambient request context the enrichment stage draws
// from. It is built once per request at the HTTP boundary and passed down
// explicitly; nothing here is read from thread-local or global state.
type RequestMeta struct {
	CorrelationID string
	CallerIP      string
	RequestPath   string
	User          string
	ServerName    string
}

// Enrich fills server-known fields that the submission left empty. It is
// additive only: a caller-supplied value is never overwritten, and running it
// twice yields the same entry as running it once.
func Enrich(entry *domain.LogEntry, meta RequestMeta) {
	if entry.CorrelationID == "" {
		if meta.CorrelationID != "" {
			entry.CorrelationID = meta.CorrelationID
		} else {
			entry.CorrelationID = uuid.NewString()
		}
	}
	if entry.ServerName == "" {
		entry.ServerName = meta.ServerName
	}
	if entry.RemoteServerIP == "" {
		entry.RemoteServerIP = meta.CallerIP
	}
	if entry.RequestPath == "" {
		entry.RequestPath = meta.RequestPath
	}
	if entry.UserID == "" {
		entry.UserID = meta.User
	}
	if entry.UserID == "" {
		entry.UserID = domain.AnonymousUser
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
}
