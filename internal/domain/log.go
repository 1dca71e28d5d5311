package domain

import (
	"time"

	"github.com/user/logging-api/pkg/jsonval"
)

// Log levels accepted for an entry. Input matching is case-insensitive.
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelDebug = "DEBUG"
)

// Levels lists the accepted level values in their canonical form.
var Levels = []string{LevelInfo, LevelWarn, LevelError, LevelDebug}

// AnonymousUser is the fallback identity when a submission names no acting user.
const AnonymousUser = "Anonymous"

// LogEntry represents the canonical structure of a log entry within the
// system. The JSON field names are the external contract and round-trip
// exactly. An entry is write-once: the enrichment stage fills gaps before
// validation, and no mutation happens after persistence.
type LogEntry struct {
	Timestamp        time.Time         `json:"timestamp" validate:"required"`
	Level            string            `json:"level" validate:"notblank,loglevel"`
	Message          string            `json:"message" validate:"notblank"`
	Source           string            `json:"source" validate:"notblank"`
	ApplicationName  string            `json:"applicationName"`
	CorrelationID    string            `json:"correlationId"`
	UserID           string            `json:"userId"`
	RequestPath      string            `json:"requestPath,omitempty"`
	RemoteServerIP   string            `json:"remoteServerIp,omitempty" validate:"omitempty,ip"`
	ServerName       string            `json:"serverName,omitempty"`
	StatusCode       int               `json:"statusCode" validate:"gte=100,lte=599"`
	ErrorCode        *string           `json:"errorCode,omitempty"`
	StackTrace       *string           `json:"stackTrace,omitempty"`
	RequestID        *string           `json:"requestId,omitempty"`
	RequestDateTime  time.Time         `json:"requestDateTime"`
	ResponseDateTime time.Time         `json:"responseDateTime,omitzero"`
	RequestHeaders   map[string]string `json:"requestHeaders,omitempty"`
	Metadata         *jsonval.Value    `json:"metadata,omitempty"`
}

// SearchFilter is a request-scoped description of a log search. Last is the
// raw relative-window expression (integer plus unit suffix d, h or m);
// malformed values apply no time filter.
type SearchFilter struct {
	Query           string
	ApplicationName string
	Last            string
	Size            int
}

// SearchQuery is the resolved form of a SearchFilter handed to the store.
// Zero From/To mean no time bound.
type SearchQuery struct {
	Query           string
	ApplicationName string
	From            time.Time
	To              time.Time
	Size            int
}

// StatsSnapshot is a computed aggregate over all stored entries. It is
// recomputed from the store on every request and never cached.
type StatsSnapshot struct {
	TotalLogs           int64     `json:"totalLogs"`
	ValidationErrorRate float64   `json:"validationErrorRate"`
	ServerErrorRate     float64   `json:"serverErrorRate"`
	TotalErrorRate      float64   `json:"totalErrorRate"`
	MostActiveUser      string    `json:"mostActiveUser"`
	ComputedAt          time.Time `json:"computedAt"`
}

// AggregateCounts are the raw counts the store reports for statistics.
type AggregateCounts struct {
	Total        int64  // all entries
	ClientErrors int64  // statusCode in [400,499]
	ServerErrors int64  // statusCode >= 500
	TopUser      string // user with the highest entry count, "" when no data
	TopUserCount int64
}

// StoreHealth describes the condition of the document store.
type StoreHealth struct {
	Status            string    `json:"status"` // green, yellow, red
	StatusDescription string    `json:"statusDescription"`
	NodeCount         int       `json:"nodeCount"`
	Healthy           bool      `json:"isHealthy"`
	Timestamp         time.Time `json:"timestamp"`
}
