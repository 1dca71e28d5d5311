package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	api "github.com/user/logging-api/internal/adapter/api/response"
	"github.com/user/logging-api/internal/adapter/api/middleware"
	"github.com/user/logging-api/internal/adapter/metrics"
	"github.com/user/logging-api/internal/domain"
	"github.com/user/logging-api/internal/usecase"
)

// LogsHandler serves the /logs endpoints: submission, liveness, recent
// entries, search, statistics and store health.
type LogsHandler struct {
	pipeline    *usecase.IngestPipeline
	queries     *usecase.QueryEngine
	logger      *slog.Logger
	serverName  string
	maxBodySize int64
	metrics     *metrics.IngestMetrics
}

// NewLogsHandler creates a new LogsHandler. The metrics collector may be nil.
func NewLogsHandler(pipeline *usecase.IngestPipeline, queries *usecase.QueryEngine, logger *slog.Logger, serverName string, maxBodySize int64, m *metrics.IngestMetrics) *LogsHandler {
	return &LogsHandler{
		pipeline:    pipeline,
		queries:     queries,
		logger:      logger,
		serverName:  serverName,
		maxBodySize: maxBodySize,
		metrics:     m,
	}
}

// Submit processes one log entry submission through the full ingestion
// pipeline.
func (h *LogsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.CorrelationID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	body, err := readBody(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			api.WriteError(w, http.StatusRequestEntityTooLarge, "Payload too large", nil, correlationID)
		default:
			api.WriteError(w, http.StatusBadRequest, "Unreadable request body", nil, correlationID)
		}
		return
	}
	if h.metrics != nil {
		h.metrics.BytesTotal.Add(float64(len(body)))
	}

	var entry *domain.LogEntry
	if len(body) > 0 {
		entry = &domain.LogEntry{}
		if err := json.Unmarshal(body, entry); err != nil {
			api.WriteError(w, http.StatusBadRequest, "Malformed JSON body", nil, correlationID)
			return
		}
	}

	meta := usecase.RequestMeta{
		CorrelationID: correlationID,
		CallerIP:      clientIP(r),
		RequestPath:   r.URL.Path,
		ServerName:    h.serverName,
	}

	final, err := h.pipeline.Submit(r.Context(), middleware.BearerToken(r), meta, entry)
	if err != nil {
		h.writeSubmitError(w, err, correlationID)
		return
	}

	api.WriteSuccess(w, http.StatusCreated, "Log accepted.", final)
}

func (h *LogsHandler) writeSubmitError(w http.ResponseWriter, err error, correlationID string) {
	var (
		forbidden *domain.ForbiddenError
		invalid   *domain.ValidationError
		storeErr  *domain.StoreError
	)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		api.WriteError(w, http.StatusUnauthorized, "A valid bearer credential is required", nil, correlationID)
	case errors.As(err, &forbidden):
		api.WriteError(w, http.StatusForbidden,
			"Application "+strconv.Quote(forbidden.Application)+" does not match the credential", nil, correlationID)
	case errors.As(err, &invalid):
		api.WriteError(w, http.StatusBadRequest, "Validation failed", invalid.Errors, correlationID)
	case errors.As(err, &storeErr):
		api.WriteError(w, http.StatusInternalServerError, "Failed to persist log entry", nil, correlationID)
	default:
		api.WriteError(w, http.StatusInternalServerError, "An error occurred while processing your request", nil, correlationID)
	}
}

// Ping is the unauthenticated liveness endpoint.
func (h *LogsHandler) Ping(w http.ResponseWriter, r *http.Request) {
	api.WriteSuccess(w, http.StatusOK, "API is up", time.Now().UTC())
}

// Recent returns the newest stored entries.
func (h *LogsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	entries, err := h.queries.Recent(r.Context(), size)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "Failed to fetch recent logs", nil,
			middleware.CorrelationID(r.Context()))
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Recent logs", entries)
}

// Search runs a filtered, time-windowed search over stored entries.
func (h *LogsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	size, _ := strconv.Atoi(q.Get("size"))
	filter := domain.SearchFilter{
		Query:           q.Get("query"),
		ApplicationName: q.Get("applicationName"),
		Last:            q.Get("last"),
		Size:            size,
	}

	entries, err := h.queries.Search(r.Context(), filter)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "Search failed", nil,
			middleware.CorrelationID(r.Context()))
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Search results", entries)
}

// Stats returns the statistics snapshot, recomputed from the store.
func (h *LogsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	snap, err := h.queries.Stats(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "Failed to compute statistics", nil,
			middleware.CorrelationID(r.Context()))
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Log statistics", snap)
}

// Health reports the document store's condition.
func (h *LogsHandler) Health(w http.ResponseWriter, r *http.Request) {
	health, err := h.queries.Health(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusServiceUnavailable, "Store is unreachable", nil,
			middleware.CorrelationID(r.Context()))
		return
	}
	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	api.WriteSuccess(w, status, "Store health", health)
}

// readBody drains the request body, transparently decoding gzip and zstd
// submission encodings.
func readBody(r *http.Request) ([]byte, error) {
	var reader io.Reader = r.Body
	switch r.Header.Get("Content-Encoding") {
	case "":
	case "gzip":
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		reader = zr
	case "zstd":
		zr, err := zstd.NewReader(r.Body)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		reader = zr
	default:
		return nil, errors.New("unsupported content encoding")
	}
	return io.ReadAll(reader)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
