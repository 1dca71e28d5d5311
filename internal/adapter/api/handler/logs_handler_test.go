package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/logging-api/internal/adapter/api"
	"github.com/user/logging-api/internal/adapter/api/handler"
	"github.com/user/logging-api/internal/adapter/api/middleware"
	response "github.com/user/logging-api/internal/adapter/api/response"
	"github.com/user/logging-api/internal/domain"
	"github.com/user/logging-api/internal/domain/mocks"
	"github.com/user/logging-api/internal/usecase"
	"github.com/user/logging-api/pkg/util"
)

const testSecret = "handler-test-secret"

func newTestServer(t *testing.T, store *mocks.MockLogStore) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	validator := usecase.NewEntryValidator(false)
	pipeline := usecase.NewIngestPipeline(store, validator, testSecret, logger, nil)
	queries := usecase.NewQueryEngine(store, 100, logger)

	logs := handler.NewLogsHandler(pipeline, queries, logger, "api-node-1", 1<<20, nil)
	auth := handler.NewAuthHandler(testSecret, "logging-api", time.Hour, logger, nil)
	limiter := middleware.NewIPRateLimiter(1000, 1000)

	return api.NewRouter(logger, testSecret, logs, auth, limiter)
}

func testToken(t *testing.T, applicationName string) string {
	t.Helper()
	token, err := util.GenerateToken(applicationName, testSecret, "logging-api", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return token
}

func submissionBody(t *testing.T, mutate func(m map[string]any)) []byte {
	t.Helper()
	m := map[string]any{
		"timestamp":       time.Now().UTC().Format(time.RFC3339Nano),
		"level":           "INFO",
		"message":         "account opened",
		"source":          "AccountService",
		"applicationName": "Bank",
		"statusCode":      200,
	}
	if mutate != nil {
		mutate(m)
	}
	body, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal submission: %v", err)
	}
	return body
}

func decodeEnvelope(t *testing.T, res *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	if err := json.Unmarshal(res.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not a valid envelope: %v\nbody: %s", err, res.Body.String())
	}
	return env
}

func TestSubmit_ValidEntry(t *testing.T) {
	store := &mocks.MockLogStore{}
	srv := newTestServer(t, store)

	req := httptest.NewRequest(http.MethodPost, "/logs", bytes.NewReader(submissionBody(t, nil)))
	req.Header.Set("Authorization", "Bearer "+testToken(t, "Bank"))
	req.RemoteAddr = "203.0.113.7:51234"
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d\nbody: %s", res.Code, http.StatusCreated, res.Body.String())
	}

	env := decodeEnvelope(t, res)
	if !env.Success {
		t.Errorf("success = false, want true")
	}

	inserted := store.Inserted()
	if len(inserted) != 1 {
		t.Fatalf("inserted %d entries, want 1", len(inserted))
	}
	got := inserted[0]
	if got.CorrelationID == "" {
		t.Errorf("stored entry has no correlationId")
	}
	if got.CorrelationID != res.Header().Get(middleware.CorrelationIDHeader) {
		t.Errorf("stored correlationId %q does not match response header %q",
			got.CorrelationID, res.Header().Get(middleware.CorrelationIDHeader))
	}
	if got.ServerName != "api-node-1" {
		t.Errorf("serverName = %q, want %q", got.ServerName, "api-node-1")
	}
	if got.RemoteServerIP != "203.0.113.7" {
		t.Errorf("remoteServerIp = %q, want caller address", got.RemoteServerIP)
	}
	if got.UserID != "Bank" {
		t.Errorf("userId = %q, want credential application fallback", got.UserID)
	}
}

func TestSubmit_ApplicationMismatch(t *testing.T) {
	store := &mocks.MockLogStore{}
	srv := newTestServer(t, store)

	req := httptest.NewRequest(http.MethodPost, "/logs", bytes.NewReader(submissionBody(t, nil)))
	req.Header.Set("Authorization", "Bearer "+testToken(t, "Retail"))
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)

	if res.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusForbidden)
	}
	env := decodeEnvelope(t, res)
	if !strings.Contains(env.Message, "Bank") {
		t.Errorf("message %q should name the submitted application", env.Message)
	}
	if len(store.Inserted()) != 0 {
		t.Errorf("forbidden submission must not be persisted")
	}
}

func TestSubmit_MissingToken(t *testing.T) {
	store := &mocks.MockLogStore{}
	srv := newTestServer(t, store)

	req := httptest.NewRequest(http.MethodPost, "/logs", bytes.NewReader(submissionBody(t, nil)))
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusUnauthorized)
	}
	if len(store.Inserted()) != 0 {
		t.Errorf("unauthenticated submission must not be persisted")
	}
}

func TestSubmit_ValidationFailure(t *testing.T) {
	store := &mocks.MockLogStore{}
	srv := newTestServer(t, store)

	body := submissionBody(t, func(m map[string]any) {
		delete(m, "message")
	})
	req := httptest.NewRequest(http.MethodPost, "/logs", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testToken(t, "Bank"))
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d\nbody: %s", res.Code, http.StatusBadRequest, res.Body.String())
	}

	env := decodeEnvelope(t, res)
	found := false
	for _, e := range env.Errors {
		if strings.Contains(e, "message") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors %v should mention the missing message field", env.Errors)
	}
	if len(store.Inserted()) != 0 {
		t.Errorf("invalid submission must not be persisted")
	}
}

func TestSubmit_MalformedJSON(t *testing.T) {
	store := &mocks.MockLogStore{}
	srv := newTestServer(t, store)

	req := httptest.NewRequest(http.MethodPost, "/logs", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+testToken(t, "Bank"))
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusBadRequest)
	}
	if len(store.Inserted()) != 0 {
		t.Errorf("malformed submission must not be persisted")
	}
}

func TestSubmit_StoreFailure(t *testing.T) {
	store := &mocks.MockLogStore{InsertErr: fmt.Errorf("connection refused")}
	srv := newTestServer(t, store)

	req := httptest.NewRequest(http.MethodPost, "/logs", bytes.NewReader(submissionBody(t, nil)))
	req.Header.Set("Authorization", "Bearer "+testToken(t, "Bank"))
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusInternalServerError)
	}
	env := decodeEnvelope(t, res)
	if env.CorrelationID == "" {
		t.Errorf("store failure response should carry a correlationId")
	}
}

func TestPing(t *testing.T) {
	srv := newTestServer(t, &mocks.MockLogStore{})

	req := httptest.NewRequest(http.MethodGet, "/logs", nil)
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusOK)
	}
}

func TestRecent_RequiresToken(t *testing.T) {
	srv := newTestServer(t, &mocks.MockLogStore{})

	req := httptest.NewRequest(http.MethodGet, "/logs/recent", nil)
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusUnauthorized)
	}
}

func TestRecent_ReturnsEntries(t *testing.T) {
	store := &mocks.MockLogStore{
		RecentResult: []*domain.LogEntry{
			{Message: "one", Level: domain.LevelInfo},
			{Message: "two", Level: domain.LevelWarn},
		},
	}
	srv := newTestServer(t, store)

	req := httptest.NewRequest(http.MethodGet, "/logs/recent", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, "Bank"))
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d\nbody: %s", res.Code, http.StatusOK, res.Body.String())
	}
	env := decodeEnvelope(t, res)
	raw, _ := json.Marshal(env.Data)
	var entries []domain.LogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		t.Fatalf("data is not a list of entries: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestSearch_ForwardsFilter(t *testing.T) {
	store := &mocks.MockLogStore{}
	srv := newTestServer(t, store)

	req := httptest.NewRequest(http.MethodGet, "/logs/search?query=timeout&applicationName=Bank&last=2h&size=25", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, "Bank"))
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d\nbody: %s", res.Code, http.StatusOK, res.Body.String())
	}
	if len(store.SearchQueries) != 1 {
		t.Fatalf("store saw %d queries, want 1", len(store.SearchQueries))
	}
	q := store.SearchQueries[0]
	if q.Query != "timeout" || q.ApplicationName != "Bank" || q.Size != 25 {
		t.Errorf("unexpected query %+v", q)
	}
	if q.From.IsZero() || q.To.IsZero() {
		t.Errorf("last=2h should resolve to a bounded window, got %+v", q)
	}
	if window := q.To.Sub(q.From); window != 2*time.Hour {
		t.Errorf("window = %v, want 2h", window)
	}
}

func TestSearch_MalformedWindowIgnored(t *testing.T) {
	store := &mocks.MockLogStore{}
	srv := newTestServer(t, store)

	req := httptest.NewRequest(http.MethodGet, "/logs/search?last=fortnight", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, "Bank"))
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusOK)
	}
	q := store.SearchQueries[0]
	if !q.From.IsZero() || !q.To.IsZero() {
		t.Errorf("malformed window must apply no time filter, got %+v", q)
	}
	if q.Size != 100 {
		t.Errorf("size = %d, want default 100", q.Size)
	}
}

func TestStats(t *testing.T) {
	store := &mocks.MockLogStore{
		AggregateResult: domain.AggregateCounts{
			Total:        100,
			ClientErrors: 10,
			ServerErrors: 5,
			TopUser:      "alice",
			TopUserCount: 40,
		},
	}
	srv := newTestServer(t, store)

	req := httptest.NewRequest(http.MethodGet, "/logs/stats", nil)
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusOK)
	}
	env := decodeEnvelope(t, res)
	raw, _ := json.Marshal(env.Data)
	var snap domain.StatsSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("data is not a stats snapshot: %v", err)
	}
	if snap.ValidationErrorRate != 10.00 {
		t.Errorf("validationErrorRate = %v, want 10.00", snap.ValidationErrorRate)
	}
	if snap.ServerErrorRate != 5.00 {
		t.Errorf("serverErrorRate = %v, want 5.00", snap.ServerErrorRate)
	}
	if snap.MostActiveUser != "alice" {
		t.Errorf("mostActiveUser = %q, want alice", snap.MostActiveUser)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		store      *mocks.MockLogStore
		wantStatus int
	}{
		{
			name: "healthy store",
			store: &mocks.MockLogStore{
				HealthResult: &domain.StoreHealth{Status: "green", Healthy: true, NodeCount: 1},
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "degraded store",
			store: &mocks.MockLogStore{
				HealthResult: &domain.StoreHealth{Status: "red", Healthy: false},
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unreachable store",
			store:      &mocks.MockLogStore{HealthErr: fmt.Errorf("dial tcp: connection refused")},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.store)
			req := httptest.NewRequest(http.MethodGet, "/logs/health", nil)
			res := httptest.NewRecorder()
			srv.ServeHTTP(res, req)

			if res.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", res.Code, tt.wantStatus)
			}
		})
	}
}
