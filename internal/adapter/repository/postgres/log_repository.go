package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/logging-api/internal/domain"
	"github.com/user/logging-api/pkg/jsonval"
)

// LogRepository implements domain.LogStore on PostgreSQL. Entries land in a
// parent table partitioned by day, mirroring the date-suffixed collection
// naming of the external contract; the document identifier is the entry's
// correlation id and writes are once-only (conflicting ids are ignored).
type LogRepository struct {
	db     *sql.DB
	logger *slog.Logger

	mu         sync.Mutex
	partitions map[string]struct{}
}

// NewLogRepository creates a new PostgreSQL-backed log store.
func NewLogRepository(db *sql.DB, logger *slog.Logger) *LogRepository {
	return &LogRepository{
		db:         db,
		logger:     logger.With("component", "postgres_repository"),
		partitions: make(map[string]struct{}),
	}
}

// EnsureSchema creates the parent table and its indexes if they do not exist.
func (r *LogRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS logs (
			correlation_id     text        NOT NULL,
			timestamp          timestamptz NOT NULL,
			level              text        NOT NULL,
			message            text        NOT NULL,
			source             text        NOT NULL,
			application_name   text        NOT NULL,
			user_id            text        NOT NULL,
			request_path       text,
			remote_server_ip   text,
			server_name        text,
			status_code        integer     NOT NULL,
			error_code         text,
			stack_trace        text,
			request_id         text,
			request_date_time  timestamptz NOT NULL,
			response_date_time timestamptz,
			request_headers    jsonb,
			metadata           jsonb,
			PRIMARY KEY (correlation_id, request_date_time)
		) PARTITION BY RANGE (request_date_time);`,
		`CREATE INDEX IF NOT EXISTS logs_request_date_time_idx ON logs (request_date_time DESC);`,
		`CREATE INDEX IF NOT EXISTS logs_application_name_idx ON logs (application_name);`,
		`CREATE INDEX IF NOT EXISTS logs_user_id_idx ON logs (user_id);`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ensurePartition creates the daily partition covering day if this process
// has not created it yet. Creation is idempotent, so racing requests are
// harmless.
func (r *LogRepository) ensurePartition(ctx context.Context, day time.Time) error {
	day = day.UTC().Truncate(24 * time.Hour)
	name := fmt.Sprintf("logs_p%s", day.Format("20060102"))

	r.mu.Lock()
	_, known := r.partitions[name]
	r.mu.Unlock()
	if known {
		return nil
	}

	stmt := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s PARTITION OF logs FOR VALUES FROM ('%s') TO ('%s');`,
		name,
		day.Format(time.RFC3339),
		day.Add(24*time.Hour).Format(time.RFC3339),
	)
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create partition %s: %w", name, err)
	}

	r.mu.Lock()
	r.partitions[name] = struct{}{}
	r.mu.Unlock()
	return nil
}

const logColumns = `correlation_id, timestamp, level, message, source, application_name, user_id,
	COALESCE(request_path, ''), COALESCE(remote_server_ip, ''), COALESCE(server_name, ''),
	status_code, error_code, stack_trace, request_id,
	request_date_time, response_date_time, request_headers, metadata`

// Insert persists one entry as a write-once document.
func (r *LogRepository) Insert(ctx context.Context, entry *domain.LogEntry) error {
	requestAt := entry.RequestDateTime
	if requestAt.IsZero() {
		// The lenient profile admits entries without request timing; the
		// submission timestamp then decides the partition.
		requestAt = entry.Timestamp
	}

	if err := r.ensurePartition(ctx, requestAt); err != nil {
		return err
	}

	var headers, metadata []byte
	var err error
	if len(entry.RequestHeaders) > 0 {
		if headers, err = json.Marshal(entry.RequestHeaders); err != nil {
			return fmt.Errorf("marshal request headers: %w", err)
		}
	}
	if entry.Metadata != nil {
		if metadata, err = json.Marshal(entry.Metadata); err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	var responseAt sql.NullTime
	if !entry.ResponseDateTime.IsZero() {
		responseAt = sql.NullTime{Time: entry.ResponseDateTime, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO logs (
			correlation_id, timestamp, level, message, source, application_name, user_id,
			request_path, remote_server_ip, server_name,
			status_code, error_code, stack_trace, request_id,
			request_date_time, response_date_time, request_headers, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (correlation_id, request_date_time) DO NOTHING`,
		entry.CorrelationID,
		entry.Timestamp,
		entry.Level,
		entry.Message,
		entry.Source,
		entry.ApplicationName,
		entry.UserID,
		nullable(entry.RequestPath),
		nullable(entry.RemoteServerIP),
		nullable(entry.ServerName),
		entry.StatusCode,
		entry.ErrorCode,
		entry.StackTrace,
		entry.RequestID,
		requestAt,
		responseAt,
		nullableJSON(headers),
		nullableJSON(metadata),
	)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		r.logger.Debug("duplicate document ignored", "correlation_id", entry.CorrelationID)
	}
	return nil
}

// Recent returns the newest entries.
func (r *LogRepository) Recent(ctx context.Context, limit int) ([]*domain.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+logColumns+` FROM logs ORDER BY request_date_time DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent logs: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search retrieves entries matching the resolved query: application equality,
// free-text match over message and source, and an inclusive request-time
// range, combined with AND.
func (r *LogRepository) Search(ctx context.Context, q domain.SearchQuery) ([]*domain.LogEntry, error) {
	sqlQuery := `SELECT ` + logColumns + ` FROM logs WHERE 1=1`
	var args []interface{}
	argIdx := 1

	if q.ApplicationName != "" {
		sqlQuery += fmt.Sprintf(" AND application_name = $%d", argIdx)
		args = append(args, q.ApplicationName)
		argIdx++
	}
	if q.Query != "" {
		sqlQuery += fmt.Sprintf(" AND (message ILIKE $%d OR source ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+q.Query+"%")
		argIdx++
	}
	if !q.From.IsZero() {
		sqlQuery += fmt.Sprintf(" AND request_date_time BETWEEN $%d AND $%d", argIdx, argIdx+1)
		args = append(args, q.From, q.To)
		argIdx += 2
	}

	sqlQuery += fmt.Sprintf(" ORDER BY request_date_time DESC LIMIT $%d", argIdx)
	args = append(args, q.Size)

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Aggregate reports the raw counts statistics are derived from.
func (r *LogRepository) Aggregate(ctx context.Context) (domain.AggregateCounts, error) {
	var agg domain.AggregateCounts

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status_code BETWEEN 400 AND 499),
			COUNT(*) FILTER (WHERE status_code >= 500)
		FROM logs`).Scan(&agg.Total, &agg.ClientErrors, &agg.ServerErrors)
	if err != nil {
		return domain.AggregateCounts{}, fmt.Errorf("aggregate counts: %w", err)
	}

	if agg.Total == 0 {
		return agg, nil
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT user_id, COUNT(*) FROM logs
		GROUP BY user_id ORDER BY COUNT(*) DESC LIMIT 1`).
		Scan(&agg.TopUser, &agg.TopUserCount)
	if err != nil && err != sql.ErrNoRows {
		return domain.AggregateCounts{}, fmt.Errorf("top user: %w", err)
	}

	return agg, nil
}

// Health reports the store's condition based on connectivity and pool state.
func (r *LogRepository) Health(ctx context.Context) (*domain.StoreHealth, error) {
	health := &domain.StoreHealth{Timestamp: time.Now().UTC()}

	if err := r.db.PingContext(ctx); err != nil {
		r.logger.Error("store ping failed", "error", err)
		health.Status = "red"
		health.StatusDescription = "store unreachable"
		return health, nil
	}

	stats := r.db.Stats()
	health.NodeCount = stats.OpenConnections
	health.Healthy = true
	health.Status = "green"
	health.StatusDescription = "store reachable"
	if stats.WaitCount > 0 && stats.OpenConnections == stats.MaxOpenConnections {
		health.Status = "yellow"
		health.StatusDescription = "connection pool saturated"
	}
	return health, nil
}

func scanEntries(rows *sql.Rows) ([]*domain.LogEntry, error) {
	var entries []*domain.LogEntry
	for rows.Next() {
		var (
			entry      domain.LogEntry
			responseAt sql.NullTime
			headers    []byte
			metadata   []byte
		)
		if err := rows.Scan(
			&entry.CorrelationID,
			&entry.Timestamp,
			&entry.Level,
			&entry.Message,
			&entry.Source,
			&entry.ApplicationName,
			&entry.UserID,
			&entry.RequestPath,
			&entry.RemoteServerIP,
			&entry.ServerName,
			&entry.StatusCode,
			&entry.ErrorCode,
			&entry.StackTrace,
			&entry.RequestID,
			&entry.RequestDateTime,
			&responseAt,
			&headers,
			&metadata,
		); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		if responseAt.Valid {
			entry.ResponseDateTime = responseAt.Time
		}
		if len(headers) > 0 {
			if err := json.Unmarshal(headers, &entry.RequestHeaders); err != nil {
				return nil, fmt.Errorf("unmarshal request headers: %w", err)
			}
		}
		if len(metadata) > 0 {
			var v jsonval.Value
			if err := json.Unmarshal(metadata, &v); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
			entry.Metadata = &v
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullableJSON passes JSON text to a jsonb parameter; lib/pq would encode a
// raw []byte as bytea.
func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
