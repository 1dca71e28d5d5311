package usecase

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/user/logging-api/internal/domain"
)

// QueryEngine answers search and statistics requests over the stored entries.
// It holds no state between requests; every snapshot is recomputed from the
// store.
type QueryEngine struct {
	store       domain.LogStore
	defaultSize int
	logger      *slog.Logger
}

func NewQueryEngine(store domain.LogStore, defaultSize int, logger *slog.Logger) *QueryEngine {
	if defaultSize <= 0 {
		defaultSize = 100
	}
	return &QueryEngine{
		store:       store,
		defaultSize: defaultSize,
		logger:      logger,
	}
}

var windowPattern = regexp.MustCompile(`^(\d+)([dhm])$`)

// parseWindow resolves a relative-window expression like "2d", "6h" or "15m"
// to a duration. Malformed input reports ok=false; the caller applies no time
// filter in that case rather than rejecting the request.
func parseWindow(last string) (time.Duration, bool) {
	m := windowPattern.FindStringSubmatch(last)
	if m == nil {
		return 0, false
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil || amount <= 0 {
		return 0, false
	}
	switch m[2] {
	case "d":
		return time.Duration(amount) * 24 * time.Hour, true
	case "h":
		return time.Duration(amount) * time.Hour, true
	case "m":
		return time.Duration(amount) * time.Minute, true
	}
	return 0, false
}

// Search builds the compound store query from the filter and returns matching
// entries, newest first.
func (e *QueryEngine) Search(ctx context.Context, f domain.SearchFilter) ([]*domain.LogEntry, error) {
	ctx, span := otel.Tracer("query-engine").Start(ctx, "Search")
	defer span.End()

	q := domain.SearchQuery{
		Query:           f.Query,
		ApplicationName: f.ApplicationName,
		Size:            f.Size,
	}
	if q.Size <= 0 {
		q.Size = e.defaultSize
	}
	if d, ok := parseWindow(f.Last); ok {
		now := time.Now().UTC()
		q.From = now.Add(-d)
		q.To = now
	} else if f.Last != "" {
		e.logger.Debug("ignoring malformed time window", "last", f.Last)
	}

	entries, err := e.store.Search(ctx, q)
	if err != nil {
		return nil, &domain.StoreError{Op: "search", Err: err}
	}
	return entries, nil
}

// Recent returns the newest entries up to limit (the default size when
// limit is not positive).
func (e *QueryEngine) Recent(ctx context.Context, limit int) ([]*domain.LogEntry, error) {
	ctx, span := otel.Tracer("query-engine").Start(ctx, "Recent")
	defer span.End()

	if limit <= 0 {
		limit = e.defaultSize
	}
	entries, err := e.store.Recent(ctx, limit)
	if err != nil {
		return nil, &domain.StoreError{Op: "recent", Err: err}
	}
	return entries, nil
}

// Stats recomputes the statistics snapshot from the store. Rates are
// percentages of the total, rounded to two decimal places, and zero when the
// store is empty.
func (e *QueryEngine) Stats(ctx context.Context) (*domain.StatsSnapshot, error) {
	ctx, span := otel.Tracer("query-engine").Start(ctx, "Stats")
	defer span.End()

	agg, err := e.store.Aggregate(ctx)
	if err != nil {
		return nil, &domain.StoreError{Op: "aggregate", Err: err}
	}

	snap := &domain.StatsSnapshot{
		TotalLogs:      agg.Total,
		MostActiveUser: "N/A",
		ComputedAt:     time.Now().UTC(),
	}
	if agg.Total > 0 {
		snap.ValidationErrorRate = percentage(agg.ClientErrors, agg.Total)
		snap.ServerErrorRate = percentage(agg.ServerErrors, agg.Total)
		snap.TotalErrorRate = round2(snap.ValidationErrorRate + snap.ServerErrorRate)
	}
	if agg.TopUser != "" {
		snap.MostActiveUser = agg.TopUser
	}
	return snap, nil
}

// Health reports the store's condition.
func (e *QueryEngine) Health(ctx context.Context) (*domain.StoreHealth, error) {
	ctx, span := otel.Tracer("query-engine").Start(ctx, "Health")
	defer span.End()

	health, err := e.store.Health(ctx)
	if err != nil {
		return nil, &domain.StoreError{Op: "health", Err: err}
	}
	return health, nil
}

func percentage(part, total int64) float64 {
	return round2(float64(part) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
