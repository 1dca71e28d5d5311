package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/user/logging-api/internal/adapter/metrics"
	"github.com/user/logging-api/internal/domain"
	"github.com/user/logging-api/pkg/util"
)

// IngestPipeline turns an untrusted submission into a persisted document:
// credential verification, authorization against the application claim,
// enrichment, validation, store write. Each stage either advances the entry
// or short-circuits with a typed outcome; no stage is skipped and no write
// is retried.
type IngestPipeline struct {
	store     domain.LogStore
	validator *EntryValidator
	jwtSecret string
	logger    *slog.Logger
	metrics   *metrics.IngestMetrics
}

// NewIngestPipeline creates a new IngestPipeline. The metrics collector may
// be nil.
func NewIngestPipeline(store domain.LogStore, validator *EntryValidator, jwtSecret string, logger *slog.Logger, m *metrics.IngestMetrics) *IngestPipeline {
	return &IngestPipeline{
		store:     store,
		validator: validator,
		jwtSecret: jwtSecret,
		logger:    logger,
		metrics:   m,
	}
}

// Submit runs the full pipeline for one entry and returns the final,
// post-enrichment entry on success. Failures come back as
// domain.ErrUnauthenticated, *domain.ForbiddenError, *domain.ValidationError
// or *domain.StoreError.
func (p *IngestPipeline) Submit(ctx context.Context, bearer string, meta RequestMeta, entry *domain.LogEntry) (*domain.LogEntry, error) {
	application, err := p.verifyCredential(bearer)
	if err != nil {
		p.count(metrics.OutcomeUnauthenticated)
		p.logger.Warn("submission rejected: unauthenticated",
			"correlation_id", meta.CorrelationID, "error", err)
		return nil, domain.ErrUnauthenticated
	}

	// A missing entry carries no application to authorize; it falls straight
	// through to the validator's single-failure result.
	if entry != nil && !strings.EqualFold(entry.ApplicationName, application) {
		p.count(metrics.OutcomeForbidden)
		p.logger.Warn("submission rejected: application mismatch",
			"correlation_id", meta.CorrelationID,
			"claim", application, "declared", entry.ApplicationName)
		return nil, &domain.ForbiddenError{Application: entry.ApplicationName}
	}

	if entry != nil {
		if meta.User == "" {
			meta.User = application
		}
		Enrich(entry, meta)
	}

	if failures := p.validator.Validate(entry); len(failures) > 0 {
		p.count(metrics.OutcomeInvalid)
		p.logger.Warn("submission rejected: validation failed",
			"correlation_id", meta.CorrelationID, "failures", len(failures))
		return nil, &domain.ValidationError{Errors: failures}
	}

	start := time.Now()
	if err := p.store.Insert(ctx, entry); err != nil {
		p.count(metrics.OutcomeStoreError)
		p.logger.Error("submission rejected: store write failed",
			"correlation_id", entry.CorrelationID, "error", err)
		return nil, &domain.StoreError{Op: "insert", Err: err}
	}
	if p.metrics != nil {
		p.metrics.StoreWriteSeconds.Observe(time.Since(start).Seconds())
	}

	p.count(metrics.OutcomePersisted)
	p.logger.Info("log entry persisted",
		"correlation_id", entry.CorrelationID,
		"application", entry.ApplicationName, "level", entry.Level)
	return entry, nil
}

// verifyCredential extracts the application identity claim from the bearer
// credential. Signature and expiry checks are the token library's concern;
// this only reads the decoded claim set.
func (p *IngestPipeline) verifyCredential(bearer string) (string, error) {
	if bearer == "" {
		return "", domain.ErrUnauthenticated
	}
	claims, err := util.ValidateToken(bearer, p.jwtSecret)
	if err != nil {
		return "", err
	}
	if claims.ApplicationName == "" {
		return "", domain.ErrUnauthenticated
	}
	return claims.ApplicationName, nil
}

func (p *IngestPipeline) count(outcome string) {
	if p.metrics != nil {
		p.metrics.EntriesTotal.WithLabelValues(outcome).Inc()
	}
}
