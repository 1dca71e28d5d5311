package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	api "github.com/user/logging-api/internal/adapter/api/response"
	"github.com/user/logging-api/internal/adapter/api/middleware"
	"github.com/user/logging-api/internal/adapter/metrics"
	"github.com/user/logging-api/pkg/util"
)

// AuthHandler issues bearer credentials carrying an application identity
// claim. Token issuance is open; the value of a credential comes from the
// claim it carries, not from who may request one.
type AuthHandler struct {
	secret  string
	issuer  string
	expiry  time.Duration
	logger  *slog.Logger
	metrics *metrics.IngestMetrics
}

// NewAuthHandler creates a new AuthHandler. The metrics collector may be nil.
func NewAuthHandler(secret, issuer string, expiry time.Duration, logger *slog.Logger, m *metrics.IngestMetrics) *AuthHandler {
	return &AuthHandler{
		secret:  secret,
		issuer:  issuer,
		expiry:  expiry,
		logger:  logger,
		metrics: m,
	}
}

type tokenRequest struct {
	ApplicationName string `json:"applicationName"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Token handles POST /auth/token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.CorrelationID(r.Context())
	if h.metrics != nil {
		h.metrics.TokenRequestsTotal.Inc()
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ApplicationName == "" {
		api.WriteError(w, http.StatusBadRequest, "Missing applicationName", nil, correlationID)
		return
	}

	token, err := util.GenerateToken(req.ApplicationName, h.secret, h.issuer, h.expiry)
	if err != nil {
		h.logger.Error("failed to sign token", "error", err, "correlation_id", correlationID)
		api.WriteError(w, http.StatusInternalServerError, "Failed to issue token", nil, correlationID)
		return
	}

	h.logger.Info("token issued", "application", req.ApplicationName, "correlation_id", correlationID)
	api.WriteSuccess(w, http.StatusOK, "Token issued", tokenResponse{Token: token})
}
