package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gradconnect/backend/services/audit"
	"github.com/gradconnect/backend/utils"
	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// AuditStatsProvider reports the state of the audit writer queue
type AuditStatsProvider interface {
	GetStats() audit.Stats
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Audit     *audit.Stats      `json:"audit,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db      Pinger
	audit   AuditStatsProvider
	timeout time.Duration
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. A nil db reports the
// database as not configured.
func NewHealthHandler(db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// WithAudit makes readiness report the audit writer. A stopped writer makes
// the instance unready.
func (h *HealthHandler) WithAudit(p AuditStatsProvider) *HealthHandler {
	h.audit = p
	return h
}

// HandleHealth handles GET /healthz and GET /api/health.
// It returns 200 whenever the process is serving.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz. It pings the database and answers
// 503 when it is unreachable.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := make(map[string]string)
	status, httpStatus := "healthy", http.StatusOK

	switch {
	case h.db == nil:
		checks["database"] = "not_configured"
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	default:
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Warn("database health check failed", zap.Error(err))
			checks["database"] = "unhealthy"
			status, httpStatus = "unhealthy", http.StatusServiceUnavailable
		} else {
			checks["database"] = "healthy"
		}
	}

	var auditStats *audit.Stats
	if h.audit != nil {
		stats := h.audit.GetStats()
		auditStats = &stats
		if stats.Started {
			checks["audit"] = "healthy"
		} else {
			checks["audit"] = "stopped"
			status, httpStatus = "unhealthy", http.StatusServiceUnavailable
		}
	}

	if err := utils.WriteJSON(w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Audit:     auditStats,
	}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
