package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/user-api/repositories"
	"github.com/upb/user-api/utils"
	"go.uber.org/zap"
)

const readinessTimeout = 5 * time.Second

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// KeyCounter reports how many signing keys are loaded
type KeyCounter interface {
	KeyCount() int
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     repositories.HealthChecker
	keys   KeyCounter
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db and keys may be nil.
func NewHealthHandler(db repositories.HealthChecker, keys KeyCounter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		keys:   keys,
		logger: logger,
	}
}

// HandlePing handles GET /api/ with the plain "OK" body browsers poll for
func (h *HealthHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteText(w, http.StatusOK, "OK")
}

// HandleHealth handles GET /healthz
// Basic liveness check - always returns 200 if the process is serving
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	// An empty key set is reported but does not fail readiness; every
	// protected request is simply rejected until keys appear.
	if h.keys != nil {
		if h.keys.KeyCount() > 0 {
			checks["jwks"] = "loaded"
		} else {
			checks["jwks"] = "empty"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	return h.db.HealthCheck(ctx)
}
