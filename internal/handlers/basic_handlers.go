package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Pinger reports reachability of a dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler liveness and readiness endpoints
type HealthHandler struct {
	db    *gorm.DB
	chain Pinger
}

// NewHealthHandler chain may be nil
func NewHealthHandler(db *gorm.DB, chain Pinger) *HealthHandler {
	return &HealthHandler{db: db, chain: chain}
}

// HealthCheckHandler GET /api/health
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "wallet-backend",
	})
}

// ReadinessHandler GET /api/healthz
func (h *HealthHandler) ReadinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if sqlDB, err := h.db.DB(); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else if err := sqlDB.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if h.chain != nil {
		if err := h.chain.Ping(ctx); err != nil {
			checks["chain"] = err.Error()
			healthy = false
		} else {
			checks["chain"] = "ok"
		}
	}

	status := http.StatusOK
	state := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status": state,
		"checks": checks,
	})
}
