package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type IHealthHandler interface {
	Healthz(c *gin.Context)
}

type HealthHandler struct {
	checks map[string]func() error
}

// NewHealthHandler reports ok plus the state of each named optional dependency.
func NewHealthHandler(checks map[string]func() error) IHealthHandler {
	return &HealthHandler{checks: checks}
}

// Healthz returns OK for health checks. Optional dependencies never fail the probe.
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	deps := gin.H{}
	for name, check := range h.checks {
		if err := check(); err != nil {
			deps[name] = err.Error()
			continue
		}
		deps[name] = "ok"
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "dependencies": deps})
}
