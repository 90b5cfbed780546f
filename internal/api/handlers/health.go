package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// Version is the reported service version.
const Version = "1.0.0"

var startTime = time.Now()

// Pinger is anything with a context-aware liveness probe. Both the Postgres
// and Redis wrappers satisfy it.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves the service health endpoint.
type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Check handles GET /health: dependency probes plus host resource stats.
// Any unhealthy dependency degrades the overall status and the response code.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	services := map[string]string{
		"database": probe(ctx, h.db),
		"redis":    probe(ctx, h.redis),
	}

	status := "healthy"
	code := http.StatusOK
	for _, s := range services {
		if s != "healthy" {
			status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"version":   Version,
		"uptime":    time.Since(startTime).Round(time.Second).String(),
		"services":  services,
		"resources": resourceStats(),
	})
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "unhealthy: not configured"
	}
	if err := p.HealthCheck(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}

// resourceStats collects best-effort host memory and CPU figures; failures
// are logged and omitted rather than failing the health check.
func resourceStats() map[string]interface{} {
	stats := make(map[string]interface{})

	if vm, err := mem.VirtualMemory(); err != nil {
		logrus.WithError(err).Debug("Failed to read memory stats")
	} else {
		stats["memory_used_percent"] = vm.UsedPercent
		stats["memory_total_mb"] = vm.Total / 1024 / 1024
	}

	if percents, err := cpu.Percent(0, false); err != nil || len(percents) == 0 {
		logrus.WithError(err).Debug("Failed to read CPU stats")
	} else {
		stats["cpu_percent"] = percents[0]
	}

	return stats
}
