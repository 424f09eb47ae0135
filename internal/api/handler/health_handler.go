package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck 单个依赖的探活函数
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler 健康检查
type HealthHandler struct {
	checks []HealthCheck
}

// NewHealthHandler 创建 HealthHandler，checks 为空时只报告进程存活
func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health 依次探测各依赖，任一失败返回 503
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	results := make(map[string]string, len(h.checks))

	for _, hc := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		err := hc.Check(ctx)
		cancel()

		if err != nil {
			status = http.StatusServiceUnavailable
			results[hc.Name] = err.Error()
			continue
		}
		results[hc.Name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}
