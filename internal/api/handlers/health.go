package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

// HealthChecker is implemented by the database and Redis clients
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	db      HealthChecker
	redis   HealthChecker
	version string
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	System    *SystemStats      `json:"system,omitempty"`
}

// SystemStats is a snapshot of host and process resource usage
type SystemStats struct {
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	MemoryAvailableMB uint64  `json:"memory_available_mb"`
	CPUCount          int     `json:"cpu_count"`
	Goroutines        int     `json:"goroutines"`
	HeapAllocMB       uint64  `json:"heap_alloc_mb"`
}

func NewHealthHandler(db, redis HealthChecker, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   redis,
		version: version,
	}
}

// HealthCheck reports liveness plus dependency status; it always answers 200 while the
// process can serve requests
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	services := h.checkDependencies(c.Request.Context())

	status := "healthy"
	for _, s := range services {
		if s != "healthy" {
			status = "degraded"
			break
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
		Version:   h.version,
		Uptime:    time.Since(startTime).String(),
		System:    collectSystemStats(),
	})
}

// ReadinessCheck answers 503 until the database and Redis are reachable
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	services := h.checkDependencies(c.Request.Context())

	ready := true
	for _, s := range services {
		if s != "healthy" {
			ready = false
			break
		}
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, gin.H{
		"ready":    ready,
		"services": services,
	})
}

func (h *HealthHandler) checkDependencies(ctx context.Context) map[string]string {
	return map[string]string{
		"database": checkHealth(ctx, h.db),
		"redis":    checkHealth(ctx, h.redis),
	}
}

func checkHealth(ctx context.Context, checker HealthChecker) string {
	if checker == nil {
		return "unhealthy: not configured"
	}
	if err := checker.HealthCheck(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}

func collectSystemStats() *SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &SystemStats{
		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: memStats.HeapAlloc / 1024 / 1024,
		CPUCount:    runtime.NumCPU(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryUsedPercent = vm.UsedPercent
		stats.MemoryAvailableMB = vm.Available / 1024 / 1024
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		stats.CPUCount = n
	}

	return stats
}
