package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/arqmanager/portfolio-web/internal/backend"
)

type HealthResponse struct {
	Status    string             `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
	Service   string             `json:"service"`
	Version   string             `json:"version"`
	Redis     string             `json:"redis,omitempty"`
	Backend   *backend.CallStats `json:"backend,omitempty"`
	OpenForms int                `json:"open_forms"`
}

// HealthSources are the optional probes reported by the health endpoint.
type HealthSources struct {
	Redis     *redis.Client
	Backend   *backend.Metrics
	OpenForms func() int
}

type HealthHandler struct {
	serviceName string
	version     string
	src         HealthSources
}

func NewHealthHandler(serviceName, version string, src HealthSources) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		src:         src,
	}
}

// HealthCheck reports "degraded" with 503 when Redis is down: without it no
// session can be resolved.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Redis:     "disabled",
	}
	status := http.StatusOK

	if h.src.Redis != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.src.Redis.Ping(pingCtx).Err(); err != nil {
			resp.Redis = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			resp.Redis = "up"
		}
	}

	if h.src.Backend != nil {
		stats := h.src.Backend.Snapshot()
		resp.Backend = &stats
	}
	if h.src.OpenForms != nil {
		resp.OpenForms = h.src.OpenForms()
	}

	c.JSON(status, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
