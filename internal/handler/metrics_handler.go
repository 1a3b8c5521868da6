package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/prakarsa-dev/hcm-api/internal/service"
	"github.com/prakarsa-dev/hcm-api/pkg/response"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	db      *sqlx.DB
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, db *sqlx.DB) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, db: db}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness by pinging the database.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Snapshot godoc
// @Summary System metrics snapshot
// @Description Aggregated request, cache and approval counters for dashboards
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/snapshot [get]
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
