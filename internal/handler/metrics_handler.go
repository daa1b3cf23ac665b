package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/users-web/internal/models"
	"github.com/noah-isme/users-web/pkg/response"
)

type apiPinger interface {
	Ping(ctx context.Context) error
}

type metricsProvider interface {
	Handler() http.Handler
	Snapshot() models.MetricsSnapshot
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics metricsProvider
	pinger  apiPinger
	apiURL  string
	now     func() time.Time
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics metricsProvider, pinger apiPinger, apiURL string) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, pinger: pinger, apiURL: apiURL, now: time.Now}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness check
// @Tags Operations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"status": "ok"}, nil)
}

// Ready godoc
// @Summary Readiness check
// @Description Probes the User API with a one-row listing
// @Tags Operations
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /ready [get]
func (h *MetricsHandler) Ready(c *gin.Context) {
	start := h.now()
	err := h.pinger.Ping(c.Request.Context())
	status := models.ReadinessStatus{
		Status:    "ready",
		APIURL:    h.apiURL,
		Reachable: err == nil,
		LatencyMs: h.now().Sub(start).Milliseconds(),
		CheckedAt: h.now().UTC(),
	}
	if h.metrics != nil {
		snapshot := h.metrics.Snapshot()
		status.Metrics = &snapshot
	}

	code := http.StatusOK
	if err != nil {
		status.Status = "unavailable"
		status.Error = err.Error()
		code = http.StatusServiceUnavailable
	}
	response.JSON(c, code, status, nil)
}
