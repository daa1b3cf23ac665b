package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/users-web/internal/models"
	"github.com/noah-isme/users-web/internal/service"
)

type pingerStub struct{ err error }

func (p pingerStub) Ping(context.Context) error { return p.err }

func newOperationalRouter(pinger apiPinger, metrics *service.MetricsService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterOperationalRoutes(router, NewMetricsHandler(metrics, pinger, "http://api.test/api"), true)
	return router
}

func decodeReadiness(t *testing.T, recorder *httptest.ResponseRecorder) models.ReadinessStatus {
	t.Helper()
	var envelope struct {
		Data models.ReadinessStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestMetricsHandlerHealth(t *testing.T) {
	router := newOperationalRouter(pingerStub{}, nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":{"status":"ok"}}`, recorder.Body.String())
}

func TestMetricsHandlerReady(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveAPICall("list_users", "ok", 0)
	router := newOperationalRouter(pingerStub{}, metrics)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	status := decodeReadiness(t, recorder)
	assert.Equal(t, "ready", status.Status)
	assert.True(t, status.Reachable)
	assert.Equal(t, "http://api.test/api", status.APIURL)
	require.NotNil(t, status.Metrics)
	assert.Equal(t, uint64(1), status.Metrics.APICallsTotal)
}

func TestMetricsHandlerReadyUnavailable(t *testing.T) {
	router := newOperationalRouter(pingerStub{err: errors.New("connection refused")}, nil)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	status := decodeReadiness(t, recorder)
	assert.Equal(t, "unavailable", status.Status)
	assert.False(t, status.Reachable)
	assert.Equal(t, "connection refused", status.Error)
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordExport("csv")
	router := newOperationalRouter(pingerStub{}, metrics)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `users_web_exports_total{format="csv"} 1`)
}
