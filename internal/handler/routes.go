package handler

import "github.com/gin-gonic/gin"

// RegisterUserRoutes mounts the user pages. guard runs in front of every
// mutating route.
func RegisterUserRoutes(r gin.IRouter, h *UserHandler, guard ...gin.HandlerFunc) {
	r.GET("/", h.Root)

	users := r.Group("/users")
	users.GET("/", h.Index)
	users.GET("/new", h.New)
	users.GET("/export", h.Export)
	users.GET("/:id", h.Show)
	users.GET("/:id/edit", h.Edit)

	mutating := users.Group("", guard...)
	mutating.POST("/new", h.Create)
	mutating.POST("/import", h.Import)
	mutating.POST("/:id", h.Delete)
	mutating.POST("/:id/edit", h.Update)
}

// RegisterOperationalRoutes mounts health, readiness and metrics.
func RegisterOperationalRoutes(r gin.IRouter, h *MetricsHandler, metricsEnabled bool) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	if metricsEnabled {
		r.GET("/metrics", h.Prometheus)
	}
}
