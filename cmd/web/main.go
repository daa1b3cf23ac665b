package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/users-web/api/swagger"
	"github.com/noah-isme/users-web/internal/handler"
	"github.com/noah-isme/users-web/internal/middleware"
	"github.com/noah-isme/users-web/internal/models"
	"github.com/noah-isme/users-web/internal/repository"
	"github.com/noah-isme/users-web/internal/service"
	"github.com/noah-isme/users-web/internal/web"
	"github.com/noah-isme/users-web/pkg/cache"
	"github.com/noah-isme/users-web/pkg/config"
	"github.com/noah-isme/users-web/pkg/logger"
	corsmiddleware "github.com/noah-isme/users-web/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/users-web/pkg/middleware/requestid"
)

// @title Users Web
// @version 1.0.0
// @description Machine-facing endpoints of the user management front-end
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	sessionStore, closeStore, err := newSessionStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to init session store", zap.Error(err))
	}
	defer closeStore()

	userRepo := repository.NewUserAPIRepository(repository.UserAPIConfig{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	}, nil, metricsSvc, logr)

	userSvc := service.NewUserService(userRepo, nil, logr)
	exportSvc := service.NewExportService(userSvc, cfg.Export.Title, metricsSvc, logr, nil, nil)
	sessionSvc := service.NewSessionService(sessionStore, service.SessionConfig{
		TTL:        cfg.Session.TTL,
		CSRFSecret: cfg.CSRF.Secret,
		CSRFTTL:    cfg.CSRF.TTL,
	}, metricsSvc, logr)

	tmpl, err := web.Templates()
	if err != nil {
		logr.Fatal("failed to parse templates", zap.Error(err))
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	go limiter.Run(ctx)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, "/health", "/ready", "/users/export"))

	handler.RegisterOperationalRoutes(r, handler.NewMetricsHandler(metricsSvc, userSvc, userRepo.BaseURL()), cfg.Metrics.Enabled)
	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	pages := r.Group("")
	pages.Use(middleware.Session(sessionSvc, middleware.SessionCookie{
		Name:   cfg.Session.CookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.SecureCookie,
	}))
	userHandler := handler.NewUserHandler(userSvc, exportSvc, sessionSvc, logr)
	handler.RegisterUserRoutes(pages, userHandler, middleware.RateLimit(limiter, metricsSvc, logr))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("api_url", userRepo.BaseURL()), zap.String("session_store", cfg.Session.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type sessionStore interface {
	Load(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

func newSessionStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (sessionStore, func(), error) {
	if cfg.Session.Store != config.SessionStoreRedis {
		return repository.NewMemorySessionRepository(), func() {}, nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	store := repository.NewRedisSessionRepository(client, logr)
	return store, func() {
		if err := store.Close(); err != nil {
			logr.Warn("closing redis", zap.Error(err))
		}
	}, nil
}
