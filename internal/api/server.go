package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vedexpert/internal/advisor"
	"vedexpert/internal/catalog"
	"vedexpert/internal/config"
	"vedexpert/internal/pipeline"
)

const shutdownTimeout = 15 * time.Second

// Server exposes the pipeline over HTTP.
type Server struct {
	svc     *pipeline.Service
	advisor *advisor.Client
	cfg     config.Config
	engine  *gin.Engine
}

func NewServer(svc *pipeline.Service, adv *advisor.Client, cfg config.Config) *Server {
	s := &Server{svc: svc, advisor: adv, cfg: cfg}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) catalog() *catalog.Catalog { return s.svc.Catalog() }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), recovery(), accessLog(), compress())

	r.GET("/healthz", s.health)

	v1 := r.Group("/api/v1")
	v1.Use(newClientLimiter(s.cfg.HTTPRateLimitRPS, s.cfg.HTTPRateLimitBurst).middleware())
	{
		v1.POST("/classify", s.classify)
		v1.POST("/classify/descriptor", s.classifyDescriptor)
		v1.POST("/validate", s.validate)
		v1.GET("/tnved/:code", s.lookupCode)
		v1.GET("/search", s.search)
		v1.GET("/groups/:group", s.group)
		v1.GET("/sample", s.sample)
		v1.GET("/catalog/stats", s.catalogStats)
		v1.GET("/stats", s.stats)
	}

	admin := v1.Group("/admin", adminAuth(s.cfg.AdminToken))
	{
		admin.POST("/reload", s.reload)
		admin.POST("/cache/clear", s.clearCache)
		admin.PUT("/log-level", s.setLogLevel)
	}
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("http server stopped")
	return nil
}
