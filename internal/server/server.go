// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the requirements analysis API over HTTP:
// synchronous analysis, per-organization document management, and the
// asynchronous pipeline endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atoms-tech/requirements-engine/internal/analysis"
	"github.com/atoms-tech/requirements-engine/internal/jobs"
	"github.com/atoms-tech/requirements-engine/internal/regdoc"
	"github.com/atoms-tech/requirements-engine/pkg/types"
)

const (
	defaultPort           = 8080
	defaultMaxUploadBytes = 64 << 20
	shutdownGrace         = 15 * time.Second
)

// Server wires the HTTP API to the analysis, document, and job services.
type Server struct {
	cfg      types.ServerConfig
	logger   *zap.Logger
	analyzer *analysis.Analyzer
	docs     *regdoc.Service
	runner   *jobs.Runner
	jobStore *jobs.Store
}

// New creates a Server. The analyzer may be nil when no model API key is
// configured; analysis endpoints then answer 503.
func New(cfg types.ServerConfig, logger *zap.Logger, analyzer *analysis.Analyzer, docs *regdoc.Service, jobStore *jobs.Store, runner *jobs.Runner) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		analyzer: analyzer,
		docs:     docs,
		runner:   runner,
		jobStore: jobStore,
	}
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), corsMiddleware())

	maxUpload := s.cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	router.MaxMultipartMemory = maxUpload

	router.GET("/health", s.handleHealth)
	router.POST("/analyze-requirement", s.handleAnalyzeSync)

	api := router.Group("/api")
	{
		api.GET("/organizations/:organization_id/documents", s.handleListDocuments)
		api.POST("/organizations/:organization_id/documents", s.handleUploadDocuments)
		api.DELETE("/organizations/:organization_id/documents/:document_name", s.handleDeleteDocument)

		// Legacy form-field upload, kept for existing integrations.
		api.POST("/upload", s.handleLegacyUpload)

		api.POST("/ai", s.handleStartPipeline)
		api.GET("/ai", s.handlePipelineStatus)
	}

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully and waits
// for in-flight background jobs.
func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Port
	if port <= 0 {
		port = defaultPort
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		if s.runner != nil {
			s.runner.Wait()
		}
		return nil
	})

	return g.Wait()
}

// requestLogger logs one line per request with method, path, status, and
// latency.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// corsMiddleware allows all origins; the original deployment fronted the
// service with an identity-aware proxy.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
