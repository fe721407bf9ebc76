// Package server exposes the review engine over HTTP for editor plugins and
// CI hooks that do not shell out to the CLI.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/revu-dev/revu/internal/config"
	"github.com/revu-dev/revu/internal/orchestrator"
)

// ReviewRequest is the POST /api/v1/review body. Option pointers distinguish
// "absent" from "false"; absent fields fall back to the server defaults.
type ReviewRequest struct {
	Source string `json:"source" binding:"required"`
	// Language forces the pipeline language ("python"), bypassing
	// detection. Empty means auto-detect.
	Language string         `json:"language,omitempty"`
	Options  *ReviewOptions `json:"options,omitempty"`
}

// ReviewOptions mirrors the per-review stage toggles.
type ReviewOptions struct {
	RuntimeProbe     *bool `json:"runtime_probe,omitempty"`
	QuickFix         *bool `json:"quick_fix,omitempty"`
	WarningsAsErrors *bool `json:"warnings_as_errors,omitempty"`
	CaptureWarnings  *bool `json:"capture_warnings,omitempty"`
	AIReview         *bool `json:"ai_review,omitempty"`
}

// Server wraps the orchestrator behind a gin engine with graceful shutdown.
type Server struct {
	cfg      config.ServerConfig
	defaults orchestrator.Options
	orch     *orchestrator.Orchestrator
	engine   *gin.Engine
	logger   *zap.Logger
}

// New builds the server and registers its routes.
func New(cfg *config.Config, orch *orchestrator.Orchestrator, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:      cfg.Server,
		defaults: orchestrator.OptionsFromConfig(cfg.Review),
		orch:     orch,
		engine:   engine,
		logger:   logger.Named("server"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	v1 := s.engine.Group("/api/v1")
	v1.POST("/review", s.handleReview)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReview(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxSourceBytes)

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "source too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	opts := s.defaults
	opts.Language = req.Language
	if o := req.Options; o != nil {
		applyBool(&opts.RuntimeProbe, o.RuntimeProbe)
		applyBool(&opts.QuickFix, o.QuickFix)
		applyBool(&opts.WarningsAsErrors, o.WarningsAsErrors)
		applyBool(&opts.CaptureWarnings, o.CaptureWarnings)
		applyBool(&opts.AIReview, o.AIReview)
	}

	report, err := s.orch.Review(c.Request.Context(), req.Source, opts)
	if err != nil {
		if errors.Is(err, orchestrator.ErrEmptySource) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "source must not be empty"})
			return
		}
		s.logger.Error("review failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
