// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/usecases"
)

// DegradedWarning accompanies answers that failed the quality gate.
const DegradedWarning = "System detected uncertainty and self-healed in the background."

// Asker runs the request pipeline.
type Asker interface {
	Ask(ctx context.Context, query string) (entities.AskResult, error)
}

// HealingStatus reports the background healing phase.
type HealingStatus interface {
	State() usecases.HealingState
}

// Deps are the collaborators the HTTP surface exposes.
type Deps struct {
	Asker      Asker
	Reingester usecases.Reingester
	Snapshots  *usecases.SnapshotHolder
	Healing    HealingStatus
	Metrics    ports.MetricsSink
	// Exposition serves the Prometheus text format; nil disables the route.
	Exposition http.Handler
	Logger     *slog.Logger
}

// Server is the HTTP server for the ask API, metrics and administration.
type Server struct {
	deps   Deps
	addr   string
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, addr string) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{deps: deps, addr: addr, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("aegis"))
	router.Use(s.loggingMiddleware())

	router.POST("/ask", s.handleAsk)
	router.GET("/metrics", s.handleMetrics)
	if s.deps.Exposition != nil {
		router.GET("/metrics/prometheus", gin.WrapH(s.deps.Exposition))
	}
	router.GET("/health", s.handleHealth)
	router.POST("/admin/reingest", s.handleReingest)
	return router
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:        s.addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// Generation can take a while on local models.
		WriteTimeout: 300 * time.Second,
	}

	s.logger.Info("AegisAI server starting", "addr", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type askRequest struct {
	Query *string `json:"query"`
}

type askResponse struct {
	RequestID  string  `json:"request_id"`
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Warning    string  `json:"warning,omitempty"`
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == nil || strings.TrimSpace(*req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query"})
		return
	}

	result, err := s.deps.Asker.Ask(c.Request.Context(), *req.Query)
	switch {
	case errors.Is(err, usecases.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query"})
		return
	case errors.Is(err, usecases.ErrIndexUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "index unavailable"})
		return
	case err != nil:
		s.logger.Error("ask failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if result.Status == entities.StatusBlocked {
		c.JSON(http.StatusOK, gin.H{"request_id": result.RequestID, "status": string(entities.StatusBlocked)})
		return
	}

	resp := askResponse{
		RequestID:  result.RequestID,
		Answer:     result.Answer,
		Confidence: result.Confidence,
	}
	if result.Degraded {
		resp.Warning = DegradedWarning
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Metrics.Counters())
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.deps.Snapshots.Current()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	body := gin.H{
		"status":      "ok",
		"fingerprint": snap.Fingerprint,
		"snapshot_id": snap.ID,
		"chunks":      snap.Index.Len(),
		"built_at":    snap.BuiltAt,
	}
	if s.deps.Healing != nil {
		body["healing"] = s.deps.Healing.State().String()
	}
	c.JSON(http.StatusOK, body)
}

type reingestRequest struct {
	Force bool `json:"force"`
}

func (s *Server) handleReingest(c *gin.Context) {
	var req reingestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	report, err := s.deps.Reingester.Run(c.Request.Context(), req.Force)
	switch {
	case errors.Is(err, usecases.ErrNoDocumentsFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case err != nil:
		s.logger.Error("manual reingestion failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, report)
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
