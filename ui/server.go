// Package ui serves the trial workflow over HTTP. Every user action is a
// synchronous POST against the session state machine followed by a
// redirect back to the trial view; there is no hidden control flow.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vinvit-2/exp-ai-account/catalog"
	"github.com/vinvit-2/exp-ai-account/internal/config"
	"github.com/vinvit-2/exp-ai-account/internal/metrics"
	"github.com/vinvit-2/exp-ai-account/telemetry"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// Server hosts the experiment web UI.
type Server struct {
	router     *gin.Engine
	templates  *template.Template
	candidates []catalog.Candidate
	cfg        *config.Config
	sink       telemetry.Sink
	sessions   *Registry
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewServer wires the UI against a validated catalog and a telemetry sink.
func NewServer(cfg *config.Config, candidates []catalog.Candidate, sink telemetry.Sink, logger *zap.Logger) (*Server, error) {
	gin.SetMode(cfg.Server.GinMode)

	funcMap := template.FuncMap{
		"add":   func(a, b int) int { return a + b },
		"upper": strings.ToUpper,
		"minutes": func(v float64) string {
			return fmt.Sprintf("%.1f", v)
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:     gin.New(),
		templates:  templates,
		candidates: candidates,
		cfg:        cfg,
		sink:       sink,
		sessions:   NewRegistry(),
		logger:     logger,
		metrics:    metrics.NewMetrics(),
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleTrial)
	s.router.POST("/decision", s.handleDecision)
	s.router.POST("/justification", s.handleJustification)
	s.router.POST("/details/open", s.handleDetailsOpen)
	s.router.POST("/details/close", s.handleDetailsClose)
	s.router.POST("/advance", s.handleAdvance)
	s.router.POST("/flag", s.handleFlag)

	s.router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler exposes the router for tests and for custom http.Server wiring.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server on addr and blocks.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting hiring task UI", zap.String("addr", addr))
	return s.router.Run(addr)
}

func (s *Server) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := s.templates.ExecuteTemplate(c.Writer, templateName, data); err != nil {
		s.logger.Error("template error", zap.String("template", templateName), zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}
