// Package server exposes the workbench over HTTP: per-client sessions, the record
// archive, exports, the catalog and policy tracking.
package server

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"policy_workbench/generator"
	"policy_workbench/policy"
	"policy_workbench/store"
)

// Options 构建 Server 所需的依赖与参数。
type Options struct {
	Store    *store.Store
	Policies *policy.Repository
	Agent    generator.Generator
	Catalog  generator.Catalog

	Model           string
	MaxOutputTokens int
	SessionTTL      time.Duration
	CORSOrigins     []string
	FontPath        string
	ServiceName     string

	Logger *zap.Logger
	Now    func() time.Time
}

type Server struct {
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
	sessions *sessionRegistry
	engine   *gin.Engine
}

func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("record store required")
	}
	if opts.Policies == nil {
		return nil, errors.New("policy repository required")
	}
	if opts.Agent == nil {
		return nil, errors.New("generator agent required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "policy-workbench"
	}

	s := &Server{
		opts:     opts,
		logger:   opts.Logger,
		now:      opts.Now,
		sessions: newSessionRegistry(opts.SessionTTL, opts.Logger),
	}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the gin engine as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Close tears down every live session.
func (s *Server) Close() {
	s.sessions.flush()
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(s.opts.ServiceName))
	r.Use(requestLogger(s.logger))
	r.Use(corsMiddleware(s.opts.CORSOrigins))

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	{
		api.GET("/catalog", s.handleCatalog)

		api.POST("/sessions", s.handleSessionCreate)
		api.GET("/sessions/:id", s.handleSessionGet)
		api.DELETE("/sessions/:id", s.handleSessionDelete)
		api.POST("/sessions/:id/generate", s.handleSessionGenerate)
		api.POST("/sessions/:id/load/:record", s.handleSessionLoad)
		api.POST("/sessions/:id/reset", s.handleSessionReset)
		api.POST("/sessions/:id/lock", s.handleSessionLock)
		api.PUT("/sessions/:id/preferences", s.handleSessionPreferences)

		api.GET("/records", s.handleRecordsList)
		api.GET("/records/range", s.handleRecordsRange)
		api.GET("/records/search", s.handleRecordsSearch)
		api.GET("/records/:id", s.handleRecordGet)
		api.GET("/records/:id/views", s.handleRecordViews)
		api.GET("/records/:id/export.pdf", s.handleExportPDF)
		api.GET("/records/:id/export.zip", s.handleExportZIP)
		api.GET("/records/:id/export.html", s.handleExportHTML)
		api.POST("/records/:id/promote", s.handleRecordPromote)

		api.GET("/policies", s.handlePoliciesList)
		api.GET("/policies/:id", s.handlePolicyGet)
		api.GET("/policies/:id/contents", s.handlePolicyContents)
		api.PUT("/policies/:id/status", s.handlePolicyStatus)
		api.PUT("/policies/:id/metrics", s.handlePolicyMetrics)
	}
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Requested-With"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	n, err := s.opts.Store.Count(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "records": n})
}

func (s *Server) handleCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, s.opts.Catalog)
}
