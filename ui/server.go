package ui

import (
	"context"
	"net/http"
	"time"

	"npdstudio/app"
	"npdstudio/domain/core"
	"npdstudio/internal"
	"npdstudio/internal/api"
	"npdstudio/ui/middleware"

	"github.com/gin-gonic/gin"
)

// DefaultWorkspace is used by requests that name no workspace
const DefaultWorkspace core.WorkspaceID = "default"

// Options configures the HTTP server
type Options struct {
	MaxUploadBytes int64
	GinMode        string
}

// Server serves the dashboard API
type Server struct {
	router         *gin.Engine
	httpServer     *http.Server
	studio         *app.StudioService
	hub            *api.SSEHub
	logger         *internal.Logger
	maxUploadBytes int64
}

// NewServer creates the server and registers every route
func NewServer(studio *app.StudioService, hub *api.SSEHub, logger *internal.Logger, opts Options) *Server {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	s := &Server{
		router:         gin.New(),
		studio:         studio,
		hub:            hub,
		logger:         logger,
		maxUploadBytes: opts.MaxUploadBytes,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	apiGroup := s.router.Group("/api", middleware.ResolveWorkspace(DefaultWorkspace))
	{
		apiGroup.GET("/options", s.handleOptions)
		apiGroup.GET("/workspace", s.handleGetWorkspace)
		apiGroup.GET("/workspace/selection", s.handleGetSelection)
		apiGroup.PUT("/workspace/selection", s.handleUpdateSelection)

		apiGroup.GET("/forms", s.handleListForms)
		apiGroup.POST("/forms", s.handleCreateForm)
		apiGroup.POST("/forms/submit", s.handleSubmitForms)
		apiGroup.GET("/forms/:id", s.handleGetForm)
		apiGroup.PUT("/forms/:id", s.handleUpdateForm)
		apiGroup.DELETE("/forms/:id", s.handleDeleteForm)
		apiGroup.POST("/forms/:id/clone", s.handleCloneForm)
		apiGroup.POST("/forms/:id/minimize", s.handleToggleMinimized)

		apiGroup.POST("/forms/:id/distribution", s.handleUploadDistribution)
		apiGroup.GET("/forms/:id/distribution", s.handleGetDistribution)

		apiGroup.GET("/forms/:id/output", s.handleGetOutput)
		apiGroup.GET("/forms/:id/charts/:chart", s.handleChart)
		apiGroup.GET("/forms/:id/report", s.handleReportHTML)
		apiGroup.GET("/forms/:id/report.xlsx", s.handleReportWorkbook)

		apiGroup.POST("/assistant/query", s.handleAssistantQuery)
		apiGroup.GET("/events", s.handleEvents)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("[Server] Listening on %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"active_workspaces": len(s.hub.GetActiveWorkspaces()),
	})
}
