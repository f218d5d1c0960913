// Package ui exposes the dashboard pipeline over HTTP. The handlers are a
// thin translation layer: multipart uploads in, JSON tables and KPIs out.
// Rendering happens client-side; this server only serves the normalized data.
package ui

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"eformboard/adapters/tabular"
	"eformboard/app"
)

// Server represents the web server for the e-form dashboard API
type Server struct {
	router         *gin.Engine
	service        *app.DashboardService
	reader         *tabular.Reader
	maxUploadBytes int64
}

// NewServer creates a new web server instance
func NewServer(service *app.DashboardService, reader *tabular.Reader, maxUploadBytes int64) *Server {
	s := &Server{
		router:         gin.Default(),
		service:        service,
		reader:         reader,
		maxUploadBytes: maxUploadBytes,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.MaxMultipartMemory = s.maxUploadBytes

	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.POST("/sheets", s.handleSheets)
		api.POST("/upload", s.handleUpload)

		sessions := api.Group("/sessions/:id")
		{
			sessions.GET("/table", s.handleTable)
			sessions.GET("/config", s.handleConfig)
			sessions.GET("/diagnostics", s.handleDiagnostics)
			sessions.GET("/kpis", s.handleKPIs)
			sessions.GET("/summary/vessels", s.handleVesselSummaries)
			sessions.GET("/summary/jobs", s.handleJobSummaries)
			sessions.GET("/cross", s.handleCrossAnalysis)
			sessions.GET("/performance", s.handlePerformance)
			sessions.GET("/columns", s.handleColumnInfos)
			sessions.POST("/filter", s.handleFilter)
		}
	}
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until the context is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("[Server] Listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Printf("[Server] Shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
