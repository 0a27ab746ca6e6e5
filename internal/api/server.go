// Package api exposes completed runs and the scaling study over a
// JSON HTTP surface.
package api

import (
	"net/http"

	"qics/app"
	"qics/domain/core"
	"qics/domain/scaling"
	"qics/internal"
	"qics/internal/errors"
	"qics/internal/report"
	"qics/ports"

	"github.com/gin-gonic/gin"
)

// Server wires repository reads and on-demand scaling fits into a gin
// engine.
type Server struct {
	engine  *gin.Engine
	repo    ports.ResultRepository
	scaling *app.ScalingService
	logger  *internal.Logger
}

// NewServer builds the router. Mode should be one of gin's release,
// test or debug modes.
func NewServer(repo ports.ResultRepository, scaling *app.ScalingService, mode string) *Server {
	gin.SetMode(mode)

	s := &Server{
		engine:  gin.New(),
		repo:    repo,
		scaling: scaling,
		logger:  internal.NewDefaultLogger().Named("api"),
	}

	s.engine.Use(gin.Recovery())
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves on the given port until the listener fails.
func (s *Server) Start(port string) error {
	s.logger.Info("listening on :%s", port)
	return s.engine.Run(":" + port)
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
	api.GET("/runs/:id/galaxies", s.handleListGalaxies)
	api.GET("/runs/:id/report", s.handleReport)
	api.POST("/scaling/fit", s.handleScalingFit)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": internal.Version})
}

func (s *Server) handleListRuns(c *gin.Context) {
	runs, err := s.repo.ListRuns(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleGetRun(c *gin.Context) {
	manifest, err := s.repo.GetRun(c.Request.Context(), core.RunID(c.Param("id")))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, manifest)
}

func (s *Server) handleListGalaxies(c *gin.Context) {
	results, err := s.repo.ListGalaxyResults(c.Request.Context(), core.RunID(c.Param("id")))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"galaxies": results})
}

func (s *Server) handleReport(c *gin.Context) {
	ctx := c.Request.Context()
	runID := core.RunID(c.Param("id"))

	manifest, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		s.fail(c, err)
		return
	}
	results, err := s.repo.ListGalaxyResults(ctx, runID)
	if err != nil {
		s.fail(c, err)
		return
	}

	// A run without a stored study still gets a report.
	study, err := s.repo.GetScalingStudy(ctx, runID)
	if err != nil && errors.GetCode(err) != errors.CodeNotFound {
		s.fail(c, err)
		return
	}

	markdown := report.Render(report.Input{Manifest: manifest, Results: results, Study: study})
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(markdown))
}

// scalingFitRequest carries the aggregate rows for an ad-hoc study.
type scalingFitRequest struct {
	Points []scaling.Point `json:"points" binding:"required"`
}

func (s *Server) handleScalingFit(c *gin.Context) {
	var req scalingFitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	study, err := s.scaling.RunStudy(c.Request.Context(), req.Points)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, study)
}

func (s *Server) fail(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeInsufficientSamples, errors.CodeEmptyDataset, errors.CodeInvalidInput:
		status = http.StatusUnprocessableEntity
	}
	s.logger.Error("request failed: %v", err)
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
