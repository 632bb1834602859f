package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"MaterialityScanner/internal/domain"
	"MaterialityScanner/internal/jobs"
	"MaterialityScanner/internal/usecase"
)

// Assessments is the pipeline surface exposed over HTTP.
type Assessments interface {
	Start(ctx context.Context, companyID int64, period domain.ReportPeriod) (string, error)
	Status(jobID string) (domain.Job, error)
}

// Handler serves the assessment endpoints.
type Handler struct {
	assessments Assessments
	location    *time.Location
	logger      *slog.Logger
}

// NewHandler creates the API handler; dates in requests are read in loc.
func NewHandler(assessments Assessments, loc *time.Location, logger *slog.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{assessments: assessments, location: loc, logger: logger.With("component", "httpapi")}
}

// NewRouter builds the gin engine with all routes configured.
func NewRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(handler.logger))

	r.GET("/health", handler.Health)

	api := r.Group("/api")
	{
		api.POST("/assessments", handler.StartAssessment)
		api.GET("/assessments/:id", handler.GetStatus)
	}

	return r
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, errorEnvelope{Error: apiError{Message: msg, Code: code}})
}

type startRequest struct {
	CompanyID int64  `json:"companyId" binding:"required"`
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
}

type startResponse struct {
	JobID string `json:"jobId"`
}

// StartAssessment queues a run and answers 202 with the job id.
func (h *Handler) StartAssessment(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	start, err := time.ParseInLocation(time.DateOnly, req.StartDate, h.location)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_start_date", err)
		return
	}
	end, err := time.ParseInLocation(time.DateOnly, req.EndDate, h.location)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_end_date", err)
		return
	}

	id, err := h.assessments.Start(c.Request.Context(), req.CompanyID, domain.ReportPeriod{Start: start, End: end})
	if errors.Is(err, usecase.ErrInvalidPeriod) {
		respondError(c, http.StatusBadRequest, "invalid_period", err)
		return
	}
	if err != nil {
		h.logger.Error("start assessment", "company_id", req.CompanyID, "error", err)
		respondError(c, http.StatusInternalServerError, "internal", err)
		return
	}

	c.JSON(http.StatusAccepted, startResponse{JobID: id})
}

// GetStatus returns the job snapshot.
func (h *Handler) GetStatus(c *gin.Context) {
	job, err := h.assessments.Status(c.Param("id"))
	if errors.Is(err, jobs.ErrJobNotFound) {
		respondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(started))
	}
}
