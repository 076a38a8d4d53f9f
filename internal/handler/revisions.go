package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"macrocal/internal/models"
	"macrocal/internal/repository"
	"macrocal/internal/service"
)

type RevisionRunner interface {
	RunOnce(ctx context.Context) (service.RevisionResult, error)
	Observe(ctx context.Context, releaseID, value string) (*models.Release, service.RevisionOutcome, error)
}

type RevisionHandler struct {
	Tracker RevisionRunner
	Logger  *zap.Logger
}

type revisionImportResponse struct {
	Success           bool  `json:"success"`
	ReleasesChecked   int   `json:"releases_checked"`
	ReleasesUpdated   int   `json:"releases_updated"`
	RevisionsAppended int   `json:"revisions_appended"`
	SkippedUnmapped   int   `json:"skipped_unmapped"`
	ErrorsCount       int   `json:"errors_count"`
	DurationMS        int64 `json:"duration_ms"`
}

type observeRequest struct {
	Value string `json:"value"`
}

type observeResponse struct {
	Success bool            `json:"success"`
	Outcome string          `json:"outcome"`
	Release *models.Release `json:"release"`
}

func (h *RevisionHandler) Register(r *gin.Engine) {
	r.POST("/api/revisions/import", h.importActuals)
	r.POST("/api/releases/:id/actual", h.observe)
}

// @Summary Import published actuals
// @Description Fetches actual values for due releases from the statistics APIs.
// @Tags revisions
// @Produce json
// @Success 200 {object} revisionImportResponse
// @Failure 500 {object} errorResponse
// @Router /api/revisions/import [post]
func (h *RevisionHandler) importActuals(c *gin.Context) {
	if h.Tracker == nil {
		TriggerError(c, http.StatusInternalServerError, errors.New("service unavailable"))
		return
	}
	started := time.Now()
	res, err := h.Tracker.RunOnce(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("revision import failed", zap.Error(err))
		}
		TriggerError(c, http.StatusInternalServerError, err)
		return
	}
	Trigger(c, revisionImportResponse{
		Success:           true,
		ReleasesChecked:   res.Checked,
		ReleasesUpdated:   res.Set + res.Revised,
		RevisionsAppended: res.Revised,
		SkippedUnmapped:   res.Unmapped,
		ErrorsCount:       len(res.Errors),
		DurationMS:        time.Since(started).Milliseconds(),
	})
}

// @Summary Apply an observed actual value
// @Tags revisions
// @Accept json
// @Produce json
// @Param id path string true "release id"
// @Param body body observeRequest true "observed value"
// @Success 200 {object} observeResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /api/releases/{id}/actual [post]
func (h *RevisionHandler) observe(c *gin.Context) {
	if h.Tracker == nil {
		TriggerError(c, http.StatusInternalServerError, errors.New("service unavailable"))
		return
	}
	var req observeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		TriggerError(c, http.StatusBadRequest, err)
		return
	}
	value := strings.TrimSpace(req.Value)
	if value == "" {
		TriggerError(c, http.StatusBadRequest, errors.New("value is required"))
		return
	}
	rel, outcome, err := h.Tracker.Observe(c.Request.Context(), c.Param("id"), value)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrNotFound) {
			status = http.StatusNotFound
		}
		TriggerError(c, status, err)
		return
	}
	Trigger(c, observeResponse{Success: true, Outcome: string(outcome), Release: rel})
}
