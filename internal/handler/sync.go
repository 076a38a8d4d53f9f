package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"macrocal/internal/normalize"
	"macrocal/internal/service"
)

type SyncRunner interface {
	Run(ctx context.Context) (service.RunResult, error)
	RunSource(ctx context.Context, name string) (service.RunResult, error)
}

type SyncHandler struct {
	Orchestrator SyncRunner
	Logger       *zap.Logger
}

type syncResponse struct {
	Success          bool               `json:"success"`
	Status           string             `json:"status"`
	Source           string             `json:"source"`
	Fallback         bool               `json:"fallback"`
	ReleasesFound    int                `json:"releases_found"`
	ReleasesInserted int                `json:"releases_inserted"`
	ReleasesSkipped  int                `json:"releases_skipped"`
	ErrorsCount      int                `json:"errors_count"`
	DurationMS       int64              `json:"duration_ms"`
	Sample           []normalize.Record `json:"sample,omitempty"`
}

func (h *SyncHandler) Register(r *gin.Engine) {
	group := r.Group("/api/sync")
	group.POST("", h.syncAll)
	group.POST("/:source", h.syncSource)
}

// @Summary Sync the release calendar
// @Description Tries enabled sources in priority order until one produces a result.
// @Tags sync
// @Produce json
// @Success 200 {object} syncResponse
// @Failure 502 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/sync [post]
func (h *SyncHandler) syncAll(c *gin.Context) {
	if h.Orchestrator == nil {
		TriggerError(c, http.StatusInternalServerError, errors.New("service unavailable"))
		return
	}
	res, err := h.Orchestrator.Run(c.Request.Context())
	h.respond(c, "", res, err)
}

// @Summary Sync a single source
// @Tags sync
// @Produce json
// @Param source path string true "source name"
// @Success 200 {object} syncResponse
// @Failure 404 {object} errorResponse
// @Failure 502 {object} errorResponse
// @Router /api/sync/{source} [post]
func (h *SyncHandler) syncSource(c *gin.Context) {
	if h.Orchestrator == nil {
		TriggerError(c, http.StatusInternalServerError, errors.New("service unavailable"))
		return
	}
	name := c.Param("source")
	res, err := h.Orchestrator.RunSource(c.Request.Context(), name)
	h.respond(c, name, res, err)
}

func (h *SyncHandler) respond(c *gin.Context, source string, res service.RunResult, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrUnknownSource):
			status = http.StatusNotFound
		case errors.Is(err, service.ErrAllSourcesFailed):
			status = http.StatusBadGateway
		}
		if h.Logger != nil {
			h.Logger.Warn("sync failed", zap.String("source", source), zap.Int("status", status), zap.Error(err))
		}
		TriggerError(c, status, err)
		return
	}
	Trigger(c, syncResponse{
		Success:          res.Success,
		Status:           res.Status,
		Source:           res.Source,
		Fallback:         res.Fallback,
		ReleasesFound:    res.ReleasesFound,
		ReleasesInserted: res.ReleasesInserted,
		ReleasesSkipped:  res.ReleasesSkipped,
		ErrorsCount:      res.ErrorsCount,
		DurationMS:       res.DurationMS,
		Sample:           res.Sample,
	})
}
