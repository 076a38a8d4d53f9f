package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"macrocal/internal/service"
)

type DedupRunner interface {
	Run(ctx context.Context) (service.DedupResult, error)
}

type MaintenanceHandler struct {
	Dedup  DedupRunner
	Logger *zap.Logger
}

type dedupResponse struct {
	Success bool `json:"success"`
	service.DedupResult
	DurationMS int64 `json:"duration_ms"`
}

func (h *MaintenanceHandler) Register(r *gin.Engine) {
	r.POST("/api/maintenance/dedup-indicators", h.dedupIndicators)
}

// @Summary Merge duplicate indicators
// @Tags maintenance
// @Produce json
// @Success 200 {object} dedupResponse
// @Failure 500 {object} errorResponse
// @Router /api/maintenance/dedup-indicators [post]
func (h *MaintenanceHandler) dedupIndicators(c *gin.Context) {
	if h.Dedup == nil {
		TriggerError(c, http.StatusInternalServerError, errors.New("service unavailable"))
		return
	}
	started := time.Now()
	res, err := h.Dedup.Run(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("dedup failed", zap.Error(err))
		}
		TriggerError(c, http.StatusInternalServerError, err)
		return
	}
	Trigger(c, dedupResponse{Success: true, DedupResult: res, DurationMS: time.Since(started).Milliseconds()})
}
