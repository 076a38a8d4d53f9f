package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"macrocal/internal/repository"
)

// CatalogHandler serves read-only views of indicators, releases, sync logs and data sources.
type CatalogHandler struct {
	Store  repository.Repository
	Logger *zap.Logger
}

func (h *CatalogHandler) Register(r *gin.Engine) {
	group := r.Group("/api")
	group.GET("/indicators", h.listIndicators)
	group.GET("/releases", h.listReleases)
	group.GET("/sync-logs", h.listSyncLogs)
	group.GET("/data-sources", h.listDataSources)
}

// @Summary List indicators
// @Tags catalog
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Param country_code query string false "currency code, e.g. USD"
// @Param category query string false "category"
// @Param impact query string false "low|medium|high"
// @Param name query string false "name substring"
// @Param order_by query string false "created_at|name|country_code|category|impact"
// @Param asc query bool false "ascending"
// @Success 200 {object} apiResponse
// @Router /api/indicators [get]
func (h *CatalogHandler) listIndicators(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	params := repository.ListIndicatorsParams{
		Limit:       intQuery(c, "limit", 100),
		Offset:      intQuery(c, "offset", 0),
		CountryCode: strQueryPtr(c, "country_code"),
		Category:    strQueryPtr(c, "category"),
		Impact:      strQueryPtr(c, "impact"),
		Name:        strQueryPtr(c, "name"),
		OrderBy: parseOrder(c.Query("order_by"), map[string]string{
			"created_at":   "created_at",
			"name":         "name",
			"country_code": "country_code",
			"category":     "category",
			"impact":       "impact",
		}),
		Asc: boolQueryPtr(c, "asc"),
	}
	items, err := h.Store.ListIndicators(c.Request.Context(), params)
	if err != nil {
		h.fail(c, "list indicators failed", err)
		return
	}
	total, err := h.Store.CountIndicators(c.Request.Context(), params)
	if err != nil {
		h.fail(c, "count indicators failed", err)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

// @Summary List releases
// @Tags catalog
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Param indicator_id query string false "indicator id"
// @Param from query string false "release_at lower bound (RFC 3339 or YYYY-MM-DD)"
// @Param to query string false "release_at upper bound (RFC 3339 or YYYY-MM-DD)"
// @Param has_actual query bool false "only releases with (or without) a published actual"
// @Param order_by query string false "release_at|created_at|updated_at"
// @Param asc query bool false "ascending"
// @Success 200 {object} apiResponse
// @Router /api/releases [get]
func (h *CatalogHandler) listReleases(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	params := repository.ListReleasesParams{
		Limit:       intQuery(c, "limit", 100),
		Offset:      intQuery(c, "offset", 0),
		IndicatorID: strQueryPtr(c, "indicator_id"),
		From:        timeQueryPtr(c, "from"),
		To:          timeQueryPtr(c, "to"),
		HasActual:   boolQueryPtr(c, "has_actual"),
		OrderBy: parseOrder(c.Query("order_by"), map[string]string{
			"release_at": "release_at",
			"created_at": "created_at",
			"updated_at": "updated_at",
		}),
		Asc: boolQueryPtr(c, "asc"),
	}
	items, err := h.Store.ListReleases(c.Request.Context(), params)
	if err != nil {
		h.fail(c, "list releases failed", err)
		return
	}
	total, err := h.Store.CountReleases(c.Request.Context(), params)
	if err != nil {
		h.fail(c, "count releases failed", err)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

// @Summary List sync logs
// @Tags catalog
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Param data_source_id query string false "data source id"
// @Param status query string false "success|partial|failed"
// @Success 200 {object} apiResponse
// @Router /api/sync-logs [get]
func (h *CatalogHandler) listSyncLogs(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	items, err := h.Store.ListSyncLogs(c.Request.Context(), repository.ListSyncLogsParams{
		Limit:        intQuery(c, "limit", 50),
		Offset:       intQuery(c, "offset", 0),
		DataSourceID: strQueryPtr(c, "data_source_id"),
		Status:       strQueryPtr(c, "status"),
	})
	if err != nil {
		h.fail(c, "list sync logs failed", err)
		return
	}
	Ok(c, items, nil)
}

// @Summary List data sources
// @Tags catalog
// @Param enabled query bool false "only enabled sources"
// @Success 200 {object} apiResponse
// @Router /api/data-sources [get]
func (h *CatalogHandler) listDataSources(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	enabledOnly := false
	if v := boolQueryPtr(c, "enabled"); v != nil {
		enabledOnly = *v
	}
	items, err := h.Store.ListDataSources(c.Request.Context(), enabledOnly)
	if err != nil {
		h.fail(c, "list data sources failed", err)
		return
	}
	Ok(c, items, nil)
}

func (h *CatalogHandler) fail(c *gin.Context, msg string, err error) {
	if h.Logger != nil {
		h.Logger.Warn(msg, zap.Error(err))
	}
	Error(c, http.StatusBadGateway, err.Error(), nil)
}
