package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/subject-catalog-api/internal/catalog"
	"github.com/noah-isme/subject-catalog-api/pkg/response"
)

type refreshTrigger interface {
	Trigger(reason string) (string, error)
}

// CatalogHandler exposes catalog maintenance endpoints.
type CatalogHandler struct {
	engine  *catalog.Engine
	trigger refreshTrigger
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(engine *catalog.Engine, trigger refreshTrigger) *CatalogHandler {
	return &CatalogHandler{engine: engine, trigger: trigger}
}

// Status godoc
// @Summary Catalog status
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *CatalogHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"loaded":  h.engine.Loaded(),
		"source":  h.engine.Source(),
		"version": h.engine.Version(),
		"size":    h.engine.Len(),
	}, nil)
}

// Refresh godoc
// @Summary Queue a catalog refresh
// @Description Requires admin mode. A refresh already waiting absorbs the request.
// @Tags Catalog
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /catalog/refresh [post]
func (h *CatalogHandler) Refresh(c *gin.Context) {
	jobID, err := h.trigger.Trigger("admin")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"job_id": jobID, "queued": jobID != ""})
}
