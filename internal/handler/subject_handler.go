package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/subject-catalog-api/internal/catalog"
	"github.com/noah-isme/subject-catalog-api/internal/middleware"
	"github.com/noah-isme/subject-catalog-api/internal/models"
	"github.com/noah-isme/subject-catalog-api/internal/service"
	appErrors "github.com/noah-isme/subject-catalog-api/pkg/errors"
	"github.com/noah-isme/subject-catalog-api/pkg/response"
)

type subjectService interface {
	Browse(ctx context.Context, req service.BrowseRequest) (*service.BrowseResult, error)
	Get(ctx context.Context, id string) (*service.SubjectDetail, error)
	Create(ctx context.Context, draft models.SubjectDraft) (*service.CreateResult, error)
	Update(ctx context.Context, id string, patch models.SubjectPatch) (*models.Subject, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]models.Subject, error)
}

type subjectExporter interface {
	Export(ctx context.Context, query catalog.Query, format string) (*service.ExportFile, error)
}

// SubjectHandler handles subject endpoints.
type SubjectHandler struct {
	service     subjectService
	exporter    subjectExporter
	catalogRoot string
}

// NewSubjectHandler constructs a subject handler. Detail requests for
// unknown subjects are redirected to catalogRoot.
func NewSubjectHandler(svc subjectService, exporter subjectExporter, catalogRoot string) *SubjectHandler {
	return &SubjectHandler{service: svc, exporter: exporter, catalogRoot: catalogRoot}
}

// List godoc
// @Summary Browse the subject catalog
// @Description Filters by category (ALL subjects always match) and by search text over name and description.
// @Tags Subjects
// @Produce json
// @Param search query string false "Search text"
// @Param category query string false "CS, IT, IS or ALL"
// @Param page query int false "Page"
// @Param limit query int false "Page size, 0 returns every match"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	query, err := queryFromRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	req := service.BrowseRequest{Query: query}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "0")); err == nil {
		req.PageSize = limit
	}

	result, err := h.service.Browse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "source", result.Source)
	middleware.SetMeta(c, "version", result.Version)
	middleware.SetMeta(c, "advisory", result.Advisory)
	response.JSON(c, http.StatusOK, result.Subjects, result.Pagination, middleware.ExtractMeta(c))
}

// Search godoc
// @Summary Search subjects in the document store
// @Tags Subjects
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subjects/search [get]
func (h *SubjectHandler) Search(c *gin.Context) {
	subjects, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// Export godoc
// @Summary Export the visible subjects
// @Tags Subjects
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param search query string false "Search text"
// @Param category query string false "CS, IT, IS or ALL"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /subjects/export [get]
func (h *SubjectHandler) Export(c *gin.Context) {
	query, err := queryFromRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), query, c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Get godoc
// @Summary Get subject detail with related subjects
// @Description Unknown identifiers redirect to the catalog listing.
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Success 302
// @Router /subjects/{id} [get]
func (h *SubjectHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if appErrors.IsCode(err, appErrors.ErrNotFound.Code) {
			c.Redirect(http.StatusFound, h.catalogRoot)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create subject
// @Description Requires admin mode. A subject the store refused is returned with persisted=false and an advisory.
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body models.SubjectDraft true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	var draft models.SubjectDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "persisted", result.Persisted)
	middleware.SetMeta(c, "advisory", result.Advisory)
	response.Created(c, result.Subject, middleware.ExtractMeta(c))
}

// Update godoc
// @Summary Update subject fields
// @Description Requires admin mode. Only the fields present in the payload change.
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body models.SubjectPatch true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /subjects/{id} [patch]
func (h *SubjectHandler) Update(c *gin.Context) {
	var patch models.SubjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Delete godoc
// @Summary Delete subject
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /subjects/{id} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func queryFromRequest(c *gin.Context) (catalog.Query, error) {
	category, ok := models.ParseCategory(c.Query("category"))
	if !ok {
		return catalog.Query{}, appErrors.Clone(appErrors.ErrValidation, "category must be one of CS, IT, IS, ALL")
	}
	return catalog.Query{Search: c.Query("search"), Category: category}, nil
}
