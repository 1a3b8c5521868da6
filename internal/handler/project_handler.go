package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prakarsa-dev/hcm-api/internal/dto"
	"github.com/prakarsa-dev/hcm-api/internal/models"
	"github.com/prakarsa-dev/hcm-api/internal/service"
	appErrors "github.com/prakarsa-dev/hcm-api/pkg/errors"
	"github.com/prakarsa-dev/hcm-api/pkg/response"
)

// ProjectHandler exposes project endpoints.
type ProjectHandler struct {
	projects *service.ProjectService
}

// NewProjectHandler constructs ProjectHandler.
func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// List godoc
// @Summary List projects
// @Tags Projects
// @Produce json
// @Param search query string false "Search by code or name"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	var filter models.ProjectFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Active = parseBoolQuery(c, "active")
	filter.Page, filter.PageSize = parsePagination(c)

	projects, total, err := h.projects.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projects, pagination(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get project detail
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// Create godoc
// @Summary Create project
// @Tags Projects
// @Accept json
// @Produce json
// @Param payload body dto.CreateProjectRequest true "Project payload"
// @Success 201 {object} response.Envelope
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	project, err := h.projects.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Update godoc
// @Summary Update project
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body dto.UpdateProjectRequest true "Project payload"
// @Success 200 {object} response.Envelope
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	project, err := h.projects.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}
