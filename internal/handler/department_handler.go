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

// DepartmentHandler exposes department endpoints.
type DepartmentHandler struct {
	departments *service.DepartmentService
}

// NewDepartmentHandler constructs DepartmentHandler.
func NewDepartmentHandler(departments *service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departments: departments}
}

// List godoc
// @Summary List departments
// @Tags Departments
// @Produce json
// @Param search query string false "Search by code or name"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *DepartmentHandler) List(c *gin.Context) {
	var filter models.DepartmentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Active = parseBoolQuery(c, "active")
	filter.Page, filter.PageSize = parsePagination(c)

	departments, total, err := h.departments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, pagination(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get department detail
// @Tags Departments
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [get]
func (h *DepartmentHandler) Get(c *gin.Context) {
	department, err := h.departments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// Create godoc
// @Summary Create department
// @Tags Departments
// @Accept json
// @Produce json
// @Param payload body dto.CreateDepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Router /departments [post]
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req dto.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	department, err := h.departments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, department)
}

// Update godoc
// @Summary Update department
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param payload body dto.UpdateDepartmentRequest true "Department payload"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [put]
func (h *DepartmentHandler) Update(c *gin.Context) {
	var req dto.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	department, err := h.departments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}
