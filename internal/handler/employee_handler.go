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

// EmployeeHandler exposes employee directory endpoints.
type EmployeeHandler struct {
	employees *service.EmployeeService
}

// NewEmployeeHandler constructs EmployeeHandler.
func NewEmployeeHandler(employees *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

// List godoc
// @Summary List employees
// @Tags Employees
// @Produce json
// @Param search query string false "Search by name, NIK or email"
// @Param departmentId query string false "Filter by department"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	var filter models.EmployeeFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.DepartmentID = optionalQuery(c, "departmentId")
	filter.Active = parseBoolQuery(c, "active")
	filter.Page, filter.PageSize = parsePagination(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	employees, total, err := h.employees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employees, pagination(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get employee detail
// @Tags Employees
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id} [get]
func (h *EmployeeHandler) Get(c *gin.Context) {
	employee, err := h.employees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Create godoc
// @Summary Create employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param payload body dto.CreateEmployeeRequest true "Employee payload"
// @Success 201 {object} response.Envelope
// @Router /employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	employee, err := h.employees.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, employee)
}

// Update godoc
// @Summary Update employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body dto.UpdateEmployeeRequest true "Employee payload"
// @Success 200 {object} response.Envelope
// @Router /employees/{id} [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
	var req dto.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	employee, err := h.employees.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Delete godoc
// @Summary Deactivate employee
// @Tags Employees
// @Produce json
// @Param id path string true "Employee ID"
// @Success 204
// @Router /employees/{id} [delete]
func (h *EmployeeHandler) Delete(c *gin.Context) {
	if err := h.employees.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
